package gpio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/stianeikeland/go-rpio/v4"
)

// Driver owns the rpio memory mapping shared by every digital pin user.
type Driver struct {
	lock   sync.Mutex
	opened bool
}

func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) Init() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.opened {
		return nil
	}

	err := rpio.Open()
	if err != nil {
		return fmt.Errorf("failed opening rpio: %w", err)
	}
	d.opened = true
	return nil
}

func (d *Driver) Stop() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.opened {
		return nil
	}

	err := rpio.Close()
	if err != nil {
		return fmt.Errorf("failed closing rpio: %w", err)
	}
	d.opened = false
	return nil
}

// Solenoid returns a single acting solenoid on pin. The valve starts closed.
func (d *Driver) Solenoid(name string, pin int) (*Solenoid, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.opened {
		return nil, fmt.Errorf("solenoid %s: rpio not open", name)
	}

	p := rpio.Pin(pin)
	p.Output()
	p.Low()
	log.Info().Msgf("solenoid added: %s on pin %d", name, pin)
	return newSolenoid(name, p), nil
}

type output interface {
	High()
	Low()
}

type Solenoid struct {
	name  string
	pin   output
	lock  sync.Mutex
	state bool
}

func newSolenoid(name string, pin output) *Solenoid {
	return &Solenoid{
		name: name,
		pin:  pin,
	}
}

func (s *Solenoid) Set(on bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if on {
		s.pin.High()
	} else {
		s.pin.Low()
	}
	s.state = on
	return nil
}

func (s *Solenoid) Get() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}
