package sonic

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	MicrosecondsPerInch = 148.0

	settle       = 2 * time.Microsecond
	triggerPulse = 10 * time.Microsecond
	echoTimeout  = 30 * time.Millisecond
	samplePeriod = 60 * time.Millisecond

	filterSize = 3
)

var ErrNoEcho = errors.New("no echo")

type Pin interface {
	High()
	Low()
	Read() rpio.State
}

// Sensor is an HC-SR04 style ultrasonic range finder. rpio must already be open.
type Sensor struct {
	trigger Pin
	echo    Pin

	lock    sync.RWMutex
	window  []float64
	inches  float64
	samples uint64
	misses  uint64
}

func New(triggerPin, echoPin int) *Sensor {
	trigger := rpio.Pin(triggerPin)
	trigger.Output()
	trigger.Low()

	echo := rpio.Pin(echoPin)
	echo.Input()
	echo.PullDown()

	return newSensor(trigger, echo)
}

func newSensor(trigger, echo Pin) *Sensor {
	return &Sensor{
		trigger: trigger,
		echo:    echo,
		window:  make([]float64, 0, filterSize),
	}
}

// Range is the median of the last few readings in inches.
func (s *Sensor) Range() float64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.inches
}

func (s *Sensor) Stats() (samples, misses uint64) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.samples, s.misses
}

func (s *Sensor) Start(ctx context.Context) error {
	log.Info().Msg("starting ultrasonic range finder")
	ticker := time.NewTicker(samplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("stopping ultrasonic range finder: %s", ctx.Err().Error())
			return ctx.Err()
		case <-ticker.C:
			pulse, err := s.measure()
			if err != nil {
				s.lock.Lock()
				s.misses++
				s.lock.Unlock()
				log.Debug().Msgf("range reading dropped: %s", err.Error())
				continue
			}
			s.record(PulseToInches(pulse))
		}
	}
}

func (s *Sensor) measure() (time.Duration, error) {
	s.trigger.Low()
	time.Sleep(settle)
	s.trigger.High()
	time.Sleep(triggerPulse)
	s.trigger.Low()

	deadline := time.Now().Add(echoTimeout)
	for s.echo.Read() == rpio.Low {
		if time.Now().After(deadline) {
			return 0, ErrNoEcho
		}
	}

	start := time.Now()
	for s.echo.Read() == rpio.High {
		if time.Since(start) > echoTimeout {
			return 0, ErrNoEcho
		}
	}
	return time.Since(start), nil
}

func (s *Sensor) record(inches float64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.window) == filterSize {
		s.window = s.window[1:]
	}
	s.window = append(s.window, inches)
	s.inches = median(s.window)
	s.samples++
}

func PulseToInches(pulse time.Duration) float64 {
	return float64(pulse.Microseconds()) / MicrosecondsPerInch
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
