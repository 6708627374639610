package vehicle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Team6378/frc-2015/internal/models"
	"github.com/prometheus/procfs"
	"github.com/rs/zerolog/log"
)

const (
	saftyTime  = 200 * time.Millisecond
	maxLatency = 200 // ms between consecutive commands
)

type SeatParser[T any] func(oldCommand, newCommand models.ControlState, state T) T

type SeatCenterer[T any] func(state T) T

type HudUpdater[T any] func(state T, netInfo procfs.NetDevLine) models.Hud

// VehicleSeat turns the command stream of one seat into state changes. A seat
// that has not heard from its client within the safety time is centered.
type VehicleSeat[T any] struct {
	lock sync.RWMutex
	seat *models.Seat

	seatCenterer      SeatCenterer[T]
	seatCommandParser SeatParser[T]
	hudUpdater        HudUpdater[T]

	seatType string
	active   bool

	buttonMasks []uint32

	nextCommand     models.ControlState
	lastCommand     models.ControlState
	lastCommandTime time.Time
}

func NewVehicleSeat[T any](seat *models.Seat, seatType string, parser SeatParser[T], centerer SeatCenterer[T], hudUpdater HudUpdater[T]) *VehicleSeat[T] {
	return &VehicleSeat[T]{
		seat:              seat,
		seatCommandParser: parser,
		seatCenterer:      centerer,
		hudUpdater:        hudUpdater,
		seatType:          seatType,
		active:            false,
		buttonMasks:       BuildButtonMasks(),
	}
}

func (c *VehicleSeat[T]) Init() error {
	return nil
}

func (c *VehicleSeat[T]) Start(ctx context.Context) error {
	log.Info().Msgf("starting %s seat", c.seatType)

	saftyTicker := time.NewTicker(saftyTime)
	defer saftyTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("stopping %s seat state syncer: %s", c.seatType, ctx.Err().Error())
			return ctx.Err()
		case now := <-saftyTicker.C:
			c.expire(now)
		case command, ok := <-c.seat.CommandChannel:
			if !ok {
				return fmt.Errorf("%s seat command channel closed", c.seatType)
			}
			c.receive(command, time.Now())
		}
	}
}

func (c *VehicleSeat[T]) receive(command models.ControlState, now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.nextCommand.TimeStamp == 0 {
		c.nextCommand = command
	}

	if command.TimeStamp >= c.nextCommand.TimeStamp {
		c.nextCommand = command
		c.lastCommandTime = now
		if !c.active {
			log.Info().Msgf("%s seat active", c.seatType)
		}
		c.active = true
	}
}

func (c *VehicleSeat[T]) expire(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.active && now.Sub(c.lastCommandTime) > saftyTime {
		log.Warn().Msgf("setting %s seat inactive due to time since last command", c.seatType)
		c.active = false
	}
}

func (c *VehicleSeat[T]) Active() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.active
}

// ApplyCommand runs the newest command against state, or centers state when the
// seat is inactive.
func (c *VehicleSeat[T]) ApplyCommand(state T) T {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.active {
		return c.seatCenterer(state)
	}

	c.nextCommand.Buttons = ParseButtons(c.nextCommand.BitButton, c.buttonMasks)
	if c.lastCommand.TimeStamp == 0 {
		log.Debug().Msgf("%s seat skipping first command", c.seatType)
		c.lastCommand = c.nextCommand
		return state
	}

	if c.nextCommand.TimeStamp-c.lastCommand.TimeStamp > maxLatency {
		log.Debug().Msgf("%s seat skipping command due to latency", c.seatType)
		c.lastCommand = c.nextCommand
		return state
	}

	newState := c.seatCommandParser(c.lastCommand, c.nextCommand, state)
	c.lastCommand = c.nextCommand
	return newState
}

func (c *VehicleSeat[T]) UpdateHud(state T, netInfo procfs.NetDevLine) {
	if !c.Active() {
		return
	}

	select {
	case c.seat.HudChannel <- c.hudUpdater(state, netInfo):
	default:
		log.Debug().Msgf("%s seat hud channel full, skipping", c.seatType)
	}
}

func NewPress(oldState, newState models.ControlState, buttonIndex int, f func()) (bool, error) {
	if len(newState.Buttons) != len(oldState.Buttons) {
		return false, fmt.Errorf("length of buttons states mismatched")
	}

	if buttonIndex < 0 || buttonIndex >= len(oldState.Buttons) {
		return false, fmt.Errorf("buttonIndex out of bounds - buttonIndex: %d maxIndex: %d", buttonIndex, len(oldState.Buttons))
	}

	if newState.Buttons[buttonIndex] && !oldState.Buttons[buttonIndex] {
		f()
		return true, nil
	}
	return false, nil
}
