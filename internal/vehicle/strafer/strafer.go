package strafer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Team6378/frc-2015/internal/auto"
	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/drive"
	"github.com/Team6378/frc-2015/internal/models"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/prometheus/procfs"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func NewStrafer(cfg config.Config, train *drive.DriveTrain, factory *auto.Factory, commandDriver vehicle.CommandDriverIFace, seats []models.Seat, devices ...Device) *Strafer {
	log.Info().Msgf("setting up strafer with %d seats", len(seats))

	healthInterval := cfg.ServerCfg.HealthInterval
	if healthInterval <= 0 {
		healthInterval = config.DefaultHealthInterval
	}

	return &Strafer{
		period:         cfg.DriveCfg.Period,
		netInterface:   cfg.ServerCfg.NetInterface,
		healthInterval: healthInterval,
		commandDriver:  commandDriver,
		devices:        devices,
		train:          train,
		factory:        factory,
		state:          NewStraferState(),
		seats:          NewStraferSeats(seats),
	}
}

func NewStraferState() StraferState {
	return StraferState{
		Mode:  drive.ModeNormal,
		Speed: drive.SpeedFast,
	}
}

func NewStraferSeats(seats []models.Seat) []*vehicle.VehicleSeat[StraferState] {
	vehicleSeats := make([]*vehicle.VehicleSeat[StraferState], 0, len(seats))
	for i := range seats {
		switch i {
		case 0:
			log.Info().Msg("setting up driver seat")
			vehicleSeats = append(vehicleSeats, NewDriverSeat(&seats[i]))
		case 1:
			log.Info().Msg("setting up passenger seat")
			vehicleSeats = append(vehicleSeats, NewPassengerSeat(&seats[i]))
		}
	}
	return vehicleSeats
}

func (c *Strafer) Init() error {
	err := c.commandDriver.Init()
	if err != nil {
		return fmt.Errorf("error: failed initializing strafer command interface: %w", err)
	}

	for i := range c.seats {
		err = c.seats[i].Init()
		if err != nil {
			return err
		}
	}

	// neutral outputs and the center wheel down before the first cycle
	err = c.train.Stop()
	if err != nil {
		return err
	}
	return c.train.DropCenterWheel(true)
}

func (c *Strafer) Stop() error {
	log.Info().Msg("stopping strafer")
	err := c.train.Stop()
	if err != nil {
		log.Error().Msgf("failed stopping drive train: %s", err.Error())
	}

	err = c.commandDriver.Stop()
	if err != nil {
		return fmt.Errorf("error: failed stopping command driver: %w", err)
	}
	return nil
}

// Start runs the operator control cycle until ctx is done or something fails.
func (c *Strafer) Start(ctx context.Context) error {
	log.Info().Msg("starting strafer")
	errGroup, errGroupCtx := errgroup.WithContext(ctx)

	defer c.Stop()

	for i := range c.seats {
		seatNum := i
		errGroup.Go(func() error {
			return c.seats[seatNum].Start(errGroupCtx)
		})
	}
	c.startDevices(errGroupCtx, errGroup)

	errGroup.Go(func() error {
		commandTicker := time.NewTicker(c.period)
		defer commandTicker.Stop()
		healthTicker := time.NewTicker(c.healthInterval)
		defer healthTicker.Stop()

		p, err := procfs.Self()
		if err != nil {
			return fmt.Errorf("error: procfs could not get process: %w", err)
		}

		for {
			select {
			case <-errGroupCtx.Done():
				log.Info().Msgf("stopping strafer control cycle: %s", errGroupCtx.Err().Error())
				return errGroupCtx.Err()
			case <-healthTicker.C:
				c.logHealth()
			case <-commandTicker.C:
				statesWithNewCommand := make([]StraferState, 0, len(c.seats))
				for i := range c.seats {
					statesWithNewCommand = append(statesWithNewCommand, c.seats[i].ApplyCommand(c.State()))
				}

				err := c.cycle(c.mergeSeatStates(statesWithNewCommand))
				if err != nil {
					return fmt.Errorf("failed running strafer cycle: %w", err)
				}

				if c.cycles%hudEvery == 0 {
					c.updateHud(p)
				}
			}
		}
	})

	err := errGroup.Wait()
	if err != nil {
		return fmt.Errorf("strafer error group closed: %w", err)
	}
	return nil
}

// RunRoutine runs one routine on the control cycle with no operator input.
func (c *Strafer) RunRoutine(ctx context.Context, name string) error {
	log.Info().Msgf("running routine %s", name)
	errGroup, errGroupCtx := errgroup.WithContext(ctx)

	defer c.Stop()

	err := c.startRoutine(name)
	if err != nil {
		return err
	}
	c.startDevices(errGroupCtx, errGroup)

	errGroup.Go(func() error {
		commandTicker := time.NewTicker(c.period)
		defer commandTicker.Stop()
		for {
			select {
			case <-errGroupCtx.Done():
				log.Info().Msgf("stopping routine %s: %s", name, errGroupCtx.Err().Error())
				return errGroupCtx.Err()
			case <-commandTicker.C:
				err := c.cycle(c.State())
				if err != nil {
					return fmt.Errorf("failed running routine %s: %w", name, err)
				}
				if c.sequence == nil {
					return errRoutineDone
				}
			}
		}
	})

	err = errGroup.Wait()
	if err != nil && !errors.Is(err, errRoutineDone) {
		return fmt.Errorf("routine error group closed: %w", err)
	}
	log.Info().Msgf("routine %s finished", name)
	return nil
}

var errRoutineDone = errors.New("routine done")

func (c *Strafer) startDevices(ctx context.Context, errGroup *errgroup.Group) {
	for i := range c.devices {
		device := c.devices[i]
		errGroup.Go(func() error {
			return device.Start(ctx)
		})
	}
}

// mergeSeatStates takes the driver state and lets any seat cancel a routine.
func (c *Strafer) mergeSeatStates(states []StraferState) StraferState {
	if len(states) < 1 {
		merged := c.State()
		merged.centerSticks()
		return merged
	}

	merged := states[0]
	for i := 1; i < len(states); i++ {
		merged.Cancel = merged.Cancel || states[i].Cancel
	}
	return merged
}

// cycle applies one merged state: requests first, then either the active
// routine or the operator sticks drive the wheels.
func (c *Strafer) cycle(state StraferState) error {
	c.cycles++

	err := c.handleRequests(state)
	if err != nil {
		return err
	}

	if c.sequence != nil {
		err = c.runSequence()
	} else {
		err = c.train.Drive(state.X, state.Y, state.Rotation)
	}
	if err != nil {
		return err
	}

	state.clearRequests()
	state.Mode = c.train.Mode()
	state.Speed = c.train.Speed()
	state.Controller = c.train.Controller()
	state.Heading = c.train.Heading()
	state.WheelDropped = c.train.CenterWheelDropped()
	state.Routine, state.RoutineStep, state.RoutineSteps = "", 0, 0
	if c.sequence != nil {
		state.Routine = c.sequence.Name()
		state.RoutineStep = c.sequence.Index()
		state.RoutineSteps = c.sequence.Len()
	}

	c.lock.Lock()
	c.state = state
	c.lock.Unlock()
	return nil
}

func (c *Strafer) handleRequests(state StraferState) error {
	if state.Cancel && c.sequence != nil {
		err := c.cancelRoutine()
		if err != nil {
			return err
		}
	}

	if state.ZeroHeading {
		c.train.ZeroHeading()
	}

	if state.Mode != c.train.Mode() {
		// a routine does not survive a mode change
		if c.sequence != nil {
			err := c.cancelRoutine()
			if err != nil {
				return err
			}
		}
		err := c.train.SetMode(state.Mode)
		if err != nil {
			return err
		}
	}
	c.train.SetSpeed(state.Speed)

	switch state.Wheel {
	case WheelDrop:
		err := c.train.DropCenterWheel(true)
		if err != nil {
			return err
		}
	case WheelRaise:
		err := c.train.DropCenterWheel(false)
		if err != nil {
			return err
		}
	}

	if state.RoutineRequest != "" {
		if c.sequence != nil {
			log.Info().Msgf("ignoring routine %s while %s runs", state.RoutineRequest, c.sequence.Name())
			return nil
		}
		return c.startRoutine(state.RoutineRequest)
	}
	return nil
}

func (c *Strafer) startRoutine(name string) error {
	sequence, err := c.factory.Build(name)
	if err != nil {
		return err
	}
	err = c.train.Stop()
	if err != nil {
		return err
	}
	c.sequence = sequence
	log.Info().Msgf("routine %s started with %d steps", name, sequence.Len())
	return nil
}

func (c *Strafer) runSequence() error {
	finished, err := c.sequence.Run()
	if err != nil {
		c.sequence = nil
		return err
	}
	if finished {
		c.sequence = nil
		return c.train.Stop()
	}
	return nil
}

func (c *Strafer) cancelRoutine() error {
	err := c.sequence.Cancel()
	c.sequence = nil
	if err != nil {
		return err
	}
	return c.train.Stop()
}

func (c *Strafer) State() StraferState {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

func (c *Strafer) updateHud(p procfs.Proc) {
	netDev, err := p.NetDev() //update network stats
	if err != nil {
		log.Debug().Msgf("failed getting netstat: %s", err.Error())
	}

	// missing stats show as zeros
	stats := netDev[c.netInterface]

	state := c.State()
	for i := range c.seats {
		c.seats[i].UpdateHud(state, stats)
	}
}

func (c *Strafer) logHealth() {
	state := c.State()
	log.Info().Msgf("health - ctrl: %s mode: %s heading: %.1f distance: %.1f strafe: %.1f range: %.1f routine: %q",
		state.Controller,
		state.Mode,
		state.Heading,
		c.train.DriveDistance(),
		c.train.StrafeDistance(),
		c.train.Range(),
		state.Routine,
	)
}
