package auto

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/drive"
	"github.com/rs/zerolog/log"
)

const (
	StepDriveTo                = "drive_to"
	StepStrafeTo               = "strafe_to"
	StepSonicStrafeTo          = "sonic_strafe_to"
	StepStrafeToWithoutHeading = "strafe_to_without_heading"
	StepRotateTo               = "rotate_to"
	StepRotate                 = "rotate"
	StepSetDriveStraightGains  = "set_drive_straight_gains"
	StepDropCenterWheel        = "drop_center_wheel"
	StepResetEncoders          = "reset_encoders"
	StepSetSpeed               = "set_speed"
	StepWait                   = "wait"
	StepDriveOpenLoop          = "drive_open_loop"
)

const (
	RoutineCrossLine         = "cross_line"
	RoutineStrafeSquare      = "strafe_square"
	RoutineThreeToteStraight = "three_tote_straight"
	RoutineSquareUp          = "square_up"
	RoutineToteStepLeft      = "tote_step_left"
	RoutineToteStepRight     = "tote_step_right"
)

var (
	ErrUnknownRoutine  = errors.New("unknown routine")
	ErrUnknownStepType = errors.New("unknown step type")
)

func heading(degrees float64) *float64 {
	return &degrees
}

// Built in routines. Distances are inches from the last encoder reset.
var builtinRoutines = []config.RoutineConfig{
	{
		Name: RoutineCrossLine,
		Steps: []config.StepConfig{
			{Type: StepResetEncoders},
			{Type: StepDropCenterWheel, Value: false},
			{Type: StepDriveTo, Inches: 72, Heading: heading(0), Timeout: 4},
		},
	},
	{
		Name: RoutineStrafeSquare,
		Steps: []config.StepConfig{
			{Type: StepResetEncoders},
			{Type: StepStrafeTo, Inches: 24, Timeout: 3},
			{Type: StepDriveTo, Inches: 24, Timeout: 3},
			{Type: StepStrafeTo, Inches: 0, Timeout: 3},
			{Type: StepDriveTo, Inches: 0, Timeout: 3},
		},
	},
	{
		Name: RoutineThreeToteStraight,
		Steps: []config.StepConfig{
			{Type: StepResetEncoders},
			{Type: StepSetDriveStraightGains, P: 0.03},
			{Type: StepDriveTo, Inches: 81, Heading: heading(0), Timeout: 3},
			{Type: StepWait, Timeout: 0.5},
			{Type: StepDriveTo, Inches: 162, Heading: heading(0), Timeout: 3},
			{Type: StepWait, Timeout: 0.5},
			{Type: StepRotateTo, Degrees: 90, Timeout: 2},
			{Type: StepResetEncoders},
			{Type: StepSetDriveStraightGains, P: 0.025},
			{Type: StepDriveTo, Inches: 100, Heading: heading(90), Timeout: 4},
			{Type: StepDriveOpenLoop, Left: -0.4, Right: -0.4, Inches: 88, Timeout: 2},
		},
	},
	{
		Name: RoutineSquareUp,
		Steps: []config.StepConfig{
			{Type: StepResetEncoders},
			{Type: StepDriveOpenLoop, Left: 0.3, Right: 0.3, Inches: 12, Timeout: 0.75},
		},
	},
	{
		Name: RoutineToteStepLeft,
		Steps: []config.StepConfig{
			{Type: StepResetEncoders},
			{Type: StepStrafeTo, Inches: -21, Timeout: 2},
		},
	},
	{
		Name: RoutineToteStepRight,
		Steps: []config.StepConfig{
			{Type: StepResetEncoders},
			{Type: StepStrafeTo, Inches: 21, Timeout: 2},
		},
	},
}

// Factory builds fresh sequencers by name. A finished sequencer is never reused.
type Factory struct {
	drive    Drive
	period   time.Duration
	routines map[string][]config.StepConfig
}

// NewFactory checks every routine up front so a bad config fails at startup. A
// routine from config replaces a built in routine of the same name.
func NewFactory(d Drive, cfg config.AutoConfig, period time.Duration) (*Factory, error) {
	if period <= 0 {
		return nil, fmt.Errorf("routine period must be positive, got %s", period)
	}
	f := &Factory{
		drive:    d,
		period:   period,
		routines: make(map[string][]config.StepConfig, len(builtinRoutines)+len(cfg.Routines)),
	}

	for _, routine := range builtinRoutines {
		f.routines[routine.Name] = routine.Steps
	}
	for _, routine := range cfg.Routines {
		name := strings.ToLower(routine.Name)
		if _, ok := f.routines[name]; ok {
			log.Warn().Msgf("routine %s from config replaces the built in routine", name)
		}
		f.routines[name] = routine.Steps
	}

	for name, steps := range f.routines {
		_, err := f.items(steps)
		if err != nil {
			return nil, fmt.Errorf("routine %s: %w", name, err)
		}
	}
	return f, nil
}

func (f *Factory) Build(name string) (*Sequencer, error) {
	steps, ok := f.routines[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoutine, name)
	}
	items, err := f.items(steps)
	if err != nil {
		return nil, fmt.Errorf("routine %s: %w", name, err)
	}
	return NewSequencer(strings.ToLower(name), f.period, items...), nil
}

func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.routines))
	for name := range f.routines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *Factory) items(steps []config.StepConfig) ([]Item, error) {
	items := make([]Item, 0, len(steps))
	for i, step := range steps {
		item, err := f.item(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (f *Factory) item(step config.StepConfig) (Item, error) {
	timeout := seconds(step.Timeout, DefaultStepTimeout)

	switch strings.ToLower(step.Type) {
	case StepDriveTo:
		return DriveTo(f.drive, step.Inches, step.Heading, timeout), nil
	case StepStrafeTo:
		return StrafeTo(f.drive, step.Inches, step.Heading, timeout), nil
	case StepSonicStrafeTo:
		return SonicStrafeTo(f.drive, step.Inches, step.Heading, timeout), nil
	case StepStrafeToWithoutHeading:
		return StrafeToWithoutHeading(f.drive, step.Inches, timeout), nil
	case StepRotateTo:
		return RotateTo(f.drive, step.Degrees, timeout), nil
	case StepRotate:
		return Rotate(f.drive, step.Degrees, timeout), nil
	case StepSetDriveStraightGains:
		return SetDriveStraightGains(f.drive, step.P, step.I, step.D), nil
	case StepDropCenterWheel:
		return DropCenterWheel(f.drive, step.Value), nil
	case StepResetEncoders:
		return ResetEncoders(f.drive), nil
	case StepSetSpeed:
		speed, err := drive.ParseSpeed(step.Speed)
		if err != nil {
			return nil, err
		}
		return SetSpeed(f.drive, speed), nil
	case StepWait:
		return Wait(seconds(step.Timeout, 0)), nil
	case StepDriveOpenLoop:
		return DriveOpenLoop(f.drive, step.Left, step.Right, step.Inches, timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepType, step.Type)
	}
}

func seconds(value float64, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value * float64(time.Second))
}
