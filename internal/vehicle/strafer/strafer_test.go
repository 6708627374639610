package strafer

import (
	"context"
	"testing"
	"time"

	"github.com/Team6378/frc-2015/internal/auto"
	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/drive"
	"github.com/Team6378/frc-2015/internal/models"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/prometheus/procfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommandDriver struct {
	inits int
	stops int
	last  map[string]float64
}

func (d *fakeCommandDriver) Init() error {
	d.inits++
	return nil
}

func (d *fakeCommandDriver) Set(cmd vehicle.DriverCommand) error {
	if d.last == nil {
		d.last = make(map[string]float64)
	}
	d.last[cmd.Name] = cmd.Value
	return nil
}

func (d *fakeCommandDriver) SetMany(cmds []vehicle.DriverCommand) error {
	for _, cmd := range cmds {
		err := d.Set(cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *fakeCommandDriver) Stop() error {
	d.stops++
	return nil
}

type fakeEncoder struct {
	distance float64
}

func (e *fakeEncoder) Distance() float64 { return e.distance }
func (e *fakeEncoder) Rate() float64     { return 0 }
func (e *fakeEncoder) Reset()            { e.distance = 0 }

type fakeHeading struct {
	yaw    float64
	zeroed int
}

func (h *fakeHeading) Yaw() float64 { return h.yaw }
func (h *fakeHeading) ZeroYaw() {
	h.yaw = 0
	h.zeroed++
}

type fakeSolenoid struct {
	value bool
}

func (s *fakeSolenoid) Set(value bool) error {
	s.value = value
	return nil
}

type fakeDevice struct {
	started chan struct{}
}

func (d *fakeDevice) Start(ctx context.Context) error {
	close(d.started)
	<-ctx.Done()
	return ctx.Err()
}

type rig struct {
	driver     *fakeCommandDriver
	heading    *fakeHeading
	suspension *fakeSolenoid
	train      *drive.DriveTrain
	strafer    *Strafer
}

func newRig(t *testing.T, routines ...config.RoutineConfig) *rig {
	t.Helper()
	r := &rig{
		driver:     &fakeCommandDriver{},
		heading:    &fakeHeading{},
		suspension: &fakeSolenoid{},
	}

	cfg := config.Config{
		ServerCfg: config.ServerConfig{NetInterface: "lo"},
		DriveCfg:  config.DefaultDriveConfig(),
	}
	train, err := drive.NewDriveTrain(cfg.DriveCfg, r.driver, drive.Sensors{
		DriveEncoder:  &fakeEncoder{},
		StrafeEncoder: &fakeEncoder{},
		Heading:       r.heading,
		Suspension:    r.suspension,
	})
	require.NoError(t, err)
	r.train = train

	factory, err := auto.NewFactory(train, config.AutoConfig{Routines: routines}, cfg.DriveCfg.Period)
	require.NoError(t, err)

	r.strafer = NewStrafer(cfg, train, factory, r.driver, models.NewSeats(MaxSeats))
	return r
}

func TestNewStrafer_Seats(t *testing.T) {
	r := newRig(t)
	assert.Len(t, r.strafer.seats, 2)
	assert.Equal(t, config.DefaultPeriod, r.strafer.period)
	assert.Equal(t, config.DefaultHealthInterval, r.strafer.healthInterval)
}

func TestInit_CentersAndDropsWheel(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.strafer.Init())
	assert.Equal(t, 1, r.driver.inits)
	assert.True(t, r.suspension.value)
	assert.Zero(t, r.driver.last[drive.LeftMotor])
}

func TestCycle_Sticks(t *testing.T) {
	r := newRig(t)
	state := NewStraferState()
	state.Rotation = 1

	require.NoError(t, r.strafer.cycle(state))
	got := r.strafer.State()
	assert.Equal(t, drive.ControllerRotational, got.Controller)
	assert.Greater(t, r.driver.last[drive.LeftMotor], 0.0)
}

func TestCycle_RoutineOwnsWheelsUntilCancelled(t *testing.T) {
	r := newRig(t)

	state := NewStraferState()
	state.RoutineRequest = auto.RoutineToteStepLeft
	require.NoError(t, r.strafer.cycle(state))

	got := r.strafer.State()
	assert.Equal(t, auto.RoutineToteStepLeft, got.Routine)
	assert.Equal(t, 1, got.RoutineStep, "reset step ran")
	assert.Empty(t, got.RoutineRequest, "requests are one shot")

	// sticks are ignored while the routine runs
	got.Rotation = 1
	require.NoError(t, r.strafer.cycle(got))
	assert.Equal(t, drive.ControllerStrafeTo, r.strafer.State().Controller)

	// a second request is ignored
	got = r.strafer.State()
	got.RoutineRequest = auto.RoutineSquareUp
	require.NoError(t, r.strafer.cycle(got))
	assert.Equal(t, auto.RoutineToteStepLeft, r.strafer.State().Routine)

	got = r.strafer.State()
	got.Cancel = true
	got.Rotation = 0
	require.NoError(t, r.strafer.cycle(got))
	got = r.strafer.State()
	assert.Empty(t, got.Routine)
	assert.Equal(t, drive.ControllerIdle, got.Controller)
}

func TestCycle_RoutineFinishes(t *testing.T) {
	r := newRig(t, config.RoutineConfig{
		Name:  "quick",
		Steps: []config.StepConfig{{Type: auto.StepResetEncoders}},
	})

	state := NewStraferState()
	state.RoutineRequest = "quick"
	require.NoError(t, r.strafer.cycle(state))
	assert.Empty(t, r.strafer.State().Routine)
	assert.Nil(t, r.strafer.sequence)
}

func TestCycle_UnknownRoutine(t *testing.T) {
	r := newRig(t)
	state := NewStraferState()
	state.RoutineRequest = "nope"
	assert.ErrorIs(t, r.strafer.cycle(state), auto.ErrUnknownRoutine)
}

func TestCycle_ModeSpeedWheelAndHeading(t *testing.T) {
	r := newRig(t)
	r.heading.yaw = 33

	state := NewStraferState()
	state.Mode = drive.ModeForcedNoStrafe
	state.Speed = drive.SpeedSlow
	state.ZeroHeading = true
	require.NoError(t, r.strafer.cycle(state))

	got := r.strafer.State()
	assert.Equal(t, drive.ModeForcedNoStrafe, got.Mode)
	assert.Equal(t, drive.SpeedSlow, got.Speed)
	assert.False(t, got.WheelDropped)
	assert.Equal(t, 1, r.heading.zeroed)
	assert.False(t, got.ZeroHeading)

	got.Wheel = WheelDrop
	require.NoError(t, r.strafer.cycle(got))
	assert.True(t, r.strafer.State().WheelDropped)
	assert.True(t, r.suspension.value)

	got = r.strafer.State()
	got.Wheel = WheelRaise
	require.NoError(t, r.strafer.cycle(got))
	assert.False(t, r.suspension.value)
}

func TestCycle_ModeChangeCancelsRoutine(t *testing.T) {
	r := newRig(t)
	state := NewStraferState()
	state.RoutineRequest = auto.RoutineToteStepRight
	require.NoError(t, r.strafer.cycle(state))
	require.NotNil(t, r.strafer.sequence)

	got := r.strafer.State()
	got.Mode = drive.ModeStrafeOnly
	require.NoError(t, r.strafer.cycle(got))
	assert.Nil(t, r.strafer.sequence)
	assert.Equal(t, drive.ModeStrafeOnly, r.strafer.State().Mode)
}

func TestMergeSeatStates(t *testing.T) {
	r := newRig(t)

	assert.Equal(t, NewStraferState(), r.strafer.mergeSeatStates(nil))

	driver := NewStraferState()
	driver.X = 0.5
	passenger := NewStraferState()
	passenger.X = -1
	passenger.Cancel = true

	merged := r.strafer.mergeSeatStates([]StraferState{driver, passenger})
	assert.Equal(t, 0.5, merged.X)
	assert.True(t, merged.Cancel)
}

func TestRunRoutine(t *testing.T) {
	r := newRig(t, config.RoutineConfig{
		Name: "quick",
		Steps: []config.StepConfig{
			{Type: auto.StepResetEncoders},
			{Type: auto.StepWait, Timeout: 0.06},
		},
	})
	device := &fakeDevice{started: make(chan struct{})}
	r.strafer.devices = []Device{device}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, r.strafer.RunRoutine(ctx, "quick"))
	assert.Equal(t, 1, r.driver.stops)
	<-device.started
}

func TestRunRoutine_Unknown(t *testing.T) {
	r := newRig(t)
	err := r.strafer.RunRoutine(context.Background(), "nope")
	assert.ErrorIs(t, err, auto.ErrUnknownRoutine)
}

func TestHud(t *testing.T) {
	state := NewStraferState()
	state.Mode = drive.ModeStrafeOnly
	state.Controller = drive.ControllerStrafeTo
	state.Heading = 12.34
	state.WheelDropped = true
	state.Routine = auto.RoutineToteStepLeft
	state.RoutineStep = 1
	state.RoutineSteps = 2

	hud := driverHudUpdater(state, procfs.NetDevLine{RxPackets: 7})
	require.Len(t, hud.Lines, 3)
	assert.Contains(t, hud.Lines[0], "RxPkt:7")
	assert.Equal(t, "Mode:strafe | Speed:fast | Wheel:down | Ctrl:strafe to | Hdg:12.3", hud.Lines[1])
	assert.Equal(t, "Routine:tote_step_left | Step:2/2", hud.Lines[2])

	hud = passengerHudUpdater(NewStraferState(), procfs.NetDevLine{})
	require.Len(t, hud.Lines, 2)
	assert.Equal(t, "Routine: none", hud.Lines[1])
}
