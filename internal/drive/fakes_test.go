package drive

import (
	"testing"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/stretchr/testify/require"
)

type fakeMotors struct {
	commands [][]vehicle.DriverCommand
	err      error
}

func (m *fakeMotors) SetMany(cmds []vehicle.DriverCommand) error {
	if m.err != nil {
		return m.err
	}
	m.commands = append(m.commands, append([]vehicle.DriverCommand(nil), cmds...))
	return nil
}

func (m *fakeMotors) last() map[string]float64 {
	values := make(map[string]float64)
	if len(m.commands) == 0 {
		return values
	}
	for _, cmd := range m.commands[len(m.commands)-1] {
		values[cmd.Name] = cmd.Value
	}
	return values
}

type fakeEncoder struct {
	distance float64
	rate     float64
	resets   int
}

func (e *fakeEncoder) Distance() float64 { return e.distance }
func (e *fakeEncoder) Rate() float64     { return e.rate }
func (e *fakeEncoder) Reset() {
	e.distance = 0
	e.resets++
}

type fakeHeading struct {
	yaw    float64
	zeroed int
}

func (h *fakeHeading) Yaw() float64 { return h.yaw }
func (h *fakeHeading) ZeroYaw() {
	h.yaw = 0
	h.zeroed++
}

type fakeRange struct {
	inches float64
}

func (r *fakeRange) Range() float64 { return r.inches }

type fakeSolenoid struct {
	value bool
	sets  int
}

func (s *fakeSolenoid) Set(value bool) error {
	s.value = value
	s.sets++
	return nil
}

type rig struct {
	motors     *fakeMotors
	drive      *fakeEncoder
	strafe     *fakeEncoder
	heading    *fakeHeading
	sonic      *fakeRange
	suspension *fakeSolenoid
	train      *DriveTrain
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		motors:     &fakeMotors{},
		drive:      &fakeEncoder{},
		strafe:     &fakeEncoder{},
		heading:    &fakeHeading{},
		sonic:      &fakeRange{},
		suspension: &fakeSolenoid{},
	}
	train, err := NewDriveTrain(config.DefaultDriveConfig(), r.motors, Sensors{
		DriveEncoder:  r.drive,
		StrafeEncoder: r.strafe,
		Heading:       r.heading,
		Range:         r.sonic,
		Suspension:    r.suspension,
	})
	require.NoError(t, err)
	r.train = train
	return r
}
