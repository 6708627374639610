package drive

import (
	"errors"
	"testing"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDriveTrain_RequiresSensors(t *testing.T) {
	cfg := config.DefaultDriveConfig()

	_, err := NewDriveTrain(cfg, &fakeMotors{}, Sensors{Heading: &fakeHeading{}})
	assert.ErrorIs(t, err, ErrNoDriveEncoder)

	_, err = NewDriveTrain(cfg, &fakeMotors{}, Sensors{DriveEncoder: &fakeEncoder{}})
	assert.ErrorIs(t, err, ErrNoHeadingSensor)

	_, err = NewDriveTrain(cfg, nil, Sensors{DriveEncoder: &fakeEncoder{}, Heading: &fakeHeading{}})
	assert.Error(t, err)
}

func TestDrive_IdleZeroesOutputs(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.train.Drive(0.05, -0.1, 0.1))
	assert.Equal(t, ControllerIdle, r.train.Controller())
	assert.Equal(t, Outputs{}, r.train.Outputs())
	assert.False(t, r.train.HeadingHold().Engaged())
}

func TestDrive_Rotational(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.train.Drive(0, 0, 1))
	assert.Equal(t, ControllerRotational, r.train.Controller())
	assert.Equal(t, Outputs{Left: 1, Right: -1}, r.train.Outputs())
	assert.False(t, r.train.HeadingHold().Engaged())

	last := r.motors.last()
	assert.InDelta(t, 1, last[LeftMotor], eps)
	assert.InDelta(t, 1, last[RightMotor], eps, "right side is mounted mirrored")
	assert.Zero(t, last[CenterMotor])
}

func TestDrive_RotationResetsStrafeMemory(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.train.Drive(1, 0, 0))
	}
	x, _ := r.train.mixer.Last()
	assert.InDelta(t, 0.2, x, eps)

	require.NoError(t, r.train.Drive(1, 0, 1))
	x, _ = r.train.mixer.Last()
	assert.Zero(t, x)
}

func TestDrive_HeadingSampledOnRisingEdge(t *testing.T) {
	r := newRig(t)
	r.heading.yaw = 10

	// first cycle is below the output floor after rate limiting
	require.NoError(t, r.train.Drive(0, 1, 0))
	assert.Equal(t, ControllerIdle, r.train.Controller())

	require.NoError(t, r.train.Drive(0, 1, 0))
	require.NoError(t, r.train.Drive(0, 1, 0))
	assert.Equal(t, ControllerTranslational, r.train.Controller())
	require.True(t, r.train.HeadingHold().Engaged())
	assert.InDelta(t, 10, r.train.HeadingHold().DesiredHeading(), eps)

	r.heading.yaw = 20
	for i := 0; i < 5; i++ {
		require.NoError(t, r.train.Drive(0, 1, 0))
	}
	assert.InDelta(t, 10, r.train.HeadingHold().DesiredHeading(), eps, "held heading is not re-sampled while engaged")

	require.NoError(t, r.train.Drive(0, 1, 1))
	assert.Equal(t, ControllerRotational, r.train.Controller())
	assert.False(t, r.train.HeadingHold().Engaged())

	require.NoError(t, r.train.Drive(0, 1, 0))
	assert.Equal(t, ControllerTranslational, r.train.Controller())
	assert.InDelta(t, 20, r.train.HeadingHold().DesiredHeading(), eps)
}

func TestDrive_HeadingCorrection(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 20; i++ {
		require.NoError(t, r.train.Drive(0, 1, 0))
	}
	out := r.train.Outputs()
	assert.InDelta(t, 1, out.Left, eps)
	assert.InDelta(t, 1, out.Right, eps)
	assert.Zero(t, out.Center)

	r.heading.yaw = -5
	require.NoError(t, r.train.Drive(0, 1, 0))
	out = r.train.Outputs()
	assert.Greater(t, r.train.HeadingHold().CorrectionOutput(), 0.0)
	assert.Greater(t, out.Left, out.Right)
}

func TestDrive_Strafe(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 60; i++ {
		require.NoError(t, r.train.Drive(1, 0, 0))
	}
	out := r.train.Outputs()
	assert.InDelta(t, 1, out.Center, eps)
	assert.Zero(t, out.Left)
	assert.Zero(t, out.Right)
}

func TestSetMode_ForcedNoStrafeRaisesWheel(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.train.SetMode(ModeForcedNoStrafe))
	assert.False(t, r.suspension.value)
	assert.False(t, r.train.CenterWheelDropped())
	assert.Equal(t, 1, r.suspension.sets)

	require.NoError(t, r.train.SetMode(ModeForcedNoStrafe))
	assert.Equal(t, 1, r.suspension.sets, "same mode is a no-op")

	require.NoError(t, r.train.SetMode(ModeNormal))
	assert.True(t, r.suspension.value)
	assert.Equal(t, ModeNormal, r.train.Mode())
}

func TestSetMode_ReleasesPrimitive(t *testing.T) {
	r := newRig(t)

	done, err := r.train.DriveTo(100, 0)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, ControllerDriveTo, r.train.Controller())

	require.NoError(t, r.train.SetMode(ModeStrafeOnly))
	assert.Equal(t, ControllerIdle, r.train.Controller())
	assert.Equal(t, Outputs{}, r.train.Outputs())
	assert.False(t, r.train.driveStraight.IsEnabled())
	assert.False(t, r.train.HeadingHold().Engaged())
}

func TestSetSpeed(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, SpeedFast, r.train.Speed(), "starts at full speed")

	r.train.SetSpeed(SpeedNormal)
	require.NoError(t, r.train.Drive(0, 0, 1))
	assert.InDelta(t, 0.75, r.motors.last()[LeftMotor], eps)

	r.train.SetSpeed(SpeedSlow)
	require.NoError(t, r.train.Drive(0, 0, 1))
	assert.InDelta(t, 0.5, r.motors.last()[LeftMotor], eps)
	assert.Equal(t, SpeedSlow, r.train.Speed())
}

func TestParseSpeed(t *testing.T) {
	speed, err := ParseSpeed("fast")
	require.NoError(t, err)
	assert.Equal(t, SpeedFast, speed)

	speed, err = ParseSpeed("")
	require.NoError(t, err)
	assert.Equal(t, SpeedFast, speed)

	speed, err = ParseSpeed("normal")
	require.NoError(t, err)
	assert.Equal(t, SpeedNormal, speed)

	_, err = ParseSpeed("ludicrous")
	assert.Error(t, err)
}

func TestStop(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.train.Drive(0, 1, 0))
	}
	require.NoError(t, r.train.Stop())

	assert.Equal(t, ControllerIdle, r.train.Controller())
	assert.Equal(t, Outputs{}, r.train.Outputs())
	x, y := r.train.mixer.Last()
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestSetLeftRight(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.train.SetLeftRight(0.4, -0.4))
	assert.Equal(t, ControllerOpenLoop, r.train.Controller())
	assert.Equal(t, Outputs{Left: 0.4, Right: -0.4}, r.train.Outputs())
}

func TestResetAndZero(t *testing.T) {
	r := newRig(t)
	r.drive.distance = 12
	r.strafe.distance = 3
	r.heading.yaw = 45

	r.train.ResetEncoders()
	r.train.ZeroHeading()

	assert.Zero(t, r.train.DriveDistance())
	assert.Zero(t, r.train.StrafeDistance())
	assert.Zero(t, r.train.Heading())
	assert.Equal(t, 1, r.drive.resets)
	assert.Equal(t, 1, r.heading.zeroed)
}

func TestOptionalSensorsReadNegative(t *testing.T) {
	train, err := NewDriveTrain(config.DefaultDriveConfig(), &fakeMotors{}, Sensors{
		DriveEncoder: &fakeEncoder{},
		Heading:      &fakeHeading{},
	})
	require.NoError(t, err)
	assert.Equal(t, -1.0, train.StrafeDistance())
	assert.Equal(t, -1.0, train.Range())

	require.NoError(t, train.DropCenterWheel(true))
	assert.True(t, train.CenterWheelDropped())
}

func TestMotorErrorPropagates(t *testing.T) {
	r := newRig(t)
	r.motors.err = errors.New("i2c write failed")

	err := r.train.Drive(0, 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "i2c write failed")
}
