package drive

import (
	"errors"
	"fmt"
	"math"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/control"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/rs/zerolog/log"
)

const (
	LeftMotor   = config.DefaultLeftMotorName
	RightMotor  = config.DefaultRightMotorName
	CenterMotor = config.DefaultCenterMotorName

	MinOutput = -1.0
	MaxOutput = 1.0
)

var (
	ErrNoDriveEncoder  = errors.New("no drive encoder")
	ErrNoHeadingSensor = errors.New("no heading sensor")
	ErrNoStrafeEncoder = errors.New("no strafe encoder")
	ErrNoRangeSensor   = errors.New("no range sensor")
)

type Encoder interface {
	Distance() float64
	Rate() float64
	Reset()
}

type HeadingSensor interface {
	Yaw() float64
	ZeroYaw()
}

type RangeSensor interface {
	Range() float64
}

type Solenoid interface {
	Set(bool) error
}

type MotorDriver interface {
	SetMany([]vehicle.DriverCommand) error
}

// Sensors are the feedback devices of the drive train. StrafeEncoder, Range and
// Suspension are optional.
type Sensors struct {
	DriveEncoder  Encoder
	StrafeEncoder Encoder
	Heading       HeadingSensor
	Range         RangeSensor
	Suspension    Solenoid
}

type Controller int

const (
	ControllerIdle Controller = iota
	ControllerRotational
	ControllerTranslational
	ControllerDriveTo
	ControllerStrafeTo
	ControllerSonicStrafeTo
	ControllerRotateTo
	ControllerStrafeToNoHeading
	ControllerOpenLoop
)

func (c Controller) String() string {
	switch c {
	case ControllerIdle:
		return "idle"
	case ControllerRotational:
		return "rotate"
	case ControllerTranslational:
		return "translate"
	case ControllerDriveTo:
		return "drive to"
	case ControllerStrafeTo:
		return "strafe to"
	case ControllerSonicStrafeTo:
		return "sonic strafe to"
	case ControllerRotateTo:
		return "rotate to"
	case ControllerStrafeToNoHeading:
		return "strafe to (free heading)"
	case ControllerOpenLoop:
		return "open loop"
	default:
		return "unknown"
	}
}

func (c Controller) primitive() bool {
	return c >= ControllerDriveTo
}

type Speed int

const (
	SpeedFast Speed = iota
	SpeedNormal
	SpeedSlow
)

func (s Speed) String() string {
	switch s {
	case SpeedNormal:
		return "normal"
	case SpeedFast:
		return "fast"
	case SpeedSlow:
		return "slow"
	default:
		return "unknown"
	}
}

func ParseSpeed(name string) (Speed, error) {
	switch name {
	case "fast", "":
		return SpeedFast, nil
	case "normal":
		return SpeedNormal, nil
	case "slow":
		return SpeedSlow, nil
	default:
		return SpeedFast, fmt.Errorf("unknown speed: %s", name)
	}
}

// Outputs are the last commanded wheel values before speed scaling.
type Outputs struct {
	Left   float64
	Right  float64
	Center float64
}

// DriveTrain turns operator intent and motion primitives into wheel commands.
// It is not safe for concurrent use; everything runs on the control cycle.
type DriveTrain struct {
	cfg     config.DriveConfig
	motors  MotorDriver
	sensors Sensors

	mixer   *Mixer
	heading *HeadingHold

	driveStraight *control.PID
	strafe        *control.PID
	sonic         *control.PID

	straightPreset Preset
	rotatePreset   Preset

	active      Controller
	strafeLimit RateLimitState
	streak      int

	speed        Speed
	outputs      Outputs
	wheelDropped bool
}

func NewDriveTrain(cfg config.DriveConfig, motors MotorDriver, sensors Sensors) (*DriveTrain, error) {
	if motors == nil {
		return nil, fmt.Errorf("drive train needs a motor driver")
	}
	if sensors.DriveEncoder == nil {
		return nil, ErrNoDriveEncoder
	}
	if sensors.Heading == nil {
		return nil, ErrNoHeadingSensor
	}

	d := &DriveTrain{
		cfg:     cfg,
		motors:  motors,
		sensors: sensors,
		mixer:   NewMixer(cfg),
		straightPreset: Preset{
			Gains:     cfg.HeadingStraightGains,
			Tolerance: cfg.HeadingStraightTolerance,
		},
		rotatePreset: Preset{
			Gains:     cfg.HeadingRotateGains,
			Tolerance: cfg.HeadingRotateTolerance,
		},
	}
	d.heading = NewHeadingHold(sensors.Heading, d.straightPreset, cfg.Period)

	d.driveStraight = newLoop(cfg.DriveStraightGains, cfg.DriveTolerance, sensors.DriveEncoder.Distance, cfg)
	if sensors.StrafeEncoder != nil {
		d.strafe = newLoop(cfg.StrafeGains, cfg.StrafeTolerance, sensors.StrafeEncoder.Distance, cfg)
	}
	if sensors.Range != nil {
		d.sonic = newLoop(cfg.SonicGains, cfg.SonicTolerance, sensors.Range.Range, cfg)
	}
	return d, nil
}

func newLoop(gains config.Gains, tolerance float64, source func() float64, cfg config.DriveConfig) *control.PID {
	loop := control.NewPID(gains.P, gains.I, gains.D, control.SourceFunc(source), cfg.Period)
	loop.SetTolerance(tolerance)
	return loop
}

// Drive runs one teleop cycle from raw stick values.
func (d *DriveTrain) Drive(rawX, rawY, rawRotation float64) error {
	intent := d.mixer.Mix(rawX, rawY, rawRotation)

	switch {
	case math.Abs(intent.Rotation) >= d.cfg.OutputFloor:
		err := d.claim(ControllerRotational)
		if err != nil {
			return err
		}
		return d.rotationalDrive(intent.Y, intent.Rotation)
	case math.Abs(intent.X) >= d.cfg.OutputFloor || math.Abs(intent.Y) >= d.cfg.OutputFloor:
		err := d.claim(ControllerTranslational)
		if err != nil {
			return err
		}
		return d.translationalDrive(intent.X, intent.Y)
	default:
		err := d.claim(ControllerIdle)
		if err != nil {
			return err
		}
		return d.setMotors(0, 0, 0)
	}
}

func (d *DriveTrain) rotationalDrive(y, rotation float64) error {
	d.mixer.ResetX()
	return d.setMotors(y+rotation, y-rotation, 0)
}

func (d *DriveTrain) translationalDrive(x, y float64) error {
	if !d.heading.Engaged() {
		d.heading.Engage(d.sensors.Heading.Yaw(), d.straightPreset)
	}
	correction := d.heading.Update()

	yOut, xOut := strafeMix(x, y, d.cfg.StrafeTuning)
	return d.setMotors(yOut+correction, yOut-correction, xOut)
}

// claim hands the wheels to next. A change of owner stops the previous one first:
// motors zeroed, loops disabled, heading released and strafe limit memory cleared.
func (d *DriveTrain) claim(next Controller) error {
	if d.active == next {
		return nil
	}
	prev := d.active
	err := d.release()
	if err != nil {
		return err
	}
	if next.primitive() {
		d.mixer.Reset()
	}
	d.active = next
	log.Debug().Msgf("drive controller %s -> %s", prev, next)
	return nil
}

func (d *DriveTrain) release() error {
	d.driveStraight.Disable()
	if d.strafe != nil {
		d.strafe.Disable()
	}
	if d.sonic != nil {
		d.sonic.Disable()
	}
	d.heading.Disengage()
	d.strafeLimit = RateLimitState{}
	d.streak = 0
	d.active = ControllerIdle
	return d.setMotors(0, 0, 0)
}

// Stop releases whichever controller owns the wheels and clears the mixer.
func (d *DriveTrain) Stop() error {
	if d.active != ControllerIdle {
		log.Debug().Msgf("stopping drive controller %s", d.active)
	}
	d.mixer.Reset()
	return d.release()
}

// SetMode changes the drive mode. Any active controller is released since its
// state may not hold under the new mode.
func (d *DriveTrain) SetMode(mode Mode) error {
	prev := d.mixer.Mode()
	if prev == mode {
		return nil
	}

	err := d.release()
	if err != nil {
		return err
	}
	d.mixer.SetMode(mode)
	log.Info().Msgf("drive mode %s -> %s", prev, mode)

	if mode == ModeForcedNoStrafe {
		return d.DropCenterWheel(false)
	}
	if prev == ModeForcedNoStrafe {
		return d.DropCenterWheel(true)
	}
	return nil
}

func (d *DriveTrain) Mode() Mode {
	return d.mixer.Mode()
}

func (d *DriveTrain) SetSpeed(speed Speed) {
	if d.speed != speed {
		log.Info().Msgf("drive speed %s -> %s", d.speed, speed)
	}
	d.speed = speed
}

func (d *DriveTrain) Speed() Speed {
	return d.speed
}

func (d *DriveTrain) speedScalar() float64 {
	var scalar float64
	switch d.speed {
	case SpeedSlow:
		scalar = d.cfg.SlowSpeed
	case SpeedNormal:
		scalar = d.cfg.NormalSpeed
	default:
		scalar = d.cfg.FastSpeed
	}
	return math.Min(scalar, 1)
}

func (d *DriveTrain) DropCenterWheel(drop bool) error {
	if d.sensors.Suspension == nil {
		d.wheelDropped = drop
		return nil
	}
	err := d.sensors.Suspension.Set(drop)
	if err != nil {
		return fmt.Errorf("failed setting center wheel suspension: %w", err)
	}
	if d.wheelDropped != drop {
		log.Debug().Msgf("center wheel dropped: %t", drop)
	}
	d.wheelDropped = drop
	return nil
}

func (d *DriveTrain) CenterWheelDropped() bool {
	return d.wheelDropped
}

func (d *DriveTrain) SetDriveStraightGains(p, i, dGain float64) {
	d.driveStraight.SetPID(p, i, dGain)
}

func (d *DriveTrain) SetDriveStraightOutputRange(min, max float64) {
	d.driveStraight.SetOutputRange(min, max)
}

func (d *DriveTrain) ResetEncoders() {
	d.sensors.DriveEncoder.Reset()
	if d.sensors.StrafeEncoder != nil {
		d.sensors.StrafeEncoder.Reset()
	}
}

func (d *DriveTrain) ZeroHeading() {
	d.sensors.Heading.ZeroYaw()
}

func (d *DriveTrain) Controller() Controller {
	return d.active
}

func (d *DriveTrain) Outputs() Outputs {
	return d.outputs
}

func (d *DriveTrain) Heading() float64 {
	return d.sensors.Heading.Yaw()
}

func (d *DriveTrain) HeadingHold() *HeadingHold {
	return d.heading
}

func (d *DriveTrain) DriveDistance() float64 {
	return d.sensors.DriveEncoder.Distance()
}

func (d *DriveTrain) DriveRate() float64 {
	return d.sensors.DriveEncoder.Rate()
}

// StrafeDistance returns -1 without a strafe encoder.
func (d *DriveTrain) StrafeDistance() float64 {
	if d.sensors.StrafeEncoder == nil {
		return -1
	}
	return d.sensors.StrafeEncoder.Distance()
}

// Range returns -1 without a range sensor.
func (d *DriveTrain) Range() float64 {
	if d.sensors.Range == nil {
		return -1
	}
	return d.sensors.Range.Range()
}

// SetLeftRight drives the side wheels open loop. It takes the wheels from any
// other controller.
func (d *DriveTrain) SetLeftRight(left, right float64) error {
	err := d.claim(ControllerOpenLoop)
	if err != nil {
		return err
	}
	return d.setMotors(left, right, 0)
}

func (d *DriveTrain) setMotors(left, right, center float64) error {
	d.outputs = Outputs{
		Left:   clamp(left),
		Right:  clamp(right),
		Center: clamp(center),
	}

	scalar := d.speedScalar()
	err := d.motors.SetMany([]vehicle.DriverCommand{
		{
			Name:  LeftMotor,
			Value: d.outputs.Left * scalar,
			Min:   MinOutput,
			Max:   MaxOutput,
		},
		{
			Name:  RightMotor,
			Value: -d.outputs.Right * scalar,
			Min:   MinOutput,
			Max:   MaxOutput,
		},
		{
			Name:  CenterMotor,
			Value: d.outputs.Center * scalar,
			Min:   MinOutput,
			Max:   MaxOutput,
		},
	})
	if err != nil {
		return fmt.Errorf("failed setting drive motors: %w", err)
	}
	return nil
}
