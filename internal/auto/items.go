package auto

import (
	"time"

	"github.com/Team6378/frc-2015/internal/drive"
)

// DefaultStepTimeout bounds motion steps that do not declare their own timeout.
const (
	DefaultStepTimeout = 3 * time.Second
	OpenLoopSettle     = 100 * time.Millisecond
)

// Drive is the part of the drive train the items command.
type Drive interface {
	DriveTo(inches, yaw float64) (bool, error)
	DriveToHere(inches float64) (bool, error)
	StrafeTo(inches, yaw float64) (bool, error)
	StrafeToHere(inches float64) (bool, error)
	SonicStrafeTo(inches, yaw float64) (bool, error)
	SonicStrafeToHere(inches float64) (bool, error)
	StrafeToWithoutHeading(inches float64) (bool, error)
	RotateTo(angle float64) (bool, error)
	Rotate(delta float64) (bool, error)
	SetDriveStraightGains(p, i, d float64)
	SetSpeed(speed drive.Speed)
	DropCenterWheel(drop bool) error
	ResetEncoders()
	SetLeftRight(left, right float64) error
	DriveDistance() float64
	Stop() error
}

var _ Drive = (*drive.DriveTrain)(nil)

// motion wraps a primitive that reports done itself.
type motion struct {
	drive   Drive
	timeout time.Duration
	step    func() (bool, error)
}

func (m *motion) Run() (Result, error) {
	done, err := m.step()
	if err != nil {
		return Result{}, err
	}
	if done {
		return Done(), nil
	}
	return Continue(m.timeout), nil
}

func (m *motion) Stop() error {
	return m.drive.Stop()
}

// DriveTo drives to inches on the drive encoder. A nil heading holds the heading
// at activation.
func DriveTo(d Drive, inches float64, heading *float64, timeout time.Duration) Item {
	return &motion{
		drive:   d,
		timeout: timeout,
		step: func() (bool, error) {
			if heading == nil {
				return d.DriveToHere(inches)
			}
			return d.DriveTo(inches, *heading)
		},
	}
}

func StrafeTo(d Drive, inches float64, heading *float64, timeout time.Duration) Item {
	return &motion{
		drive:   d,
		timeout: timeout,
		step: func() (bool, error) {
			if heading == nil {
				return d.StrafeToHere(inches)
			}
			return d.StrafeTo(inches, *heading)
		},
	}
}

func SonicStrafeTo(d Drive, inches float64, heading *float64, timeout time.Duration) Item {
	return &motion{
		drive:   d,
		timeout: timeout,
		step: func() (bool, error) {
			if heading == nil {
				return d.SonicStrafeToHere(inches)
			}
			return d.SonicStrafeTo(inches, *heading)
		},
	}
}

func StrafeToWithoutHeading(d Drive, inches float64, timeout time.Duration) Item {
	return &motion{
		drive:   d,
		timeout: timeout,
		step: func() (bool, error) {
			return d.StrafeToWithoutHeading(inches)
		},
	}
}

func RotateTo(d Drive, degrees float64, timeout time.Duration) Item {
	return &motion{
		drive:   d,
		timeout: timeout,
		step: func() (bool, error) {
			return d.RotateTo(degrees)
		},
	}
}

// Rotate turns degrees relative to the heading when the step starts.
func Rotate(d Drive, degrees float64, timeout time.Duration) Item {
	return &motion{
		drive:   d,
		timeout: timeout,
		step: func() (bool, error) {
			return d.Rotate(degrees)
		},
	}
}

// once runs an action on a single cycle.
type once struct {
	action func() error
}

func (o once) Run() (Result, error) {
	err := o.action()
	if err != nil {
		return Result{}, err
	}
	return Done(), nil
}

func SetDriveStraightGains(d Drive, p, i, dGain float64) Item {
	return once{action: func() error {
		d.SetDriveStraightGains(p, i, dGain)
		return nil
	}}
}

func DropCenterWheel(d Drive, drop bool) Item {
	return once{action: func() error {
		return d.DropCenterWheel(drop)
	}}
}

func ResetEncoders(d Drive) Item {
	return once{action: func() error {
		d.ResetEncoders()
		return nil
	}}
}

func SetSpeed(d Drive, speed drive.Speed) Item {
	return once{action: func() error {
		d.SetSpeed(speed)
		return nil
	}}
}

type wait struct {
	duration time.Duration
}

// Wait does nothing for duration.
func Wait(duration time.Duration) Item {
	return wait{duration: duration}
}

func (w wait) Run() (Result, error) {
	return Continue(w.duration), nil
}

// openLoop drives the side wheels at fixed outputs until the drive encoder passes
// a mark. Passing the mark stops the wheels and shortens the timeout to a short
// settle.
type openLoop struct {
	drive       Drive
	left, right float64
	until       float64
	timeout     time.Duration
	passed      bool
}

func DriveOpenLoop(d Drive, left, right, untilInches float64, timeout time.Duration) Item {
	return &openLoop{
		drive:   d,
		left:    left,
		right:   right,
		until:   untilInches,
		timeout: timeout,
	}
}

func (o *openLoop) Run() (Result, error) {
	if o.passed {
		return Continue(OpenLoopSettle), nil
	}

	if o.reached(o.drive.DriveDistance()) {
		o.passed = true
		err := o.drive.Stop()
		if err != nil {
			return Result{}, err
		}
		return Continue(OpenLoopSettle), nil
	}

	err := o.drive.SetLeftRight(o.left, o.right)
	if err != nil {
		return Result{}, err
	}
	return Continue(o.timeout), nil
}

func (o *openLoop) reached(distance float64) bool {
	if o.left+o.right < 0 {
		return distance <= o.until
	}
	return distance >= o.until
}

func (o *openLoop) Stop() error {
	if o.passed {
		return nil
	}
	return o.drive.Stop()
}
