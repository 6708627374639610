package auto

import (
	"errors"
	"time"

	"github.com/Team6378/frc-2015/internal/drive"
)

var errMotor = errors.New("motor fault")

// fakeDrive records calls and completes primitives after a set number of cycles.
type fakeDrive struct {
	cyclesToDone int
	calls        map[string]int
	lastInches   float64
	lastHeading  *float64
	lastAngle    float64
	gains        [3]float64
	dropped      *bool
	speed        drive.Speed
	resets       int
	stops        int
	left, right  float64
	distance     float64
	err          error
}

func newFakeDrive(cyclesToDone int) *fakeDrive {
	return &fakeDrive{
		cyclesToDone: cyclesToDone,
		calls:        make(map[string]int),
	}
}

func (f *fakeDrive) primitive(name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.calls[name]++
	return f.cyclesToDone > 0 && f.calls[name] >= f.cyclesToDone, nil
}

func (f *fakeDrive) DriveTo(inches, yaw float64) (bool, error) {
	f.lastInches, f.lastHeading = inches, &yaw
	return f.primitive("drive_to")
}

func (f *fakeDrive) DriveToHere(inches float64) (bool, error) {
	f.lastInches, f.lastHeading = inches, nil
	return f.primitive("drive_to_here")
}

func (f *fakeDrive) StrafeTo(inches, yaw float64) (bool, error) {
	f.lastInches, f.lastHeading = inches, &yaw
	return f.primitive("strafe_to")
}

func (f *fakeDrive) StrafeToHere(inches float64) (bool, error) {
	f.lastInches, f.lastHeading = inches, nil
	return f.primitive("strafe_to_here")
}

func (f *fakeDrive) SonicStrafeTo(inches, yaw float64) (bool, error) {
	f.lastInches, f.lastHeading = inches, &yaw
	return f.primitive("sonic_strafe_to")
}

func (f *fakeDrive) SonicStrafeToHere(inches float64) (bool, error) {
	f.lastInches, f.lastHeading = inches, nil
	return f.primitive("sonic_strafe_to_here")
}

func (f *fakeDrive) StrafeToWithoutHeading(inches float64) (bool, error) {
	f.lastInches = inches
	return f.primitive("strafe_to_without_heading")
}

func (f *fakeDrive) RotateTo(angle float64) (bool, error) {
	f.lastAngle = angle
	return f.primitive("rotate_to")
}

func (f *fakeDrive) Rotate(delta float64) (bool, error) {
	f.lastAngle = delta
	return f.primitive("rotate")
}

func (f *fakeDrive) SetDriveStraightGains(p, i, d float64) {
	f.gains = [3]float64{p, i, d}
}

func (f *fakeDrive) SetSpeed(speed drive.Speed) {
	f.speed = speed
}

func (f *fakeDrive) DropCenterWheel(drop bool) error {
	f.dropped = &drop
	return f.err
}

func (f *fakeDrive) ResetEncoders() {
	f.resets++
}

func (f *fakeDrive) SetLeftRight(left, right float64) error {
	f.left, f.right = left, right
	return f.err
}

func (f *fakeDrive) DriveDistance() float64 {
	return f.distance
}

func (f *fakeDrive) Stop() error {
	f.stops++
	f.left, f.right = 0, 0
	return nil
}

// scripted is an item that finishes on a given call with a fixed timeout.
type scripted struct {
	timeout time.Duration
	doneOn  int
	runs    int
	stops   int
}

func (s *scripted) Run() (Result, error) {
	s.runs++
	if s.doneOn > 0 && s.runs >= s.doneOn {
		return Done(), nil
	}
	return Continue(s.timeout), nil
}

func (s *scripted) Stop() error {
	s.stops++
	return nil
}
