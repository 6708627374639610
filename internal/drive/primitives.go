package drive

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Motion primitives are called once per cycle until they report done. The first
// call activates the loops; the wheels are commanded before the completion test.
// A primitive that never settles keeps returning false, its caller owns the timeout.

// DriveTo drives the side wheels until the drive encoder reads inches, holding
// yaw. Encoders are not reset on completion.
func (d *DriveTrain) DriveTo(inches, yaw float64) (bool, error) {
	err := d.claim(ControllerDriveTo)
	if err != nil {
		return false, err
	}

	if !d.driveStraight.IsEnabled() {
		d.driveStraight.SetSetpoint(inches)
		d.driveStraight.Enable()
		log.Debug().Msgf("drive to %.2f from %.2f", inches, d.sensors.DriveEncoder.Distance())
	}
	if !d.heading.Engaged() {
		d.heading.Engage(yaw, d.straightPreset)
	}

	out := d.driveStraight.Update()
	correction := d.heading.Update()
	err = d.setMotors(out+correction, out-correction, 0)
	if err != nil {
		return false, err
	}

	if d.driveStraight.OnTarget() && math.Abs(d.sensors.DriveEncoder.Rate()) < d.cfg.LowEncoderRate {
		return true, d.finish()
	}
	return false, nil
}

// DriveToHere is DriveTo holding the heading at activation.
func (d *DriveTrain) DriveToHere(inches float64) (bool, error) {
	return d.DriveTo(inches, d.sensors.Heading.Yaw())
}

// StrafeTo drops the center wheel and strafes until the strafe encoder reads
// inches, holding yaw with the side wheels.
func (d *DriveTrain) StrafeTo(inches, yaw float64) (bool, error) {
	if d.strafe == nil {
		return false, ErrNoStrafeEncoder
	}
	err := d.claim(ControllerStrafeTo)
	if err != nil {
		return false, err
	}

	if !d.strafe.IsEnabled() {
		d.strafe.SetSetpoint(inches)
		d.strafe.Enable()
		log.Debug().Msgf("strafe to %.2f from %.2f", inches, d.sensors.StrafeEncoder.Distance())
	}

	done, err := d.strafeStep(d.strafe, yaw, true)
	if err != nil || !done {
		return false, err
	}
	if math.Abs(d.sensors.StrafeEncoder.Rate()) >= d.cfg.LowEncoderRate {
		return false, nil
	}
	return true, d.finish()
}

func (d *DriveTrain) StrafeToHere(inches float64) (bool, error) {
	return d.StrafeTo(inches, d.sensors.Heading.Yaw())
}

// SonicStrafeTo strafes until the range sensor reads inches. It completes on
// tolerance alone.
func (d *DriveTrain) SonicStrafeTo(inches, yaw float64) (bool, error) {
	if d.sonic == nil {
		return false, ErrNoRangeSensor
	}
	err := d.claim(ControllerSonicStrafeTo)
	if err != nil {
		return false, err
	}

	if !d.sonic.IsEnabled() {
		d.sonic.SetSetpoint(inches)
		d.sonic.Enable()
		log.Debug().Msgf("sonic strafe to %.2f from %.2f", inches, d.sensors.Range.Range())
	}

	done, err := d.strafeStep(d.sonic, yaw, true)
	if err != nil || !done {
		return false, err
	}
	return true, d.finish()
}

func (d *DriveTrain) SonicStrafeToHere(inches float64) (bool, error) {
	return d.SonicStrafeTo(inches, d.sensors.Heading.Yaw())
}

// StrafeToWithoutHeading strafes on the center wheel only. Claiming the wheels
// stops the previous owner, so the side wheels sit at zero and heading hold is
// released until the next controller takes over.
func (d *DriveTrain) StrafeToWithoutHeading(inches float64) (bool, error) {
	if d.strafe == nil {
		return false, ErrNoStrafeEncoder
	}
	err := d.claim(ControllerStrafeToNoHeading)
	if err != nil {
		return false, err
	}

	if !d.strafe.IsEnabled() {
		d.strafe.SetSetpoint(inches)
		d.strafe.Enable()
		log.Debug().Msgf("strafe to %.2f without heading from %.2f", inches, d.sensors.StrafeEncoder.Distance())
	}

	done, err := d.strafeStep(d.strafe, 0, false)
	if err != nil || !done {
		return false, err
	}
	if math.Abs(d.sensors.StrafeEncoder.Rate()) >= d.cfg.LowEncoderRate {
		return false, nil
	}
	return true, d.finish()
}

// strafeStep runs one strafe cycle on loop and reports whether loop is on target.
func (d *DriveTrain) strafeStep(loop interface {
	Update() float64
	OnTarget() bool
}, yaw float64, holdHeading bool) (bool, error) {
	if holdHeading && !d.heading.Engaged() {
		d.heading.Engage(yaw, d.straightPreset)
	}

	err := d.DropCenterWheel(true)
	if err != nil {
		return false, err
	}

	var out float64
	out, d.strafeLimit = LimitRate(d.strafeLimit, loop.Update(), d.cfg.StrafeMaxSignalDelta)

	if holdHeading {
		correction := d.heading.Update()
		err = d.setMotors(correction, -correction, out)
	} else {
		err = d.setMotors(d.outputs.Left, d.outputs.Right, out)
	}
	if err != nil {
		return false, err
	}
	return loop.OnTarget(), nil
}

// RotateTo turns in place to angle degrees. It completes once the heading has been
// inside tolerance for the configured number of consecutive cycles.
func (d *DriveTrain) RotateTo(angle float64) (bool, error) {
	err := d.claim(ControllerRotateTo)
	if err != nil {
		return false, err
	}

	if !d.heading.Engaged() {
		d.heading.Engage(angle, d.rotatePreset)
	}

	out := d.heading.Update()
	err = d.setMotors(out, -out, 0)
	if err != nil {
		return false, err
	}

	if d.heading.OnTarget() {
		d.streak++
	} else {
		d.streak = 0
	}

	if d.streak >= d.cfg.RotateOnTargetCycles {
		return true, d.finish()
	}
	return false, nil
}

// Rotate turns delta degrees from the heading at activation.
func (d *DriveTrain) Rotate(delta float64) (bool, error) {
	return d.RotateTo(d.sensors.Heading.Yaw() + delta)
}

// OnTargetStreak is the number of consecutive on target cycles of rotate-to.
func (d *DriveTrain) OnTargetStreak() int {
	return d.streak
}

// finish ends the active primitive and leaves the wheels idle.
func (d *DriveTrain) finish() error {
	log.Debug().Msgf("%s finished", d.active)
	return d.release()
}
