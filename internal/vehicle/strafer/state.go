package strafer

import (
	"github.com/Team6378/frc-2015/internal/auto"
	"github.com/Team6378/frc-2015/internal/drive"
	"github.com/Team6378/frc-2015/internal/models"
	"github.com/Team6378/frc-2015/internal/vehicle"
)

func (c *StraferState) mapSticks(command models.ControlState) {
	c.X = vehicle.Axis(command.Axes, AxisX)
	c.Y = -vehicle.Axis(command.Axes, AxisY) // stick forward is negative
	c.Rotation = vehicle.Axis(command.Axes, AxisRotation)
}

func (c *StraferState) centerSticks() {
	c.X = 0
	c.Y = 0
	c.Rotation = 0
}

func (c *StraferState) setMode(mode drive.Mode) func() {
	return func() {
		c.Mode = mode
	}
}

func (c *StraferState) setSpeed(speed drive.Speed) func() {
	return func() {
		c.Speed = speed
	}
}

func (c *StraferState) dropWheel() {
	c.Wheel = WheelDrop
}

func (c *StraferState) raiseWheel() {
	c.Wheel = WheelRaise
}

func (c *StraferState) requestRoutine(name string) func() {
	return func() {
		c.RoutineRequest = name
	}
}

func (c *StraferState) cancelRoutine() {
	c.Cancel = true
}

func (c *StraferState) zeroHeading() {
	c.ZeroHeading = true
}

func (c *StraferState) clearRequests() {
	c.Wheel = WheelNoChange
	c.RoutineRequest = ""
	c.Cancel = false
	c.ZeroHeading = false
}

type routineButton struct {
	button  int
	routine string
}

var routineButtons = []routineButton{
	{button: SquareUp, routine: auto.RoutineSquareUp},
	{button: ToteStepLeft, routine: auto.RoutineToteStepLeft},
	{button: ToteStepRight, routine: auto.RoutineToteStepRight},
}
