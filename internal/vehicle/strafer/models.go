package strafer

import (
	"context"
	"sync"
	"time"

	"github.com/Team6378/frc-2015/internal/auto"
	"github.com/Team6378/frc-2015/internal/drive"
	"github.com/Team6378/frc-2015/internal/vehicle"
)

const (
	MaxSeats = 2

	//Driver button map
	ModeNormal         = 0
	ModeStrafeOnly     = 1
	ModeSlowStrafeOnly = 2
	ModeNoStrafe       = 3
	SpeedSlow          = 4
	SpeedNormal        = 5
	SpeedFast          = 6
	DropWheel          = 7
	RaiseWheel         = 8
	SquareUp           = 9
	ToteStepLeft       = 10
	ToteStepRight      = 11
	CancelRoutine      = 12
	ZeroHeading        = 13

	//Driver axis map
	AxisX        = 0
	AxisY        = 1
	AxisRotation = 2

	hudEvery = 5 // cycles
)

type WheelRequest int

const (
	WheelNoChange WheelRequest = iota
	WheelDrop
	WheelRaise
)

// Device is a sensor reader that runs for the life of the vehicle.
type Device interface {
	Start(context.Context) error
}

type Strafer struct {
	period         time.Duration
	netInterface   string
	healthInterval time.Duration

	lock          sync.RWMutex
	seats         []*vehicle.VehicleSeat[StraferState]
	state         StraferState
	commandDriver vehicle.CommandDriverIFace
	devices       []Device

	train    *drive.DriveTrain
	factory  *auto.Factory
	sequence *auto.Sequencer
	cycles   uint64
}

// StraferState is the operator intent merged from the seats plus what the HUD
// shows. Requests are one shot and cleared after every cycle.
type StraferState struct {
	X        float64
	Y        float64
	Rotation float64
	Mode     drive.Mode
	Speed    drive.Speed

	Wheel          WheelRequest
	RoutineRequest string
	Cancel         bool
	ZeroHeading    bool

	Controller   drive.Controller
	Heading      float64
	WheelDropped bool
	Routine      string
	RoutineStep  int
	RoutineSteps int
}
