package strafer

import (
	"fmt"

	"github.com/Team6378/frc-2015/internal/drive"
	"github.com/Team6378/frc-2015/internal/models"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/prometheus/procfs"
)

func NewDriverSeat(seat *models.Seat) *vehicle.VehicleSeat[StraferState] {
	return vehicle.NewVehicleSeat[StraferState](seat, "driver", driverParser, driverCenter, driverHudUpdater)
}

func driverParser(oldCommand, newCommand models.ControlState, state StraferState) StraferState {
	newState := state

	vehicle.NewPress(oldCommand, newCommand, ModeNormal, newState.setMode(drive.ModeNormal))
	vehicle.NewPress(oldCommand, newCommand, ModeStrafeOnly, newState.setMode(drive.ModeStrafeOnly))
	vehicle.NewPress(oldCommand, newCommand, ModeSlowStrafeOnly, newState.setMode(drive.ModeSlowStrafeOnly))
	vehicle.NewPress(oldCommand, newCommand, ModeNoStrafe, newState.setMode(drive.ModeForcedNoStrafe))

	vehicle.NewPress(oldCommand, newCommand, SpeedSlow, newState.setSpeed(drive.SpeedSlow))
	vehicle.NewPress(oldCommand, newCommand, SpeedNormal, newState.setSpeed(drive.SpeedNormal))
	vehicle.NewPress(oldCommand, newCommand, SpeedFast, newState.setSpeed(drive.SpeedFast))

	vehicle.NewPress(oldCommand, newCommand, DropWheel, newState.dropWheel)
	vehicle.NewPress(oldCommand, newCommand, RaiseWheel, newState.raiseWheel)

	for _, b := range routineButtons {
		vehicle.NewPress(oldCommand, newCommand, b.button, newState.requestRoutine(b.routine))
	}
	vehicle.NewPress(oldCommand, newCommand, CancelRoutine, newState.cancelRoutine)
	vehicle.NewPress(oldCommand, newCommand, ZeroHeading, newState.zeroHeading)

	newState.mapSticks(newCommand)
	return newState
}

// driverCenter stops the wheels and any routine the driver started.
func driverCenter(state StraferState) StraferState {
	newState := state
	newState.centerSticks()
	newState.Cancel = newState.Routine != ""
	return newState
}

func driverHudUpdater(state StraferState, netInfo procfs.NetDevLine) models.Hud {
	lines := make([]string, 3)

	lines[0] = fmt.Sprintf("RxPkt:%d | RxErr:%d | RxDrop: %d | TxPkt:%d | TxErr:%d | TxDrop: %d",
		netInfo.RxPackets,
		netInfo.RxErrors,
		netInfo.RxDropped,
		netInfo.TxPackets,
		netInfo.TxErrors,
		netInfo.TxDropped,
	)

	lines[1] = fmt.Sprintf("Mode:%s | Speed:%s | Wheel:%s | Ctrl:%s | Hdg:%.1f",
		state.Mode,
		state.Speed,
		wheelName(state.WheelDropped),
		state.Controller,
		state.Heading,
	)

	lines[2] = routineLine(state)

	return models.Hud{
		Lines: lines,
	}
}

func wheelName(dropped bool) string {
	if dropped {
		return "down"
	}
	return "up"
}

func routineLine(state StraferState) string {
	if state.Routine == "" {
		return "Routine: none"
	}
	return fmt.Sprintf("Routine:%s | Step:%d/%d", state.Routine, state.RoutineStep+1, state.RoutineSteps)
}
