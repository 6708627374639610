package strafer

import (
	"fmt"

	"github.com/Team6378/frc-2015/internal/models"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/prometheus/procfs"
)

// The passenger seat watches the HUD and can cancel a routine. It never drives.
func NewPassengerSeat(seat *models.Seat) *vehicle.VehicleSeat[StraferState] {
	return vehicle.NewVehicleSeat[StraferState](seat, "passenger", passengerParser, passengerCenter, passengerHudUpdater)
}

func passengerParser(oldCommand, newCommand models.ControlState, state StraferState) StraferState {
	newState := state
	vehicle.NewPress(oldCommand, newCommand, CancelRoutine, newState.cancelRoutine)
	return newState
}

func passengerCenter(state StraferState) StraferState {
	return state
}

func passengerHudUpdater(state StraferState, netInfo procfs.NetDevLine) models.Hud {
	lines := make([]string, 2)

	lines[0] = fmt.Sprintf("Ctrl:%s | Hdg:%.1f | X:%.2f | Y:%.2f | Rot:%.2f",
		state.Controller,
		state.Heading,
		state.X,
		state.Y,
		state.Rotation,
	)
	lines[1] = routineLine(state)

	return models.Hud{
		Lines: lines,
	}
}
