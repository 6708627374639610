package vehicle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Team6378/frc-2015/internal/models"
	"github.com/prometheus/procfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Throttle float64
	Presses  int
}

func newTestSeat() (*VehicleSeat[testState], *models.Seat) {
	seat := &models.Seat{
		CommandChannel: make(chan models.ControlState, 10),
		HudChannel:     make(chan models.Hud, 1),
	}
	parser := func(oldCommand, newCommand models.ControlState, state testState) testState {
		state.Throttle = Axis(newCommand.Axes, 1)
		NewPress(oldCommand, newCommand, 0, func() { state.Presses++ })
		return state
	}
	centerer := func(state testState) testState {
		state.Throttle = 0
		return state
	}
	hud := func(state testState, _ procfs.NetDevLine) models.Hud {
		return models.Hud{Lines: []string{"hud"}}
	}
	return NewVehicleSeat[testState](seat, "driver", parser, centerer, hud), seat
}

func TestVehicleSeat_InactiveCenters(t *testing.T) {
	seat, _ := newTestSeat()
	state := seat.ApplyCommand(testState{Throttle: 0.8})
	assert.Zero(t, state.Throttle)
	assert.False(t, seat.Active())
}

func TestVehicleSeat_SkipsFirstCommandThenParses(t *testing.T) {
	seat, _ := newTestSeat()
	now := time.Now()

	seat.receive(models.ControlState{Axes: []float64{0, 0.5}, TimeStamp: 1000}, now)
	state := seat.ApplyCommand(testState{})
	assert.Zero(t, state.Throttle, "first command only primes the seat")

	seat.receive(models.ControlState{Axes: []float64{0, 0.5}, BitButton: 1, TimeStamp: 1030}, now)
	state = seat.ApplyCommand(state)
	assert.Equal(t, 0.5, state.Throttle)
	assert.Equal(t, 1, state.Presses)

	seat.receive(models.ControlState{Axes: []float64{0, 0.6}, BitButton: 1, TimeStamp: 1060}, now)
	state = seat.ApplyCommand(state)
	assert.Equal(t, 1, state.Presses, "held button is not a new press")
}

func TestVehicleSeat_DropsStaleCommands(t *testing.T) {
	seat, _ := newTestSeat()
	now := time.Now()

	seat.receive(models.ControlState{Axes: []float64{0, 0.1}, TimeStamp: 2000}, now)
	seat.receive(models.ControlState{Axes: []float64{0, 0.9}, TimeStamp: 1500}, now)
	seat.ApplyCommand(testState{})

	seat.receive(models.ControlState{Axes: []float64{0, 0.2}, TimeStamp: 2020}, now)
	state := seat.ApplyCommand(testState{})
	assert.Equal(t, 0.2, state.Throttle)
}

func TestVehicleSeat_SkipsHighLatency(t *testing.T) {
	seat, _ := newTestSeat()
	now := time.Now()

	seat.receive(models.ControlState{Axes: []float64{0, 0.1}, TimeStamp: 1000}, now)
	seat.ApplyCommand(testState{})
	seat.receive(models.ControlState{Axes: []float64{0, 0.7}, TimeStamp: 1500}, now)

	state := seat.ApplyCommand(testState{Throttle: 0.3})
	assert.Equal(t, 0.3, state.Throttle)
}

func TestVehicleSeat_SafetyTimeout(t *testing.T) {
	seat, _ := newTestSeat()
	now := time.Now()

	seat.receive(models.ControlState{TimeStamp: 1}, now)
	assert.True(t, seat.Active())

	seat.expire(now.Add(100 * time.Millisecond))
	assert.True(t, seat.Active())

	seat.expire(now.Add(250 * time.Millisecond))
	assert.False(t, seat.Active())
}

func TestVehicleSeat_UpdateHud(t *testing.T) {
	seat, raw := newTestSeat()

	seat.UpdateHud(testState{}, procfs.NetDevLine{})
	assert.Len(t, raw.HudChannel, 0, "inactive seats get no hud")

	seat.receive(models.ControlState{TimeStamp: 1}, time.Now())
	seat.UpdateHud(testState{}, procfs.NetDevLine{})
	seat.UpdateHud(testState{}, procfs.NetDevLine{})
	assert.Len(t, raw.HudChannel, 1, "full hud channel drops updates")
}

func TestVehicleSeat_StartStopsOnCancel(t *testing.T) {
	seat, raw := newTestSeat()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- seat.Start(ctx) }()

	raw.CommandChannel <- models.ControlState{TimeStamp: 5}
	require.Eventually(t, seat.Active, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("seat did not stop")
	}
}

func TestNewPress(t *testing.T) {
	masks := BuildButtonMasks()
	oldState := models.ControlState{Buttons: ParseButtons(0, masks)}
	newState := models.ControlState{Buttons: ParseButtons(1<<3, masks)}

	called := 0
	pressed, err := NewPress(oldState, newState, 3, func() { called++ })
	require.NoError(t, err)
	assert.True(t, pressed)
	assert.Equal(t, 1, called)

	pressed, err = NewPress(newState, newState, 3, func() { called++ })
	require.NoError(t, err)
	assert.False(t, pressed)

	_, err = NewPress(oldState, newState, 32, func() {})
	assert.Error(t, err)

	_, err = NewPress(models.ControlState{}, newState, 0, func() {})
	assert.Error(t, err)
}

func TestParseButtons(t *testing.T) {
	buttons := ParseButtons(0b1010, BuildButtonMasks())
	require.Len(t, buttons, 32)
	assert.False(t, buttons[0])
	assert.True(t, buttons[1])
	assert.False(t, buttons[2])
	assert.True(t, buttons[3])
}

func TestMapToRange(t *testing.T) {
	assert.Equal(t, 0.5, MapToRange(0, -1, 1, 0, 1))
	assert.Equal(t, 1.0, MapToRange(2, -1, 1, 0, 1))
	assert.Equal(t, 0.0, MapToRange(-3, -1, 1, 0, 1))
}

func TestAxis(t *testing.T) {
	axes := []float64{0.1, 0.2}
	assert.Equal(t, 0.2, Axis(axes, 1))
	assert.Zero(t, Axis(axes, 5))
	assert.Zero(t, Axis(nil, 0))
}
