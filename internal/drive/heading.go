package drive

import (
	"time"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/control"
	"github.com/rs/zerolog/log"
)

// Preset is a gain and tolerance set for the heading loop.
type Preset struct {
	Gains     config.Gains
	Tolerance float64
}

// HeadingHold owns the single heading loop shared by teleop translation, the
// translational primitives and rotate-to.
type HeadingHold struct {
	sensor  HeadingSensor
	loop    *control.PID
	engaged bool
	desired float64
	preset  Preset
}

func NewHeadingHold(sensor HeadingSensor, preset Preset, period time.Duration) *HeadingHold {
	loop := control.NewPID(preset.Gains.P, preset.Gains.I, preset.Gains.D, control.SourceFunc(sensor.Yaw), period)
	loop.SetInputRange(-180, 180)
	loop.SetContinuous(true)
	loop.SetTolerance(preset.Tolerance)
	return &HeadingHold{
		sensor: sensor,
		loop:   loop,
		preset: preset,
	}
}

// Engage starts holding heading with the given preset. It is a no-op while
// already engaged, so the held heading is only sampled on the rising edge.
func (h *HeadingHold) Engage(heading float64, preset Preset) {
	if h.engaged {
		return
	}
	h.Retune(preset)
	h.desired = normalizeDegrees(heading)
	h.loop.SetSetpoint(h.desired)
	h.loop.Enable()
	h.engaged = true
	log.Debug().Msgf("heading hold engaged at %.2f", h.desired)
}

func (h *HeadingHold) Disengage() {
	if h.engaged {
		log.Debug().Msg("heading hold disengaged")
	}
	h.loop.Disable()
	h.engaged = false
}

func (h *HeadingHold) Retune(preset Preset) {
	h.preset = preset
	h.loop.SetPID(preset.Gains.P, preset.Gains.I, preset.Gains.D)
	h.loop.SetTolerance(preset.Tolerance)
}

func (h *HeadingHold) Engaged() bool {
	return h.engaged
}

func (h *HeadingHold) DesiredHeading() float64 {
	return h.desired
}

func (h *HeadingHold) Preset() Preset {
	return h.preset
}

// Update samples the heading sensor and steps the loop. It returns zero while disengaged.
func (h *HeadingHold) Update() float64 {
	return h.loop.Update()
}

// CorrectionOutput is the output of the last Update.
func (h *HeadingHold) CorrectionOutput() float64 {
	return h.loop.Get()
}

func (h *HeadingHold) Error() float64 {
	return h.loop.Error()
}

func (h *HeadingHold) OnTarget() bool {
	return h.loop.OnTarget()
}
