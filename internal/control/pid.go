package control

import (
	"math"
	"time"

	"github.com/felixge/pidctrl"
)

// Source is anything a loop can sample once per cycle.
type Source interface {
	Value() float64
}

type SourceFunc func() float64

func (f SourceFunc) Value() float64 {
	return f()
}

// PID is a synchronous feedback loop. It is stepped by Update once per control
// cycle instead of running on its own goroutine, so callers decide exactly when
// the source is sampled.
type PID struct {
	source Source
	period time.Duration

	p, i, d        float64
	minOut, maxOut float64
	minIn, maxIn   float64
	continuous     bool
	tolerance      float64

	setpoint float64
	enabled  bool
	sampled  bool
	err      float64
	output   float64

	ctrl *pidctrl.PIDController
}

func NewPID(p, i, d float64, source Source, period time.Duration) *PID {
	return &PID{
		source: source,
		period: period,
		p:      p,
		i:      i,
		d:      d,
		minOut: -1,
		maxOut: 1,
	}
}

// SetPID takes per-cycle gains: I accumulates error once per Update and D acts
// on the change in measurement between two Updates.
func (c *PID) SetPID(p, i, d float64) {
	c.p, c.i, c.d = p, i, d
	if c.ctrl != nil {
		c.ctrl.SetPID(c.timeGains())
	}
}

func (c *PID) PID() (p, i, d float64) {
	return c.p, c.i, c.d
}

func (c *PID) SetOutputRange(min, max float64) {
	if min > max {
		min, max = max, min
	}
	c.minOut, c.maxOut = min, max
	if c.ctrl != nil {
		c.ctrl.SetOutputLimits(min, max)
	}
}

// SetInputRange bounds the setpoint. With continuous set the range is also the
// wrap span for the error.
func (c *PID) SetInputRange(min, max float64) {
	if min > max {
		min, max = max, min
	}
	c.minIn, c.maxIn = min, max
	c.SetSetpoint(c.setpoint)
}

func (c *PID) SetContinuous(continuous bool) {
	c.continuous = continuous
}

func (c *PID) SetTolerance(tolerance float64) {
	c.tolerance = math.Abs(tolerance)
}

func (c *PID) Tolerance() float64 {
	return c.tolerance
}

func (c *PID) SetSetpoint(setpoint float64) {
	if c.maxIn > c.minIn {
		setpoint = math.Max(c.minIn, math.Min(c.maxIn, setpoint))
	}
	c.setpoint = setpoint
	if c.ctrl != nil {
		c.ctrl.Set(setpoint)
	}
}

func (c *PID) Setpoint() float64 {
	return c.setpoint
}

// Enable starts the loop with fresh integral and derivative history.
// It does nothing if the loop is already enabled.
func (c *PID) Enable() {
	if c.enabled {
		return
	}
	c.ctrl = pidctrl.NewPIDController(c.timeGains()).
		SetOutputLimits(c.minOut, c.maxOut).
		Set(c.setpoint)
	c.enabled = true
	c.sampled = false
	c.err = 0
	c.output = 0
}

// Disable stops the loop and zeroes its output.
func (c *PID) Disable() {
	c.enabled = false
	c.sampled = false
	c.output = 0
	c.err = 0
	c.ctrl = nil
}

func (c *PID) IsEnabled() bool {
	return c.enabled
}

// Update samples the source and steps the loop by one period. The first step after
// Enable uses a zero duration so the derivative term does not kick.
func (c *PID) Update() float64 {
	if !c.enabled {
		return 0
	}

	value := c.source.Value()
	err := c.setpoint - value
	if c.continuous && c.maxIn > c.minIn {
		err = wrap(err, c.maxIn-c.minIn)
	}

	duration := c.period
	if !c.sampled {
		duration = 0
	}

	c.output = c.ctrl.UpdateDuration(c.setpoint-err, duration)
	c.err = err
	c.sampled = true
	return c.output
}

// Get returns the output of the last Update without sampling.
func (c *PID) Get() float64 {
	return c.output
}

func (c *PID) Error() float64 {
	return c.err
}

// OnTarget reports whether the last sampled error is within tolerance.
// It is false until the loop has been sampled once since Enable.
func (c *PID) OnTarget() bool {
	return c.enabled && c.sampled && math.Abs(c.err) < c.tolerance
}

// timeGains converts the per-cycle gains to the per-second gains pidctrl expects.
func (c *PID) timeGains() (p, i, d float64) {
	dt := c.period.Seconds()
	if dt <= 0 {
		return c.p, c.i, c.d
	}
	return c.p, c.i / dt, c.d * dt
}

// wrap folds err into [-span/2, span/2).
func wrap(err, span float64) float64 {
	half := span / 2
	err = math.Mod(err+half, span)
	if err < 0 {
		err += span
	}
	return err - half
}
