package drive

import (
	"math"

	"github.com/Team6378/frc-2015/internal/config"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeStrafeOnly
	ModeSlowStrafeOnly
	ModeForcedNoStrafe
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeStrafeOnly:
		return "strafe"
	case ModeSlowStrafeOnly:
		return "slow strafe"
	case ModeForcedNoStrafe:
		return "no strafe"
	default:
		return "unknown"
	}
}

// AxisIntent is one cycle of shaped operator input, each axis in [-1, 1].
type AxisIntent struct {
	X        float64
	Y        float64
	Rotation float64
}

// RateLimitState is the last value let through a rate limited channel.
type RateLimitState struct {
	Last float64
}

// LimitRate moves value no further than maxDelta from the last output and clamps
// the result to [-1, 1]. The returned state always holds the returned value.
func LimitRate(state RateLimitState, value, maxDelta float64) (float64, RateLimitState) {
	if value > state.Last+maxDelta {
		value = state.Last + maxDelta
	} else if value < state.Last-maxDelta {
		value = state.Last - maxDelta
	}
	value = clamp(value)
	return value, RateLimitState{Last: value}
}

// DeadbandAndScale zeroes inputs inside the deadband and linearly maps the rest so
// the deadband edge gives minOutput and full deflection gives maxOutput.
func DeadbandAndScale(value, deadband, minOutput, maxOutput float64) float64 {
	mag := math.Abs(value)
	if mag < deadband {
		return 0
	}
	if mag > 1 {
		mag = 1
	}
	if deadband >= 1 {
		return math.Copysign(maxOutput, value)
	}
	out := minOutput + (mag-deadband)*(maxOutput-minOutput)/(1-deadband)
	return math.Copysign(out, value)
}

// Mixer shapes raw stick axes into an AxisIntent. It owns the drive mode and the
// anti-tip rate limit memory for X and Y.
type Mixer struct {
	cfg  config.DriveConfig
	mode Mode
	x    RateLimitState
	y    RateLimitState
}

func NewMixer(cfg config.DriveConfig) *Mixer {
	return &Mixer{cfg: cfg}
}

func (m *Mixer) Mode() Mode {
	return m.mode
}

func (m *Mixer) SetMode(mode Mode) {
	m.mode = mode
}

// Last returns the rate limited X and Y of the previous cycle.
func (m *Mixer) Last() (x, y float64) {
	return m.x.Last, m.y.Last
}

func (m *Mixer) ResetX() {
	m.x = RateLimitState{}
}

func (m *Mixer) Reset() {
	m.x = RateLimitState{}
	m.y = RateLimitState{}
}

func (m *Mixer) Mix(rawX, rawY, rawRotation float64) AxisIntent {
	x := DeadbandAndScale(rawX, m.cfg.DeadbandX, m.cfg.DeadbandMinOutput, 1)
	y := DeadbandAndScale(rawY, m.cfg.DeadbandY, m.cfg.DeadbandMinOutput, 1)
	rotation := DeadbandAndScale(rawRotation, m.cfg.DeadbandRotation, m.cfg.DeadbandMinOutput, 1)

	switch m.mode {
	case ModeStrafeOnly:
		y = 0
		rotation = 0
	case ModeSlowStrafeOnly:
		y = 0
		x *= m.cfg.SlowStrafeScalar
		rotation = 0
	case ModeForcedNoStrafe:
		x = 0
		rotation = 0
	}

	x = clamp(x)
	y = clamp(y)

	x, m.x = LimitRate(m.x, x, m.cfg.MaxDeltaX)

	// Speeding up out of reverse is where the chassis tips.
	maxDeltaY := m.cfg.MaxDeltaY
	if y > m.y.Last && m.y.Last < 0 {
		maxDeltaY = m.cfg.MaxDeltaYDanger
	}
	y, m.y = LimitRate(m.y, y, maxDeltaY)

	return AxisIntent{
		X:        x,
		Y:        y,
		Rotation: clamp(rotation),
	}
}

// strafeMix normalizes a strafe vector so the larger component is scaled to the
// stick magnitude. y is divided by tuning to balance side and center wheel speeds.
func strafeMix(x, y, tuning float64) (yOut, xOut float64) {
	if tuning <= 0 {
		tuning = 1
	}
	scaledY := y / tuning
	denominator := math.Max(math.Abs(x), math.Abs(scaledY))
	if denominator == 0 {
		return 0, 0
	}
	magnitude := math.Hypot(x, y)
	return scaledY / denominator * magnitude, x / denominator * magnitude
}

func clamp(value float64) float64 {
	if value > 1 {
		return 1
	}
	if value < -1 {
		return -1
	}
	return value
}

func normalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle+180, 360)
	if angle < 0 {
		angle += 360
	}
	return angle - 180
}
