package command

import (
	"testing"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/stretchr/testify/assert"
)

func TestFraction(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		offset   float64
		inverted bool
		want     float64
	}{
		{name: "neutral", value: 0, want: 0.5},
		{name: "full forward", value: 1, want: 1},
		{name: "full reverse", value: -1, want: 0},
		{name: "half", value: 0.5, want: 0.75},
		{name: "inverted", value: 0.5, inverted: true, want: 0.25},
		{name: "offset", value: 0, offset: 0.1, want: 0.55},
		{name: "clamped", value: 3, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := vehicle.DriverCommand{Name: "left", Value: tt.value, Min: -1, Max: 1}
			assert.InDelta(t, tt.want, Fraction(cmd, tt.offset, tt.inverted), 1e-9)
		})
	}
}

func TestFraction_DegenerateRange(t *testing.T) {
	cmd := vehicle.DriverCommand{Name: "left", Value: 1, Min: 1, Max: 1}
	assert.Equal(t, Neutral, Fraction(cmd, 0, false))
}

func TestSet_UnknownOutputIgnored(t *testing.T) {
	c := NewCommand(config.CommandConfig{})
	assert.NoError(t, c.Set(vehicle.DriverCommand{Name: "nope", Value: 1, Min: -1, Max: 1}))
	assert.NoError(t, c.Stop())
}
