// ABOUTME: Tests for the drift correction controller
// ABOUTME: Checks direction, proportionality and clamping of the ratio
package dynwave

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControllerRatio(t *testing.T) {
	c := DefaultController()
	const capacity = 1000

	tests := []struct {
		name      string
		nominal   float64
		occupancy int
		want      float64
	}{
		{"at target", 1.0, 500, 1.0},
		{"empty speeds up", 1.0, 0, 1.005},
		{"full slows down", 1.0, 1000, 0.995},
		{"quarter full", 1.0, 250, 1.0025},
		{"scales nominal", 48000.0 / 44100.0, 0, 48000.0 / 44100.0 * 1.005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Ratio(tt.nominal, tt.occupancy, capacity), 1e-12)
		})
	}
}

func TestControllerClamps(t *testing.T) {
	c := Controller{Gain: 0.5, MaxCorrection: 0.002, TargetFraction: 0.5}

	assert.InDelta(t, 1.002, c.Ratio(1, 0, 100), 1e-12)
	assert.InDelta(t, 0.998, c.Ratio(1, 100, 100), 1e-12)

	for occ := 0; occ <= 100; occ++ {
		r := c.Ratio(2, occ, 100)
		assert.GreaterOrEqual(t, r, 2*0.998-1e-12)
		assert.LessOrEqual(t, r, 2*1.002+1e-12)
	}
}

func TestControllerMonotonic(t *testing.T) {
	c := DefaultController()
	prev := c.Ratio(1, 0, 100)
	for occ := 1; occ <= 100; occ++ {
		r := c.Ratio(1, occ, 100)
		assert.LessOrEqual(t, r, prev, "ratio must not rise as the buffer fills")
		prev = r
	}
}

func TestControllerZeroCapacity(t *testing.T) {
	assert.Equal(t, 1.25, DefaultController().Ratio(1.25, 10, 0))
}

func TestControllerValidate(t *testing.T) {
	assert.NoError(t, DefaultController().Validate())
	assert.ErrorIs(t, Controller{Gain: -1, MaxCorrection: 0.01, TargetFraction: 0.5}.Validate(), ErrConfig)
	assert.ErrorIs(t, Controller{Gain: 0.01, MaxCorrection: 1, TargetFraction: 0.5}.Validate(), ErrConfig)
	assert.ErrorIs(t, Controller{Gain: 0.01, MaxCorrection: 0.01, TargetFraction: 1.5}.Validate(), ErrConfig)
}
