// ABOUTME: Occupancy feedback controller for drift correction
// ABOUTME: Computes a bounded resampling ratio from buffer fill level
package dynwave

import "fmt"

// Controller defaults
const (
	DefaultGain           = 0.01
	DefaultMaxCorrection  = 0.005
	DefaultTargetFraction = 0.5
)

// Controller is a proportional controller that holds buffer occupancy near
// TargetFraction of capacity. Gain scales the normalized occupancy error and
// MaxCorrection bounds the relative deviation from the nominal ratio.
type Controller struct {
	Gain           float64
	MaxCorrection  float64
	TargetFraction float64
}

// DefaultController returns the controller used when none is configured
func DefaultController() Controller {
	return Controller{
		Gain:           DefaultGain,
		MaxCorrection:  DefaultMaxCorrection,
		TargetFraction: DefaultTargetFraction,
	}
}

// Validate checks the controller parameters
func (c Controller) Validate() error {
	if c.Gain < 0 {
		return fmt.Errorf("%w: negative controller gain %v", ErrConfig, c.Gain)
	}
	if c.MaxCorrection < 0 || c.MaxCorrection >= 1 {
		return fmt.Errorf("%w: correction bound %v outside [0, 1)", ErrConfig, c.MaxCorrection)
	}
	if c.TargetFraction < 0 || c.TargetFraction > 1 {
		return fmt.Errorf("%w: target fraction %v outside [0, 1]", ErrConfig, c.TargetFraction)
	}
	return nil
}

// Ratio returns nominal*(1 + Gain*(target-occupancy)/capacity) clamped to
// nominal*(1±MaxCorrection). A low buffer raises the ratio so each input
// chunk yields more output frames.
func (c Controller) Ratio(nominal float64, occupancy, capacity int) float64 {
	if capacity <= 0 {
		return nominal
	}

	target := c.TargetFraction * float64(capacity)
	correction := c.Gain * (target - float64(occupancy)) / float64(capacity)
	correction = max(-c.MaxCorrection, min(c.MaxCorrection, correction))

	return nominal * (1 + correction)
}
