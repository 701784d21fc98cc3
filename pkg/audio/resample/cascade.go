// ABOUTME: Fixed-ratio stage followed by a variable linear trim
// ABOUTME: Lets filter-based resamplers follow a drifting ratio
package resample

import "fmt"

// stage is a fixed-ratio resampler over interleaved float32 frames
type stage interface {
	process(input []float32) ([]float32, error)
	reset()
}

// cascade runs a high quality stage at the nominal ratio and absorbs the
// small drift correction in a linear trim stage
type cascade struct {
	stage    stage
	trim     *Linear
	nominal  float64
	channels int
}

func newCascade(s stage, opts Options) *cascade {
	return &cascade{
		stage:    s,
		trim:     NewLinear(opts.Channels),
		nominal:  float64(opts.OutputRate) / float64(opts.InputRate),
		channels: opts.Channels,
	}
}

func (c *cascade) Channels() int {
	return c.channels
}

func (c *cascade) Convert(input []float32, ratio float64) ([]float32, error) {
	if !validRatio(ratio) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}
	if len(input)%c.channels != 0 {
		return nil, fmt.Errorf("%w: %d samples for %d channels", ErrMisaligned, len(input), c.channels)
	}

	mid, err := c.stage.process(input)
	if err != nil {
		return nil, err
	}
	return c.trim.Convert(mid, ratio/c.nominal)
}

func (c *cascade) Reset() {
	c.stage.reset()
	c.trim.Reset()
}
