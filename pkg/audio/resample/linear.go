// ABOUTME: Variable-ratio linear interpolation resampler
// ABOUTME: Carries the last frame and fractional position across chunks
package resample

import "fmt"

// Linear performs linear interpolation between adjacent frames. The ratio may
// change on every call without discontinuity.
type Linear struct {
	channels int

	// position of the next output frame, in input frames relative to the
	// start of the next chunk; -1 addresses prev
	position float64
	prev     []float32
	havePrev bool

	out []float32
}

// NewLinear creates a linear resampler for interleaved audio
func NewLinear(channels int) *Linear {
	return &Linear{
		channels: channels,
		prev:     make([]float32, channels),
	}
}

// Channels returns the channel count
func (r *Linear) Channels() int {
	return r.channels
}

// Convert resamples input by ratio (output rate / input rate)
func (r *Linear) Convert(input []float32, ratio float64) ([]float32, error) {
	if !validRatio(ratio) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}
	if len(input)%r.channels != 0 {
		return nil, fmt.Errorf("%w: %d samples for %d channels", ErrMisaligned, len(input), r.channels)
	}

	r.out = r.out[:0]
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return r.out, nil
	}

	if !r.havePrev {
		r.position = 0
	}
	step := 1.0 / ratio

	for {
		idx := int(r.position)
		if r.position < 0 {
			idx = -1
		}
		if idx+1 >= inputFrames {
			break
		}

		frac := float32(r.position - float64(idx))
		for ch := 0; ch < r.channels; ch++ {
			var s1 float32
			if idx < 0 {
				s1 = r.prev[ch]
			} else {
				s1 = input[idx*r.channels+ch]
			}
			s2 := input[(idx+1)*r.channels+ch]
			r.out = append(r.out, s1+(s2-s1)*frac)
		}

		r.position += step
	}

	// Rebase onto the next chunk, keeping the fractional part
	r.position -= float64(inputFrames)
	copy(r.prev, input[(inputFrames-1)*r.channels:])
	r.havePrev = true

	return r.out, nil
}

// Reset clears the carried frame and fractional position
func (r *Linear) Reset() {
	r.position = 0
	r.havePrev = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// OutputFrames estimates how many frames Convert produces for inputFrames at ratio
func (r *Linear) OutputFrames(inputFrames int, ratio float64) int {
	if !validRatio(ratio) {
		return 0
	}
	return int(float64(inputFrames) * ratio)
}
