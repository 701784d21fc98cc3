// ABOUTME: Polyphase FIR stage backed by go-audio-resampler
// ABOUTME: Converts interleaved float32 to planar float64 and back
package resample

import (
	"fmt"

	soxr "github.com/tphakala/go-audio-resampler"
	"github.com/tphakala/simd/f64"
)

type soxrStage struct {
	r        soxr.Resampler
	channels int

	planar [][]float64
	mixed  []float64
	out    []float32
}

func soxrPreset(q Quality) soxr.QualityPreset {
	switch q {
	case QualityQuick:
		return soxr.QualityQuick
	case QualityLow:
		return soxr.QualityLow
	case QualityHigh:
		return soxr.QualityHigh
	case QualityVeryHigh:
		return soxr.QualityVeryHigh
	default:
		return soxr.QualityMedium
	}
}

func newSoxrStage(opts Options) (*soxrStage, error) {
	r, err := soxr.New(&soxr.Config{
		InputRate:  float64(opts.InputRate),
		OutputRate: float64(opts.OutputRate),
		Channels:   opts.Channels,
		Quality:    soxr.QualitySpec{Preset: soxrPreset(opts.Quality)},
		EnableSIMD: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating soxr stage: %w", err)
	}

	return &soxrStage{
		r:        r,
		channels: opts.Channels,
		planar:   make([][]float64, opts.Channels),
	}, nil
}

func (s *soxrStage) process(input []float32) ([]float32, error) {
	frames := len(input) / s.channels
	for ch := range s.planar {
		if cap(s.planar[ch]) < frames {
			s.planar[ch] = make([]float64, frames)
		}
		s.planar[ch] = s.planar[ch][:frames]
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < s.channels; ch++ {
			s.planar[ch][i] = float64(input[i*s.channels+ch])
		}
	}

	result, err := s.r.ProcessMulti(s.planar)
	if err != nil {
		return nil, fmt.Errorf("soxr stage: %w", err)
	}

	outFrames := len(result[0])
	for _, ch := range result[1:] {
		outFrames = min(outFrames, len(ch))
	}

	n := outFrames * s.channels
	if cap(s.mixed) < n {
		s.mixed = make([]float64, n)
	}
	s.mixed = s.mixed[:n]

	if s.channels == 2 {
		f64.Interleave2(s.mixed, result[0][:outFrames], result[1][:outFrames])
	} else {
		for i := 0; i < outFrames; i++ {
			for ch := 0; ch < s.channels; ch++ {
				s.mixed[i*s.channels+ch] = result[ch][i]
			}
		}
	}

	if cap(s.out) < n {
		s.out = make([]float32, n)
	}
	s.out = s.out[:n]
	for i, v := range s.mixed {
		s.out[i] = float32(v)
	}
	return s.out, nil
}

func (s *soxrStage) reset() {
	s.r.Reset()
}
