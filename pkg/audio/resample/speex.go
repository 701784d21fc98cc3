// ABOUTME: Sinc resampling stage backed by the oov speex port
// ABOUTME: Processes each channel of an interleaved chunk separately
package resample

import (
	speex "github.com/oov/audio/resampler"
)

type speexStage struct {
	r        *speex.Resampler
	channels int
	inRate   int
	outRate  int
	quality  int

	in  [][]float32
	res [][]float32
	out []float32
}

// speexQuality maps onto the 0-10 speex scale
func speexQuality(q Quality) int {
	switch q {
	case QualityQuick:
		return 0
	case QualityLow:
		return 3
	case QualityHigh:
		return 8
	case QualityVeryHigh:
		return 10
	default:
		return 5
	}
}

func newSpeexStage(opts Options) *speexStage {
	q := speexQuality(opts.Quality)
	return &speexStage{
		r:        speex.New(opts.Channels, opts.InputRate, opts.OutputRate, q),
		channels: opts.Channels,
		inRate:   opts.InputRate,
		outRate:  opts.OutputRate,
		quality:  q,
		in:       make([][]float32, opts.Channels),
		res:      make([][]float32, opts.Channels),
	}
}

func (s *speexStage) process(input []float32) ([]float32, error) {
	frames := len(input) / s.channels
	room := frames*s.outRate/s.inRate + 64

	for ch := 0; ch < s.channels; ch++ {
		if cap(s.in[ch]) < frames {
			s.in[ch] = make([]float32, frames)
		}
		s.in[ch] = s.in[ch][:frames]
		if cap(s.res[ch]) < room {
			s.res[ch] = make([]float32, room)
		}
		s.res[ch] = s.res[ch][:0]
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < s.channels; ch++ {
			s.in[ch][i] = input[i*s.channels+ch]
		}
	}

	outFrames := -1
	for ch := 0; ch < s.channels; ch++ {
		src := s.in[ch]
		dst := s.res[ch][:room]
		total := 0
		for len(src) > 0 {
			read, written := s.r.ProcessFloat32(ch, src, dst[total:])
			total += written
			src = src[read:]
			if total == len(dst) {
				dst = append(dst, make([]float32, room)...)
				continue
			}
			if read == 0 && written == 0 {
				break
			}
		}
		s.res[ch] = dst[:total]
		if outFrames < 0 || total < outFrames {
			outFrames = total
		}
	}

	n := outFrames * s.channels
	if cap(s.out) < n {
		s.out = make([]float32, n)
	}
	s.out = s.out[:n]
	for i := 0; i < outFrames; i++ {
		for ch := 0; ch < s.channels; ch++ {
			s.out[i*s.channels+ch] = s.res[ch][i]
		}
	}
	return s.out, nil
}

func (s *speexStage) reset() {
	s.r = speex.New(s.channels, s.inRate, s.outRate, s.quality)
}
