// ABOUTME: Sine tone producer for the demo player
// ABOUTME: Emits one 60 Hz video frame of audio per step with optional clock skew
package tone

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// StepsPerSecond matches the video frame rate an emulator front end runs at
const StepsPerSecond = 60

// Source generates a sine wave duplicated on every channel
type Source struct {
	mu         sync.Mutex
	frequency  float64
	amplitude  float64
	sampleRate int
	channels   int
	index      uint64
}

// NewSource creates a tone generator. amplitude is clamped to [0, 1].
func NewSource(frequency, amplitude float64, sampleRate, channels int) *Source {
	return &Source{
		frequency:  frequency,
		amplitude:  max(0, min(1, amplitude)),
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }

// SetFrequency changes the pitch without resetting phase position
func (s *Source) SetFrequency(hz float64) {
	s.mu.Lock()
	s.frequency = hz
	s.mu.Unlock()
}

// ReadFloat32 fills whole frames of samples and returns the frame count
func (s *Source) ReadFloat32(samples []float32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(samples) / s.channels
	for i := 0; i < frames; i++ {
		v := float32(s.next(i))
		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = v
		}
	}
	s.index += uint64(frames)
	return frames
}

// ReadInt16 is ReadFloat32 for 16-bit PCM
func (s *Source) ReadInt16(samples []int16) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(samples) / s.channels
	for i := 0; i < frames; i++ {
		v := int16(s.next(i) * math.MaxInt16)
		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = v
		}
	}
	s.index += uint64(frames)
	return frames
}

func (s *Source) next(i int) float64 {
	t := float64(s.index+uint64(i)) / float64(s.sampleRate)
	return s.amplitude * math.Sin(2*math.Pi*s.frequency*t)
}

// Pacer yields per-step frame counts for a producer whose clock runs skewPPM
// parts per million away from its nominal rate. Fractional frames carry over.
// SetSkew may be called concurrently with Run.
type Pacer struct {
	perStep float64
	skew    atomic.Uint64
	acc     float64
}

// NewPacer creates a pacer for rate at StepsPerSecond
func NewPacer(rate int, skewPPM float64) *Pacer {
	p := &Pacer{perStep: float64(rate) / StepsPerSecond}
	p.SetSkew(skewPPM)
	return p
}

// SetSkew changes the producer clock offset
func (p *Pacer) SetSkew(ppm float64) {
	p.skew.Store(math.Float64bits(ppm))
}

// Skew returns the producer clock offset in parts per million
func (p *Pacer) Skew() float64 {
	return math.Float64frombits(p.skew.Load())
}

// Next returns the frame count for the next step
func (p *Pacer) Next() int {
	p.acc += p.perStep * (1 + p.Skew()/1e6)
	n := int(p.acc)
	p.acc -= float64(n)
	return n
}

// Run calls step with the frame count for each step until ctx is done or step
// fails. Steps are ticked at StepsPerSecond; a step that blocks delays the next.
func (p *Pacer) Run(ctx context.Context, step func(ctx context.Context, frames int) error) error {
	ticker := time.NewTicker(time.Second / StepsPerSecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := step(ctx, p.Next()); err != nil {
				return err
			}
		}
	}
}
