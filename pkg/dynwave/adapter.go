// ABOUTME: Dynamic resampler adapter between producer and streaming buffer
// ABOUTME: Retunes the conversion ratio from buffer occupancy on every chunk
package dynwave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/dynwave/dynwave-go/pkg/audio/resample"
	"github.com/dynwave/dynwave-go/pkg/audio/ring"
)

// Adapter resamples float32 chunks at a controller-chosen ratio, encodes them
// in the device format and pushes them into the ring. Producer side only.
type Adapter struct {
	converter  resample.Converter
	controller Controller
	ring       *ring.Buffer
	format     audio.Format
	nominal    float64
	logger     *slog.Logger

	ratio   float64
	encoded []byte
	retries uint64
}

// NewAdapter wires a converter to a ring holding frames in format
func NewAdapter(converter resample.Converter, controller Controller, buf *ring.Buffer, format audio.Format, nominal float64, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		converter:  converter,
		controller: controller,
		ring:       buf,
		format:     format,
		nominal:    nominal,
		logger:     logger,
		ratio:      nominal,
	}
}

// Process converts one chunk of interleaved samples and pushes it. It blocks
// while the ring is full. On a converter error the ratio and converter state
// are reset and the chunk is retried once at the nominal ratio.
func (a *Adapter) Process(ctx context.Context, samples []float32) error {
	a.ratio = a.controller.Ratio(a.nominal, a.ring.Occupancy(), a.ring.Capacity())

	out, err := a.converter.Convert(samples, a.ratio)
	if err != nil {
		a.retries++
		a.logger.Warn("Rate converter failed, retrying at nominal ratio",
			"ratio", a.ratio,
			"error", err)

		a.Reset()
		out, err = a.converter.Convert(samples, a.nominal)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrResample, err)
		}
	}

	size := audio.EncodedSize(len(out), a.format.Sample)
	if cap(a.encoded) < size {
		a.encoded = make([]byte, size)
	}
	a.encoded = a.encoded[:size]
	audio.Encode(a.encoded, out, a.format.Sample)

	if _, err := a.ring.Push(ctx, a.encoded); err != nil {
		if errors.Is(err, ring.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Reset restores the nominal ratio and clears converter state
func (a *Adapter) Reset() {
	a.ratio = a.nominal
	a.converter.Reset()
}

// Ratio returns the ratio used for the most recent chunk
func (a *Adapter) Ratio() float64 {
	return a.ratio
}

// Nominal returns the uncorrected output/input rate ratio
func (a *Adapter) Nominal() float64 {
	return a.nominal
}

// Retries returns how many chunks needed a converter reset
func (a *Adapter) Retries() uint64 {
	return a.retries
}
