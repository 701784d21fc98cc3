// ABOUTME: Rate converter interface and constructor
// ABOUTME: Selects linear, soxr or speex conversion from Options
package resample

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidRatio is returned for ratios that are not finite and positive
	ErrInvalidRatio = errors.New("invalid resampling ratio")
	// ErrMisaligned is returned when input is not a whole number of frames
	ErrMisaligned = errors.New("input is not a whole number of frames")
)

// Converter is a stateful resampler over interleaved float32 frames.
type Converter interface {
	// Convert resamples input by ratio (output rate / input rate). The returned
	// slice is owned by the converter and valid until the next call.
	Convert(input []float32, ratio float64) ([]float32, error)

	// Reset clears filter history and fractional position
	Reset()

	// Channels returns the channel count fixed at construction
	Channels() int
}

// Kind selects the converter implementation
type Kind string

const (
	KindLinear Kind = "linear"
	KindSoxr   Kind = "soxr"
	KindSpeex  Kind = "speex"
)

// ParseKind parses a converter name from configuration
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLinear, KindSoxr, KindSpeex:
		return k, nil
	case "":
		return KindLinear, nil
	default:
		return "", fmt.Errorf("unknown resampler kind: %q", s)
	}
}

// Quality is a generic quality level mapped onto each backend's own scale
type Quality int

const (
	QualityQuick Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
	QualityVeryHigh
)

// ParseQuality parses quick, low, medium, high or very-high
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quick":
		return QualityQuick, nil
	case "low":
		return QualityLow, nil
	case "medium", "":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	case "very-high", "veryhigh", "very_high":
		return QualityVeryHigh, nil
	default:
		return QualityMedium, fmt.Errorf("unknown resampler quality: %q", s)
	}
}

// Options configures New
type Options struct {
	Kind       Kind
	Channels   int
	InputRate  int
	OutputRate int
	Quality    Quality
}

// New builds a Converter. Non-linear kinds run their fixed-ratio stage from
// InputRate to OutputRate and apply the remaining correction with a linear trim.
func New(opts Options) (Converter, error) {
	if opts.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", opts.Channels)
	}
	if opts.InputRate <= 0 || opts.OutputRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: %d -> %d", opts.InputRate, opts.OutputRate)
	}

	switch opts.Kind {
	case KindLinear, "":
		return NewLinear(opts.Channels), nil
	case KindSoxr:
		stage, err := newSoxrStage(opts)
		if err != nil {
			return nil, err
		}
		return newCascade(stage, opts), nil
	case KindSpeex:
		return newCascade(newSpeexStage(opts), opts), nil
	default:
		return nil, fmt.Errorf("unknown resampler kind: %q", opts.Kind)
	}
}

func validRatio(ratio float64) bool {
	return ratio > 0 && !math.IsInf(ratio, 0) && !math.IsNaN(ratio)
}
