// ABOUTME: Format negotiation between producer and output device
// ABOUTME: Picks the closest supported device format without changing channel count
package dynwave

import (
	"fmt"
	"slices"

	"github.com/dynwave/dynwave-go/pkg/audio"
)

// Negotiation is the outcome of matching a requested format against a device
type Negotiation struct {
	Requested       audio.Format
	Accepted        audio.Format
	NeedsConversion bool
}

// NominalRatio is the output/input rate ratio implied by the accepted format
func (n Negotiation) NominalRatio() float64 {
	return float64(n.Accepted.SampleRate) / float64(n.Requested.SampleRate)
}

// Negotiate picks the device format for requested. Wildcard fields in
// supported entries are resolved against requested. A directly supported
// request is accepted unchanged. Otherwise candidates with the same channel
// count are ranked by exact rate match, then same sample representation, then
// rate distance (ties go to the higher rate), then representation quality.
func Negotiate(requested audio.Format, supported []audio.Format) (Negotiation, error) {
	if len(supported) == 0 {
		return Negotiation{}, fmt.Errorf("%w: device reports no supported formats", ErrDevice)
	}

	var candidates []audio.Format
	for _, s := range supported {
		f := s.Resolve(requested)
		if f.Compatible(requested) {
			return Negotiation{Requested: requested, Accepted: requested}, nil
		}
		if f.Channels == requested.Channels && f.Validate() == nil {
			candidates = append(candidates, f)
		}
	}

	if len(candidates) == 0 {
		return Negotiation{}, fmt.Errorf("%w: no device format with %d channels among %v",
			ErrFormat, requested.Channels, supported)
	}

	slices.SortStableFunc(candidates, func(a, b audio.Format) int {
		return compareCandidates(requested, a, b)
	})

	return Negotiation{
		Requested:       requested,
		Accepted:        candidates[0],
		NeedsConversion: true,
	}, nil
}

// compareCandidates orders a before b when a is the better match for requested
func compareCandidates(requested, a, b audio.Format) int {
	aRate := a.SampleRate == requested.SampleRate
	bRate := b.SampleRate == requested.SampleRate
	if aRate != bRate {
		if aRate {
			return -1
		}
		return 1
	}

	aSample := a.Sample == requested.Sample
	bSample := b.Sample == requested.Sample
	if aSample != bSample {
		if aSample {
			return -1
		}
		return 1
	}

	aDist := abs(a.SampleRate - requested.SampleRate)
	bDist := abs(b.SampleRate - requested.SampleRate)
	if aDist != bDist {
		return aDist - bDist
	}
	if a.SampleRate != b.SampleRate {
		return b.SampleRate - a.SampleRate
	}

	return b.Sample.Quality() - a.Sample.Quality()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
