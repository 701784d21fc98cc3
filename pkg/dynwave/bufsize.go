// ABOUTME: Buffer size expressed as a duration or frame count
// ABOUTME: Resolved to a ring capacity at the negotiated output rate
package dynwave

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BufferSize is the streaming buffer capacity expressed as playback time or
// as an explicit frame count. The zero value selects QuarterSecond.
type BufferSize struct {
	duration time.Duration
	frames   int
	set      bool
}

var (
	TenthSecond   = Duration(100 * time.Millisecond)
	QuarterSecond = Duration(250 * time.Millisecond)
	HalfSecond    = Duration(500 * time.Millisecond)
	OneSecond     = Duration(time.Second)
	TwoSeconds    = Duration(2 * time.Second)
)

var namedSizes = map[string]BufferSize{
	"tenth":   TenthSecond,
	"quarter": QuarterSecond,
	"half":    HalfSecond,
	"one":     OneSecond,
	"two":     TwoSeconds,
}

// Duration returns a buffer size holding d of audio
func Duration(d time.Duration) BufferSize {
	return BufferSize{duration: d, set: true}
}

// Frames returns a buffer size of exactly n frames at any rate
func Frames(n int) BufferSize {
	return BufferSize{frames: n, set: true}
}

// IsZero reports whether no size was chosen
func (b BufferSize) IsZero() bool {
	return !b.set
}

// Resolve returns the capacity in frames at rate
func (b BufferSize) Resolve(rate int) (int, error) {
	if !b.set {
		b = QuarterSecond
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w: sample rate %d", ErrConfig, rate)
	}

	frames := b.frames
	if b.frames == 0 {
		frames = int(int64(b.duration) * int64(rate) / int64(time.Second))
	}
	if frames <= 0 {
		return 0, fmt.Errorf("%w: buffer size %s resolves to %d frames at %d Hz", ErrConfig, b, frames, rate)
	}
	return frames, nil
}

func (b BufferSize) String() string {
	if !b.set {
		return "quarter"
	}
	if b.frames != 0 {
		return fmt.Sprintf("%df", b.frames)
	}
	for name, size := range namedSizes {
		if size == b {
			return name
		}
	}
	return b.duration.String()
}

// ParseBufferSize parses a named size (tenth, quarter, half, one, two), a Go
// duration such as "300ms", or a frame count such as "4096f"
func ParseBufferSize(s string) (BufferSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if size, ok := namedSizes[s]; ok {
		return size, nil
	}

	if count, ok := strings.CutSuffix(s, "f"); ok {
		n, err := strconv.Atoi(count)
		if err != nil || n <= 0 {
			return BufferSize{}, fmt.Errorf("%w: invalid frame count %q", ErrConfig, s)
		}
		return Frames(n), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return BufferSize{}, fmt.Errorf("%w: invalid buffer size %q", ErrConfig, s)
	}
	return Duration(d), nil
}
