// ABOUTME: Tests for buffer size resolution and parsing
// ABOUTME: Named durations, frame counts and invalid sizes
package dynwave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSizeResolve(t *testing.T) {
	tests := []struct {
		name string
		size BufferSize
		rate int
		want int
	}{
		{"one second at 44.1k", OneSecond, 44100, 44100},
		{"quarter at 48k", QuarterSecond, 48000, 12000},
		{"tenth at 44.1k", TenthSecond, 44100, 4410},
		{"two seconds", TwoSeconds, 8000, 16000},
		{"half", HalfSecond, 96000, 48000},
		{"zero value is quarter", BufferSize{}, 44100, 11025},
		{"frames ignore rate", Frames(4096), 192000, 4096},
		{"custom duration", Duration(300 * time.Millisecond), 48000, 14400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.size.Resolve(tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBufferSizeResolveInvalid(t *testing.T) {
	for _, size := range []BufferSize{Frames(0), Frames(-3), Duration(0), Duration(time.Microsecond)} {
		_, err := size.Resolve(8000)
		assert.ErrorIs(t, err, ErrConfig, size.String())
	}

	_, err := OneSecond.Resolve(0)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestParseBufferSize(t *testing.T) {
	tests := []struct {
		in   string
		want BufferSize
	}{
		{"quarter", QuarterSecond},
		{"ONE", OneSecond},
		{" two ", TwoSeconds},
		{"300ms", Duration(300 * time.Millisecond)},
		{"4096f", Frames(4096)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBufferSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "forever", "-1s", "0f", "xf"} {
		_, err := ParseBufferSize(bad)
		assert.ErrorIs(t, err, ErrConfig, bad)
	}
}

func TestBufferSizeString(t *testing.T) {
	assert.Equal(t, "quarter", QuarterSecond.String())
	assert.Equal(t, "quarter", BufferSize{}.String())
	assert.Equal(t, "4096f", Frames(4096).String())
	assert.Equal(t, "300ms", Duration(300*time.Millisecond).String())
}
