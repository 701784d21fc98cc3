// ABOUTME: Tests for the dynamic resampler adapter
// ABOUTME: Ratio steering, encoding into the ring and converter failure handling
package dynwave

import (
	"context"
	"errors"
	"testing"

	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/dynwave/dynwave-go/pkg/audio/resample"
	"github.com/dynwave/dynwave-go/pkg/audio/ring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConverter passes input through and fails on the configured calls
type fakeConverter struct {
	channels int
	failOn   map[int]bool
	calls    int
	ratios   []float64
	resets   int
}

func (f *fakeConverter) Convert(input []float32, ratio float64) ([]float32, error) {
	f.calls++
	f.ratios = append(f.ratios, ratio)
	if f.failOn[f.calls] {
		return nil, errors.New("filter blew up")
	}
	return input, nil
}

func (f *fakeConverter) Reset()        { f.resets++ }
func (f *fakeConverter) Channels() int { return f.channels }

var _ resample.Converter = (*fakeConverter)(nil)

func newTestRing(t *testing.T, capacity int, format audio.Format) *ring.Buffer {
	t.Helper()
	buf, err := ring.New(capacity, format.FrameSize(), audio.SilenceFrame(format))
	require.NoError(t, err)
	return buf
}

func TestAdapterSteersRatioFromOccupancy(t *testing.T) {
	format := audio.Format{Sample: audio.F32, Channels: 1, SampleRate: 48000}
	buf := newTestRing(t, 100, format)
	conv := &fakeConverter{channels: 1}
	a := NewAdapter(conv, DefaultController(), buf, format, 1.0, nil)

	ctx := context.Background()
	require.NoError(t, a.Process(ctx, make([]float32, 80)))
	assert.InDelta(t, 1.005, conv.ratios[0], 1e-12, "empty buffer speeds up")

	require.NoError(t, a.Process(ctx, make([]float32, 10)))
	assert.Less(t, conv.ratios[1], 1.0, "buffer above target slows down")
	assert.Equal(t, conv.ratios[1], a.Ratio())
	assert.Equal(t, 90, buf.Occupancy())
}

func TestAdapterEncodesDeviceFormat(t *testing.T) {
	format := audio.Format{Sample: audio.S16, Channels: 2, SampleRate: 44100}
	buf := newTestRing(t, 16, format)
	a := NewAdapter(&fakeConverter{channels: 2}, DefaultController(), buf, format, 1.0, nil)

	require.NoError(t, a.Process(context.Background(), []float32{0.5, -0.5, 0, 0.25}))
	require.Equal(t, 2, buf.Occupancy())

	out := make([]byte, 8)
	require.Equal(t, 2, buf.Pop(out))
	decoded := make([]float32, 4)
	audio.Decode(decoded, out, audio.S16)
	assert.InDeltaSlice(t, []float32{0.5, -0.5, 0, 0.25}, decoded, 1.0/32768)
}

func TestAdapterRetriesAtNominal(t *testing.T) {
	format := audio.Format{Sample: audio.F32, Channels: 1, SampleRate: 48000}
	buf := newTestRing(t, 100, format)
	conv := &fakeConverter{channels: 1, failOn: map[int]bool{1: true}}
	a := NewAdapter(conv, DefaultController(), buf, format, 1.1, nil)

	require.NoError(t, a.Process(context.Background(), make([]float32, 10)))
	assert.Equal(t, 1, conv.resets)
	assert.Equal(t, 1.1, conv.ratios[1], "retry runs at the nominal ratio")
	assert.Equal(t, 1.1, a.Ratio())
	assert.Equal(t, uint64(1), a.Retries())
	assert.Equal(t, 10, buf.Occupancy())
}

func TestAdapterPersistentFailure(t *testing.T) {
	format := audio.Format{Sample: audio.F32, Channels: 1, SampleRate: 48000}
	buf := newTestRing(t, 100, format)
	conv := &fakeConverter{channels: 1, failOn: map[int]bool{1: true, 2: true}}
	a := NewAdapter(conv, DefaultController(), buf, format, 1.0, nil)

	err := a.Process(context.Background(), make([]float32, 10))
	assert.ErrorIs(t, err, ErrResample)
	assert.Equal(t, 0, buf.Occupancy(), "ring untouched on failure")

	// The next chunk goes through normally
	require.NoError(t, a.Process(context.Background(), make([]float32, 10)))
	assert.Equal(t, 10, buf.Occupancy())
}

func TestAdapterClosedRing(t *testing.T) {
	format := audio.Format{Sample: audio.F32, Channels: 1, SampleRate: 48000}
	buf := newTestRing(t, 4, format)
	buf.Close()
	a := NewAdapter(&fakeConverter{channels: 1}, DefaultController(), buf, format, 1.0, nil)

	assert.ErrorIs(t, a.Process(context.Background(), make([]float32, 2)), ErrClosed)
}

func TestAdapterReset(t *testing.T) {
	format := audio.Format{Sample: audio.F32, Channels: 1, SampleRate: 48000}
	buf := newTestRing(t, 100, format)
	conv := &fakeConverter{channels: 1}
	a := NewAdapter(conv, DefaultController(), buf, format, 2.0, nil)

	require.NoError(t, a.Process(context.Background(), make([]float32, 10)))
	assert.NotEqual(t, 2.0, a.Ratio())

	a.Reset()
	assert.Equal(t, 2.0, a.Ratio())
	assert.Equal(t, 1, conv.resets)
}
