// ABOUTME: Tests for demo player orchestration
// ABOUTME: Runs the tone producer against realtime virtual devices
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynwave/dynwave-go/internal/config"
	"github.com/dynwave/dynwave-go/internal/ui"
	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/dynwave/dynwave-go/pkg/audio/output"
	"github.com/dynwave/dynwave-go/pkg/dynwave"
)

type statusLog struct {
	mu   sync.Mutex
	msgs []ui.StatusMsg
}

func (l *statusLog) add(msg ui.StatusMsg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *statusLog) last() (ui.StatusMsg, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.msgs) - 1; i >= 0; i-- {
		if l.msgs[i].HasStats {
			return l.msgs[i], true
		}
	}
	return ui.StatusMsg{}, false
}

func loadConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	cfg, err := config.Load("", overrides)
	require.NoError(t, err)
	return cfg
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNewDeviceFailure(t *testing.T) {
	dev := output.NewVirtual(output.VirtualConfig{OpenErr: errors.New("busy")})

	_, err := New(Options{Config: loadConfig(t, nil), Device: dev, Logger: quiet()})
	assert.ErrorIs(t, err, dynwave.ErrDevice)
	assert.True(t, dev.Closed())
}

func TestRunAutoplay(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		format audio.Format
	}{
		{"float producer", "f32", audio.Format{Sample: audio.F32, Channels: 2, SampleRate: 48000}},
		{"int16 producer", "i16", audio.Format{Sample: audio.S16, Channels: 2, SampleRate: 44100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t, map[string]any{"tone.sample": tt.sample, "buffer": "tenth"})
			dev := output.NewVirtual(output.VirtualConfig{
				Realtime: true,
				Formats:  []audio.Format{tt.format},
				Logger:   quiet(),
			})

			var statuses statusLog
			a, err := New(Options{
				Config:         cfg,
				Device:         dev,
				Logger:         quiet(),
				Autoplay:       true,
				Duration:       400 * time.Millisecond,
				StatusInterval: 20 * time.Millisecond,
				OnStatus:       statuses.add,
			})
			require.NoError(t, err)

			require.NoError(t, a.Run(context.Background()))
			assert.True(t, dev.Closed())

			last, ok := statuses.last()
			require.True(t, ok)
			assert.Equal(t, "playing", last.State)
			assert.Greater(t, last.Played, uint64(0))
			assert.Equal(t, 4410*tt.format.SampleRate/44100, last.Capacity)
		})
	}
}

func TestRunCommands(t *testing.T) {
	dev := output.NewVirtual(output.VirtualConfig{Realtime: true, Logger: quiet()})

	var statuses statusLog
	a, err := New(Options{
		Config:         loadConfig(t, nil),
		Device:         dev,
		Logger:         quiet(),
		StatusInterval: 10 * time.Millisecond,
		OnStatus:       statuses.add,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- a.Run(context.Background())
	}()

	stateIs := func(want string) func() bool {
		return func() bool {
			s, ok := statuses.last()
			return ok && s.State == want
		}
	}

	a.Controls().Commands <- ui.CommandPlay
	require.Eventually(t, stateIs("playing"), 2*time.Second, 5*time.Millisecond)

	a.Controls().Commands <- ui.CommandPause
	require.Eventually(t, stateIs("paused"), 2*time.Second, 5*time.Millisecond)

	a.Controls().Commands <- ui.CommandSkewUp
	a.Controls().Commands <- ui.CommandSkewUp
	a.Controls().Commands <- ui.CommandSkewDown
	require.Eventually(t, func() bool {
		s, ok := statuses.last()
		return ok && s.SkewPPM == SkewStep
	}, 2*time.Second, 5*time.Millisecond)

	a.Controls().Commands <- ui.CommandStop
	require.Eventually(t, stateIs("stopped"), 2*time.Second, 5*time.Millisecond)

	a.Controls().Commands <- ui.CommandQuit
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after quit")
	}
	assert.True(t, dev.Closed())
}

func TestRunContextCancel(t *testing.T) {
	a, err := New(Options{
		Config: loadConfig(t, nil),
		Device: output.NewVirtual(output.VirtualConfig{Realtime: true, Logger: quiet()}),
		Logger: quiet(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, a.Run(ctx))
}
