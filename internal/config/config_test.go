// ABOUTME: Tests for layered configuration loading
// ABOUTME: Covers defaults, files, environment, overrides and validation
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynwave/dynwave-go/pkg/audio/output"
	"github.com/dynwave/dynwave-go/pkg/audio/resample"
	"github.com/dynwave/dynwave-go/pkg/dynwave"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, output.BackendMalgo, cfg.Backend)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 2, cfg.Channels)
	assert.Equal(t, "quarter", cfg.Buffer)
	assert.Equal(t, "linear", cfg.Resampler)
	assert.Equal(t, dynwave.DefaultGain, cfg.Controller.Gain)
	assert.Equal(t, dynwave.DefaultMaxCorrection, cfg.Controller.MaxCorrection)
	assert.Equal(t, dynwave.DefaultTargetFraction, cfg.Controller.TargetFraction)
	assert.Equal(t, 440.0, cfg.Tone.Frequency)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "dynwave.yaml", `
backend: virtual
sample_rate: 48000
channels: 1
buffer: 2048f
resampler: soxr
quality: high
controller:
  gain: 0.02
tone:
  sample: i16
  skew_ppm: 3000
log:
  level: debug
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, output.BackendVirtual, cfg.Backend)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 1, cfg.Channels)
	assert.Equal(t, "2048f", cfg.Buffer)
	assert.Equal(t, 0.02, cfg.Controller.Gain)
	assert.Equal(t, dynwave.DefaultMaxCorrection, cfg.Controller.MaxCorrection, "unset keys keep defaults")
	assert.Equal(t, "i16", cfg.Tone.Sample)
	assert.Equal(t, 3000.0, cfg.Tone.SkewPPM)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 44100, cfg.SampleRate)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeFile(t, "broken.yaml", "sample_rate: [\n")
	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "dynwave.toml", "sample_rate = 48000\nchannels = 1\n")
	t.Setenv("DYNWAVE_SAMPLE_RATE", "96000")
	t.Setenv("DYNWAVE_CONTROLLER_GAIN", "0.05")

	cfg, err := Load(path, map[string]any{"channels": 6})
	require.NoError(t, err)

	assert.Equal(t, 96000, cfg.SampleRate, "environment beats file")
	assert.Equal(t, 6, cfg.Channels, "overrides beat file")
	assert.Equal(t, 0.05, cfg.Controller.Gain)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"zero rate", map[string]any{"sample_rate": 0}},
		{"negative channels", map[string]any{"channels": -2}},
		{"bad buffer", map[string]any{"buffer": "lots"}},
		{"bad resampler", map[string]any{"resampler": "cubic"}},
		{"bad quality", map[string]any{"quality": "ultra"}},
		{"bad correction", map[string]any{"controller.max_correction": 1.5}},
		{"bad log level", map[string]any{"log.level": "loud"}},
		{"bad tone sample", map[string]any{"tone.sample": "s24"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("", tt.overrides)
			assert.Error(t, err)
		})
	}
}

func TestPlayerConfig(t *testing.T) {
	cfg, err := Load("", map[string]any{
		"buffer":    "half",
		"resampler": "speex",
		"quality":   "very-high",
	})
	require.NoError(t, err)

	dev := output.NewVirtual(output.VirtualConfig{})
	pc, err := cfg.PlayerConfig(dev, nil)
	require.NoError(t, err)

	assert.Equal(t, 44100, pc.SampleRate)
	assert.Equal(t, 2, pc.Channels)
	assert.Equal(t, dynwave.HalfSecond, pc.BufferSize)
	assert.Equal(t, resample.KindSpeex, pc.Resampler)
	assert.Equal(t, resample.QualityVeryHigh, pc.Quality)
	assert.Equal(t, dynwave.DefaultController(), pc.Controller)
	assert.Same(t, dev, pc.Device.(*output.Virtual))
}

func TestOpenDevice(t *testing.T) {
	cfg, err := Load("", map[string]any{"backend": "virtual", "drift_ppm": 500})
	require.NoError(t, err)

	dev, err := cfg.OpenDevice(nil)
	require.NoError(t, err)
	assert.IsType(t, &output.Virtual{}, dev)
	require.NoError(t, dev.Close())

	cfg.Backend = "jack"
	_, err = cfg.OpenDevice(nil)
	assert.Error(t, err)
}
