// ABOUTME: Layered configuration for the dynwave binaries
// ABOUTME: Merges viper defaults, an optional config file, DYNWAVE_ env vars and flags
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/dynwave/dynwave-go/internal/logging"
	"github.com/dynwave/dynwave-go/pkg/audio/output"
	"github.com/dynwave/dynwave-go/pkg/audio/resample"
	"github.com/dynwave/dynwave-go/pkg/dynwave"
)

// EnvPrefix is prepended to environment overrides, e.g. DYNWAVE_SAMPLE_RATE
const EnvPrefix = "DYNWAVE"

// Config is the typed view of the merged settings
type Config struct {
	Backend      string  `mapstructure:"backend"`
	SampleRate   int     `mapstructure:"sample_rate"`
	Channels     int     `mapstructure:"channels"`
	Buffer       string  `mapstructure:"buffer"`
	PeriodFrames int     `mapstructure:"period_frames"`
	Resampler    string  `mapstructure:"resampler"`
	Quality      string  `mapstructure:"quality"`
	DriftPPM     float64 `mapstructure:"drift_ppm"`

	Controller ControllerConfig `mapstructure:"controller"`
	Tone       ToneConfig       `mapstructure:"tone"`
	Log        LogConfig        `mapstructure:"log"`
}

// ControllerConfig tunes drift correction
type ControllerConfig struct {
	Gain           float64 `mapstructure:"gain"`
	MaxCorrection  float64 `mapstructure:"max_correction"`
	TargetFraction float64 `mapstructure:"target_fraction"`
}

// ToneConfig describes the demo producer
type ToneConfig struct {
	Frequency float64 `mapstructure:"frequency"`
	Amplitude float64 `mapstructure:"amplitude"`
	Sample    string  `mapstructure:"sample"`
	SkewPPM   float64 `mapstructure:"skew_ppm"`
}

// LogConfig selects the default logger level and destination
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", output.BackendMalgo)
	v.SetDefault("sample_rate", 44100)
	v.SetDefault("channels", 2)
	v.SetDefault("buffer", "quarter")
	v.SetDefault("period_frames", 0)
	v.SetDefault("resampler", string(resample.KindLinear))
	v.SetDefault("quality", "medium")
	v.SetDefault("drift_ppm", 0.0)

	v.SetDefault("controller.gain", dynwave.DefaultGain)
	v.SetDefault("controller.max_correction", dynwave.DefaultMaxCorrection)
	v.SetDefault("controller.target_fraction", dynwave.DefaultTargetFraction)

	v.SetDefault("tone.frequency", 440.0)
	v.SetDefault("tone.amplitude", 0.5)
	v.SetDefault("tone.sample", "f32")
	v.SetDefault("tone.skew_ppm", 0.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load reads configFile (optional, any format viper understands) and applies
// environment variables, then overrides. Overrides use viper keys such as
// "sample_rate" or "controller.gain" and take precedence over everything else.
func Load(configFile string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", configFile, err)
			}
			slog.Info("No config file found, using defaults", "path", configFile)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that the player would otherwise reject later
func (c *Config) Validate() error {
	var errs []error

	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate))
	}
	if c.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels must be positive, got %d", c.Channels))
	}
	if _, err := dynwave.ParseBufferSize(c.Buffer); err != nil {
		errs = append(errs, err)
	}
	if _, err := resample.ParseKind(c.Resampler); err != nil {
		errs = append(errs, err)
	}
	if _, err := resample.ParseQuality(c.Quality); err != nil {
		errs = append(errs, err)
	}
	if err := c.controller().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Tone.Sample {
	case "f32", "i16":
	default:
		errs = append(errs, fmt.Errorf("tone.sample must be f32 or i16, got %q", c.Tone.Sample))
	}

	return errors.Join(errs...)
}

func (c *Config) controller() dynwave.Controller {
	return dynwave.Controller{
		Gain:           c.Controller.Gain,
		MaxCorrection:  c.Controller.MaxCorrection,
		TargetFraction: c.Controller.TargetFraction,
	}
}

// OpenDevice creates the configured output backend. The virtual backend runs
// a realtime clock offset by DriftPPM.
func (c *Config) OpenDevice(logger *slog.Logger) (output.Device, error) {
	if strings.EqualFold(c.Backend, output.BackendVirtual) {
		return output.NewVirtual(output.VirtualConfig{
			Realtime: true,
			Period:   c.PeriodFrames,
			DriftPPM: c.DriftPPM,
			Logger:   logger,
		}), nil
	}
	return output.New(c.Backend, logger)
}

// PlayerConfig maps the settings onto a player configuration for device
func (c *Config) PlayerConfig(device output.Device, logger *slog.Logger) (dynwave.Config, error) {
	size, err := dynwave.ParseBufferSize(c.Buffer)
	if err != nil {
		return dynwave.Config{}, err
	}
	kind, err := resample.ParseKind(c.Resampler)
	if err != nil {
		return dynwave.Config{}, err
	}
	quality, err := resample.ParseQuality(c.Quality)
	if err != nil {
		return dynwave.Config{}, err
	}

	return dynwave.Config{
		SampleRate:   c.SampleRate,
		Channels:     c.Channels,
		BufferSize:   size,
		Device:       device,
		PeriodFrames: c.PeriodFrames,
		Resampler:    kind,
		Quality:      quality,
		Controller:   c.controller(),
		Logger:       logger,
	}, nil
}
