// ABOUTME: Entry point for the dynwave demo player
// ABOUTME: Plays a drifting sine tone through the dynamic resampling player
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dynwave/dynwave-go/internal/app"
	"github.com/dynwave/dynwave-go/internal/config"
	"github.com/dynwave/dynwave-go/internal/logging"
	"github.com/dynwave/dynwave-go/internal/version"
)

var (
	configFile  = flag.String("config", "", "Config file path (yaml, toml or json)")
	backend     = flag.String("backend", "", "Output backend: malgo, oto, portaudio or virtual")
	sampleRate  = flag.Int("rate", 0, "Producer sample rate in Hz")
	channels    = flag.Int("channels", 0, "Producer channel count")
	buffer      = flag.String("buffer", "", "Buffer size: tenth, quarter, half, one, two, a duration or Nf")
	resampler   = flag.String("resampler", "", "Rate converter: linear, soxr or speex")
	quality     = flag.String("quality", "", "Converter quality: quick, low, medium, high or very-high")
	skewPPM     = flag.Float64("skew-ppm", 0, "Producer clock offset in parts per million")
	sample      = flag.String("sample", "", "Producer sample type: f32 or i16")
	logLevel    = flag.String("log-level", "", "Log level: none, error, warn, info or debug")
	logFile     = flag.String("log-file", "", "Log file path (default: dynwave.log with the TUI, stdout without)")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	duration    = flag.Duration("duration", 0, "Stop after this long (0 plays until quit)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// flagKeys maps flag names to config keys
var flagKeys = map[string]string{
	"backend":   "backend",
	"rate":      "sample_rate",
	"channels":  "channels",
	"buffer":    "buffer",
	"resampler": "resampler",
	"quality":   "quality",
	"skew-ppm":  "tone.skew_ppm",
	"sample":    "tone.sample",
	"log-level": "log.level",
	"log-file":  "log.file",
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Banner())
		return
	}

	useTUI := !*noTUI

	overrides := map[string]any{}
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.(flag.Getter).Get()
		}
	})

	cfg, err := config.Load(*configFile, overrides)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// The TUI owns the terminal, so logs go to a file
	if useTUI && cfg.Log.File == "" {
		cfg.Log.File = "dynwave.log"
	}
	f, err := logging.ConfigureDefaultLogger(cfg.Log.Level, cfg.Log.File, slog.HandlerOptions{})
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	if f != nil {
		defer func() { _ = f.Close() }()
	}

	slog.Info("Starting", "version", version.Version, "backend", cfg.Backend, "tui", useTUI)

	opts := app.Options{
		Config:   cfg,
		Logger:   slog.Default(),
		UI:       useTUI,
		Autoplay: true,
		Duration: *duration,
	}
	if !useTUI {
		opts.OnStatus = logStatus()
	}

	a, err := app.New(opts)
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		slog.Error("Player failed", "error", err)
		os.Exit(1)
	}
}
