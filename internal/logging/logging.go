// ABOUTME: Default slog logger setup for the dynwave binaries
// ABOUTME: Maps a level name and optional file to a text or JSON handler
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Levels accepted by ConfigureDefaultLogger
var Levels = []string{"none", "error", "warn", "info", "debug"}

// ParseLevel maps a level name to a slog level. ok is false for "none".
func ParseLevel(name string) (level slog.Level, ok bool, err error) {
	switch name {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	default:
		return 0, false, fmt.Errorf("unexpected log level %q", name)
	}
}

// ConfigureDefaultLogger installs the default slog logger.
//
// With an empty logFile, logs go to stdout as text. Otherwise the file is
// truncated and receives JSON. The returned file, if any, should be closed by
// the caller on exit:
//
//	f, err := logging.ConfigureDefaultLogger("info", "dynwave.log", slog.HandlerOptions{})
//	if f != nil {
//		defer f.Close()
//	}
func ConfigureDefaultLogger(logLevel string, logFile string, opts slog.HandlerOptions) (*os.File, error) {
	level, enabled, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if !enabled {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil, nil
	}
	opts.Level = level

	if logFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &opts)))
		return nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &opts)))
	return f, nil
}
