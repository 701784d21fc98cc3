// ABOUTME: Audio output device and stream interface definitions
// ABOUTME: Common pull-model interface for playback backends
package output

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dynwave/dynwave-go/pkg/audio"
)

// RenderFunc fills out with exactly frames frames in the stream's format.
// It runs on the backend's real-time thread and must not block.
type RenderFunc func(out []byte, frames int)

// Device represents an audio output device
type Device interface {
	// SupportedFormats lists the formats the device accepts. Zero Channels or
	// SampleRate in an entry means any value is accepted.
	SupportedFormats() ([]audio.Format, error)

	// Open prepares a stream in format. bufferFrames is a hint for the
	// backend's period size; zero lets the backend choose.
	Open(format audio.Format, bufferFrames int) (Stream, error)

	// Close releases device resources
	Close() error
}

// Stream is an opened output stream pulling frames through a RenderFunc
type Stream interface {
	// Start begins invoking render from the backend's thread
	Start(render RenderFunc) error

	// Stop halts callbacks. No render call starts after Stop returns.
	Stop() error

	// Close releases the stream
	Close() error

	// Err reports a backend failure such as a lost device
	Err() error
}

// Backend names accepted by New
const (
	BackendMalgo     = "malgo"
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
	BackendVirtual   = "virtual"
)

// New creates a device for a backend name
func New(backend string, logger *slog.Logger) (Device, error) {
	switch strings.ToLower(backend) {
	case BackendMalgo, "":
		return NewMalgo(logger), nil
	case BackendOto:
		return NewOto(logger), nil
	case BackendPortAudio:
		return NewPortAudio(logger), nil
	case BackendVirtual:
		return NewVirtual(VirtualConfig{Realtime: true, Logger: logger}), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %q", backend)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
