//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"
	"log/slog"

	"github.com/dynwave/dynwave-go/pkg/audio"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output device (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio device
func NewPortAudio(logger *slog.Logger) *PortAudio {
	return &PortAudio{}
}

// SupportedFormats always fails without the portaudio build tag
func (p *PortAudio) SupportedFormats() ([]audio.Format, error) {
	return nil, errPortAudioDisabled
}

// Open always fails without the portaudio build tag
func (p *PortAudio) Open(format audio.Format, bufferFrames int) (Stream, error) {
	return nil, errPortAudioDisabled
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
