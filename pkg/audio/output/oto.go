// ABOUTME: Oto-based audio output implementation
// ABOUTME: Exposes the render callback to oto as a pulled io.Reader
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto allows only one context per process
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

// Oto output device using the oto library
type Oto struct {
	logger *slog.Logger
}

// NewOto creates a new Oto device
func NewOto(logger *slog.Logger) *Oto {
	return &Oto{logger: loggerOrDefault(logger).With("backend", BackendOto)}
}

// SupportedFormats reports the encodings oto mixes natively at any rate and channel count
func (o *Oto) SupportedFormats() ([]audio.Format, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	// Once a context exists its format is fixed for the process
	if otoCtx != nil {
		return []audio.Format{otoFormat}, nil
	}

	return []audio.Format{
		{Sample: audio.F32},
		{Sample: audio.S16},
		{Sample: audio.U8},
	}, nil
}

// Open creates the process-wide oto context on first use and a player reading from the stream
func (o *Oto) Open(format audio.Format, bufferFrames int) (Stream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	var otoFmt oto.Format
	switch format.Sample {
	case audio.F32:
		otoFmt = oto.FormatFloat32LE
	case audio.S16:
		otoFmt = oto.FormatSignedInt16LE
	case audio.U8:
		otoFmt = oto.FormatUnsignedInt8
	default:
		return nil, fmt.Errorf("oto does not support %s samples", format.Sample)
	}

	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil && otoFormat != format {
		return nil, fmt.Errorf("oto context already running as %s, cannot reopen as %s", otoFormat, format)
	}

	if otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       otoFmt,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return nil, fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan

		otoCtx = ctx
		otoFormat = format
	}

	s := &otoStream{
		logger:    o.logger,
		frameSize: format.FrameSize(),
		silence:   audio.SilenceFrame(format),
	}
	s.player = otoCtx.NewPlayer(s)
	if bufferFrames > 0 {
		s.player.SetBufferSize(bufferFrames * s.frameSize)
	}

	o.logger.Info("Audio output initialized", "format", format.String())
	return s, nil
}

// Close is a no-op; the oto context lives for the rest of the process
func (o *Oto) Close() error {
	return nil
}

type otoStream struct {
	logger    *slog.Logger
	player    *oto.Player
	frameSize int
	silence   []byte

	render atomic.Pointer[RenderFunc]
	closed atomic.Bool
}

// Read is pulled by oto's mixer thread
func (s *otoStream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, errors.New("stream closed")
	}

	frames := len(p) / s.frameSize
	if frames == 0 {
		return 0, nil
	}
	out := p[:frames*s.frameSize]

	if render := s.render.Load(); render != nil {
		(*render)(out, frames)
	} else {
		for i := 0; i < len(out); i += s.frameSize {
			copy(out[i:], s.silence)
		}
	}
	return len(out), nil
}

func (s *otoStream) Start(render RenderFunc) error {
	if s.closed.Load() {
		return errors.New("stream closed")
	}
	if err := s.Err(); err != nil {
		return err
	}
	s.render.Store(&render)
	s.player.Play()
	return nil
}

func (s *otoStream) Stop() error {
	s.player.Pause()
	s.render.Store(nil)
	return nil
}

func (s *otoStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.render.Store(nil)
	return s.player.Close()
}

func (s *otoStream) Err() error {
	if err := s.player.Err(); err != nil {
		return err
	}
	otoMu.Lock()
	defer otoMu.Unlock()
	if otoCtx != nil {
		return otoCtx.Err()
	}
	return nil
}
