//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform callback output using PortAudio
package output

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// defaultScratchFrames sizes the callback scratch when PortAudio chooses the period
const defaultScratchFrames = 8192

// PortAudio output device
type PortAudio struct {
	logger      *slog.Logger
	mu          sync.Mutex
	initialized bool
}

// NewPortAudio creates a new PortAudio device
func NewPortAudio(logger *slog.Logger) *PortAudio {
	return &PortAudio{logger: loggerOrDefault(logger).With("backend", BackendPortAudio)}
}

// init initializes PortAudio once (must hold p.mu)
func (p *PortAudio) init() error {
	if p.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	p.initialized = true
	return nil
}

// SupportedFormats reports F32, S16 and U8 at the default device rate for each channel count
func (p *PortAudio) SupportedFormats() ([]audio.Format, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.init(); err != nil {
		return nil, err
	}

	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("no default output device: %w", err)
	}

	rate := int(dev.DefaultSampleRate)
	var formats []audio.Format
	for ch := 1; ch <= min(dev.MaxOutputChannels, 8); ch++ {
		for _, s := range []audio.SampleFormat{audio.F32, audio.S16, audio.U8} {
			formats = append(formats, audio.Format{Sample: s, Channels: ch, SampleRate: rate})
		}
	}

	p.logger.Debug("Device formats", "device", dev.Name, "count", len(formats))
	return formats, nil
}

// Open opens the default output stream
func (p *PortAudio) Open(format audio.Format, bufferFrames int) (Stream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.init(); err != nil {
		return nil, err
	}

	s := &portAudioStream{
		channels:  format.Channels,
		frameSize: format.FrameSize(),
		silence:   audio.SilenceFrame(format),
	}
	scratchFrames := bufferFrames
	if scratchFrames <= 0 {
		scratchFrames = defaultScratchFrames
	}
	s.scratch = make([]byte, scratchFrames*s.frameSize)

	var callback any
	switch format.Sample {
	case audio.F32:
		callback = func(out []float32) {
			frames := len(out) / s.channels
			buf := s.fill(frames)
			audio.Decode(out, buf, audio.F32)
		}
	case audio.S16:
		callback = func(out []int16) {
			frames := len(out) / s.channels
			buf := s.fill(frames)
			for i := range out {
				out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
			}
		}
	case audio.U8:
		callback = func(out []uint8) {
			frames := len(out) / s.channels
			copy(out, s.fill(frames))
		}
	default:
		return nil, fmt.Errorf("portaudio backend does not support %s samples", format.Sample)
	}

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), bufferFrames, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	s.stream = stream

	p.logger.Info("Audio output initialized", "format", format.String())
	return s, nil
}

// Close terminates PortAudio
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}
	p.initialized = false
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream    *portaudio.Stream
	channels  int
	frameSize int
	silence   []byte
	scratch   []byte

	render  atomic.Pointer[RenderFunc]
	running bool
	mu      sync.Mutex
}

// fill renders frames into the scratch buffer
func (s *portAudioStream) fill(frames int) []byte {
	size := frames * s.frameSize
	if size > len(s.scratch) {
		// Only when PortAudio hands a larger period than the hint
		s.scratch = make([]byte, size)
	}
	buf := s.scratch[:size]

	if render := s.render.Load(); render != nil {
		(*render)(buf, frames)
	} else {
		for i := 0; i < size; i += s.frameSize {
			copy(buf[i:], s.silence)
		}
	}
	return buf
}

func (s *portAudioStream) Start(render RenderFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.render.Store(&render)
	if s.running {
		return nil
	}
	if err := s.stream.Start(); err != nil {
		s.render.Store(nil)
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.running = true
	return nil
}

func (s *portAudioStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	// Pa_StopStream returns after all pending buffers have played
	err := s.stream.Stop()
	s.render.Store(nil)
	return err
}

func (s *portAudioStream) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}
	return s.stream.Close()
}

func (s *portAudioStream) Err() error {
	return nil
}
