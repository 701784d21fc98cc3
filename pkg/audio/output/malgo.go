// ABOUTME: Malgo-based audio output with native format discovery
// ABOUTME: Uses miniaudio via malgo for callback-driven playback
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

// ErrDeviceLost is reported by Stream.Err after the backend stopped on its own
var ErrDeviceLost = errors.New("audio device lost")

// Malgo output device using the miniaudio library
type Malgo struct {
	logger   *slog.Logger
	malgoCtx *malgo.AllocatedContext
	mu       sync.Mutex
}

// NewMalgo creates a new Malgo device. The miniaudio context is created lazily.
func NewMalgo(logger *slog.Logger) *Malgo {
	return &Malgo{logger: loggerOrDefault(logger).With("backend", BackendMalgo)}
}

// context returns the shared miniaudio context (must hold m.mu)
func (m *Malgo) context() (*malgo.AllocatedContext, error) {
	if m.malgoCtx != nil {
		return m.malgoCtx, nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		m.logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx
	return ctx, nil
}

// SupportedFormats returns the native formats of the default playback device
func (m *Malgo) SupportedFormats() ([]audio.Format, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, err := m.context()
	if err != nil {
		return nil, err
	}

	devices, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no playback devices")
	}

	chosen := devices[0]
	for _, d := range devices {
		if d.IsDefault != 0 {
			chosen = d
			break
		}
	}

	info, err := ctx.DeviceInfo(malgo.Playback, chosen.ID, malgo.Shared)
	if err != nil {
		return nil, fmt.Errorf("failed to query device %q: %w", chosen.Name(), err)
	}

	formats := make([]audio.Format, 0, len(info.Formats))
	for _, df := range info.Formats {
		sample := fromMalgoFormat(df.Format)
		if sample == audio.FormatUnknown {
			continue
		}
		formats = append(formats, audio.Format{
			Sample:     sample,
			Channels:   int(df.Channels),
			SampleRate: int(df.SampleRate),
		})
	}

	m.logger.Debug("Device formats", "device", chosen.Name(), "count", len(formats))
	return formats, nil
}

// Open initializes a playback device in the given format
func (m *Malgo) Open(format audio.Format, bufferFrames int) (Stream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, err := m.context()
	if err != nil {
		return nil, err
	}

	s := &malgoStream{
		logger:    m.logger,
		frameSize: format.FrameSize(),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = toMalgoFormat(format.Sample)
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(bufferFrames)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			s.dataCallback(pOutputSample, frameCount)
		},
		Stop: s.stopCallback,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	s.device = device

	m.logger.Info("Audio output initialized",
		"format", format.String(),
		"malgo_format", formatName(deviceConfig.Playback.Format))

	return s, nil
}

// Close releases the miniaudio context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			m.logger.Warn("malgo context uninit error", "error", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

type malgoStream struct {
	logger    *slog.Logger
	device    *malgo.Device
	frameSize int

	render   atomic.Pointer[RenderFunc]
	stopping atomic.Bool
	lost     atomic.Bool
	mu       sync.Mutex
}

// dataCallback is called by malgo to fill the audio output buffer
func (s *malgoStream) dataCallback(pOutput []byte, frameCount uint32) {
	render := s.render.Load()
	if render == nil {
		clear(pOutput)
		return
	}
	frames := int(frameCount)
	(*render)(pOutput[:frames*s.frameSize], frames)
}

// stopCallback fires on every stop; only an unrequested one means the device went away
func (s *malgoStream) stopCallback() {
	if s.stopping.Load() {
		return
	}
	s.lost.Store(true)
	s.logger.Error("Playback device stopped unexpectedly")
}

func (s *malgoStream) Start(render RenderFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return fmt.Errorf("stream closed")
	}
	if s.lost.Load() {
		return ErrDeviceLost
	}

	s.render.Store(&render)
	s.stopping.Store(false)
	if err := s.device.Start(); err != nil {
		s.render.Store(nil)
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

func (s *malgoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil || !s.device.IsStarted() {
		return nil
	}
	s.stopping.Store(true)
	// miniaudio waits for the data callback to return before Stop completes
	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

func (s *malgoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device != nil {
		s.stopping.Store(true)
		s.device.Uninit()
		s.device = nil
	}
	return nil
}

func (s *malgoStream) Err() error {
	if s.lost.Load() {
		return ErrDeviceLost
	}
	return nil
}

func toMalgoFormat(f audio.SampleFormat) malgo.FormatType {
	switch f {
	case audio.U8:
		return malgo.FormatU8
	case audio.S16:
		return malgo.FormatS16
	case audio.S24:
		return malgo.FormatS24
	case audio.S32:
		return malgo.FormatS32
	case audio.F32:
		return malgo.FormatF32
	default:
		return malgo.FormatUnknown
	}
}

func fromMalgoFormat(f malgo.FormatType) audio.SampleFormat {
	switch f {
	case malgo.FormatU8:
		return audio.U8
	case malgo.FormatS16:
		return audio.S16
	case malgo.FormatS24:
		return audio.S24
	case malgo.FormatS32:
		return audio.S32
	case malgo.FormatF32:
		return audio.F32
	default:
		return audio.FormatUnknown
	}
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatU8:
		return "U8"
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	case malgo.FormatF32:
		return "F32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
