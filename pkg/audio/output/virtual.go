// ABOUTME: Software clock output device for tests and headless playback
// ABOUTME: Renders on a ticker with configurable clock drift or on manual pulls
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dynwave/dynwave-go/pkg/audio"
)

// ErrStopped is returned by Pull while the stream is not running
var ErrStopped = errors.New("stream not running")

// VirtualConfig configures a Virtual device
type VirtualConfig struct {
	// Formats reported by SupportedFormats; defaults to F32 at any rate and channel count
	Formats []audio.Format

	// Realtime drives the render callback from a ticker instead of Pull
	Realtime bool

	// Period is the frame count per realtime callback; defaults to 10ms of audio
	Period int

	// DriftPPM offsets the realtime clock from the nominal rate in parts per million
	DriftPPM float64

	// OpenErr and StartErr inject failures
	OpenErr  error
	StartErr error

	Logger *slog.Logger
}

// Virtual is an output device with a software clock
type Virtual struct {
	cfg    VirtualConfig
	logger *slog.Logger

	mu     sync.Mutex
	stream *VirtualStream
	closed bool
}

// NewVirtual creates a virtual device
func NewVirtual(cfg VirtualConfig) *Virtual {
	if len(cfg.Formats) == 0 {
		cfg.Formats = []audio.Format{{Sample: audio.F32}}
	}
	return &Virtual{
		cfg:    cfg,
		logger: loggerOrDefault(cfg.Logger).With("backend", BackendVirtual),
	}
}

// SupportedFormats returns the configured format list
func (v *Virtual) SupportedFormats() ([]audio.Format, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, errors.New("device closed")
	}
	return append([]audio.Format(nil), v.cfg.Formats...), nil
}

// Open creates a stream; the device keeps a reference for Pull
func (v *Virtual) Open(format audio.Format, bufferFrames int) (Stream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, errors.New("device closed")
	}
	if v.cfg.OpenErr != nil {
		return nil, v.cfg.OpenErr
	}

	period := v.cfg.Period
	if period <= 0 {
		period = max(format.SampleRate/100, 1)
	}

	s := &VirtualStream{
		format:   format,
		period:   period,
		drift:    v.cfg.DriftPPM,
		realtime: v.cfg.Realtime,
		startErr: v.cfg.StartErr,
		buf:      make([]byte, period*format.FrameSize()),
	}
	v.stream = s

	v.logger.Info("Audio output initialized", "format", format.String(), "realtime", v.cfg.Realtime, "drift_ppm", v.cfg.DriftPPM)
	return s, nil
}

// Close marks the device closed
func (v *Virtual) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// Closed reports whether Close has been called
func (v *Virtual) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Stream returns the most recently opened stream, or nil
func (v *Virtual) Stream() *VirtualStream {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream
}

// Pull renders frames on the most recently opened stream
func (v *Virtual) Pull(frames int) ([]byte, error) {
	s := v.Stream()
	if s == nil {
		return nil, errors.New("no stream opened")
	}
	return s.Pull(frames)
}

// VirtualStream is the stream opened by a Virtual device
type VirtualStream struct {
	format   audio.Format
	period   int
	drift    float64
	realtime bool
	startErr error

	// cbMu is held for the duration of each render call
	cbMu    sync.Mutex
	render  RenderFunc
	running bool
	closed  bool
	buf     []byte

	rendered  atomic.Uint64
	callbacks atomic.Uint64
	err       atomic.Pointer[error]

	stop chan struct{}
	wg   sync.WaitGroup
}

// Format returns the stream format
func (s *VirtualStream) Format() audio.Format {
	return s.format
}

func (s *VirtualStream) Start(render RenderFunc) error {
	if err := s.Err(); err != nil {
		return err
	}
	if s.startErr != nil {
		return s.startErr
	}

	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	s.render = render
	if s.running {
		return nil
	}
	s.running = true

	if s.realtime {
		s.stop = make(chan struct{})
		s.wg.Add(1)
		go s.clock(s.stop)
	}
	return nil
}

// clock invokes render every period at the drifted rate
func (s *VirtualStream) clock(stop <-chan struct{}) {
	defer s.wg.Done()

	rate := float64(s.format.SampleRate) * (1 + s.drift/1e6)
	interval := time.Duration(float64(s.period) / rate * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.Pull(s.period); err != nil {
				return
			}
		}
	}
}

// Pull runs one render callback for frames and returns the rendered bytes,
// valid until the next Pull
func (s *VirtualStream) Pull(frames int) ([]byte, error) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	if !s.running {
		return nil, ErrStopped
	}

	size := frames * s.format.FrameSize()
	if size > len(s.buf) {
		s.buf = make([]byte, size)
	}
	out := s.buf[:size]
	s.render(out, frames)

	s.rendered.Add(uint64(frames))
	s.callbacks.Add(1)
	return out, nil
}

func (s *VirtualStream) Stop() error {
	s.cbMu.Lock()
	stop := s.stop
	s.stop = nil
	s.running = false
	s.cbMu.Unlock()

	if stop != nil {
		close(stop)
		s.wg.Wait()
	}
	return nil
}

func (s *VirtualStream) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}
	s.cbMu.Lock()
	s.closed = true
	s.cbMu.Unlock()
	return nil
}

// Fail simulates the backend losing the device
func (s *VirtualStream) Fail(err error) {
	s.err.Store(&err)
	_ = s.Stop()
}

func (s *VirtualStream) Err() error {
	if p := s.err.Load(); p != nil {
		return fmt.Errorf("%w: %w", ErrDeviceLost, *p)
	}
	return nil
}

// Running reports whether callbacks are enabled
func (s *VirtualStream) Running() bool {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.running
}

// Rendered returns the total frames requested by callbacks
func (s *VirtualStream) Rendered() uint64 {
	return s.rendered.Load()
}

// Callbacks returns the number of render callbacks issued
func (s *VirtualStream) Callbacks() uint64 {
	return s.callbacks.Load()
}
