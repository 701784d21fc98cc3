// ABOUTME: Audio player facade owning device, buffer and adapter
// ABOUTME: Exposes Play, Pause, Queue and Stop over a real-time render callback
package dynwave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/google/uuid"

	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/dynwave/dynwave-go/pkg/audio/output"
	"github.com/dynwave/dynwave-go/pkg/audio/resample"
	"github.com/dynwave/dynwave-go/pkg/audio/ring"
)

// Config holds player configuration
type Config struct {
	// SampleRate is the producer's nominal rate in Hz
	SampleRate int

	// Channels is the interleaved channel count of queued samples
	Channels int

	// BufferSize is the streaming buffer capacity (default: QuarterSecond)
	BufferSize BufferSize

	// Device is the output device; the player takes ownership and closes it
	Device output.Device

	// PeriodFrames is the device callback size hint (0 lets the backend choose)
	PeriodFrames int

	// Resampler selects the rate converter (default: linear)
	Resampler resample.Kind

	// Quality is passed to filter-based converters
	Quality resample.Quality

	// Controller tunes drift correction (default: DefaultController)
	Controller Controller

	// StatsWindow is the number of queue calls summarized in Stats (default: 256)
	StatsWindow int

	// Logger receives player logs (default: slog.Default)
	Logger *slog.Logger

	// OnUnderrun is called from Queue with the number of underruns since the
	// last call. It must not call back into the player.
	OnUnderrun func(count uint64)
}

// Player plays queued samples of type T on an output device
type Player[T audio.Sample] struct {
	config      Config
	id          uuid.UUID
	logger      *slog.Logger
	device      output.Device
	stream      output.Stream
	negotiation Negotiation
	ring        *ring.Buffer
	adapter     *Adapter
	window      *occupancyWindow

	// stateMu serializes Play, Pause, Stop and Close
	stateMu       sync.Mutex
	state         atomic.Int32
	streamRunning bool

	// queueMu serializes producers and owns the adapter and scratch
	queueMu       sync.Mutex
	scratch       []float32
	lastUnderruns uint64

	// interrupt is cancelled by Stop to release a producer blocked in Push
	interrupt atomic.Pointer[interruptCtx]

	// Shared with the render callback
	mode     atomic.Uint32
	inflight atomic.Int32

	closed atomic.Bool
}

type interruptCtx struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newInterrupt() *interruptCtx {
	ctx, cancel := context.WithCancel(context.Background())
	return &interruptCtx{ctx: ctx, cancel: cancel}
}

// New negotiates a format with cfg.Device, allocates the streaming buffer and
// opens the stream. On failure everything opened, including the device, is closed.
func New[T audio.Sample](cfg Config) (*Player[T], error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("%w: no output device", ErrDevice)
	}

	p, err := newPlayer[T](cfg)
	if err != nil {
		if cerr := cfg.Device.Close(); cerr != nil {
			slog.Default().Warn("Failed to close device after construction error", "error", cerr)
		}
		return nil, err
	}
	return p, nil
}

func newPlayer[T audio.Sample](cfg Config) (*Player[T], error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrConfig, cfg.SampleRate)
	}
	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("%w: channel count %d", ErrConfig, cfg.Channels)
	}
	if cfg.Controller == (Controller{}) {
		cfg.Controller = DefaultController()
	}
	if err := cfg.Controller.Validate(); err != nil {
		return nil, err
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = defaultStatsWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	id := uuid.New()
	logger := cfg.Logger.With("player", id.String())

	requested := audio.Format{
		Sample:     audio.SampleFormatOf[T](),
		Channels:   cfg.Channels,
		SampleRate: cfg.SampleRate,
	}

	supported, err := cfg.Device.SupportedFormats()
	if err != nil {
		return nil, fmt.Errorf("%w: querying formats: %w", ErrDevice, err)
	}

	negotiation, err := Negotiate(requested, supported)
	if err != nil {
		logger.Error("Format negotiation failed",
			"requested", requested.String(),
			"supported", fmt.Sprint(supported),
			"error", err)
		return nil, err
	}
	accepted := negotiation.Accepted

	capacity, err := cfg.BufferSize.Resolve(accepted.SampleRate)
	if err != nil {
		return nil, err
	}

	buf, err := ring.New(capacity, accepted.FrameSize(), audio.SilenceFrame(accepted))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	converter, err := resample.New(resample.Options{
		Kind:       cfg.Resampler,
		Channels:   cfg.Channels,
		InputRate:  requested.SampleRate,
		OutputRate: accepted.SampleRate,
		Quality:    cfg.Quality,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	stream, err := cfg.Device.Open(accepted, cfg.PeriodFrames)
	if err != nil {
		return nil, fmt.Errorf("%w: opening stream: %w", ErrDevice, err)
	}

	p := &Player[T]{
		config:      cfg,
		id:          id,
		logger:      logger,
		device:      cfg.Device,
		stream:      stream,
		negotiation: negotiation,
		ring:        buf,
		adapter:     NewAdapter(converter, cfg.Controller, buf, accepted, negotiation.NominalRatio(), logger),
		window:      newOccupancyWindow(cfg.StatsWindow, negotiation.NominalRatio()),
	}
	p.interrupt.Store(newInterrupt())

	logger.Info("Player created",
		"requested", requested.String(),
		"accepted", accepted.String(),
		"needs_conversion", negotiation.NeedsConversion,
		"capacity_frames", capacity,
		"buffer", cfg.BufferSize.String(),
		"resampler", string(cfg.Resampler))

	return p, nil
}

// render is the device callback. It only touches the ring and two atomics.
func (p *Player[T]) render(out []byte, frames int) {
	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	if p.mode.Load() == modeDrain {
		p.ring.Pop(out)
		return
	}
	p.ring.FillSilence(out)
}

// setMode switches the callback mode and waits until no callback that may
// have observed the previous mode is still running
func (p *Player[T]) setMode(mode uint32) {
	p.mode.Store(mode)
	for p.inflight.Load() != 0 {
		time.Sleep(50 * time.Microsecond)
	}
}

// Play starts or resumes playback. Idempotent.
func (p *Player[T]) Play() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.stream.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}

	switch p.State() {
	case Playing:
		return nil
	case Paused:
		p.mode.Store(modeDrain)
	case Stopped:
		p.mode.Store(modeDrain)
		if !p.streamRunning {
			if err := p.stream.Start(p.render); err != nil {
				p.mode.Store(modeSilence)
				return fmt.Errorf("%w: starting stream: %w", ErrDevice, err)
			}
			p.streamRunning = true
		}
	}

	p.setState(Playing)
	return nil
}

// Pause makes the callback emit silence while keeping buffered audio. It
// returns once no callback is still draining. Pausing a stopped player is a no-op.
func (p *Player[T]) Pause() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if p.closed.Load() {
		return ErrClosed
	}
	if p.State() != Playing {
		return nil
	}

	p.setMode(modeSilence)
	p.setState(Paused)

	if err := p.stream.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}
	return nil
}

// Stop halts the stream, discards buffered audio and resets the ratio and
// converter. Occupancy and ratio are reset even when the backend fails to
// stop, in which case ErrDevice is returned.
func (p *Player[T]) Stop() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if p.closed.Load() {
		return ErrClosed
	}
	return p.stop()
}

// stop must hold stateMu
func (p *Player[T]) stop() error {
	p.setMode(modeSilence)

	var stopErr error
	if p.streamRunning {
		if err := p.stream.Stop(); err != nil {
			stopErr = fmt.Errorf("%w: stopping stream: %w", ErrDevice, err)
		}
		p.streamRunning = false
	}

	// Release a producer blocked on a full ring before taking the queue lock.
	// The cancelled interrupt stays installed until the ring is cleared so a
	// producer that re-enters Queue first cannot block again.
	p.interrupt.Load().cancel()

	p.queueMu.Lock()
	p.ring.Clear()
	p.adapter.Reset()
	p.window.reset(p.adapter.Nominal())
	p.interrupt.Store(newInterrupt())
	p.queueMu.Unlock()

	p.setState(Stopped)
	if stopErr != nil {
		p.logger.Error("Stream stop failed", "error", stopErr)
	}
	return stopErr
}

// Close stops playback and releases the stream and device. Blocked producers
// return ErrClosed. Further calls return ErrClosed.
func (p *Player[T]) Close() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if !p.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	p.ring.Close()
	err := p.stop()

	if cerr := p.stream.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("%w: closing stream: %w", ErrDevice, cerr))
	}
	if cerr := p.device.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("%w: closing device: %w", ErrDevice, cerr))
	}

	p.logger.Info("Player closed")
	return err
}

// Queue converts, resamples and buffers interleaved samples. It blocks while
// the buffer is full and never drops audio. Accepted in every state.
func (p *Player[T]) Queue(samples []T) error {
	return p.QueueContext(context.Background(), samples)
}

// QueueContext is Queue with cancellation of the blocking wait. Frames pushed
// before cancellation stay queued.
func (p *Player[T]) QueueContext(ctx context.Context, samples []T) error {
	if len(samples)%p.config.Channels != 0 {
		return fmt.Errorf("%w: %d samples for %d channels", ErrPartialFrame, len(samples), p.config.Channels)
	}

	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	p.scratch = audio.ToFloat32(p.scratch, samples)
	return p.process(ctx, p.scratch)
}

// QueueBuffer queues a go-audio buffer whose format matches the player's
func (p *Player[T]) QueueBuffer(buf goaudio.Buffer) error {
	format := buf.PCMFormat()
	if format == nil {
		return fmt.Errorf("%w: buffer has no format", ErrFormat)
	}
	if format.NumChannels != p.config.Channels || format.SampleRate != p.config.SampleRate {
		return fmt.Errorf("%w: buffer is %dch/%dHz, player expects %dch/%dHz", ErrFormat,
			format.NumChannels, format.SampleRate, p.config.Channels, p.config.SampleRate)
	}

	data := buf.AsFloat32Buffer().Data
	if len(data)%p.config.Channels != 0 {
		return fmt.Errorf("%w: %d samples for %d channels", ErrPartialFrame, len(data), p.config.Channels)
	}

	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return p.process(context.Background(), data)
}

// process must hold queueMu
func (p *Player[T]) process(ctx context.Context, samples []float32) error {
	if p.closed.Load() {
		return ErrClosed
	}

	interrupt := p.interrupt.Load()
	pushCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	release := context.AfterFunc(interrupt.ctx, cancel)
	defer release()

	err := p.adapter.Process(pushCtx, samples)
	if err != nil && ctx.Err() == nil && interrupt.ctx.Err() != nil {
		// Stop discarded the buffer; the rest of this chunk goes with it
		if p.closed.Load() {
			err = ErrClosed
		} else {
			err = nil
		}
	}

	p.window.record(p.ring.Occupancy(), p.adapter.Ratio(), p.adapter.Retries())
	p.reportUnderruns()
	return err
}

// reportUnderruns runs the hook on the producer side, must hold queueMu
func (p *Player[T]) reportUnderruns() {
	underruns := p.ring.Stats().Underruns
	if underruns <= p.lastUnderruns {
		return
	}
	count := underruns - p.lastUnderruns
	p.lastUnderruns = underruns

	p.logger.Debug("Buffer underrun", "count", count, "total", underruns)
	if p.config.OnUnderrun != nil {
		p.config.OnUnderrun(count)
	}
}

// State returns the current playback state
func (p *Player[T]) State() State {
	return State(p.state.Load())
}

func (p *Player[T]) setState(s State) {
	if old := State(p.state.Swap(int32(s))); old != s {
		p.logger.Debug("State changed", "from", old.String(), "to", s.String())
	}
}

// Negotiation returns the format negotiation result
func (p *Player[T]) Negotiation() Negotiation {
	return p.negotiation
}

// ID returns the player instance ID used in logs
func (p *Player[T]) ID() uuid.UUID {
	return p.id
}

// Stats returns a snapshot of buffer and drift statistics
func (p *Player[T]) Stats() Stats {
	rs := p.ring.Stats()
	mean, stddev, ratio, retries := p.window.summary()

	return Stats{
		State:           p.State(),
		Occupancy:       p.ring.Occupancy(),
		Capacity:        p.ring.Capacity(),
		Ratio:           ratio,
		Nominal:         p.negotiation.NominalRatio(),
		Pushed:          rs.Pushed,
		Played:          rs.Popped,
		Discarded:       rs.Discarded,
		Underruns:       rs.Underruns,
		SilenceFrames:   rs.SilenceFrames,
		Retries:         retries,
		OccupancyMean:   mean,
		OccupancyStdDev: stddev,
	}
}
