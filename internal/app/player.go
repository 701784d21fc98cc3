// ABOUTME: Demo player application orchestration
// ABOUTME: Coordinates the tone producer, dynwave player, status reporting and TUI
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dynwave/dynwave-go/internal/config"
	"github.com/dynwave/dynwave-go/internal/tone"
	"github.com/dynwave/dynwave-go/internal/ui"
	"github.com/dynwave/dynwave-go/internal/version"
	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/dynwave/dynwave-go/pkg/audio/output"
	"github.com/dynwave/dynwave-go/pkg/dynwave"
)

// SkewStep is the producer clock change per keypress
const SkewStep = 500.0

// Options configures a demo run
type Options struct {
	Config *config.Config

	// Device overrides the configured backend
	Device output.Device

	Logger *slog.Logger

	// UI shows the bubbletea status view and reads key commands
	UI bool

	// Autoplay starts playback immediately
	Autoplay bool

	// Duration ends the run after this long (0 runs until quit or ctx is done)
	Duration time.Duration

	// StatusInterval is the refresh period for OnStatus and the TUI (default: 250ms)
	StatusInterval time.Duration

	// OnStatus receives every status snapshot
	OnStatus func(ui.StatusMsg)
}

// transport is the type-erased view of a Player[T]
type transport interface {
	Play() error
	Pause() error
	Stop() error
	Close() error
	State() dynwave.State
	Stats() dynwave.Stats
	Negotiation() dynwave.Negotiation
}

type session struct {
	player transport
	queue  func(ctx context.Context, frames int) error
}

func newSession[T audio.Sample](cfg dynwave.Config, read func([]T) int) (*session, error) {
	p, err := dynwave.New[T](cfg)
	if err != nil {
		return nil, err
	}

	var buf []T
	return &session{
		player: p,
		queue: func(ctx context.Context, frames int) error {
			n := frames * cfg.Channels
			if cap(buf) < n {
				buf = make([]T, n)
			}
			buf = buf[:n]
			read(buf)
			return p.QueueContext(ctx, buf)
		},
	}, nil
}

// App is a running demo player
type App struct {
	opts     Options
	logger   *slog.Logger
	session  *session
	source   *tone.Source
	pacer    *tone.Pacer
	controls *ui.Controls
	tuiProg  *tea.Program
}

// New opens the device and creates the player. Nothing plays until Run.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("no configuration")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 250 * time.Millisecond
	}
	cfg := opts.Config

	device := opts.Device
	if device == nil {
		var err error
		device, err = cfg.OpenDevice(opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("opening %s output: %w", cfg.Backend, err)
		}
	}

	pcfg, err := cfg.PlayerConfig(device, opts.Logger)
	if err != nil {
		_ = device.Close()
		return nil, err
	}

	a := &App{
		opts:     opts,
		logger:   opts.Logger,
		source:   tone.NewSource(cfg.Tone.Frequency, cfg.Tone.Amplitude, cfg.SampleRate, cfg.Channels),
		pacer:    tone.NewPacer(cfg.SampleRate, cfg.Tone.SkewPPM),
		controls: ui.NewControls(),
	}

	pcfg.OnUnderrun = func(count uint64) {
		a.logger.Debug("Producer fell behind", "underruns", count)
	}

	switch cfg.Tone.Sample {
	case "i16":
		a.session, err = newSession[int16](pcfg, a.source.ReadInt16)
	default:
		a.session, err = newSession[float32](pcfg, a.source.ReadFloat32)
	}
	if err != nil {
		return nil, err
	}

	if opts.UI {
		a.tuiProg = ui.Run(version.String(), a.controls)
	}
	return a, nil
}

// Run plays until ctx is done, Duration elapses or the user quits, then
// closes the player
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.tuiProg != nil {
		tuiDone := make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := a.tuiProg.Run(); err != nil {
				a.logger.Error("TUI failed", "error", err)
			}
		}()
		defer func() {
			a.tuiProg.Quit()
			<-tuiDone
		}()
	}

	a.publish(a.formatStatus())

	if a.opts.Autoplay {
		if err := a.session.player.Play(); err != nil {
			_ = a.session.player.Close()
			return err
		}
	}

	producerErr := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := a.pacer.Run(ctx, a.session.queue)
		if err != nil && ctx.Err() == nil && !errors.Is(err, dynwave.ErrClosed) {
			producerErr <- err
		}
	}()

	runErr := a.loop(ctx, producerErr)

	cancel()
	wg.Wait()

	if err := a.session.player.Close(); err != nil && !errors.Is(err, dynwave.ErrClosed) {
		runErr = errors.Join(runErr, err)
	}

	s := a.session.player.Stats()
	a.logger.Info("Player stopped",
		"played", s.Played,
		"underruns", s.Underruns,
		"retries", s.Retries)
	return runErr
}

func (a *App) loop(ctx context.Context, producerErr <-chan error) error {
	ticker := time.NewTicker(a.opts.StatusInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if a.opts.Duration > 0 {
		timer := time.NewTimer(a.opts.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return nil
		case err := <-producerErr:
			a.logger.Error("Producer failed", "error", err)
			return err
		case cmd := <-a.controls.Commands:
			if cmd == ui.CommandQuit {
				return nil
			}
			if err := a.handleCommand(cmd); err != nil {
				a.logger.Error("Command failed", "command", cmd.String(), "error", err)
				a.publish(ui.StatusMsg{Err: err})
			}
		case <-ticker.C:
			a.publish(a.statsStatus())
		}
	}
}

func (a *App) handleCommand(cmd ui.Command) error {
	p := a.session.player
	a.logger.Debug("Command", "command", cmd.String())

	switch cmd {
	case ui.CommandPlay:
		return p.Play()
	case ui.CommandPause:
		return p.Pause()
	case ui.CommandStop:
		return p.Stop()
	case ui.CommandSkewUp:
		a.pacer.SetSkew(a.pacer.Skew() + SkewStep)
	case ui.CommandSkewDown:
		a.pacer.SetSkew(a.pacer.Skew() - SkewStep)
	}
	return nil
}

func (a *App) formatStatus() ui.StatusMsg {
	n := a.session.player.Negotiation()
	return ui.StatusMsg{
		Requested:       n.Requested.String(),
		Accepted:        n.Accepted.String(),
		NeedsConversion: n.NeedsConversion,
		Resampler:       a.opts.Config.Resampler,
		State:           a.session.player.State().String(),
	}
}

func (a *App) statsStatus() ui.StatusMsg {
	s := a.session.player.Stats()

	var meanFill, stdFill float64
	if s.Capacity > 0 {
		meanFill = s.OccupancyMean / float64(s.Capacity)
		stdFill = s.OccupancyStdDev / float64(s.Capacity)
	}

	return ui.StatusMsg{
		State:     s.State.String(),
		HasStats:  true,
		Occupancy: s.Occupancy,
		Capacity:  s.Capacity,
		Ratio:     s.Ratio,
		Nominal:   s.Nominal,
		SkewPPM:   a.pacer.Skew(),
		Played:    s.Played,
		Underruns: s.Underruns,
		Retries:   s.Retries,
		MeanFill:  meanFill,
		StdFill:   stdFill,
	}
}

func (a *App) publish(msg ui.StatusMsg) {
	if a.tuiProg != nil {
		a.tuiProg.Send(msg)
	}
	if a.opts.OnStatus != nil {
		a.opts.OnStatus(msg)
	}
}

// Controls accepts the same commands as the TUI keys
func (a *App) Controls() *ui.Controls {
	return a.controls
}
