// ABOUTME: Streaming status logs for running without the TUI
// ABOUTME: Emits format once and buffer statistics every couple of seconds
package main

import (
	"log/slog"
	"time"

	"github.com/dynwave/dynwave-go/internal/ui"
)

const statusLogInterval = 2 * time.Second

func logStatus() func(ui.StatusMsg) {
	var last time.Time
	return func(msg ui.StatusMsg) {
		if msg.Accepted != "" {
			slog.Info("Output format",
				"requested", msg.Requested,
				"accepted", msg.Accepted,
				"needs_conversion", msg.NeedsConversion,
				"resampler", msg.Resampler)
		}
		if msg.Err != nil {
			slog.Error("Playback error", "error", msg.Err)
		}
		if !msg.HasStats || time.Since(last) < statusLogInterval {
			return
		}
		last = time.Now()

		fill := 0.0
		if msg.Capacity > 0 {
			fill = float64(msg.Occupancy) / float64(msg.Capacity)
		}
		slog.Info("Buffer",
			"state", msg.State,
			"occupancy", msg.Occupancy,
			"fill", fill,
			"ratio", msg.Ratio,
			"skew_ppm", msg.SkewPPM,
			"underruns", msg.Underruns)
	}
}
