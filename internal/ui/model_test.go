// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key commands and rendering
package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel("dynwave", nil)

	if model.state != "stopped" {
		t.Errorf("expected initial state 'stopped', got '%s'", model.state)
	}

	if model.capacity != 0 {
		t.Errorf("expected zero capacity before first status, got %d", model.capacity)
	}
}

func TestStatusMsgFormat(t *testing.T) {
	model := NewModel("dynwave", nil)

	model.applyStatus(StatusMsg{
		Requested:       "f32/stereo/44100Hz",
		Accepted:        "s16/stereo/48000Hz",
		NeedsConversion: true,
		Resampler:       "soxr",
	})

	if model.accepted != "s16/stereo/48000Hz" {
		t.Errorf("expected accepted format, got '%s'", model.accepted)
	}

	if !model.needsConversion {
		t.Error("expected needsConversion to be true")
	}

	// A status without format info keeps the format
	model.applyStatus(StatusMsg{State: "playing"})
	if model.accepted == "" {
		t.Error("format should survive a state-only update")
	}
	if model.state != "playing" {
		t.Errorf("expected state 'playing', got '%s'", model.state)
	}
}

func TestStatusMsgStats(t *testing.T) {
	model := NewModel("dynwave", nil)

	model.applyStatus(StatusMsg{
		HasStats:  true,
		Occupancy: 5000,
		Capacity:  11025,
		Ratio:     1.002,
		Nominal:   1.0,
		Underruns: 2,
	})

	if model.occupancy != 5000 || model.capacity != 11025 {
		t.Errorf("unexpected buffer %d/%d", model.occupancy, model.capacity)
	}

	if ppm := model.correctionPPM(); ppm < 1999 || ppm > 2001 {
		t.Errorf("expected about +2000 ppm correction, got %f", ppm)
	}

	// Stats updates replace counters even when they drop to zero after Stop
	model.applyStatus(StatusMsg{HasStats: true, Capacity: 11025, Ratio: 1, Nominal: 1})
	if model.occupancy != 0 {
		t.Errorf("expected occupancy reset to 0, got %d", model.occupancy)
	}
}

func TestStatusMsgError(t *testing.T) {
	model := NewModel("dynwave", nil)
	model.applyStatus(StatusMsg{Err: errors.New("device lost")})

	if model.lastErr != "device lost" {
		t.Errorf("expected error to be recorded, got '%s'", model.lastErr)
	}
}

func TestKeyCommands(t *testing.T) {
	tests := []struct {
		name  string
		state string
		key   tea.KeyMsg
		want  Command
	}{
		{"space plays when stopped", "stopped", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, CommandPlay},
		{"space pauses when playing", "playing", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, CommandPause},
		{"p resumes when paused", "paused", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}, CommandPlay},
		{"s stops", "playing", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}, CommandStop},
		{"right raises skew", "playing", tea.KeyMsg{Type: tea.KeyRight}, CommandSkewUp},
		{"left lowers skew", "playing", tea.KeyMsg{Type: tea.KeyLeft}, CommandSkewDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controls := NewControls()
			model := NewModel("dynwave", controls)
			model.state = tt.state

			model.Update(tt.key)

			select {
			case got := <-controls.Commands:
				if got != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got)
				}
			default:
				t.Fatalf("expected command %s", tt.want)
			}
		})
	}
}

func TestQuitKey(t *testing.T) {
	controls := NewControls()
	model := NewModel("dynwave", controls)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	if !updated.(Model).quitting {
		t.Error("expected model to be quitting")
	}

	if got := <-controls.Commands; got != CommandQuit {
		t.Errorf("expected quit command on channel, got %s", got)
	}
}

func TestKeysWithoutControls(t *testing.T) {
	model := NewModel("dynwave", nil)
	// Must not panic without a control handler
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
}

func TestView(t *testing.T) {
	model := NewModel("dynwave test", nil)
	model.applyStatus(StatusMsg{
		Requested: "f32/stereo/44100Hz",
		Accepted:  "f32/stereo/44100Hz",
		State:     "paused",
		HasStats:  true,
		Occupancy: 50,
		Capacity:  100,
		Ratio:     1,
		Nominal:   1,
		Underruns: 3,
	})

	view := model.View()
	for _, want := range []string{"dynwave test", "paused", "50/100 frames", "Underruns", "f32/stereo/44100Hz"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value, total int
		filled       int
	}{
		{0, 100, 0},
		{50, 100, 5},
		{100, 100, 10},
		{150, 100, 10},
		{10, 0, 0},
	}

	for _, tt := range tests {
		bar := renderBar(tt.value, tt.total, 10)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("renderBar(%d, %d): expected %d filled, got %d", tt.value, tt.total, tt.filled, got)
		}
		if got := len([]rune(bar)); got != 10 {
			t.Errorf("renderBar(%d, %d): expected width 10, got %d", tt.value, tt.total, got)
		}
	}
}
