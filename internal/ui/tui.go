// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and relays key commands to the player loop
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command is a playback request issued from the keyboard
type Command int

const (
	CommandPlay Command = iota
	CommandPause
	CommandStop
	CommandSkewUp
	CommandSkewDown
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandStop:
		return "stop"
	case CommandSkewUp:
		return "skew+"
	case CommandSkewDown:
		return "skew-"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Controls carries commands from the TUI to the player loop
type Controls struct {
	Commands chan Command
}

// NewControls creates a control handler
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
	}
}

// send never blocks the UI; a full queue drops the keypress
func (c *Controls) send(cmd Command) {
	if c == nil {
		return
	}
	select {
	case c.Commands <- cmd:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(title string, controls *Controls) Model {
	return Model{
		title:    title,
		state:    "stopped",
		controls: controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(title string, controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(title, controls), tea.WithAltScreen())
}
