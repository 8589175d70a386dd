// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program and the channels back to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Action is a playback command issued from the keyboard
type Action int

const (
	ActionInterrupt Action = iota
	ActionStop
)

// VolumeChangeMsg carries a volume or mute change to the player
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg signals that the user asked to quit
type QuitMsg struct{}

// Controls holds channels for communication from the TUI to the player
type Controls struct {
	Changes chan VolumeChangeMsg
	Actions chan Action
	Quit    chan QuitMsg
}

// NewControls creates a new controls handler
func NewControls() *Controls {
	return &Controls{
		Changes: make(chan VolumeChangeMsg, 10),
		Actions: make(chan Action, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls, volume int) Model {
	return Model{
		volume:   volume,
		controls: controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(controls *Controls, volume int) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls, volume), tea.WithAltScreen())
	return p, nil
}
