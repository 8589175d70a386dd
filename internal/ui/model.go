// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/stream"
	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Source
	connected bool
	source    string

	// Playback
	state    stream.State
	progress float64
	buffered time.Duration
	volume   int
	muted    bool
	text     string

	// Stats
	stats stream.Stats

	// Debug
	showDebug  bool
	goroutines int
	memAlloc   uint64

	// Dimensions
	width  int
	height int

	controls *Controls
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderPlayback()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders source status
func (m Model) renderHeader() string {
	connStatus := "Waiting for source"
	if m.connected {
		connStatus = fmt.Sprintf("Streaming from %s", truncate(m.source, 30))
	}

	return fmt.Sprintf(`┌─ Voicestream ────────────────────────────────────────┐
│ Source: %-45s │
├──────────────────────────────────────────────────────┤
`, connStatus)
}

// renderPlayback renders state, progress and the latest transcript
func (m Model) renderPlayback() string {
	icon := "■"
	switch m.state {
	case stream.StatePlaying:
		icon = "▶"
	case stream.StateInterrupted:
		icon = "✗"
	}

	s := fmt.Sprintf("│ State:    %s %-40s │\n", icon, m.state)
	s += fmt.Sprintf("│ Progress: [%s] %3.0f%%%-24s │\n",
		renderBar(int(m.progress*100), 100, 20), m.progress*100, "")
	s += fmt.Sprintf("│ Buffered: %-42s │\n", m.buffered.Round(time.Millisecond))

	if m.text != "" {
		s += fmt.Sprintf("│ Text:     %-42s │\n", truncate(m.text, 42))
	}

	return s
}

// renderControls renders volume status
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n",
		volumeBar, m.volume, muteIcon, "")
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Chunks: %d  Rejected: %d  Interrupts: %d%-8s │
│ Rate:   %dHz  Active nodes: %d%-20s │
`, m.stats.Enqueued, m.stats.Rejected, m.stats.Interrupts, "",
		m.stats.SampleRate, m.stats.Active, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ i:Interrupt  s:Stop  ↑/↓:Volume  m:Mute  d:Debug  q:Quit │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Session:    %-38s │
│   Sessions:   %d  Completed: %d  Halted: %d%-8s │
│   Goroutines: %d  Heap: %dKB%-18s │
`, m.stats.SessionID, m.stats.Sessions, m.stats.Completed, m.stats.Halted, "",
		m.goroutines, m.memAlloc/1024, "")
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.sendQuit()
		return m, tea.Quit
	case "up":
		if m.volume < 100 {
			m.volume = min(m.volume+5, 100)
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume = max(m.volume-5, 0)
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "i":
		m.sendAction(ActionInterrupt)
	case "s":
		m.sendAction(ActionStop)
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

func (m Model) sendAction(a Action) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Actions <- a:
	default:
	}
}

func (m Model) sendQuit() {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Quit <- QuitMsg{}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.State != nil {
		m.state = *msg.State
	}
	if msg.Stats != nil {
		m.stats = *msg.Stats
		m.progress = msg.Progress
		m.buffered = msg.Buffered
	}
	if msg.Text != "" {
		m.text = msg.Text
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Connected  *bool
	Source     string
	State      *stream.State
	Stats      *stream.Stats
	Progress   float64
	Buffered   time.Duration
	Text       string
	Goroutines int
	MemAlloc   uint64
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
