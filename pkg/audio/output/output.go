// ABOUTME: Audio output interface definition
// ABOUTME: Common interfaces for clock-bearing playback backends
package output

import (
	"errors"
	"time"
)

var (
	// ErrClosed is returned when scheduling on a closed context or device
	ErrClosed = errors.New("output closed")

	// ErrUnsupportedRate is returned when a context cannot run at the requested rate
	ErrUnsupportedRate = errors.New("unsupported sample rate")

	// ErrEmptyBuffer is returned when scheduling a buffer with no samples
	ErrEmptyBuffer = errors.New("empty buffer")
)

// Device represents an audio output device
type Device interface {
	// Open creates a new output context at the given sample rate
	Open(sampleRate int) (Context, error)

	// Close releases the device and every context opened on it
	Close() error
}

// Context is one clock-bearing output session
type Context interface {
	// SampleRate returns the rate the context was opened at
	SampleRate() int

	// CurrentTime returns the context clock, starting at zero when opened
	CurrentTime() time.Duration

	// Schedule binds mono samples to a node that starts at startAt on the
	// context clock. onEnded runs once the whole buffer has played. It is not
	// called for nodes that are stopped or dropped by Close.
	Schedule(samples []float32, startAt time.Duration, onEnded func()) (Node, error)

	// Close drops every node and releases the context
	Close() error
}

// Node is one scheduled buffer
type Node interface {
	// Stop halts the node immediately, wherever it is in playback
	Stop()
}

// VolumeControl is implemented by devices with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	GetVolume() int
	IsMuted() bool
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float32 {
	if muted {
		return 0.0
	}
	return float32(volume) / 100.0
}

// clampVolume limits volume to 0-100
func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
