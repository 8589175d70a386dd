// ABOUTME: Integration tests for Player API
// ABOUTME: Tests player creation, playback control, volume and metrics hooks
package voicestream

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/audio/output"
	"github.com/Resonate-Protocol/voicestream/pkg/stream"
	"github.com/charmbracelet/log"
)

type fakeRecorder struct {
	mu         sync.Mutex
	accepted   int
	rejected   int
	interrupts int
	states     []stream.State
	last       stream.Stats
}

func (r *fakeRecorder) ChunkAccepted() {
	r.mu.Lock()
	r.accepted++
	r.mu.Unlock()
}

func (r *fakeRecorder) ChunkRejected() {
	r.mu.Lock()
	r.rejected++
	r.mu.Unlock()
}

func (r *fakeRecorder) Interrupted() {
	r.mu.Lock()
	r.interrupts++
	r.mu.Unlock()
}

func (r *fakeRecorder) StateChanged(st stream.State) {
	r.mu.Lock()
	r.states = append(r.states, st)
	r.mu.Unlock()
}

func (r *fakeRecorder) ObserveStats(s stream.Stats) {
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()
}

func encodeSeconds(seconds float64, rate int) string {
	frames := int(math.Round(seconds * float64(rate)))
	data := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(0.25))
	}
	return base64.StdEncoding.EncodeToString(data)
}

func newTestPlayer(t *testing.T, config PlayerConfig) (*Player, *output.Virtual) {
	t.Helper()

	dev := output.NewVirtual()
	config.Device = dev
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}

	player, err := NewPlayer(config)
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	t.Cleanup(func() { player.Close() })

	return player, dev
}

func TestNewPlayerDefaults(t *testing.T) {
	player, _ := newTestPlayer(t, PlayerConfig{})

	if player.config.Volume != 100 {
		t.Errorf("Expected default volume=100, got %d", player.config.Volume)
	}
	if player.config.Backend != BackendOto {
		t.Errorf("Expected default backend=oto, got %s", player.config.Backend)
	}
	if player.ownsDevice {
		t.Error("Expected a supplied device not to be owned")
	}

	status := player.Status()
	if status.State != stream.StateIdle {
		t.Errorf("Expected initial state idle, got %v", status.State)
	}
	if status.IsPlaying {
		t.Error("Expected nothing playing initially")
	}
}

func TestNewPlayerErrors(t *testing.T) {
	tests := []struct {
		name   string
		config PlayerConfig
	}{
		{"unknown backend", PlayerConfig{Backend: "pulse"}},
		{"unknown encoding", PlayerConfig{Backend: BackendVirtual, Encoding: "mulaw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Logger = log.New(io.Discard)
			if _, err := NewPlayer(tt.config); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestVirtualBackendIsOwned(t *testing.T) {
	player, err := NewPlayer(PlayerConfig{Backend: BackendVirtual, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}

	if !player.ownsDevice {
		t.Error("Expected the player to own a backend it created")
	}
	if err := player.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Closed virtual devices refuse new contexts
	if _, err := player.device.Open(24000); !errors.Is(err, output.ErrClosed) {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
}

func TestPlayerEnqueueAndDrain(t *testing.T) {
	var mu sync.Mutex
	var states []stream.State

	player, dev := newTestPlayer(t, PlayerConfig{
		OnStateChange: func(st stream.State) {
			mu.Lock()
			states = append(states, st)
			mu.Unlock()
		},
	})

	if !player.Enqueue(encodeSeconds(0.5, 24000), 24000) {
		t.Fatal("Expected enqueue to succeed")
	}
	if !player.Enqueue(encodeSeconds(0.3, 24000), 0) {
		t.Fatal("Expected enqueue at default rate to succeed")
	}

	nodes := dev.Contexts()[0].Nodes()
	if len(nodes) != 2 || nodes[1].Start != 500*time.Millisecond {
		t.Fatalf("Expected two back-to-back nodes, got %+v", nodes)
	}

	if !player.IsPlaying() || player.State() != stream.StatePlaying {
		t.Error("Expected playing after enqueue")
	}

	dev.Advance(800 * time.Millisecond)

	if player.IsPlaying() {
		t.Error("Expected nothing playing after drain")
	}
	if player.Progress() != 1 {
		t.Errorf("Expected progress 1, got %f", player.Progress())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != stream.StatePlaying || states[1] != stream.StateIdle {
		t.Errorf("Expected [playing idle], got %v", states)
	}
}

func TestPlayerInterrupt(t *testing.T) {
	rec := &fakeRecorder{}
	player, dev := newTestPlayer(t, PlayerConfig{Recorder: rec})

	player.Enqueue(encodeSeconds(0.5, 24000), 24000)
	player.Interrupt()
	player.Interrupt()

	for _, n := range dev.Contexts()[0].Nodes() {
		if !n.Stopped() {
			t.Error("Expected node halted")
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.interrupts != 1 {
		t.Errorf("Expected 1 interrupt recorded, got %d", rec.interrupts)
	}
	if rec.last.Interrupts != 1 || rec.last.Halted != 1 {
		t.Errorf("Expected stats after interrupt, got %+v", rec.last)
	}
}

func TestPlayerRejectedChunk(t *testing.T) {
	rec := &fakeRecorder{}
	var gotErr error

	player, _ := newTestPlayer(t, PlayerConfig{
		Recorder: rec,
		OnError:  func(err error) { gotErr = err },
	})

	if player.Enqueue("", 24000) {
		t.Error("Expected empty chunk to be rejected")
	}
	if !errors.Is(gotErr, ErrChunkRejected) {
		t.Errorf("Expected ErrChunkRejected, got %v", gotErr)
	}

	player.Enqueue(encodeSeconds(0.1, 24000), 24000)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.accepted != 1 || rec.rejected != 1 {
		t.Errorf("Expected 1 accepted and 1 rejected, got %d and %d", rec.accepted, rec.rejected)
	}
	if rec.last.Enqueued != 1 || rec.last.Rejected != 1 {
		t.Errorf("Unexpected stats: %+v", rec.last)
	}
}

func TestPlayerResetError(t *testing.T) {
	var gotErr error
	player, dev := newTestPlayer(t, PlayerConfig{OnError: func(err error) { gotErr = err }})

	dev.FailOpens(output.ErrUnsupportedRate)
	err := player.Reset(24000)
	if !errors.Is(err, output.ErrUnsupportedRate) {
		t.Errorf("Expected wrapped ErrUnsupportedRate, got %v", err)
	}
	if gotErr != err {
		t.Error("Expected reset error forwarded to OnError")
	}

	dev.FailOpens(nil)
	if err := player.Reset(0); err != nil {
		t.Errorf("Reset failed: %v", err)
	}
	if player.Stats().SampleRate != 24000 {
		t.Errorf("Expected default rate session, got %d", player.Stats().SampleRate)
	}
}

func TestPlayerStopDrains(t *testing.T) {
	player, dev := newTestPlayer(t, PlayerConfig{})

	player.Enqueue(encodeSeconds(0.2, 24000), 24000)
	player.Stop()

	if dev.Contexts()[0].Nodes()[0].Stopped() {
		t.Error("Expected stop to let scheduled audio play")
	}
	dev.Advance(200 * time.Millisecond)
	if player.State() != stream.StateIdle {
		t.Errorf("Expected idle after drain, got %v", player.State())
	}
}

func TestPlayerSetVolume(t *testing.T) {
	player, _ := newTestPlayer(t, PlayerConfig{Volume: 80})

	tests := []struct {
		input    int
		expected int
	}{
		{50, 50},
		{150, 100},
		{-10, 0},
	}

	for _, tt := range tests {
		player.SetVolume(tt.input)
		if got := player.Status().Volume; got != tt.expected {
			t.Errorf("SetVolume(%d): expected %d, got %d", tt.input, tt.expected, got)
		}
	}

	player.Mute(true)
	if !player.Status().Muted {
		t.Error("Expected muted")
	}
}

func TestPlayerCloseIdempotent(t *testing.T) {
	player, dev := newTestPlayer(t, PlayerConfig{})
	player.Enqueue(encodeSeconds(0.2, 24000), 24000)

	if err := player.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := player.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
	if !dev.Contexts()[0].Closed() {
		t.Error("Expected context released on close")
	}
}
