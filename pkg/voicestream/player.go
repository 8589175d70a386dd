// ABOUTME: High-level Player API for streamed speech playback
// ABOUTME: Wires an output device, decoder and gapless scheduler behind one type
package voicestream

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
	"github.com/Resonate-Protocol/voicestream/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicestream/pkg/audio/output"
	"github.com/Resonate-Protocol/voicestream/pkg/stream"
	"github.com/charmbracelet/log"
)

// Output backends accepted by PlayerConfig.Backend
const (
	BackendOto     = "oto"
	BackendMalgo   = "malgo"
	BackendVirtual = "virtual"
)

// ErrChunkRejected is reported through OnError when a chunk cannot be scheduled
var ErrChunkRejected = errors.New("chunk rejected")

// PlayerConfig holds player configuration
type PlayerConfig struct {
	// Device overrides Backend with an already constructed output device.
	// The player does not close a device it did not create.
	Device output.Device

	// Backend selects the output implementation (default: oto)
	Backend string

	// DeviceRate is the hardware rate for the oto and malgo backends (default: 48000)
	DeviceRate int

	// Encoding is the chunk payload encoding, f32le or s16le (default: f32le)
	Encoding string

	// SafetyMargin delays context teardown past the last sample (default: 200ms)
	SafetyMargin time.Duration

	// Volume is the initial volume (0-100)
	Volume int

	// OnStateChange is called when playback state changes
	OnStateChange func(stream.State)

	// OnError is called when errors occur
	OnError func(error)

	// Recorder receives playback metrics (optional)
	Recorder Recorder

	// Logger receives player logs (default: log.Default())
	Logger *log.Logger
}

// Recorder receives playback events, typically to export them as metrics
type Recorder interface {
	ChunkAccepted()
	ChunkRejected()
	Interrupted()
	StateChanged(stream.State)
	ObserveStats(stream.Stats)
}

// PlayerStatus describes the current player state
type PlayerStatus struct {
	State     stream.State
	Volume    int
	Muted     bool
	Progress  float64
	Buffered  time.Duration
	IsPlaying bool
}

// Player plays streamed speech chunks back to back on an output device
type Player struct {
	config     PlayerConfig
	device     output.Device
	ownsDevice bool
	scheduler  *stream.Scheduler
	logger     *log.Logger

	mu     sync.Mutex
	volume int
	muted  bool
	closed bool
}

// NewPlayer creates a new player with the given configuration
func NewPlayer(config PlayerConfig) (*Player, error) {
	// Set defaults
	if config.Volume == 0 {
		config.Volume = 100
	}
	if config.Backend == "" {
		config.Backend = BackendOto
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	decoder, err := decode.New(config.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	device := config.Device
	owns := false
	if device == nil {
		device, err = newDevice(config.Backend, config.DeviceRate, config.Logger)
		if err != nil {
			return nil, err
		}
		owns = true
	}

	player := &Player{
		config:     config,
		device:     device,
		ownsDevice: owns,
		logger:     config.Logger.WithPrefix("player"),
		volume:     clamp(config.Volume),
	}

	player.scheduler = stream.NewScheduler(device, stream.Config{
		SafetyMargin: config.SafetyMargin,
		Decoder:      decoder,
		Logger:       config.Logger,
	})
	player.scheduler.OnStateChange(player.handleStateChange)
	player.applyVolume()

	player.logger.Info("Player created", "backend", config.Backend, "encoding", decoder.Encoding())
	return player, nil
}

// newDevice builds the output device for a backend name
func newDevice(backend string, deviceRate int, logger *log.Logger) (output.Device, error) {
	switch backend {
	case BackendOto:
		return output.NewOto(deviceRate, logger), nil
	case BackendMalgo:
		return output.NewMalgo(deviceRate, logger), nil
	case BackendVirtual:
		return output.NewVirtual(), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: oto, malgo, virtual)", backend)
	}
}

// Enqueue schedules an encoded chunk right after the previously enqueued audio.
// A sampleRate of zero means the default speech rate (24000Hz).
func (p *Player) Enqueue(encodedChunk string, sampleRate int) bool {
	if sampleRate == 0 {
		sampleRate = audio.DefaultSampleRate
	}

	ok := p.scheduler.Enqueue(encodedChunk, sampleRate)
	if rec := p.config.Recorder; rec != nil {
		if ok {
			rec.ChunkAccepted()
		} else {
			rec.ChunkRejected()
		}
	}
	if !ok {
		p.notifyError(fmt.Errorf("%w: %d bytes at %dHz", ErrChunkRejected, len(encodedChunk), sampleRate))
	}

	p.observe()
	return ok
}

// Interrupt halts all playback immediately
func (p *Player) Interrupt() {
	p.scheduler.Interrupt()
	p.observe()
}

// Stop lets already scheduled audio finish and then releases the output
func (p *Player) Stop() {
	p.scheduler.Stop()
	p.observe()
}

// Reset starts a fresh session at sampleRate
func (p *Player) Reset(sampleRate int) error {
	if sampleRate == 0 {
		sampleRate = audio.DefaultSampleRate
	}

	if err := p.scheduler.Reset(sampleRate); err != nil {
		p.notifyError(err)
		return err
	}
	p.observe()
	return nil
}

// Progress returns the fraction of scheduled audio already played
func (p *Player) Progress() float64 {
	return p.scheduler.Progress()
}

// IsPlaying reports whether any scheduled audio has not finished
func (p *Player) IsPlaying() bool {
	return p.scheduler.IsPlaying()
}

// State returns the current playback state
func (p *Player) State() stream.State {
	return p.scheduler.State()
}

// OnStateChange registers an additional state listener
func (p *Player) OnStateChange(fn func(stream.State)) (cancel func()) {
	return p.scheduler.OnStateChange(fn)
}

// SetVolume sets the volume (0-100)
func (p *Player) SetVolume(volume int) {
	p.mu.Lock()
	p.volume = clamp(volume)
	p.mu.Unlock()

	p.applyVolume()
}

// Mute sets the mute state
func (p *Player) Mute(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()

	p.applyVolume()
}

// applyVolume pushes volume and mute to devices that support them
func (p *Player) applyVolume() {
	vc, ok := p.device.(output.VolumeControl)
	if !ok {
		return
	}

	p.mu.Lock()
	volume, muted := p.volume, p.muted
	p.mu.Unlock()

	vc.SetVolume(volume)
	vc.SetMuted(muted)
}

// Status returns the current player state
func (p *Player) Status() PlayerStatus {
	p.mu.Lock()
	volume, muted := p.volume, p.muted
	p.mu.Unlock()

	return PlayerStatus{
		State:     p.scheduler.State(),
		Volume:    volume,
		Muted:     muted,
		Progress:  p.scheduler.Progress(),
		Buffered:  p.scheduler.Buffered(),
		IsPlaying: p.scheduler.IsPlaying(),
	}
}

// Stats returns playback statistics
func (p *Player) Stats() stream.Stats {
	return p.scheduler.Stats()
}

// Close closes the player and releases all resources
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.scheduler.Close()
	p.observe()

	if p.ownsDevice {
		if err := p.device.Close(); err != nil {
			return fmt.Errorf("failed to close output: %w", err)
		}
	}

	p.logger.Info("Player closed")
	return nil
}

func (p *Player) handleStateChange(st stream.State) {
	if rec := p.config.Recorder; rec != nil {
		rec.StateChanged(st)
		if st == stream.StateInterrupted {
			rec.Interrupted()
		}
	}

	if p.config.OnStateChange != nil {
		p.config.OnStateChange(st)
	}
}

// observe hands the latest scheduler statistics to the recorder
func (p *Player) observe() {
	if rec := p.config.Recorder; rec != nil {
		rec.ObserveStats(p.scheduler.Stats())
	}
}

// notifyError calls the OnError callback if set
func (p *Player) notifyError(err error) {
	if p.config.OnError != nil {
		p.config.OnError(err)
	} else {
		p.logger.Warn("Player error", "err", err)
	}
}

func clamp(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
