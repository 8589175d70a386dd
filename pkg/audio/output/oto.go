// ABOUTME: Oto-based audio output implementation
// ABOUTME: Feeds a persistent oto player with float32 frames from the mixer
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// DefaultDeviceRate is the hardware rate used when none is configured
const DefaultDeviceRate = 48000

// defaultOtoBuffer bounds how far the oto player reads ahead of the speaker
const defaultOtoBuffer = 40 * time.Millisecond

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	deviceRate int
	bufferSize time.Duration
	otoCtx     *oto.Context
	player     *oto.Player
	mixer      *mixer
	logger     *log.Logger
	volume     int
	muted      bool
	ready      bool
}

// NewOto creates a new Oto output running at deviceRate
func NewOto(deviceRate int, logger *log.Logger) *Oto {
	if deviceRate <= 0 {
		deviceRate = DefaultDeviceRate
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Oto{
		deviceRate: deviceRate,
		volume:     100,
		bufferSize: defaultOtoBuffer,
		logger:     logger.WithPrefix("oto"),
	}
}

// Open creates a context at sampleRate, starting the device on first use
func (o *Oto) Open(sampleRate int) (Context, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRate, sampleRate)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		if err := o.start(); err != nil {
			return nil, err
		}
	}

	return o.mixer.open(sampleRate)
}

// start initializes oto and the persistent player (must hold o.mu)
func (o *Oto) start() error {
	// oto allows one context per process, so a closed device resumes it
	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   o.deviceRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
			BufferSize:   o.bufferSize,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		o.otoCtx = ctx
	} else if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.mixer = newMixer(o.deviceRate)
	o.mixer.setVolume(o.volume)
	o.mixer.setMuted(o.muted)
	o.player = o.otoCtx.NewPlayer(&mixerReader{mixer: o.mixer})
	o.player.SetBufferSize(int(o.bufferSize.Seconds()*float64(o.deviceRate)) * 4)
	o.player.Play()
	o.ready = true

	o.logger.Info("Audio output initialized", "rate", o.deviceRate, "buffer", o.bufferSize)
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return nil
	}

	if err := o.player.Close(); err != nil {
		o.logger.Warn("Player close error", "err", err)
	}
	o.player = nil
	o.mixer.close()

	if err := o.otoCtx.Suspend(); err != nil {
		o.logger.Warn("Context suspend error", "err", err)
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = clampVolume(volume)
	if o.mixer != nil {
		o.mixer.setVolume(volume)
	}
	o.logger.Debug("Volume set", "volume", clampVolume(volume))
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
	if o.mixer != nil {
		o.mixer.setMuted(muted)
	}
	o.logger.Debug("Muted", "muted", muted)
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// mixerReader adapts the mixer to the io.Reader the oto player pulls from
type mixerReader struct {
	mixer   *mixer
	scratch []float32
}

func (r *mixerReader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}

	if cap(r.scratch) < frames {
		r.scratch = make([]float32, frames)
	}
	buf := r.scratch[:frames]
	r.mixer.render(buf)

	for i, sample := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}
	return frames * 4, nil
}
