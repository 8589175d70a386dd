// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo with a data callback pulling from the mixer
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu         sync.Mutex
	deviceRate int
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	mixer      *mixer
	scratch    []float32 // only touched by the data callback
	logger     *log.Logger
	volume     int
	muted      bool
}

// NewMalgo creates a new Malgo output running at deviceRate
func NewMalgo(deviceRate int, logger *log.Logger) *Malgo {
	if deviceRate <= 0 {
		deviceRate = DefaultDeviceRate
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Malgo{
		deviceRate: deviceRate,
		volume:     100,
		logger:     logger.WithPrefix("malgo"),
	}
}

// Open creates a context at sampleRate, starting the device on first use
func (m *Malgo) Open(sampleRate int) (Context, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRate, sampleRate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		if err := m.start(); err != nil {
			return nil, err
		}
	}

	return m.mixer.open(sampleRate)
}

// start initializes the malgo context and playback device (must hold m.mu)
func (m *Malgo) start() error {
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	mix := newMixer(m.deviceRate)
	mix.setVolume(m.volume)
	mix.setMuted(m.muted)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(m.deviceRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		m.dataCallback(mix, pOutputSample, frameCount)
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		mix.close()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		mix.close()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.mixer = mix

	m.logger.Info("Audio output initialized", "rate", m.deviceRate, "format", "f32")
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(mix *mixer, pOutput []byte, frameCount uint32) {
	frames := int(frameCount)
	if cap(m.scratch) < frames {
		m.scratch = make([]float32, frames)
	}
	buf := m.scratch[:frames]
	mix.render(buf)

	for i, sample := range buf {
		binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(sample))
	}
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.logger.Warn("Device stop error", "err", err)
		}
		m.device.Uninit()
		m.device = nil
		m.mixer.close()
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			m.logger.Warn("Context uninit error", "err", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}

// SetVolume sets the volume (0-100)
func (m *Malgo) SetVolume(volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampVolume(volume)
	if m.mixer != nil {
		m.mixer.setVolume(volume)
	}
}

// SetMuted sets mute state
func (m *Malgo) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	if m.mixer != nil {
		m.mixer.setMuted(muted)
	}
}

// GetVolume returns current volume
func (m *Malgo) GetVolume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// IsMuted returns mute state
func (m *Malgo) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}
