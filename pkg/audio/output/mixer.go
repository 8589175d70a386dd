// ABOUTME: Software mixer shared by the hardware backends
// ABOUTME: Sums scheduled voices at the device rate and dispatches completions
package output

import (
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
	"github.com/Resonate-Protocol/voicestream/pkg/audio/resample"
)

// mixer renders every scheduled voice into one mono stream at the device rate.
// The device frame counter is the clock for all contexts opened on it.
type mixer struct {
	mu     sync.Mutex
	rate   int
	frame  int64 // frames rendered since the mixer started
	voices []*voice
	volume int
	muted  bool
	closed bool

	events *dispatcher
}

// voice is one scheduled buffer already stretched to device frames
type voice struct {
	owner   *mixContext
	samples []float32
	start   int64 // absolute device frame
	onEnded func()
}

func (v *voice) end() int64 {
	return v.start + int64(len(v.samples))
}

func newMixer(rate int) *mixer {
	return &mixer{
		rate:   rate,
		volume: 100,
		events: newDispatcher(),
	}
}

// render fills out with the next len(out) device frames
func (m *mixer) render(out []float32) {
	for i := range out {
		out[i] = 0
	}

	m.mu.Lock()
	begin := m.frame
	end := begin + int64(len(out))

	var ended []func()
	kept := m.voices[:0]
	for _, v := range m.voices {
		vEnd := v.end()
		if v.start < end && vEnd > begin {
			from := max(v.start, begin)
			to := min(vEnd, end)
			for f := from; f < to; f++ {
				out[f-begin] += v.samples[f-v.start]
			}
		}

		if vEnd <= end {
			if v.onEnded != nil {
				ended = append(ended, v.onEnded)
			}
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = kept
	m.frame = end
	multiplier := getVolumeMultiplier(m.volume, m.muted)
	m.mu.Unlock()

	for i := range out {
		out[i] = audio.Clip(out[i] * multiplier)
	}

	m.events.post(ended...)
}

// open creates a logical context whose clock starts at the current device frame
func (m *mixer) open(sampleRate int) (*mixContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	return &mixContext{
		mixer:      m,
		sampleRate: sampleRate,
		origin:     m.frame,
		resampler:  resample.New(sampleRate, m.rate),
	}, nil
}

// remove drops a voice without firing its completion (must hold m.mu)
func (m *mixer) remove(target *voice) {
	for i, v := range m.voices {
		if v == target {
			m.voices = append(m.voices[:i], m.voices[i+1:]...)
			return
		}
	}
}

// close drops every voice and stops the dispatcher
func (m *mixer) close() {
	m.mu.Lock()
	m.closed = true
	m.voices = nil
	m.mu.Unlock()

	m.events.close()
}

func (m *mixer) setVolume(volume int) {
	m.mu.Lock()
	m.volume = clampVolume(volume)
	m.mu.Unlock()
}

func (m *mixer) setMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
}

func (m *mixer) getVolume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *mixer) isMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// mixContext is a Context backed by a mixer
type mixContext struct {
	mixer      *mixer
	sampleRate int
	origin     int64 // device frame at open
	resampler  *resample.Resampler
	closed     bool // guarded by mixer.mu

	// Last input sample and end frame of the previous buffer, guarded by mixer.mu
	tail    float32
	tailEnd int64
	hasTail bool
}

func (c *mixContext) SampleRate() int {
	return c.sampleRate
}

func (c *mixContext) CurrentTime() time.Duration {
	c.mixer.mu.Lock()
	elapsed := c.mixer.frame - c.origin
	c.mixer.mu.Unlock()

	return audio.FramesToDuration(int(elapsed), c.mixer.rate)
}

func (c *mixContext) Schedule(samples []float32, startAt time.Duration, onEnded func()) (Node, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBuffer
	}

	m := c.mixer
	endAt := startAt + audio.FramesToDuration(len(samples), c.sampleRate)

	// Slot boundaries are rounded on the device clock so that back-to-back
	// buffers share their boundary frame.
	start := c.origin + audio.DurationToFrames(startAt, m.rate)
	frames := int(c.origin + audio.DurationToFrames(endAt, m.rate) - start)

	m.mu.Lock()
	defer m.mu.Unlock()

	if c.closed || m.closed {
		return nil, ErrClosed
	}

	stretched := samples
	if !c.resampler.Passthrough() || frames != len(samples) {
		// Continue from the previous buffer only when this one follows it directly
		prev := samples[0]
		if c.hasTail && c.tailEnd == start {
			prev = c.tail
		}
		stretched = resample.StretchFrom(prev, samples, frames)
	}

	v := &voice{
		owner:   c,
		samples: stretched,
		start:   start,
		onEnded: onEnded,
	}
	m.voices = append(m.voices, v)

	c.tail = samples[len(samples)-1]
	c.tailEnd = v.end()
	c.hasTail = true

	return &mixNode{mixer: m, voice: v}, nil
}

func (c *mixContext) Close() error {
	m := c.mixer
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	kept := m.voices[:0]
	for _, v := range m.voices {
		if v.owner != c {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = kept

	return nil
}

// mixNode is a Node backed by a mixer voice
type mixNode struct {
	mixer *mixer
	voice *voice
}

func (n *mixNode) Stop() {
	n.mixer.mu.Lock()
	n.mixer.remove(n.voice)
	n.mixer.mu.Unlock()
}

// dispatcher runs completion callbacks in order on one goroutine, away from
// the audio thread and from any mixer lock.
type dispatcher struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) post(fns ...func()) {
	if len(fns) == 0 {
		return
	}

	d.mu.Lock()
	d.queue = append(d.queue, fns...)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case <-d.wake:
		}

		for {
			d.mu.Lock()
			fns := d.queue
			d.queue = nil
			d.mu.Unlock()

			if len(fns) == 0 {
				break
			}
			for _, fn := range fns {
				fn()
			}
		}
	}
}

func (d *dispatcher) close() {
	d.once.Do(func() { close(d.done) })
}
