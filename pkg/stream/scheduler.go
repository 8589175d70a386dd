// ABOUTME: Gapless playback scheduler
// ABOUTME: Places each buffer at the end of the previous one and tracks active nodes
package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
	"github.com/Resonate-Protocol/voicestream/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicestream/pkg/audio/output"
	"github.com/charmbracelet/log"
)

// DefaultSafetyMargin is added to the remaining audio before a context is released
const DefaultSafetyMargin = 200 * time.Millisecond

// Config holds scheduler configuration
type Config struct {
	// SafetyMargin delays context teardown past the last committed sample (default: 200ms)
	SafetyMargin time.Duration

	// Decoder turns chunk payloads into samples (default: f32le)
	Decoder decode.Decoder

	// Logger receives scheduling logs (default: log.Default())
	Logger *log.Logger
}

// Stats tracks scheduler metrics
type Stats struct {
	Enqueued   int64
	Rejected   int64
	Completed  int64
	Halted     int64
	Interrupts int64
	Sessions   int64
	Active     int
	Scheduled  time.Duration
	SessionID  string
	SampleRate int
}

// timer is the part of *time.Timer the teardown uses
type timer interface {
	Stop() bool
}

// Scheduler manages gapless playback of incrementally arriving buffers.
//
// Session state (cursor, active nodes, duration total) changes only inside
// Scheduler methods. Node completion callbacks remove their own node and
// nothing else.
type Scheduler struct {
	mu        sync.Mutex
	device    output.Device
	decoder   decode.Decoder
	margin    time.Duration
	logger    *log.Logger
	afterFunc func(time.Duration, func()) timer

	session  *session
	retiring []*session
	draining *session // last stopped session, reported until its teardown

	teardown    timer
	teardownGen uint64

	machine     machine
	listeners   listeners
	dispatching bool

	stats Stats
}

// NewScheduler creates a scheduler that opens sessions on device
func NewScheduler(device output.Device, config Config) *Scheduler {
	if config.SafetyMargin <= 0 {
		config.SafetyMargin = DefaultSafetyMargin
	}
	if config.Decoder == nil {
		config.Decoder = decode.Float32Decoder{}
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	return &Scheduler{
		device:  device,
		decoder: config.Decoder,
		margin:  config.SafetyMargin,
		logger:  config.Logger.WithPrefix("stream"),
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Enqueue decodes a chunk and schedules it right after the previous one.
// It returns false, changing nothing, if the chunk decodes to no samples or
// no output context could be opened at sampleRate.
func (s *Scheduler) Enqueue(encodedChunk string, sampleRate int) bool {
	return s.EnqueueBuffer(audio.Buffer{
		Samples:    s.decoder.Decode(encodedChunk),
		SampleRate: sampleRate,
	})
}

// EnqueueBuffer schedules an already decoded buffer
func (s *Scheduler) EnqueueBuffer(buf audio.Buffer) bool {
	s.mu.Lock()
	ok := s.enqueueLocked(buf)
	s.mu.Unlock()

	s.dispatch()
	return ok
}

func (s *Scheduler) enqueueLocked(buf audio.Buffer) bool {
	if buf.Empty() {
		s.stats.Rejected++
		s.logger.Warn("Rejected empty chunk", "rate", buf.SampleRate)
		return false
	}

	sess := s.session
	fresh := false
	if sess == nil || sess.sampleRate != buf.SampleRate {
		next, err := s.openSession(buf.SampleRate)
		if err != nil {
			s.stats.Rejected++
			s.logger.Warn("Rejected chunk, no output context", "rate", buf.SampleRate, "err", err)
			return false
		}
		sess = next
		fresh = true
	}

	now := sess.ctx.CurrentTime()
	startAt := max(now, sess.nextStartTime)
	duration := buf.Duration()

	id := sess.nextNode

	node, err := sess.ctx.Schedule(buf.Samples, startAt, func() {
		s.complete(sess, id)
	})
	if err != nil {
		s.stats.Rejected++
		s.logger.Warn("Failed to schedule chunk", "session", sess.id, "err", err)
		// The current session keeps playing untouched
		if fresh {
			s.closeSession(sess)
		}
		return false
	}
	sess.nextNode++

	if fresh {
		if old := s.session; old != nil {
			s.logger.Info("Sample rate changed, replacing session",
				"from", old.sampleRate, "to", buf.SampleRate)
			s.retire(old)
		}
		s.session = sess
	}

	sess.nextStartTime = startAt + duration
	sess.totalDuration += duration
	sess.active[id] = node

	s.stats.Enqueued++
	s.stats.Scheduled += duration

	if s.stats.Enqueued <= 5 {
		s.logger.Debug("Scheduled chunk",
			"session", sess.id, "startAt", startAt, "duration", duration, "lead", startAt-now)
	}

	s.machine.transition(StatePlaying)
	return true
}

// complete retires one node after it played to the end
func (s *Scheduler) complete(sess *session, id uint64) {
	s.mu.Lock()
	if _, ok := sess.active[id]; ok {
		delete(sess.active, id)
		s.stats.Completed++
		if s.activeLocked() == 0 {
			s.machine.transition(StateIdle)
		}
	}
	s.mu.Unlock()

	s.dispatch()
}

// Interrupt halts every active node immediately and releases the session.
// With nothing playing it does nothing.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	if s.activeLocked() == 0 {
		s.mu.Unlock()
		return
	}

	halted := 0
	for _, sess := range s.sessionsLocked() {
		halted += sess.haltAll()
	}
	s.stats.Halted += int64(halted)
	s.stats.Interrupts++

	if s.session != nil {
		s.retire(s.session)
		s.session = nil
	}
	s.draining = nil

	s.logger.Info("Playback interrupted", "halted", halted)

	s.machine.transition(StateInterrupted)
	s.machine.transition(StateIdle)
	s.mu.Unlock()

	s.dispatch()
}

// Stop releases the session after its committed audio has finished playing
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return
	}
	s.retire(s.session)
	s.draining = s.session
	s.session = nil
}

// Reset tears down any session and opens an empty one at sampleRate
func (s *Scheduler) Reset(sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.retire(s.session)
		s.session = nil
	}
	s.draining = nil

	next, err := s.openSession(sampleRate)
	if err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	s.session = next
	return nil
}

// Progress returns how far the clock has moved through the scheduled audio, in [0, 1].
// After Stop it follows the stopped session until that session is torn down.
func (s *Scheduler) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.reportedLocked()
	if sess == nil || sess.totalDuration <= 0 {
		return 0
	}

	elapsed := sess.ctx.CurrentTime() - sess.startTime
	p := float64(elapsed) / float64(sess.totalDuration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// IsPlaying reports whether any scheduled node has not finished yet
func (s *Scheduler) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked() > 0
}

// Buffered returns how much committed audio is ahead of the clock
func (s *Scheduler) Buffered() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.reportedLocked(); sess != nil {
		return sess.remaining()
	}
	return 0
}

// State returns the current playback state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.state
}

// OnStateChange registers fn for every state transition and returns a function
// that unregisters it. fn may call back into the scheduler.
func (s *Scheduler) OnStateChange(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.listeners.add(fn)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.listeners.remove(id)
		s.mu.Unlock()
	}
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Active = s.activeLocked()
	if s.session != nil {
		stats.SessionID = s.session.id
		stats.SampleRate = s.session.sampleRate
	}
	return stats
}

// Close releases every session immediately, without the teardown delay
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.teardown != nil {
		s.teardown.Stop()
		s.teardown = nil
	}
	s.teardownGen++

	for _, sess := range s.sessionsLocked() {
		s.stats.Halted += int64(sess.haltAll())
		s.closeSession(sess)
	}
	s.session = nil
	s.retiring = nil
	s.draining = nil

	s.machine.transition(StateIdle)
	s.mu.Unlock()

	s.dispatch()
}

// openSession opens a context on the device (must hold s.mu)
func (s *Scheduler) openSession(sampleRate int) (*session, error) {
	ctx, err := s.device.Open(sampleRate)
	if err != nil {
		return nil, err
	}

	sess := newSession(ctx, sampleRate)
	s.stats.Sessions++
	s.logger.Info("Session opened", "session", sess.id, "rate", sampleRate)
	return sess, nil
}

// reportedLocked returns the session progress is measured on (must hold s.mu)
func (s *Scheduler) reportedLocked() *session {
	if s.session != nil {
		return s.session
	}
	return s.draining
}

// activeLocked counts active nodes across every session (must hold s.mu)
func (s *Scheduler) activeLocked() int {
	n := 0
	for _, sess := range s.sessionsLocked() {
		n += len(sess.active)
	}
	return n
}

// sessionsLocked returns the current session and every retiring one (must hold s.mu)
func (s *Scheduler) sessionsLocked() []*session {
	all := make([]*session, 0, len(s.retiring)+1)
	if s.session != nil {
		all = append(all, s.session)
	}
	return append(all, s.retiring...)
}

// dispatch delivers queued state transitions to listeners in order. Only one
// goroutine dispatches at a time; others leave their transitions to it.
func (s *Scheduler) dispatch() {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true

	for {
		st, ok := s.machine.next()
		if !ok {
			break
		}
		fns := s.listeners.snapshot()

		s.mu.Unlock()
		for _, fn := range fns {
			fn(st)
		}
		s.mu.Lock()
	}

	s.dispatching = false
	s.mu.Unlock()
}
