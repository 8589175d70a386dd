// ABOUTME: Deferred session teardown
// ABOUTME: One pending timer releases every retiring session after its audio drains
package stream

import "time"

// retire hands a session to deferred teardown (must hold s.mu)
func (s *Scheduler) retire(sess *session) {
	s.retiring = append(s.retiring, sess)
	s.scheduleTeardown()
}

// scheduleTeardown cancels any pending teardown and schedules one that covers
// every retiring session (must hold s.mu)
func (s *Scheduler) scheduleTeardown() {
	if s.teardown != nil {
		s.teardown.Stop()
		s.teardown = nil
	}

	s.teardownGen++
	gen := s.teardownGen
	delay := s.teardownDelay()

	s.teardown = s.afterFunc(delay, func() {
		s.runTeardown(gen)
	})
}

// teardownDelay is the longest remaining audio among retiring sessions plus the margin
func (s *Scheduler) teardownDelay() time.Duration {
	var longest time.Duration
	for _, sess := range s.retiring {
		longest = max(longest, sess.remaining())
	}
	return longest + s.margin
}

// runTeardown closes the retiring sessions unless a newer teardown superseded it
func (s *Scheduler) runTeardown(gen uint64) {
	s.mu.Lock()
	if gen != s.teardownGen {
		s.mu.Unlock()
		return
	}
	s.teardown = nil

	retiring := s.retiring
	s.retiring = nil
	s.draining = nil
	for _, sess := range retiring {
		if n := sess.haltAll(); n > 0 {
			s.stats.Halted += int64(n)
			s.logger.Warn("Teardown cut nodes still playing", "session", sess.id, "nodes", n)
		}
		s.closeSession(sess)
	}

	if s.activeLocked() == 0 {
		s.machine.transition(StateIdle)
	}
	s.mu.Unlock()

	s.dispatch()
}

// closeSession releases the output context (must hold s.mu)
func (s *Scheduler) closeSession(sess *session) {
	if err := sess.ctx.Close(); err != nil {
		s.logger.Warn("Failed to close output context", "session", sess.id, "err", err)
		return
	}
	s.logger.Info("Session closed", "session", sess.id)
}
