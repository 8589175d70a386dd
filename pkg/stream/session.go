// ABOUTME: Playback session owned by the scheduler
// ABOUTME: Binds one output context to its cursor, duration total and active nodes
package stream

import (
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/audio/output"
	"github.com/google/uuid"
)

// session is the lifetime-scoped binding to one output context. A new session
// replaces the old one as a value; the old one is handed to teardown.
type session struct {
	id         string
	ctx        output.Context
	sampleRate int

	startTime     time.Duration // context clock when the session opened
	nextStartTime time.Duration // earliest free slot, only advanced by enqueue
	totalDuration time.Duration // sum of every scheduled buffer

	active   map[uint64]output.Node
	nextNode uint64
}

func newSession(ctx output.Context, sampleRate int) *session {
	now := ctx.CurrentTime()
	return &session{
		id:            uuid.NewString(),
		ctx:           ctx,
		sampleRate:    sampleRate,
		startTime:     now,
		nextStartTime: now,
		active:        make(map[uint64]output.Node),
	}
}

// remaining returns how much committed audio is still ahead of the clock
func (s *session) remaining() time.Duration {
	return max(0, s.nextStartTime-s.ctx.CurrentTime())
}

// haltAll stops every active node and clears the set, returning how many were halted
func (s *session) haltAll() int {
	n := len(s.active)
	for id, node := range s.active {
		node.Stop()
		delete(s.active, id)
	}
	return n
}
