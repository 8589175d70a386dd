// ABOUTME: Playback state machine
// ABOUTME: Validates transitions and queues notifications for in-order dispatch
package stream

import "fmt"

// State is the public playback status
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// canTransition reports whether from -> to is a legal edge
func canTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StatePlaying
	case StatePlaying:
		return to == StateIdle || to == StateInterrupted
	case StateInterrupted:
		return to == StateIdle
	}
	return false
}

// machine holds the current state and the transitions not yet delivered.
// It is guarded by the scheduler mutex.
type machine struct {
	state   State
	pending []State
}

// transition moves to the new state, queuing one notification. Repeated or
// illegal transitions are dropped.
func (m *machine) transition(to State) bool {
	if to == m.state || !canTransition(m.state, to) {
		return false
	}
	m.state = to
	m.pending = append(m.pending, to)
	return true
}

// next pops the oldest undelivered transition
func (m *machine) next() (State, bool) {
	if len(m.pending) == 0 {
		return 0, false
	}
	st := m.pending[0]
	m.pending = m.pending[1:]
	return st, true
}

// listeners is a registry of state change callbacks
type listeners struct {
	nextID int
	fns    map[int]func(State)
	order  []int
}

func (l *listeners) add(fn func(State)) int {
	if l.fns == nil {
		l.fns = make(map[int]func(State))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	l.order = append(l.order, id)
	return id
}

func (l *listeners) remove(id int) {
	if _, ok := l.fns[id]; !ok {
		return
	}
	delete(l.fns, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the callbacks in registration order
func (l *listeners) snapshot() []func(State) {
	out := make([]func(State), 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.fns[id])
	}
	return out
}
