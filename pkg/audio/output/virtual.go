// ABOUTME: Virtual audio output with a manually advanced clock
// ABOUTME: Records scheduled nodes and fires completions on Advance
package output

import (
	"sort"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
)

// Virtual is a Device whose clock only moves when Advance is called.
// Completions fire synchronously from Advance on the caller's goroutine.
type Virtual struct {
	mu       sync.Mutex
	now      time.Duration
	contexts []*VirtualContext
	openErr  error
	schedErr error
	closed   bool
}

// NewVirtual creates a virtual device at time zero
func NewVirtual() *Virtual {
	return &Virtual{}
}

// FailOpens makes every following Open return err (nil restores normal behavior)
func (v *Virtual) FailOpens(err error) {
	v.mu.Lock()
	v.openErr = err
	v.mu.Unlock()
}

// FailSchedules makes every following Schedule return err (nil restores normal behavior)
func (v *Virtual) FailSchedules(err error) {
	v.mu.Lock()
	v.schedErr = err
	v.mu.Unlock()
}

// Open creates a context whose clock starts at the current device time
func (v *Virtual) Open(sampleRate int) (Context, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}
	if v.openErr != nil {
		return nil, v.openErr
	}
	if sampleRate <= 0 {
		return nil, ErrUnsupportedRate
	}

	ctx := &VirtualContext{
		device:     v,
		sampleRate: sampleRate,
		origin:     v.now,
	}
	v.contexts = append(v.contexts, ctx)
	return ctx, nil
}

// Now returns the device clock
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Advance moves the clock forward and fires completions for every node that
// has finished, in end time order.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	v.now += d

	var finished []*VirtualNode
	for _, ctx := range v.contexts {
		if ctx.closed {
			continue
		}
		elapsed := v.now - ctx.origin
		for _, n := range ctx.nodes {
			if !n.stopped && !n.ended && n.End <= elapsed {
				n.ended = true
				finished = append(finished, n)
			}
		}
	}
	v.mu.Unlock()

	sort.SliceStable(finished, func(i, j int) bool {
		return finished[i].ctx.origin+finished[i].End < finished[j].ctx.origin+finished[j].End
	})
	for _, n := range finished {
		if n.onEnded != nil {
			n.onEnded()
		}
	}
}

// Contexts returns every context opened so far, oldest first
func (v *Virtual) Contexts() []*VirtualContext {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*VirtualContext, len(v.contexts))
	copy(out, v.contexts)
	return out
}

// Close closes every context
func (v *Virtual) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	for _, ctx := range v.contexts {
		ctx.closed = true
	}
	return nil
}

// VirtualContext is a Context on a Virtual device
type VirtualContext struct {
	device     *Virtual
	sampleRate int
	origin     time.Duration
	nodes      []*VirtualNode
	closed     bool
}

func (c *VirtualContext) SampleRate() int {
	return c.sampleRate
}

func (c *VirtualContext) CurrentTime() time.Duration {
	c.device.mu.Lock()
	defer c.device.mu.Unlock()
	return c.device.now - c.origin
}

func (c *VirtualContext) Schedule(samples []float32, startAt time.Duration, onEnded func()) (Node, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBuffer
	}

	c.device.mu.Lock()
	defer c.device.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.device.schedErr != nil {
		return nil, c.device.schedErr
	}

	n := &VirtualNode{
		Start:   startAt,
		End:     startAt + audio.FramesToDuration(len(samples), c.sampleRate),
		Frames:  len(samples),
		ctx:     c,
		onEnded: onEnded,
	}
	c.nodes = append(c.nodes, n)
	return n, nil
}

func (c *VirtualContext) Close() error {
	c.device.mu.Lock()
	defer c.device.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether the context has been closed
func (c *VirtualContext) Closed() bool {
	c.device.mu.Lock()
	defer c.device.mu.Unlock()
	return c.closed
}

// Nodes returns every node scheduled on the context, in scheduling order
func (c *VirtualContext) Nodes() []*VirtualNode {
	c.device.mu.Lock()
	defer c.device.mu.Unlock()
	out := make([]*VirtualNode, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// VirtualNode is a Node on a VirtualContext. Start and End are on the
// context clock.
type VirtualNode struct {
	Start  time.Duration
	End    time.Duration
	Frames int

	ctx     *VirtualContext
	onEnded func()
	stopped bool
	ended   bool
}

func (n *VirtualNode) Stop() {
	n.ctx.device.mu.Lock()
	defer n.ctx.device.mu.Unlock()
	n.stopped = true
}

// Stopped reports whether the node was halted before it finished
func (n *VirtualNode) Stopped() bool {
	n.ctx.device.mu.Lock()
	defer n.ctx.device.mu.Unlock()
	return n.stopped
}

// Ended reports whether the node played to completion
func (n *VirtualNode) Ended() bool {
	n.ctx.device.mu.Lock()
	defer n.ctx.device.mu.Unlock()
	return n.ended
}
