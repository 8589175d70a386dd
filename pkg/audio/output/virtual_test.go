// ABOUTME: Tests for the virtual output device
// ABOUTME: Tests manual clock, completion firing and stop/close behavior
package output

import (
	"errors"
	"testing"
	"time"
)

func TestVirtualClock(t *testing.T) {
	v := NewVirtual()
	ctx, err := v.Open(24000)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	v.Advance(300 * time.Millisecond)
	if got := ctx.CurrentTime(); got != 300*time.Millisecond {
		t.Errorf("expected 300ms, got %v", got)
	}

	later, _ := v.Open(24000)
	if got := later.CurrentTime(); got != 0 {
		t.Errorf("expected later context to start at 0, got %v", got)
	}
}

func TestVirtualCompletions(t *testing.T) {
	v := NewVirtual()
	ctx, _ := v.Open(1000)

	var order []int
	ctx.Schedule(make([]float32, 500), 0, func() { order = append(order, 1) })
	ctx.Schedule(make([]float32, 300), 500*time.Millisecond, func() { order = append(order, 2) })

	v.Advance(499 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("expected no completions yet, got %v", order)
	}

	v.Advance(time.Second)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected completions [1 2], got %v", order)
	}

	v.Advance(time.Second)
	if len(order) != 2 {
		t.Errorf("expected each completion once, got %v", order)
	}
}

func TestVirtualStopAndClose(t *testing.T) {
	v := NewVirtual()
	ctx, _ := v.Open(1000)

	fired := 0
	node, _ := ctx.Schedule(make([]float32, 100), 0, func() { fired++ })
	node.Stop()

	other, _ := v.Open(1000)
	other.Schedule(make([]float32, 100), 0, func() { fired++ })
	other.Close()

	v.Advance(time.Second)
	if fired != 0 {
		t.Errorf("expected no completions from stopped or closed nodes, got %d", fired)
	}

	vn := node.(*VirtualNode)
	if !vn.Stopped() || vn.Ended() {
		t.Error("expected node to be stopped and not ended")
	}
	if !other.(*VirtualContext).Closed() {
		t.Error("expected context to be closed")
	}
}

func TestVirtualFailOpens(t *testing.T) {
	v := NewVirtual()
	boom := errors.New("no device")
	v.FailOpens(boom)

	if _, err := v.Open(24000); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}

	v.FailOpens(nil)
	if _, err := v.Open(24000); err != nil {
		t.Errorf("expected open to succeed again, got %v", err)
	}
}

func TestVirtualFailSchedules(t *testing.T) {
	v := NewVirtual()
	ctx, _ := v.Open(24000)
	boom := errors.New("queue full")
	v.FailSchedules(boom)

	if _, err := ctx.Schedule(make([]float32, 10), 0, nil); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if len(ctx.(*VirtualContext).Nodes()) != 0 {
		t.Error("expected no node recorded for a failed schedule")
	}

	v.FailSchedules(nil)
	if _, err := ctx.Schedule(make([]float32, 10), 0, nil); err != nil {
		t.Errorf("expected schedule to succeed again, got %v", err)
	}
}

func TestVirtualNodeTimes(t *testing.T) {
	v := NewVirtual()
	ctx, _ := v.Open(24000)
	ctx.Schedule(make([]float32, 12000), 250*time.Millisecond, nil)

	nodes := ctx.(*VirtualContext).Nodes()
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Start != 250*time.Millisecond || nodes[0].End != 750*time.Millisecond {
		t.Errorf("expected node 250ms-750ms, got %v-%v", nodes[0].Start, nodes[0].End)
	}
}
