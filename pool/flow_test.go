package pool

import (
	"testing"

	"github.com/zhukovaskychina/bplib/bperr"
)

func makeRef(t *testing.T, p *Pool, payload string) *RefBlock {
	t.Helper()
	chunk, err := p.AllocCborChunk([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	lr := p.MakeDynamic(chunk)
	rb, err := p.MakeBlockRef(lr, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return rb
}

func TestSubQueuePushPopOrderAndDepthLimit(t *testing.T) {
	p := newTestPool(t, 64)

	flow, err := p.AllocFlow(1, 2)
	if err != nil {
		t.Fatal(err)
	}

	in := flow.Input()
	a := makeRef(t, p, "a")
	b := makeRef(t, p, "b")
	c := makeRef(t, p, "c")

	if err := in.AppendSubqBundle(a); err != nil {
		t.Fatal(err)
	}
	if err := in.AppendSubqBundle(b); err != nil {
		t.Fatal(err)
	}
	if err := in.AppendSubqBundle(c); err == nil {
		t.Fatal("expected depth-limit drop on third push against limit 2")
	} else if !bperr.IsPoolExhausted(err) {
		t.Fatalf("unexpected error kind: %v", err)
	}

	if stats := in.Stats(); stats.Drops != 1 || stats.Pushes != 2 {
		t.Fatalf("stats = %+v, want Drops=1 Pushes=2", stats)
	}

	first, ok := in.ShiftSubqBundle()
	if !ok || first.idx != a.idx {
		t.Fatalf("first shift = %v (ok=%v), want a", first, ok)
	}
	second, ok := in.ShiftSubqBundle()
	if !ok || second.idx != b.idx {
		t.Fatalf("second shift = %v (ok=%v), want b", second, ok)
	}
	if _, ok := in.ShiftSubqBundle(); ok {
		t.Fatal("expected empty sub-queue after draining both pushed items")
	}
}

func TestSubQueueUnlimitedWhenDepthLimitZero(t *testing.T) {
	p := newTestPool(t, 64)
	flow, err := p.AllocFlow(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	out := flow.Output()
	for i := 0; i < 10; i++ {
		if err := out.AppendSubqBundle(makeRef(t, p, "x")); err != nil {
			t.Fatalf("push %d: unexpected error with unlimited depth: %v", i, err)
		}
	}
	if got := out.Depth(); got != 10 {
		t.Fatalf("Depth() = %d, want 10", got)
	}
}

func TestProcessAllFlowsDrainsActiveListOnce(t *testing.T) {
	p := newTestPool(t, 64)

	f1, _ := p.AllocFlow(1, 0)
	f2, _ := p.AllocFlow(2, 0)
	f3, _ := p.AllocFlow(3, 0)

	p.MarkFlowActive(f1)
	p.MarkFlowActive(f2)
	// marking the same flow active twice must not duplicate it in the list
	p.MarkFlowActive(f1)

	var seen []uint64
	p.ProcessAllFlows(func(f *Flow) {
		seen = append(seen, f.ID())
	})

	if len(seen) != 2 {
		t.Fatalf("processed %d flows, want 2 (f1, f2 each once)", len(seen))
	}

	// f3 was never marked active, so it must not appear.
	for _, id := range seen {
		if id == f3.ID() {
			t.Fatal("unmarked flow f3 was processed")
		}
	}

	// A second pass with nothing re-marked should process nothing.
	var secondPass []uint64
	p.ProcessAllFlows(func(f *Flow) {
		secondPass = append(secondPass, f.ID())
	})
	if len(secondPass) != 0 {
		t.Fatalf("second ProcessAllFlows pass processed %d flows, want 0", len(secondPass))
	}
}

func TestProcessAllFlowsAllowsReMarkingDuringCallback(t *testing.T) {
	p := newTestPool(t, 64)
	f1, _ := p.AllocFlow(1, 0)
	p.MarkFlowActive(f1)

	calls := 0
	p.ProcessAllFlows(func(f *Flow) {
		calls++
		if calls == 1 {
			p.MarkFlowActive(f)
		}
	})
	if calls != 1 {
		t.Fatalf("first pass invoked fn %d times, want 1", calls)
	}

	p.ProcessAllFlows(func(f *Flow) {
		calls++
	})
	if calls != 2 {
		t.Fatalf("after re-mark during callback, total calls = %d, want 2", calls)
	}
}
