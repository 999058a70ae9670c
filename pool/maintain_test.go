package pool

import "testing"

// TestMaintainReclaimsPrimaryBundleTransitively exercises the recursive
// teardown path: recycling a primary block must, after one Maintain pass,
// reclaim its canonical blocks and every chunk in both the primary's and
// the canonical's chunk chains -- not just the primary slot itself.
func TestMaintainReclaimsPrimaryBundleTransitively(t *testing.T) {
	p := newTestPool(t, 64)

	before := p.Stats()

	primary, err := p.AllocPrimary()
	if err != nil {
		t.Fatal(err)
	}
	canonical, err := p.AllocCanonical()
	if err != nil {
		t.Fatal(err)
	}
	primary.AddCanonical(canonical)

	for i := 0; i < 3; i++ {
		chunk, err := p.AllocCborChunk([]byte{byte(i)})
		if err != nil {
			t.Fatal(err)
		}
		primary.AddChunk(chunk)
	}
	for i := 0; i < 2; i++ {
		chunk, err := p.AllocCborChunk([]byte{byte(i)})
		if err != nil {
			t.Fatal(err)
		}
		canonical.AddChunk(chunk)
	}

	mid := p.Stats()
	if mid.Free >= before.Free {
		t.Fatalf("expected allocations to shrink the free list, before=%d mid=%d", before.Free, mid.Free)
	}

	p.RecycleBlock(primary)
	p.Maintain()

	after := p.Stats()
	if after.Free != before.Free {
		t.Fatalf("after recycling bundle + maintain, Free = %d, want %d (fully reclaimed)", after.Free, before.Free)
	}
	if after.PendingRecycle != 0 {
		t.Fatalf("PendingRecycle = %d, want 0 after maintain", after.PendingRecycle)
	}
}

func TestRecycleAllInListReclaimsEveryMember(t *testing.T) {
	p := newTestPool(t, 32)
	flow, err := p.AllocFlow(9, 0)
	if err != nil {
		t.Fatal(err)
	}
	in := flow.Input()
	for i := 0; i < 4; i++ {
		if err := in.AppendSubqBundle(makeRef(t, p, "q")); err != nil {
			t.Fatal(err)
		}
	}

	before := p.Stats()
	p.RecycleAllInList(p.at(flow.idx).flow.input.head)
	p.Maintain()
	after := p.Stats()

	if after.Free <= before.Free {
		t.Fatalf("expected RecycleAllInList+Maintain to grow free list, before=%d after=%d", before.Free, after.Free)
	}
}

func TestRecycleBlockIsSafeToCallTwice(t *testing.T) {
	p := newTestPool(t, 16)
	chunk, err := p.AllocCborChunk([]byte("z"))
	if err != nil {
		t.Fatal(err)
	}
	p.RecycleBlock(chunk)
	p.RecycleBlock(chunk) // idempotent: already off every other list, already a recycle-list member once

	p.Maintain()
	stats := p.Stats()
	if stats.Free != 16 {
		t.Fatalf("Free = %d, want 16 after double-recycle + maintain", stats.Free)
	}
}
