package pool

import "testing"

// These tests exercise the intrusive list primitives directly against a
// small pool, since list.go's operations are unexported implementation
// details of the block pool.

func newTestPool(t *testing.T, capacity int) *Pool {
	t.Helper()
	p, err := Create(nil, capacity)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func (p *Pool) countList(head slotIndex) int {
	return p.listLen(head)
}

func TestListInsertAndExtract(t *testing.T) {
	p := newTestPool(t, 8)

	var headIdx slotIndex = 10
	p.initHead(headIdx)

	a, err := p.takeFree()
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.takeFree()
	if err != nil {
		t.Fatal(err)
	}

	p.insertAfter(headIdx, a)
	p.insertAfter(headIdx, b)

	if got := p.countList(headIdx); got != 2 {
		t.Fatalf("list length = %d, want 2", got)
	}

	// insertAfter(head, a) then insertAfter(head, b) means order is head -> b -> a -> head
	first := p.at(headIdx).hdr.next
	if first != b {
		t.Fatalf("expected b first, got slot %d", first)
	}

	p.extract(b)
	if got := p.countList(headIdx); got != 1 {
		t.Fatalf("after extract, list length = %d, want 1", got)
	}
	if !p.at(b).hdr.isSingleton(b) {
		t.Fatalf("extracted node is not a singleton")
	}

	// extracting an already-singleton node is idempotent
	p.extract(b)
	if !p.at(b).hdr.isSingleton(b) {
		t.Fatalf("double-extract corrupted singleton")
	}
}

func TestListMergeMovesAllMembers(t *testing.T) {
	p := newTestPool(t, 8)

	var dstHead, srcHead slotIndex = 10, 11
	p.initHead(dstHead)
	p.initHead(srcHead)

	d1, _ := p.takeFree()
	p.insertBefore(dstHead, d1)

	s1, _ := p.takeFree()
	s2, _ := p.takeFree()
	p.insertBefore(srcHead, s1)
	p.insertBefore(srcHead, s2)

	p.merge(dstHead, srcHead)

	if got := p.countList(dstHead); got != 3 {
		t.Fatalf("dst list length after merge = %d, want 3", got)
	}
	if got := p.countList(srcHead); got != 0 {
		t.Fatalf("src list length after merge = %d, want 0 (should be empty)", got)
	}
	if !p.isEmpty(srcHead) {
		t.Fatalf("src head not reported empty after merge")
	}
}

func TestForeachVisitsEachNodeOnce(t *testing.T) {
	p := newTestPool(t, 8)

	var head slotIndex = 10
	p.initHead(head)

	var members []slotIndex
	for i := 0; i < 4; i++ {
		n, _ := p.takeFree()
		p.insertBefore(head, n)
		members = append(members, n)
	}

	seen := map[slotIndex]int{}
	p.foreach(head, false, func(n slotIndex) {
		seen[n]++
	})

	if len(seen) != len(members) {
		t.Fatalf("foreach visited %d distinct nodes, want %d", len(seen), len(members))
	}
	for _, m := range members {
		if seen[m] != 1 {
			t.Fatalf("node %d visited %d times, want 1", m, seen[m])
		}
	}
}
