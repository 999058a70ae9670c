package pool

import "testing"

func TestLinkByExpiryOrdersAndUnlinks(t *testing.T) {
	p := newTestPool(t, 16)

	a, err := p.AllocCanonical()
	if err != nil {
		t.Fatalf("AllocCanonical a: %v", err)
	}
	b, err := p.AllocCanonical()
	if err != nil {
		t.Fatalf("AllocCanonical b: %v", err)
	}
	c, err := p.AllocCanonical()
	if err != nil {
		t.Fatalf("AllocCanonical c: %v", err)
	}

	p.LinkByExpiry(a)
	p.LinkByExpiry(b)
	p.LinkByExpiry(c)

	var seen []slotIndex
	p.ForeachByExpiry(func(cb *CanonicalBlock) { seen = append(seen, cb.idx) })
	if len(seen) != 3 || seen[0] != a.idx || seen[1] != b.idx || seen[2] != c.idx {
		t.Fatalf("ForeachByExpiry order = %v, want [%d %d %d]", seen, a.idx, b.idx, c.idx)
	}

	p.UnlinkByExpiry(b)
	seen = nil
	p.ForeachByExpiry(func(cb *CanonicalBlock) { seen = append(seen, cb.idx) })
	if len(seen) != 2 || seen[0] != a.idx || seen[1] != c.idx {
		t.Fatalf("ForeachByExpiry after unlink = %v, want [%d %d]", seen, a.idx, c.idx)
	}

	// Re-linking an already-linked block re-homes it rather than
	// corrupting the list with a duplicate entry.
	p.LinkByExpiry(a)
	seen = nil
	p.ForeachByExpiry(func(cb *CanonicalBlock) { seen = append(seen, cb.idx) })
	if len(seen) != 2 || seen[0] != c.idx || seen[1] != a.idx {
		t.Fatalf("ForeachByExpiry after re-link = %v, want [%d %d]", seen, c.idx, a.idx)
	}
}

func TestObtainBaseResolvesSecondaryLink(t *testing.T) {
	p := newTestPool(t, 16)

	cb, err := p.AllocCanonical()
	if err != nil {
		t.Fatalf("AllocCanonical: %v", err)
	}
	p.LinkByExpiry(cb)

	lref := p.MakeDynamic(cb)
	rb, err := p.MakeBlockRef(lref, nil, nil)
	if err != nil {
		t.Fatalf("MakeBlockRef: %v", err)
	}

	// ObtainBase must walk the one TagRef hop to cb, then resolve cb's
	// secondary link back to its own stored base index.
	base := p.ObtainBase(rb)
	if base.idx != cb.idx {
		t.Fatalf("ObtainBase(ref->linked canonical) = %d, want %d", base.idx, cb.idx)
	}
	if base.tag != TagCanonical {
		t.Fatalf("ObtainBase(ref->linked canonical).tag = %v, want TagCanonical", base.tag)
	}
}

func TestTeardownUnlinksSecondaryIndex(t *testing.T) {
	p := newTestPool(t, 16)

	primary, err := p.AllocPrimary()
	if err != nil {
		t.Fatalf("AllocPrimary: %v", err)
	}
	cb, err := p.AllocCanonical()
	if err != nil {
		t.Fatalf("AllocCanonical: %v", err)
	}
	primary.AddCanonical(cb)
	p.LinkByExpiry(cb)

	p.RecycleBlock(primary)
	p.Maintain()

	var seen []slotIndex
	p.ForeachByExpiry(func(cb *CanonicalBlock) { seen = append(seen, cb.idx) })
	if len(seen) != 0 {
		t.Fatalf("ForeachByExpiry after recycling linked canonical = %v, want empty", seen)
	}
}
