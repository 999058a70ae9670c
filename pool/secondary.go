package pool

// This file implements the by-expiry secondary index of spec §3.1/§9: a
// second circular list over canonical blocks, threaded through the
// embedded secondaryLink fields (canonicalFields.byTime) rather than the
// primary blockHeader fields list.go's list operations use. Grounded on
// the teacher's buffer pool, which strings the same pages onto two
// independent lists at once (LRU and flush_list) via two distinct
// embedded link fields on one struct.

// byTimeInitHead turns the slot at idx into an empty by-expiry list head.
func (p *Pool) byTimeInitHead(idx slotIndex) {
	s := p.at(idx)
	s.canonical.byTime.next = idx
	s.canonical.byTime.prev = idx
}

// byTimeInsertBefore splices the singleton n immediately before anchor's
// node on the by-expiry list.
func (p *Pool) byTimeInsertBefore(anchor, n slotIndex) {
	an := p.at(anchor)
	prev := an.canonical.byTime.prev
	nn := p.at(n)
	nn.canonical.byTime.prev = prev
	nn.canonical.byTime.next = anchor
	p.at(prev).canonical.byTime.next = n
	an.canonical.byTime.prev = n
}

// byTimeExtract removes n from the by-expiry list it is on, if any, and
// returns it to being a singleton. Idempotent.
func (p *Pool) byTimeExtract(n slotIndex) {
	nn := p.at(n)
	prev, next := nn.canonical.byTime.prev, nn.canonical.byTime.next
	if prev == n && next == n {
		return
	}
	p.at(prev).canonical.byTime.next = next
	p.at(next).canonical.byTime.prev = prev
	nn.canonical.byTime.next = n
	nn.canonical.byTime.prev = n
}

// byTimeForeach visits every non-head member of the by-expiry list
// anchored at head exactly once, in list order.
func (p *Pool) byTimeForeach(head slotIndex, fn func(idx slotIndex)) {
	cur := p.at(head).canonical.byTime.next
	for cur != head {
		next := p.at(cur).canonical.byTime.next
		fn(cur)
		cur = next
	}
}

// LinkByExpiry inserts cb into the pool's by-expiry secondary index,
// re-homing it first if it is already linked elsewhere on that index.
func (p *Pool) LinkByExpiry(cb *CanonicalBlock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.at(cb.idx)
	if s.canonical.byTime.linked {
		p.byTimeExtract(cb.idx)
	}
	p.byTimeInsertBefore(p.byExpiryHead, cb.idx)
	s.canonical.byTime.linked = true
	s.canonical.byTime.base = cb.idx
}

// UnlinkByExpiry removes cb from the by-expiry secondary index, if it is
// currently linked. A no-op otherwise.
func (p *Pool) UnlinkByExpiry(cb *CanonicalBlock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.at(cb.idx)
	if !s.canonical.byTime.linked {
		return
	}
	p.byTimeExtract(cb.idx)
	s.canonical.byTime.linked = false
	s.canonical.byTime.base = nilSlot
}

// ForeachByExpiry visits every canonical block currently linked into the
// by-expiry secondary index, in list order.
func (p *Pool) ForeachByExpiry(fn func(cb *CanonicalBlock)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byTimeForeach(p.byExpiryHead, func(idx slotIndex) {
		fn(&CanonicalBlock{pool: p, idx: idx})
	})
}
