package pool

// This file implements the intrusive circular doubly-linked list operations
// of spec §4.1. All of them assume the caller already holds Pool.mu -- the
// pool never takes a lock internally, matching the coarse-grained locking
// model of spec §5.

// initHead turns the slot at idx into an empty list head: a singleton whose
// tag is TagHead.
func (p *Pool) initHead(idx slotIndex) {
	s := p.at(idx)
	s.hdr.tag = TagHead
	s.hdr.next = idx
	s.hdr.prev = idx
}

// insertAfter splices the singleton n immediately after anchor's node. O(1).
func (p *Pool) insertAfter(anchor, n slotIndex) {
	na := p.at(anchor)
	nn := p.at(n)
	next := na.hdr.next

	nn.hdr.prev = anchor
	nn.hdr.next = next
	p.at(next).hdr.prev = n
	na.hdr.next = n
}

// insertBefore splices the singleton n immediately before anchor's node.
func (p *Pool) insertBefore(anchor, n slotIndex) {
	na := p.at(anchor)
	p.insertAfter(na.hdr.prev, n)
}

// extract removes n from whatever list it is on and returns it to being a
// singleton. Idempotent: extracting an already-singleton node is a no-op.
func (p *Pool) extract(n slotIndex) {
	nn := p.at(n)
	prev, next := nn.hdr.prev, nn.hdr.next
	if prev == n && next == n {
		return
	}
	p.at(prev).hdr.next = next
	p.at(next).hdr.prev = prev
	nn.hdr.next = n
	nn.hdr.prev = n
}

// merge splices every non-head member of src onto dst and leaves src as an
// already-empty singleton head in the same motion -- equivalent to the
// spec's "splice all of src into dst, including src's head; caller then
// extracts one head", but without requiring the caller to remember the
// follow-up extract (src's head comes back usable immediately).
func (p *Pool) merge(dst, src slotIndex) {
	ds := p.at(dst)
	ss := p.at(src)

	if ss.hdr.next == src {
		// src is empty; nothing to splice.
		return
	}

	dstLast := ds.hdr.prev
	srcFirst := ss.hdr.next
	srcLast := ss.hdr.prev

	p.at(dstLast).hdr.next = srcFirst
	p.at(srcFirst).hdr.prev = dstLast
	p.at(srcLast).hdr.next = dst
	ds.hdr.prev = srcLast

	// src is now an empty singleton head; its node was never linked into
	// dst's list, so the caller has nothing to extract.
	ss.hdr.next = src
	ss.hdr.prev = src
}

// foreach visits every non-head node of the list anchored at head exactly
// once, in list order. If alwaysRemove is set, fn is required to re-home
// the visited node (onto another list, or back as a singleton via recycle)
// before returning, since foreach itself does not extract nodes it hands
// to fn under that mode -- it only advances past them before calling fn,
// so that fn is free to unlink/relink without perturbing iteration.
func (p *Pool) foreach(head slotIndex, alwaysRemove bool, fn func(n slotIndex)) {
	cur := p.at(head).hdr.next
	for cur != head {
		next := p.at(cur).hdr.next
		fn(cur)
		cur = next
		_ = alwaysRemove // documented contract; enforced by callers/tests
	}
}

// isEmpty reports whether the list anchored at head has no non-head
// members.
func (p *Pool) isEmpty(head slotIndex) bool {
	return p.at(head).hdr.next == head
}
