package pool

// This file implements recycling and maintenance (spec §4.1): cheap,
// callable-from-anywhere deferral of destruction onto a pending list, and a
// single drain pass that performs the actual teardown. Deferring avoids
// re-entrancy from notify callbacks firing while a caller is mid-mutation
// of some other list.

// recycleLocked extracts idx from wherever it currently lives and moves it
// onto the pool's recycle list. Safe to call on an already-singleton node.
func (p *Pool) recycleLocked(idx slotIndex) {
	p.extract(idx)
	p.insertBefore(p.recycleHead, idx)
}

// RecycleBlock is the exported, generically-callable form of recycleLocked.
func (p *Pool) RecycleBlock(b interface{ index() slotIndex }) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recycleLocked(b.index())
}

// RecycleAllInList splices every member of the list anchored at head onto
// the recycle list in one O(1) operation.
func (p *Pool) RecycleAllInList(head slotIndex) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.merge(p.recycleHead, head)
}

// Maintain drains the recycle list, freeing the pool_exhausted condition
// that alloc_* reports when the free list runs dry (spec §7's documented
// retry path: "allocation failure is surfaced and the caller may invoke
// maintain and retry").
func (p *Pool) Maintain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maintainLocked()
}

func (p *Pool) maintainLocked() {
	// work is a plain slice worklist for the recursive teardown a primary
	// or canonical block triggers; it is not itself an intrusive list, so
	// recursion doesn't perturb the pool's own recycle-list bookkeeping.
	var work []slotIndex
	for !p.isEmpty(p.recycleHead) {
		idx := p.at(p.recycleHead).hdr.next
		p.extract(idx)
		work = append(work, idx)
	}

	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]
		work = p.teardown(idx, work)
	}
}

// teardown frees one slot, recursing into whatever it owns, and returns the
// (possibly extended) worklist.
func (p *Pool) teardown(idx slotIndex, work []slotIndex) []slotIndex {
	s := p.at(idx)

	switch s.hdr.tag {
	case TagRef:
		if s.ref.notify != nil {
			target := s.ref.target
			tb := BlockRef{pool: p, idx: target, tag: p.at(target).hdr.tag}
			s.ref.notify(s.ref.notifyArg, tb)
		}
		target := p.at(s.ref.target)
		target.refcount--
		if target.refcount <= 0 {
			work = append(work, s.ref.target)
		}

	case TagPrimary:
		work = p.drainListInto(s.primary.canonicalList, work)
		work = append(work, s.primary.chunkList) // free the chunk-list head itself
		work = p.drainChunkChain(s.primary.chunkList, work)
		work = append(work, s.primary.canonicalList) // free the canonical-list head itself

	case TagCanonical:
		if s.canonical.byTime.linked {
			p.byTimeExtract(idx)
		}
		work = append(work, s.canonical.chunkList)
		work = p.drainChunkChain(s.canonical.chunkList, work)

	case TagFlow:
		work = p.drainRefChain(s.flow.input.head, work)
		work = p.drainRefChain(s.flow.output.head, work)
		work = append(work, s.flow.input.head, s.flow.output.head)
	}

	p.freeLocked(idx)
	return work
}

// drainListInto moves every non-head member of a canonical list onto the
// teardown worklist, without freeing the head itself.
func (p *Pool) drainListInto(head slotIndex, work []slotIndex) []slotIndex {
	for !p.isEmpty(head) {
		n := p.at(head).hdr.next
		p.extract(n)
		work = append(work, n)
	}
	return work
}

// drainChunkChain moves every chunk in the chain onto the worklist without
// freeing the chain's own head slot (the caller frees that separately).
func (p *Pool) drainChunkChain(head slotIndex, work []slotIndex) []slotIndex {
	return p.drainListInto(head, work)
}

// drainRefChain moves every reference block queued on a sub-queue onto the
// worklist, so their notify callbacks fire and their targets' refcounts
// drop as part of tearing down a flow.
func (p *Pool) drainRefChain(head slotIndex, work []slotIndex) []slotIndex {
	return p.drainListInto(head, work)
}

// freeLocked zeroes a slot and returns it to the free list.
func (p *Pool) freeLocked(idx slotIndex) {
	s := p.at(idx)
	*s = slot{}
	s.hdr.next = idx
	s.hdr.prev = idx
	p.insertBefore(p.freeHead, idx)
	p.recycleCount.Inc()
}
