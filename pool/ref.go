package pool

// This file implements the two cooperating reference styles of spec §4.1:
// the light reference (refptr), a bare handle used to hold a refcount
// without occupying a slot, and the block reference, a list-linkable
// wrapper that lives inside sub-queues.

// Content is satisfied by every wrapper type that names a freshly
// allocated content block: ChunkBlock, GenericBlock, PrimaryBlock,
// CanonicalBlock.
type Content interface {
	index() slotIndex
}

// LightRef is a refptr: conceptually just the pointer to its target plus
// the invariant that the holder owns one refcount.
type LightRef struct {
	pool *Pool
	idx  slotIndex
	tag  Tag
}

// MakeDynamic takes ownership of a freshly allocated content block (whose
// refcount the corresponding Alloc* call already set to 1) and returns a
// refptr for it.
func (p *Pool) MakeDynamic(c Content) *LightRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := c.index()
	return &LightRef{pool: p, idx: idx, tag: p.at(idx).hdr.tag}
}

// Duplicate increments the target's refcount and returns a second refptr
// the caller now separately owns.
func (r *LightRef) Duplicate() *LightRef {
	r.pool.mu.Lock()
	defer r.pool.mu.Unlock()
	r.pool.at(r.idx).refcount++
	return &LightRef{pool: r.pool, idx: r.idx, tag: r.tag}
}

// Release decrements the target's refcount; at zero the target (and, for
// primary/canonical blocks, everything it transitively owns) is handed to
// the recycle list for the next Maintain pass.
func (r *LightRef) Release() {
	r.pool.mu.Lock()
	defer r.pool.mu.Unlock()
	s := r.pool.at(r.idx)
	s.refcount--
	if s.refcount <= 0 {
		r.pool.recycleLocked(r.idx)
	}
}

func (r *LightRef) Tag() Tag        { return r.tag }
func (r *LightRef) index() slotIndex { return r.idx }

// RefBlock is a TagRef slot: a reference block wrapping a content block,
// carrying an optional discard-notify callback. This is the list-linkable
// form that lives inside sub-queues.
type RefBlock struct {
	pool *Pool
	idx  slotIndex
}

func (b *RefBlock) index() slotIndex { return b.idx }

// MakeBlockRef allocates a new ref slot pointing at ptr's target,
// increments the target's refcount, and stores the optional on-discard
// callback to be fired exactly once when this reference block is
// recycled.
func (p *Pool) MakeBlockRef(ptr *LightRef, notify NotifyFunc, arg interface{}) (*RefBlock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.takeFree()
	if err != nil {
		return nil, err
	}
	s := p.at(idx)
	s.hdr.tag = TagRef
	s.ref.target = ptr.idx
	s.ref.notify = notify
	s.ref.notifyArg = arg

	p.at(ptr.idx).refcount++

	return &RefBlock{pool: p, idx: idx}, nil
}

// Target returns the content block this reference currently points at.
func (b *RefBlock) Target() BlockRef {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	t := b.pool.at(b.idx).ref.target
	return BlockRef{pool: b.pool, idx: t, tag: b.pool.at(t).hdr.tag}
}
