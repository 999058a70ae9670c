// Package pool implements the block pool of spec §4.1: a single
// preallocated arena of uniform fixed-size slots, each able to hold one of
// several typed blocks, linked via intrusive doubly-linked lists and
// refcounted through two cooperating reference styles.
package pool

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/zhukovaskychina/bplib/bperr"
	"github.com/zhukovaskychina/bplib/logger"
	"go.uber.org/atomic"
)

// PoolStats is a read-only snapshot of pool-wide counters, supplementing
// spec §3.1/§8's "pool conservation" property with an operator-visible
// accessor -- grounded on the teacher's BufferPool statistics accessors
// (GetHitRatio, GetDirtyPageRatio, ...).
type PoolStats struct {
	Capacity       int
	Free           int
	InUse          int
	PendingRecycle int
	AllocCount     uint64
	RecycleCount   uint64
}

// Pool is the arena: capacity fixed at Create time, process-local, safe for
// concurrent use by many flows under a single pool-wide lock (spec §5).
type Pool struct {
	mu sync.Mutex

	slots    []slot
	capacity int // usable capacity, excluding internal sentinel/head slots

	freeHead     slotIndex
	recycleHead  slotIndex
	activeHead   slotIndex
	byExpiryHead slotIndex // secondary index over canonical blocks; see secondary.go

	allocCount   atomic.Uint64
	recycleCount atomic.Uint64
}

// Create carves a pool able to hold `capacity` usable blocks. `memory` is
// accepted to mirror the C signature `create(memory, size)` the spec names;
// a Go port has no use for a caller-supplied backing buffer, since the
// arena is a slice the pool itself owns, so memory is presently unused.
func Create(memory []byte, capacity int) (*Pool, error) {
	if capacity <= 0 {
		return nil, bperr.Wrap("pool.Create", bperr.ErrInvalidBlock, errors.New("capacity must be positive"))
	}

	// slots[0] is the permanent nil sentinel; slots[1..4] are the pool's own
	// free/recycle/active-flows/by-expiry list heads. Usable slots start at
	// index 5.
	const reserved = 5
	p := &Pool{
		slots:    make([]slot, capacity+reserved),
		capacity: capacity,
	}
	p.freeHead = 1
	p.recycleHead = 2
	p.activeHead = 3
	p.byExpiryHead = 4

	p.initHead(p.freeHead)
	p.initHead(p.recycleHead)
	p.initHead(p.activeHead)
	p.initHead(p.byExpiryHead)
	p.byTimeInitHead(p.byExpiryHead)

	for i := 0; i < capacity; i++ {
		idx := slotIndex(reserved + i)
		s := p.at(idx)
		s.hdr.tag = TagUndefined
		s.hdr.next = idx
		s.hdr.prev = idx
		p.insertBefore(p.freeHead, idx)
	}

	return p, nil
}

func (p *Pool) at(idx slotIndex) *slot {
	return &p.slots[idx]
}

// Stats returns a point-in-time snapshot of pool occupancy.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	free := p.listLen(p.freeHead)
	pending := p.listLen(p.recycleHead)
	return PoolStats{
		Capacity:       p.capacity,
		Free:           free,
		PendingRecycle: pending,
		InUse:          p.capacity - free - pending,
		AllocCount:     p.allocCount.Load(),
		RecycleCount:   p.recycleCount.Load(),
	}
}

func (p *Pool) listLen(head slotIndex) int {
	n := 0
	cur := p.at(head).hdr.next
	for cur != head {
		n++
		cur = p.at(cur).hdr.next
	}
	return n
}

// takeFree pops one slot off the free list, or runs maintain and retries
// once before reporting exhaustion, per spec §7 ("allocation failure is
// surfaced and the caller may invoke maintain and retry" -- alloc_* do this
// one retry automatically since a fresh maintain pass is cheap and this is
// the single choke point every allocator funnels through).
func (p *Pool) takeFree() (slotIndex, error) {
	if p.isEmpty(p.freeHead) {
		p.maintainLocked()
	}
	if p.isEmpty(p.freeHead) {
		logger.Debugf("pool: alloc failed, free list exhausted after maintain (capacity=%d)", p.capacity)
		return nilSlot, bperr.Wrap("pool.alloc", bperr.ErrPoolExhausted, nil)
	}
	idx := p.at(p.freeHead).hdr.next
	p.extract(idx)
	s := p.at(idx)
	*s = slot{}
	s.hdr.next = idx
	s.hdr.prev = idx
	p.allocCount.Inc()
	return idx, nil
}

// AllocPrimary allocates and zero-initializes a primary block.
func (p *Pool) AllocPrimary() (*PrimaryBlock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.takeFree()
	if err != nil {
		return nil, errors.Wrap(err, "pool.AllocPrimary")
	}
	s := p.at(idx)
	s.hdr.tag = TagPrimary
	s.refcount = 1

	clHead, err := p.takeFree()
	if err != nil {
		p.recycleLocked(idx)
		return nil, errors.Wrap(err, "pool.AllocPrimary: canonical list head")
	}
	p.initHead(clHead)
	s.primary.canonicalList = clHead

	chHead, err := p.takeFree()
	if err != nil {
		p.recycleLocked(clHead)
		p.recycleLocked(idx)
		return nil, errors.Wrap(err, "pool.AllocPrimary: chunk list head")
	}
	p.initHead(chHead)
	s.primary.chunkList = chHead

	return &PrimaryBlock{pool: p, idx: idx}, nil
}

// AllocCanonical allocates and zero-initializes a canonical block.
func (p *Pool) AllocCanonical() (*CanonicalBlock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.takeFree()
	if err != nil {
		return nil, errors.Wrap(err, "pool.AllocCanonical")
	}
	s := p.at(idx)
	s.hdr.tag = TagCanonical
	s.refcount = 1

	chHead, err := p.takeFree()
	if err != nil {
		p.recycleLocked(idx)
		return nil, errors.Wrap(err, "pool.AllocCanonical: chunk list head")
	}
	p.initHead(chHead)
	s.canonical.chunkList = chHead
	s.canonical.bundleRef = nilSlot

	return &CanonicalBlock{pool: p, idx: idx}, nil
}

// AllocCborChunk allocates a raw encoded-chunk block able to hold up to
// ChunkPayloadCap bytes of payload.
func (p *Pool) AllocCborChunk(data []byte) (*ChunkBlock, error) {
	if len(data) > ChunkPayloadCap {
		return nil, bperr.Wrap("pool.AllocCborChunk", bperr.ErrInvalidBlock, errors.Errorf("payload of %d bytes exceeds capacity %d", len(data), ChunkPayloadCap))
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.takeFree()
	if err != nil {
		return nil, errors.Wrap(err, "pool.AllocCborChunk")
	}
	s := p.at(idx)
	s.hdr.tag = TagCborData
	s.refcount = 1
	s.chunk.len = copy(s.chunk.data[:], data)

	return &ChunkBlock{pool: p, idx: idx}, nil
}

// AllocGeneric allocates a service/user object block, storing the caller's
// magic number so later casts via cast_generic can validate the type.
func (p *Pool) AllocGeneric(magic uint32, capacity int) (*GenericBlock, error) {
	if capacity > ChunkPayloadCap {
		return nil, bperr.Wrap("pool.AllocGeneric", bperr.ErrInvalidBlock, errors.Errorf("capacity %d exceeds slot payload capacity %d", capacity, ChunkPayloadCap))
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.takeFree()
	if err != nil {
		return nil, errors.Wrap(err, "pool.AllocGeneric")
	}
	s := p.at(idx)
	s.hdr.tag = TagServiceObject
	s.refcount = 1
	s.magic = magic

	return &GenericBlock{pool: p, idx: idx}, nil
}

// AllocFlow allocates a flow endpoint block with its input/output
// sub-queues ready to use.
func (p *Pool) AllocFlow(id uint64, depthLimit int) (*Flow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.takeFree()
	if err != nil {
		return nil, errors.Wrap(err, "pool.AllocFlow")
	}
	s := p.at(idx)
	s.hdr.tag = TagFlow
	s.flow.id = id

	inHead, err := p.takeFree()
	if err != nil {
		p.recycleLocked(idx)
		return nil, errors.Wrap(err, "pool.AllocFlow: input queue head")
	}
	p.initHead(inHead)
	s.flow.input = SubQueue{head: inHead, depthLimit: depthLimit}

	outHead, err := p.takeFree()
	if err != nil {
		p.recycleLocked(inHead)
		p.recycleLocked(idx)
		return nil, errors.Wrap(err, "pool.AllocFlow: output queue head")
	}
	p.initHead(outHead)
	s.flow.output = SubQueue{head: outHead, depthLimit: depthLimit}

	return &Flow{pool: p, idx: idx}, nil
}
