package pool

// PrimaryBlock is a typed view over a TagPrimary slot.
type PrimaryBlock struct {
	pool *Pool
	idx  slotIndex
}

func (b *PrimaryBlock) Header() BundleHeader {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	return b.pool.at(b.idx).primary.header
}

func (b *PrimaryBlock) SetHeader(h BundleHeader) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	b.pool.at(b.idx).primary.header = h
}

func (b *PrimaryBlock) SetDeliveryMeta(ingressIntf, egressIntf, storageIntf uint32, committedStorageID uint64, retransmitInterval uint32) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	pf := &b.pool.at(b.idx).primary
	pf.ingressIntfID = ingressIntf
	pf.egressIntfID = egressIntf
	pf.storageIntfID = storageIntf
	pf.committedStorageID = committedStorageID
	pf.retransmitInterval = retransmitInterval
}

func (b *PrimaryBlock) SetEncodedSize(size int) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	b.pool.at(b.idx).primary.encodedPrimarySize = size
}

// AddCanonical splices c onto this primary block's canonical list and
// records the back-pointer, completing the invariant of spec §3.2: "A
// canonical block's bundle_ref is either null or points to a primary block
// that transitively owns it."
func (b *PrimaryBlock) AddCanonical(c *CanonicalBlock) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	b.pool.insertBefore(b.pool.at(b.idx).primary.canonicalList, c.idx)
	b.pool.at(c.idx).canonical.bundleRef = b.idx
}

// AddChunk appends one encoded-chunk block to this primary block's chain.
func (b *PrimaryBlock) AddChunk(c *ChunkBlock) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	b.pool.insertBefore(b.pool.at(b.idx).primary.chunkList, c.idx)
}

// RefCount returns the current refcount of the underlying content block.
func (b *PrimaryBlock) RefCount() int32 {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	return b.pool.at(b.idx).refcount
}

// CanonicalBlock is a typed view over a TagCanonical slot.
type CanonicalBlock struct {
	pool *Pool
	idx  slotIndex
}

func (b *CanonicalBlock) SetContentRange(offset, length int) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	cf := &b.pool.at(b.idx).canonical
	cf.contentOffset = offset
	cf.contentLength = length
}

func (b *CanonicalBlock) SetEncodedSize(size int) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	b.pool.at(b.idx).canonical.encodedSize = size
}

func (b *CanonicalBlock) AddChunk(c *ChunkBlock) {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	b.pool.insertBefore(b.pool.at(b.idx).canonical.chunkList, c.idx)
}

// hasBundle reports whether this canonical block has been attached to an
// owning primary block (its bundleRef is not nilSlot).
func (b *CanonicalBlock) hasBundle() bool {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	return b.pool.at(b.idx).canonical.bundleRef != nilSlot
}

// ChunkBlock is a typed view over a TagCborData slot.
type ChunkBlock struct {
	pool *Pool
	idx  slotIndex
}

func (b *ChunkBlock) Bytes() []byte {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	s := b.pool.at(b.idx)
	out := make([]byte, s.chunk.len)
	copy(out, s.chunk.data[:s.chunk.len])
	return out
}

// GenericBlock is a typed view over a TagServiceObject slot allocated via
// AllocGeneric.
type GenericBlock struct {
	pool *Pool
	idx  slotIndex
}

func (b *GenericBlock) Magic() uint32 {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	return b.pool.at(b.idx).magic
}

func (b *GenericBlock) SetData(data []byte) error {
	if len(data) > ChunkPayloadCap {
		return errCapacityExceeded
	}
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	s := b.pool.at(b.idx)
	s.generic.len = copy(s.generic.data[:], data)
	return nil
}

func (b *GenericBlock) Data() []byte {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	s := b.pool.at(b.idx)
	out := make([]byte, s.generic.len)
	copy(out, s.generic.data[:s.generic.len])
	return out
}

// BlockRef is the opaque, externally-held handle a NotifyFunc receives: the
// content block that a recycled reference block used to target.
type BlockRef struct {
	pool *Pool
	idx  slotIndex
	tag  Tag
}

func (r BlockRef) Tag() Tag { return r.tag }
