package store

// cacheEntry is one slot of the reclaim cache (spec §3.3): a fixed-size,
// open-addressed ring keyed by data_id mod cache_size. A locked entry may
// not be evicted until its holder calls Release.
type cacheEntry struct {
	valid   bool
	locked  bool
	dataID  uint64
	payload []byte
}

// reclaimCache is the fixed-size ring itself.
type reclaimCache struct {
	entries []cacheEntry
}

func newReclaimCache(size int) *reclaimCache {
	return &reclaimCache{entries: make([]cacheEntry, size)}
}

func (c *reclaimCache) slot(dataID uint64) *cacheEntry {
	return &c.entries[dataID%uint64(len(c.entries))]
}

// put installs payload into the slot for dataID, marked locked. The
// caller must have already confirmed (via waitTimeout on blocksEviction) that any
// prior occupant is not itself locked -- this intentionally lets a
// second live object evict an unlocked one that collides on the same
// index (spec §9, Open Question (c): no LRU policy is specified, so the
// most recent dequeue/retrieve simply wins the slot).
func (c *reclaimCache) put(dataID uint64, payload []byte) {
	e := c.slot(dataID)
	*e = cacheEntry{valid: true, locked: true, dataID: dataID, payload: payload}
}

// lookup returns the payload currently cached for dataID, if any.
func (c *reclaimCache) lookup(dataID uint64) ([]byte, bool) {
	e := c.slot(dataID)
	if e.valid && e.dataID == dataID {
		return e.payload, true
	}
	return nil, false
}

// release clears the locked flag on dataID's slot if it still holds that
// id; reports whether it found a match.
func (c *reclaimCache) release(dataID uint64) bool {
	e := c.slot(dataID)
	if !e.valid || e.dataID != dataID {
		return false
	}
	e.locked = false
	return true
}

// invalidate clears the slot for dataID if it still holds that id (used
// by Relinquish).
func (c *reclaimCache) invalidate(dataID uint64) {
	e := c.slot(dataID)
	if e.valid && e.dataID == dataID {
		*e = cacheEntry{}
	}
}

// blocksEviction reports whether dataID's target slot is occupied by a
// different, currently-locked entry -- the condition Dequeue/Retrieve
// must wait out before installing a new payload there.
func (c *reclaimCache) blocksEviction(dataID uint64) bool {
	e := c.slot(dataID)
	return e.valid && e.dataID != dataID && e.locked
}
