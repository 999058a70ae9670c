package store

// Stats is a read-only operational snapshot of one store handle,
// supplementing the bare getcount with cursor positions and cache
// occupancy (SPEC_FULL §3: "Store handle statistics").
type Stats struct {
	DataCount        int64
	WriteDataID      uint64
	ReadDataID       uint64
	RetrieveDataID   uint64
	RelinquishDataID uint64
	HaveRelinquished bool
	CacheSize        int
	CacheOccupied    int
	CacheLocked      int
}

// Stats returns a point-in-time snapshot of this handle's cursors and
// cache occupancy.
func (h *Handle) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	occupied, locked := 0, 0
	for _, e := range h.cache.entries {
		if e.valid {
			occupied++
			if e.locked {
				locked++
			}
		}
	}

	return Stats{
		DataCount:        h.dataCount,
		WriteDataID:      h.writeDataID,
		ReadDataID:       h.readDataID,
		RetrieveDataID:   h.retrieveDataID,
		RelinquishDataID: h.relinquishDataID,
		HaveRelinquished: h.haveRelinquished,
		CacheSize:        len(h.cache.entries),
		CacheOccupied:    occupied,
		CacheLocked:      locked,
	}
}
