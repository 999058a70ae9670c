package store

import (
	"time"

	je "github.com/juju/errors"

	"github.com/zhukovaskychina/bplib/bperr"
	"github.com/zhukovaskychina/bplib/logger"
)

// Enqueue appends one object made of buf1 followed by buf2 and returns
// its assigned storage id (spec §4.3 "Enqueue"). timeout is accepted for
// interface parity with the rest of the store API (spec §6); enqueue
// never itself suspends, so it is otherwise unused.
func (h *Handle) Enqueue(buf1, buf2 []byte, timeout time.Duration) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dataID := h.writeDataID
	fileID, _ := chapterOf(dataID)

	if !h.writeFile.open {
		f, err := openChapterAppend(h.attr.RootPath, h.serviceID, fileID)
		if err != nil {
			return 0, wrap("store.Enqueue", bperr.ErrFailedStore, err)
		}
		h.writeFile = fileCursor{open: true, fileID: fileID, file: f}
	}

	// A write cursor is always reopened fresh (see above) once a prior
	// write fails and closes it, so there is no errSet-on-write-cursor
	// state left for a later Enqueue to resync from.

	hdr := objectHeader{Handle: int32(h.slot), Sid: sidVacant}
	if err := writeRecord(h.writeFile.file, hdr, buf1, buf2); err != nil {
		h.writeFile.close()
		logger.Errorf("store: failed to write record at data_id=%d: %v", dataID, err)
		return 0, wrap("store.Enqueue", bperr.ErrFailedStore, err)
	}

	h.writeDataID++
	h.dataCount++
	sid := sidOf(dataID)

	if h.writeDataID%FileDataCount == 0 {
		h.writeFile.close()
	}

	h.cond.Broadcast()
	return sid, nil
}

// Dequeue waits (up to timeout) for the next object in enqueue order and
// returns it (spec §4.3 "Dequeue"). A zero timeout never blocks; a
// negative timeout blocks indefinitely.
func (h *Handle) Dequeue(timeout time.Duration) (*Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.waitTimeout(func() bool { return h.readDataID != h.writeDataID }, timeout) {
		return nil, errTimeout
	}

	dataID := h.readDataID
	fileID, offset := chapterOf(dataID)

	// Wait for a reclaim-cache slot before touching the read cursor at
	// all: blocksEviction depends only on dataID, which is already known,
	// so a timeout here leaves readDataID and the cursor untouched (spec
	// §5, "timeout ... leaves state unchanged"). Doing this after
	// readRecordAt would have already advanced the file position one
	// record without advancing readDataID to match, corrupting enqueue
	// order on the next call.
	if !h.waitTimeout(func() bool { return !h.cache.blocksEviction(dataID) }, timeout) {
		logger.Debugf("store: dequeue timed out waiting for a cache slot, data_id=%d", dataID)
		return nil, errTimeout
	}

	if !h.readFile.open || h.readFile.fileID != fileID {
		h.readFile.close()
		f, err := openChapterRead(h.attr.RootPath, h.serviceID, fileID)
		if err != nil {
			return nil, wrap("store.Dequeue", bperr.ErrFailedStore, err)
		}
		h.readFile = fileCursor{open: true, fileID: fileID, file: f}
		if offset > 0 {
			if _, err := walkRecords(h.readFile.file, offset); err != nil {
				h.readFile.errSet = true
				h.readFile.close()
				logger.Errorf("store: failed to resync read cursor at data_id=%d: %v", dataID, err)
				return nil, wrap("store.Dequeue: resync", bperr.ErrFailedStore, err)
			}
		}
	} else if h.readFile.errSet {
		if _, err := walkRecords(h.readFile.file, offset); err != nil {
			h.readFile.close()
			logger.Errorf("store: failed to resync read cursor at data_id=%d: %v", dataID, err)
			return nil, wrap("store.Dequeue: resync", bperr.ErrFailedStore, err)
		}
		h.readFile.errSet = false
	}

	_, payload, err := readRecordAt(h.readFile.file)
	if err != nil {
		h.readFile.errSet = true
		h.readFile.close()
		logger.Errorf("store: failed to read record at data_id=%d: %v", dataID, err)
		return nil, wrap("store.Dequeue", bperr.ErrFailedStore, err)
	}
	sid := sidOf(dataID)

	h.cache.put(dataID, payload)

	h.readDataID++
	if h.readDataID%FileDataCount == 0 {
		h.readFile.close()
	}

	return &Object{Sid: sid, Data: payload}, nil
}

// Retrieve returns the object with the given storage id, independent of
// the read cursor's position, serving it from the reclaim cache when
// possible (spec §4.3 "Retrieve").
func (h *Handle) Retrieve(sid uint64, timeout time.Duration) (*Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dataID := dataIDOf(sid)
	if payload, ok := h.cache.lookup(dataID); ok {
		return &Object{Sid: sid, Data: payload}, nil
	}

	fileID, offset := chapterOf(dataID)

	switch {
	case !h.retrieveFile.open || h.retrieveFile.fileID != fileID:
		h.retrieveFile.close()
		f, err := openChapterRead(h.attr.RootPath, h.serviceID, fileID)
		if err != nil {
			return nil, wrap("store.Retrieve", bperr.ErrFailedStore, err)
		}
		h.retrieveFile = fileCursor{open: true, fileID: fileID, file: f}
		if err := skipRecords(f, offset); err != nil {
			h.retrieveFile.errSet = true
			h.retrieveFile.close()
			logger.Errorf("store: failed to seek retrieve cursor to sid=%d: %v", sid, err)
			return nil, wrap("store.Retrieve: seek", bperr.ErrFailedStore, err)
		}
		h.retrieveFile.recordsRead = offset

	case offset < h.retrieveFile.recordsRead:
		if _, err := h.retrieveFile.file.Seek(0, 0); err != nil {
			return nil, wrap("store.Retrieve: rewind", bperr.ErrFailedStore, err)
		}
		if err := skipRecords(h.retrieveFile.file, offset); err != nil {
			h.retrieveFile.errSet = true
			h.retrieveFile.close()
			logger.Errorf("store: failed to rewind retrieve cursor to sid=%d: %v", sid, err)
			return nil, wrap("store.Retrieve: rewind", bperr.ErrFailedStore, err)
		}
		h.retrieveFile.recordsRead = offset

	case offset > h.retrieveFile.recordsRead:
		delta := offset - h.retrieveFile.recordsRead
		if err := skipRecords(h.retrieveFile.file, delta); err != nil {
			h.retrieveFile.errSet = true
			h.retrieveFile.close()
			logger.Errorf("store: failed to advance retrieve cursor to sid=%d: %v", sid, err)
			return nil, wrap("store.Retrieve: advance", bperr.ErrFailedStore, err)
		}
		h.retrieveFile.recordsRead = offset
	}

	_, payload, err := readRecordAt(h.retrieveFile.file)
	if err != nil {
		h.retrieveFile.errSet = true
		h.retrieveFile.close()
		logger.Errorf("store: failed to read record for sid=%d: %v", sid, err)
		return nil, wrap("store.Retrieve", bperr.ErrFailedStore, err)
	}
	h.retrieveFile.recordsRead++

	if !h.waitTimeout(func() bool { return !h.cache.blocksEviction(dataID) }, timeout) {
		logger.Debugf("store: retrieve timed out waiting for a cache slot, sid=%d", sid)
		return nil, errTimeout
	}
	h.cache.put(dataID, payload)
	h.retrieveDataID = sid

	return &Object{Sid: sid, Data: payload}, nil
}

// Release clears the locked flag on sid's reclaim-cache entry, waking
// anyone waiting to evict it. A mismatched sid (no cached entry) is a
// fault, per spec §4.3 "Release".
func (h *Handle) Release(sid uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	dataID := dataIDOf(sid)
	if !h.cache.release(dataID) {
		return wrap("store.Release", bperr.ErrFailedStore, je.Errorf("no cache entry for sid %d", sid))
	}
	h.cond.Broadcast()
	return nil
}

// Relinquish marks sid as logically deleted: invalidates its cache
// entry, updates (persisting across a chapter change) the in-memory
// free table, and physically deletes the chapter once every object in
// it has been relinquished (spec §4.3 "Relinquish", testable property 6).
func (h *Handle) Relinquish(sid uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	dataID := dataIDOf(sid)
	fileID, offset := chapterOf(dataID)

	h.cache.invalidate(dataID)

	if h.haveFreeTab && h.freeTabFileID != fileID {
		if h.freeTab.freeCnt > 0 {
			if err := saveFreeTable(h.attr.RootPath, h.serviceID, h.freeTabFileID, h.freeTab); err != nil {
				return wrap("store.Relinquish: save table", bperr.ErrFailedStore, err)
			}
		}
		h.haveFreeTab = false
	}
	if !h.haveFreeTab {
		t, err := loadFreeTable(h.attr.RootPath, h.serviceID, fileID)
		if err != nil {
			return wrap("store.Relinquish: load table", bperr.ErrFailedStore, err)
		}
		h.freeTab = t
		h.freeTabFileID = fileID
		h.haveFreeTab = true
	}

	if !h.freeTab.isFreed(offset) {
		h.freeTab.markFreed(offset)
		h.dataCount--
		if h.freeTab.full() {
			if err := deleteChapter(h.attr.RootPath, h.serviceID, fileID); err != nil {
				return wrap("store.Relinquish: delete chapter", bperr.ErrFailedStore, err)
			}
			h.freeTab = freeTable{}
		}
	}

	h.relinquishDataID = sid
	h.haveRelinquished = true
	return nil
}
