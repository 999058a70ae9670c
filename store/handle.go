package store

import (
	"os"
	"sync"
	"time"

	"github.com/zhukovaskychina/bplib/bperr"
)

// Handle is one store instance: a root directory, independent write/
// read/retrieve cursors (plus a transient relinquish cursor), a reclaim
// cache, and a lock guarding all of it (spec §3.3, §5). The handle table
// itself is the single process-wide lifecycle anchor DESIGN NOTES §9
// calls for.
type Handle struct {
	mu   sync.Mutex
	cond *sync.Cond

	attr      FileAttr
	serviceID uint64
	slot      int // index into the registry table; -1 once destroyed

	writeDataID      uint64
	readDataID       uint64
	retrieveDataID   uint64
	relinquishDataID uint64
	haveRelinquished bool // relinquishDataID is meaningless until the first Relinquish call

	dataCount int64

	writeFile    fileCursor
	readFile     fileCursor
	retrieveFile fileCursor

	cache *reclaimCache

	freeTab       freeTable
	freeTabFileID int64
	haveFreeTab   bool
}

// fileCursor bundles one of the three persistent cursors' open descriptor
// state with its error flag (spec §3.3: "per-cursor error flags").
type fileCursor struct {
	open   bool
	fileID int64
	file   *os.File
	errSet bool

	// recordsRead tracks how many records have been consumed since file
	// was opened; only meaningful for the retrieve cursor, which (unlike
	// read) may need to seek forward or backward within an open chapter.
	recordsRead int64
}

var (
	registryMu    sync.Mutex
	registry      [FileMaxStores]*Handle
	nextServiceID uint64 // first handle gets service_id 0, per scenario S2's "0_0.dat"
)

// Create picks a free slot in the fixed-size handle table, assigns a
// monotonically increasing service id, applies attr's defaults, and
// prepares the reclaim cache (spec §4.3 "Handle lifecycle").
func Create(attr FileAttr) (*Handle, error) {
	attr = attr.withDefaults()

	registryMu.Lock()
	defer registryMu.Unlock()

	slotIdx := -1
	for i, h := range registry {
		if h == nil {
			slotIdx = i
			break
		}
	}
	if slotIdx < 0 {
		return nil, errNoFreeHandle
	}

	h := &Handle{
		attr:          attr,
		serviceID:     nextServiceID,
		slot:          slotIdx,
		cache:         newReclaimCache(attr.CacheSize),
		freeTabFileID: -1,
	}
	h.cond = sync.NewCond(&h.mu)
	nextServiceID++

	registry[slotIdx] = h
	return h, nil
}

// Destroy closes every open descriptor, drops the handle's registry slot,
// and frees its cache. Using h after Destroy is a misuse fault (spec §7:
// "Assertion of misuse ... is fatal by design").
func (h *Handle) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.slot < 0 {
		panic("store: double-destroy of handle")
	}

	h.writeFile.close()
	h.readFile.close()
	h.retrieveFile.close()
	h.cache = nil

	registryMu.Lock()
	registry[h.slot] = nil
	registryMu.Unlock()
	h.slot = -1
}

// GetCount returns the current data_count: objects enqueued minus objects
// relinquished.
func (h *Handle) GetCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dataCount
}

func (c *fileCursor) close() {
	if c.open && c.file != nil {
		c.file.Close()
	}
	c.open = false
	c.file = nil
}

// waitTimeout blocks the caller (who must hold h.mu) until pred() is
// true or timeout elapses, per spec §5's negative=infinite/zero=non-
// blocking convention. It returns false on timeout. This is the Cond-
// with-deadline loop sync.Cond.Wait itself doesn't provide: a timer
// goroutine re-acquires the lock only to broadcast, letting the waiter
// re-check its own predicate under the lock exactly as Wait requires.
func (h *Handle) waitTimeout(pred func() bool, timeout time.Duration) bool {
	if pred() {
		return true
	}
	if timeout == 0 {
		return false
	}
	if timeout < 0 {
		for !pred() {
			h.cond.Wait()
		}
		return true
	}

	deadline := time.Now().Add(timeout)
	for !pred() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timer := time.AfterFunc(remaining, func() {
			h.mu.Lock()
			h.cond.Broadcast()
			h.mu.Unlock()
		})
		h.cond.Wait()
		timer.Stop()
	}
	return true
}

// errTimeout is returned by blocking calls that give up waiting.
var errTimeout = bperr.Wrap("store", bperr.ErrTimeout, nil)
