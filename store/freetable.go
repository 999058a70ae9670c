package store

import (
	"os"

	je "github.com/juju/errors"
)

// freeTable is the companion per-chapter bookkeeping structure (spec
// §3.3, §6): a 256-entry "already relinquished" map plus a running
// count, persisted as {u8 freed[256]; i32 free_cnt}. Absence on disk is
// equivalent to all-zero.
type freeTable struct {
	freed   [FileDataCount]byte // one byte per slot for simplicity; only 0/1 used
	freeCnt int32
}

func (t *freeTable) isFreed(offset int64) bool { return t.freed[offset] != 0 }

func (t *freeTable) markFreed(offset int64) {
	t.freed[offset] = 1
	t.freeCnt++
}

func (t *freeTable) full() bool { return int(t.freeCnt) == FileDataCount }

func tablePath(root string, serviceID uint64, fileID int64) string {
	return chapterBase(root, serviceID, fileID) + ".tbl"
}

// loadFreeTable reads a chapter's table file, returning an all-zero table
// (not an error) if the file does not exist -- spec §7: "Missing .tbl
// files are silent (treated as 'no deletions yet')."
func loadFreeTable(root string, serviceID uint64, fileID int64) (freeTable, error) {
	var t freeTable
	buf, err := os.ReadFile(tablePath(root, serviceID, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, je.Annotate(err, "loadFreeTable")
	}
	if len(buf) < FileDataCount+4 {
		return t, je.Errorf("loadFreeTable: truncated table file (%d bytes)", len(buf))
	}
	copy(t.freed[:], buf[:FileDataCount])
	t.freeCnt = int32(buf[FileDataCount]) | int32(buf[FileDataCount+1])<<8 |
		int32(buf[FileDataCount+2])<<16 | int32(buf[FileDataCount+3])<<24
	return t, nil
}

// saveFreeTable persists t to its chapter's table file.
func saveFreeTable(root string, serviceID uint64, fileID int64, t freeTable) error {
	buf := make([]byte, FileDataCount+4)
	copy(buf, t.freed[:])
	buf[FileDataCount] = byte(t.freeCnt)
	buf[FileDataCount+1] = byte(t.freeCnt >> 8)
	buf[FileDataCount+2] = byte(t.freeCnt >> 16)
	buf[FileDataCount+3] = byte(t.freeCnt >> 24)
	return je.Annotate(os.WriteFile(tablePath(root, serviceID, fileID), buf, 0o644), "saveFreeTable")
}

// deleteChapter removes both the .dat and .tbl files for one chapter, once
// every object in it has been relinquished (spec §4.3 "Relinquish" /
// testable property 6). A missing .tbl is not an error.
func deleteChapter(root string, serviceID uint64, fileID int64) error {
	if err := os.Remove(chapterBase(root, serviceID, fileID) + ".dat"); err != nil && !os.IsNotExist(err) {
		return je.Annotate(err, "deleteChapter: .dat")
	}
	if err := os.Remove(tablePath(root, serviceID, fileID)); err != nil && !os.IsNotExist(err) {
		return je.Annotate(err, "deleteChapter: .tbl")
	}
	return nil
}
