package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	je "github.com/juju/errors"
)

// chapterBase returns "{root}/{service_id}_{file_id}" -- the shared
// prefix of a chapter's .dat and .tbl files (spec §6).
func chapterBase(root string, serviceID uint64, fileID int64) string {
	return filepath.Join(root, fmt.Sprintf("%d_%d", serviceID, fileID))
}

func chapterDatPath(root string, serviceID uint64, fileID int64) string {
	return chapterBase(root, serviceID, fileID) + ".dat"
}

// openChapterAppend opens (creating if necessary) a chapter file for
// append-only writing.
func openChapterAppend(root string, serviceID uint64, fileID int64) (*os.File, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, je.Annotate(err, "openChapterAppend: mkdir")
	}
	f, err := os.OpenFile(chapterDatPath(root, serviceID, fileID), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, je.Annotate(err, "openChapterAppend")
	}
	return f, nil
}

// openChapterRead opens a chapter file read-only.
func openChapterRead(root string, serviceID uint64, fileID int64) (*os.File, error) {
	f, err := os.Open(chapterDatPath(root, serviceID, fileID))
	if err != nil {
		return nil, je.Annotate(err, "openChapterRead")
	}
	return f, nil
}

// walkRecords seeks f to the start and reads forward count whole records
// (each [u32 size][size bytes]), returning the byte offset immediately
// after the count-th record. Used by Dequeue to position a freshly opened
// read cursor at its offset and to re-synchronize it after an error flag;
// Retrieve positions its cursor with skipRecords instead.
func walkRecords(f *os.File, count int64) (int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, je.Annotate(err, "walkRecords: seek")
	}
	var pos int64
	var lenBuf [4]byte
	for i := int64(0); i < count; i++ {
		if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
			return 0, je.Annotate(err, "walkRecords: read length prefix")
		}
		size := int64(binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := f.Seek(size, io.SeekCurrent); err != nil {
			return 0, je.Annotate(err, "walkRecords: skip record body")
		}
		pos += 4 + size
	}
	return pos, nil
}

// skipRecords reads forward count whole records from f's current
// position without first seeking to the start -- used by Retrieve to
// advance its cursor within an already-open chapter (spec §4.3
// "Retrieve": "seeks forward by walking records").
func skipRecords(f *os.File, count int64) error {
	var lenBuf [4]byte
	for i := int64(0); i < count; i++ {
		if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
			return je.Annotate(err, "skipRecords: read length prefix")
		}
		size := int64(binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := f.Seek(size, io.SeekCurrent); err != nil {
			return je.Annotate(err, "skipRecords: skip record body")
		}
	}
	return nil
}

// readRecordAt reads one [u32 size][object_hdr][payload] record starting
// at the file's current position, returning the decoded header and the
// payload (header stripped off).
func readRecordAt(f *os.File) (objectHeader, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		return objectHeader{}, nil, err
	}
	size := binary.LittleEndian.Uint32(lenBuf[:])
	if size < objectHeaderSize {
		return objectHeader{}, nil, je.Errorf("readRecordAt: object_size %d smaller than header", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(f, body); err != nil {
		return objectHeader{}, nil, err
	}
	hdr := decodeObjectHeader(body[:objectHeaderSize])
	payload := body[objectHeaderSize:]
	return hdr, payload, nil
}

// writeRecord appends one [u32 object_size][object_hdr][buf1][buf2]
// record to f (spec §4.3 "Enqueue").
func writeRecord(f *os.File, hdr objectHeader, buf1, buf2 []byte) error {
	objectSize := uint32(objectHeaderSize + len(buf1) + len(buf2))
	hdr.Size = objectSize - objectHeaderSize

	out := make([]byte, 4+objectSize)
	binary.LittleEndian.PutUint32(out[0:4], objectSize)
	copy(out[4:4+objectHeaderSize], encodeObjectHeader(hdr))
	copy(out[4+objectHeaderSize:], buf1)
	copy(out[4+objectHeaderSize+len(buf1):], buf2)

	n, err := f.Write(out)
	if err != nil {
		return err
	}
	if n != len(out) {
		return io.ErrShortWrite
	}
	return f.Sync()
}
