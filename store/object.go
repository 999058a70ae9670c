package store

import (
	"encoding/binary"
)

// objectHeader is the persisted per-record header (spec §6): {handle,
// sid, size}. sid is overwritten by the reader on every dequeue/retrieve,
// so the on-disk value must never be trusted by a consumer (spec §9,
// Open Question (b)) -- it is written as sidVacant at enqueue time.
type objectHeader struct {
	Handle int32
	Sid    uint64
	Size   uint32
}

// sidVacant is the sentinel on-disk sid value enqueue writes, since the
// real sid is only known to the reader that later assigns it.
const sidVacant uint64 = 0

const objectHeaderSize = 4 + 8 + 4 // Handle + Sid + Size, little-endian

func encodeObjectHeader(h objectHeader) []byte {
	buf := make([]byte, objectHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Handle))
	binary.LittleEndian.PutUint64(buf[4:12], h.Sid)
	binary.LittleEndian.PutUint32(buf[12:16], h.Size)
	return buf
}

func decodeObjectHeader(buf []byte) objectHeader {
	return objectHeader{
		Handle: int32(binary.LittleEndian.Uint32(buf[0:4])),
		Sid:    binary.LittleEndian.Uint64(buf[4:12]),
		Size:   binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// Object is the payload + identity a caller gets back from Dequeue or
// Retrieve.
type Object struct {
	Sid  uint64
	Data []byte
}

// dataIDOf returns the 0-based data id a storage id (sid) encodes (spec
// §3.3): data_id = sid - 1.
func dataIDOf(sid uint64) uint64 { return sid - 1 }

// sidOf is the inverse of dataIDOf.
func sidOf(dataID uint64) uint64 { return dataID + 1 }

func chapterOf(dataID uint64) (fileID, offset int64) {
	return int64(dataID / FileDataCount), int64(dataID % FileDataCount)
}
