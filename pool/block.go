package pool

// Tag identifies the variant a slot currently holds. Order matters: it is
// significant to the content-block range check below (the casts compare
// tags for equality only).
type Tag uint8

const (
	TagUndefined Tag = iota
	TagHead
	TagRef
	TagCborData
	TagServiceObject
	TagPrimary
	TagCanonical
	TagFlow
)

func (t Tag) String() string {
	switch t {
	case TagUndefined:
		return "undefined"
	case TagHead:
		return "head"
	case TagRef:
		return "ref"
	case TagCborData:
		return "cbor_data"
	case TagServiceObject:
		return "service_object"
	case TagPrimary:
		return "primary"
	case TagCanonical:
		return "canonical"
	case TagFlow:
		return "flow"
	default:
		return "unknown"
	}
}

// isContent reports whether a block of this tag is a content block: one
// that is refcounted and may be targeted by a refptr or a reference block.
// Spec: "Tags >= cbor_data and < 8 are content blocks eligible for
// refcounting."
func (t Tag) isContent() bool {
	return t >= TagCborData && t < 8
}

// ChunkPayloadCap bounds the payload carried by one encoded-chunk block, per
// spec §3.1 ("an encoded-chunk payload of <=320 bytes"). All slots are sized
// to this capacity so any block variant fits in any slot.
const ChunkPayloadCap = 320

// slotIndex is a 1-based handle into Pool.slots; zero means "no slot" (the
// intrusive-list analogue of a null pointer). Using an index rather than a
// raw pointer keeps the arena relocatable and keeps the GC from having to
// chase live pointers through a huge preallocated table.
type slotIndex int32

const nilSlot slotIndex = 0

// blockHeader is present at the start of every slot: the type tag and the
// two intrusive doubly-linked-list fields. A block whose next == its own
// index is a singleton; a block tagged TagHead anchors a circular list.
type blockHeader struct {
	tag  Tag
	next slotIndex
	prev slotIndex
}

func (h *blockHeader) isSingleton(self slotIndex) bool {
	return h.next == self && h.prev == self
}

// secondaryLink lets a canonical block participate in a second circular
// list (e.g. the by-expiry index walked by Pool.ForeachByExpiry) without
// heap-allocating an index node -- the same technique the teacher's
// buffer pool uses to carry one page on both its LRU list and its
// flush_list simultaneously, via two independent embedded link fields on
// the same struct. base names the owning canonical block's own slot index
// while linked; it is what Pool.obtainBase reads to resolve a secondary
// link back to its base block, per spec §4.1 ("resolves secondary links
// ... to produce the owning content block"). Per DESIGN NOTES §9 this is
// expressed as an explicit embedded variant rather than by tag-offset
// arithmetic on the base block's own header.
type secondaryLink struct {
	next, prev slotIndex // circular list among secondary links
	linked     bool
	base       slotIndex // owning canonical block; nilSlot until linked
}

// refFields is the payload of a TagRef slot: a reference block wrapping a
// content block, with an optional discard-notify callback.
type refFields struct {
	target    slotIndex
	notify    NotifyFunc
	notifyArg interface{}
}

// NotifyFunc is invoked exactly once when a reference block that holds it
// is recycled, before the target's refcount is decremented.
type NotifyFunc func(arg interface{}, target BlockRef)

// chunkFields is the payload of a TagCborData slot: one link in a primary
// or canonical block's encoded-chunk chain.
type chunkFields struct {
	data [ChunkPayloadCap]byte
	len  int
}

// genericFields is the payload of a TagServiceObject slot allocated via
// alloc_generic: an opaque, magic-tagged payload area.
type genericFields struct {
	magic uint32
	data  [ChunkPayloadCap]byte
	len   int
}

// BundleHeader holds the logical bundle fields a primary block carries.
// CBOR encoding/decoding of these fields onto the wire is an external
// collaborator (spec §1); this struct only holds the decoded values the
// pool needs to route and retransmit a bundle.
type BundleHeader struct {
	Version        uint8
	DestEID        string
	SourceEID      string
	ReportToEID    string
	CreationTime   uint64
	SequenceNumber uint64
	Lifetime       uint64
}

// primaryFields is the payload of a TagPrimary slot.
type primaryFields struct {
	header BundleHeader

	canonicalList slotIndex // list head of this bundle's canonical blocks
	chunkList     slotIndex // list head of this bundle's encoded-chunk chain

	encodedPrimarySize int
	encodedTotalSize   int

	ingressIntfID      uint32
	egressIntfID       uint32
	storageIntfID      uint32
	committedStorageID uint64
	retransmitInterval uint32
	ingressTimestamp   uint64
	egressTimestamp    uint64
}

// canonicalFields is the payload of a TagCanonical slot.
type canonicalFields struct {
	bundleRef     slotIndex // owning primary block, or nilSlot
	chunkList     slotIndex // list head of this block's encoded-chunk chain
	encodedSize   int
	contentOffset int
	contentLength int
	byTime        secondaryLink
}

// SubQueue is a list-head of reference blocks plus statistics, used by
// Flow.Input and Flow.Output (spec §3.1, §4.2).
type SubQueue struct {
	head       slotIndex
	depthLimit int
	depth      int
	stats      SubQueueStats
}

// flowFields is the payload of a TagFlow slot.
type flowFields struct {
	id     uint64
	input  SubQueue
	output SubQueue
	self   slotIndex // the flow's own refptr target (itself)
	active bool      // currently linked on the pool's active-flows list
}

// slot is the uniform fixed-size unit of pool storage. Exactly one of the
// *Fields members is meaningful at a time, selected by hdr.tag -- the Go
// analogue of the C union a byte-for-byte port would use, per DESIGN NOTES
// §9 ("either is acceptable provided invariant §3.2 holds").
type slot struct {
	hdr blockHeader

	refcount int32 // valid only when hdr.tag.isContent()

	magic uint32 // generic-block magic, valid only for TagServiceObject

	ref       refFields
	chunk     chunkFields
	generic   genericFields
	primary   primaryFields
	canonical canonicalFields
	flow      flowFields
}
