// Package format defines the byte layout of a shared arena segment.
//
// The layout is the wire format between cooperating processes: every
// process reads the other's raw bytes, so field order, integer width and
// byte order must match exactly on all sides. All multi-byte fields are
// little-endian.
//
// A segment looks like:
//
//	0x00: lock word slot (LockWordSize bytes; uint32 in the first 4,
//	      the rest is padding so the region behind it stays 8-aligned)
//	0x08: guarded region, starting with the head sentinel header
//
// Every block inside the guarded region is prefixed by a header:
//
//	0x00: size   (uint64)  payload length; 0 only on the head sentinel
//	0x08: next   (uint64)  ref of the next header in the list, 0 at the tail
//	0x10: parent (uint64)  payload ref this block is grouped under, 0 if none
//
// Refs are byte offsets from the start of the guarded region, never
// virtual addresses, so a segment is valid no matter where each process
// maps it.
package format

const (
	// LockWordSize is the number of bytes reserved at the start of the
	// segment for the cross-process lock word. Only the first 4 bytes are
	// used (a CAS-able uint32); the slot is 8 bytes so the guarded region
	// begins 8-aligned.
	LockWordSize = 8

	// HeaderSize is the size of the block header preceding every payload,
	// including the head sentinel.
	HeaderSize = 24

	// Field offsets within a block header.
	SizeOffset   = 0
	NextOffset   = 8
	ParentOffset = 16

	// MinSegmentSize is the smallest usable segment: the lock word slot
	// plus the head sentinel. Such a segment can hold the list anchor but
	// no payload; anything smaller cannot be initialized at all.
	MinSegmentSize = LockWordSize + HeaderSize
)
