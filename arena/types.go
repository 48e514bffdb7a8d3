package arena

// Ref names an allocated block: the byte offset of its payload from the
// start of the guarded region. Refs are stable across processes because
// they never encode a mapping address. The zero Ref is never returned by
// an allocation and doubles as the nil link inside headers.
type Ref uint64

// NilRef is the absent ref: no parent, no next block.
const NilRef Ref = 0

// BlockInfo is a snapshot of one live block's header.
type BlockInfo struct {
	Ref    Ref    // payload ref
	Size   uint64 // payload length in bytes
	Parent Ref    // payload ref of the block this one is grouped under, or NilRef
}

// Stats summarizes the guarded region at one point in time.
type Stats struct {
	Capacity   uint64 // guarded region length in bytes
	Blocks     int    // live blocks, excluding the head sentinel
	Used       uint64 // bytes consumed by live headers and payloads
	Free       uint64 // bytes not consumed by any header or payload
	LargestGap uint64 // largest contiguous run of free bytes
}
