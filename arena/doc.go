// Package arena implements a fixed-capacity allocator inside a named
// shared-memory segment, usable concurrently from many goroutines and
// many processes.
//
// # Overview
//
// A segment starts with a lock word followed by the guarded region. The
// guarded region holds an intrusive singly linked list of block headers
// threaded through the allocated bytes themselves; there is no side
// bookkeeping structure. Allocation is first-fit: the list is walked in
// address order and the first gap large enough for a header plus the
// requested payload wins. Deallocation unlinks and zeroes blocks in
// place; adjacent free gaps are recomputed from address arithmetic on
// every allocation, so a full alloc/free cycle leaves no permanent
// fragmentation.
//
// # Refs
//
// Blocks are identified by Ref values: byte offsets of the payload from
// the start of the guarded region. Header links are stored as refs too,
// never as virtual addresses, so cooperating processes may map the
// segment wherever they like.
//
// # Grouping
//
// AllocateMore tags a new block with a parent ref. Deallocating the
// parent also removes every block tagged with it. The relation is one
// level deep: children of children are not chased.
//
// # Locking
//
// Every operation, including read-only inspection, serializes on the
// in-segment spin lock. The lock has no fairness, no re-entrancy and no
// recovery: acquiring twice from one goroutine deadlocks it, and a
// process that dies while holding the lock wedges the segment for
// everyone. TryAcquire offers a bounded-spin escape hatch for callers
// that cannot accept the latter.
//
// # Usage Example
//
//	a, err := arena.Open("my-arena", 1<<20)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	ref, ok := a.Allocate(256)
//	if !ok {
//	    return errors.New("arena full")
//	}
//	buf, _ := a.View(ref)
//	copy(buf, payload)
//
//	// Attach a dependent block; freeing ref later frees both.
//	child, ok := a.AllocateMore(64, ref)
//	_ = child
//
//	a.Deallocate(ref)
package arena
