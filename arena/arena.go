package arena

import (
	"fmt"
	"sync"

	"github.com/tinternet/rshmem/internal/format"
	"github.com/tinternet/rshmem/internal/shm"
)

// Option configures Open.
type Option func(*config)

type config struct {
	dir  string
	base uintptr
}

// WithDir overrides the directory backing the named segment on platforms
// that expose segments through the filesystem. Mostly useful in tests.
func WithDir(dir string) Option {
	return func(c *config) { c.dir = dir }
}

// WithBaseAddress requests the segment be mapped at addr in this
// process. Refs never depend on the mapping address, so this matters
// only to callers that pin raw pointers into Bytes across processes.
// Open fails if the address range is unavailable.
func WithBaseAddress(addr uintptr) Option {
	return func(c *config) { c.base = addr }
}

// Arena is a fixed-capacity allocator over a named shared-memory
// segment. Every process that opens the same name shares one block list;
// all operations, reads included, serialize on the in-segment spin lock.
//
// Methods are safe for concurrent use from multiple goroutines. An Arena
// must not be used after Close.
type Arena struct {
	seg  *shm.Segment
	lock *SpinLock

	closeOnce sync.Once
	closeErr  error
}

// Open creates or attaches to the named segment of size bytes and wires
// an allocator over it. A fresh segment comes back zero-filled from the
// OS, which doubles as the unlocked lock word and the empty list.
func Open(name string, size int, opts ...Option) (*Arena, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	if size < format.MinSegmentSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d",
			ErrArenaTooSmall, size, format.MinSegmentSize)
	}
	seg, err := shm.Open(cfg.dir, name, size, cfg.base)
	if err != nil {
		return nil, err
	}
	return &Arena{seg: seg, lock: NewSpinLock(seg.Bytes())}, nil
}

// Allocate reserves size bytes and returns the payload ref. ok is false
// when no gap in the arena can hold a header plus size bytes; that is an
// expected outcome, not an error, and callers should free something or
// back off.
func (a *Arena) Allocate(size int) (Ref, bool) {
	return a.AllocateMore(size, NilRef)
}

// AllocateMore reserves size bytes grouped under parent: deallocating
// parent later also removes this block. parent should be a ref
// previously returned by Allocate or AllocateMore and still live.
func (a *Arena) AllocateMore(size int, parent Ref) (Ref, bool) {
	if size <= 0 {
		return NilRef, false
	}
	r := a.lock.Acquire()
	defer r.Release()
	return allocate(r.Bytes(), uint64(size), parent)
}

// Deallocate releases the block at ref together with every block grouped
// under it and reports whether anything was removed. Freeing an unknown
// or already-freed ref is a safe no-op returning false, which keeps
// deallocation idempotent.
func (a *Arena) Deallocate(ref Ref) bool {
	r := a.lock.Acquire()
	defer r.Release()
	return deallocate(r.Bytes(), ref) > 0
}

// View returns the payload bytes of the live block at ref. The slice
// stays mapped until Close, but its contents are only stable while no
// other holder mutates the arena; coordinate through the lock or treat
// it as scratch owned by this caller.
func (a *Arena) View(ref Ref) ([]byte, error) {
	r := a.lock.Acquire()
	defer r.Release()

	h, ok := find(r.Bytes(), ref)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadRef, ref)
	}
	size := blockSize(r.Bytes(), h)
	start := format.LockWordSize + int(ref)
	return a.seg.Bytes()[start : start+int(size) : start+int(size)], nil
}

// Stats summarizes the arena under the lock.
func (a *Arena) Stats() Stats {
	r := a.lock.Acquire()
	defer r.Release()
	_, st := snapshot(r.Bytes())
	return st
}

// Blocks returns header snapshots of every live block in address order,
// taken under the lock.
func (a *Arena) Blocks() []BlockInfo {
	r := a.lock.Acquire()
	defer r.Release()
	blocks, _ := snapshot(r.Bytes())
	return blocks
}

// Bytes exposes the raw segment, lock word included. Callers touching it
// race with every other arena holder unless they coordinate through the
// lock themselves; it exists for advanced callers who accept that.
func (a *Arena) Bytes() []byte { return a.seg.Bytes() }

// Size returns the segment size in bytes, lock word included.
func (a *Arena) Size() int { return len(a.seg.Bytes()) }

// Close unmaps the segment. Other processes keep their mappings; the
// named segment survives until removed. Close is safe to call more than
// once and always returns the first result.
func (a *Arena) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.seg.Close()
	})
	return a.closeErr
}

// Remove unlinks the segment name so no further process can attach.
// Existing mappings stay usable until closed.
func (a *Arena) Remove() error { return a.seg.Remove() }
