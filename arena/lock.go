package arena

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/tinternet/rshmem/internal/format"
)

// SpinLock serializes access to the bytes behind the lock word, across
// goroutines and across processes sharing the same segment.
//
// The lock word is a uint32 at offset 0 of the buffer: 0 unlocked, 1
// held. Go's sync/atomic operations are sequentially consistent, so
// everything a holder wrote is visible to the next holder no matter
// which process it lives in.
type SpinLock struct {
	word *uint32
	data []byte // whole buffer, lock word slot included
}

// NewSpinLock wraps buf, whose first format.LockWordSize bytes are the
// lock word slot. buf must be zero-filled before first use across all
// participants, at least format.MinSegmentSize long, and 4-byte aligned;
// page-aligned mappings and Go slice allocations always are.
func NewSpinLock(buf []byte) *SpinLock {
	if len(buf) < format.MinSegmentSize {
		panic("arena: buffer smaller than lock word and sentinel")
	}
	return &SpinLock{
		word: (*uint32)(unsafe.Pointer(&buf[0])),
		data: buf,
	}
}

// Acquire spins until the lock word transitions 0 -> 1, then returns the
// guarded region. It never fails and never times out; the scheduler is
// yielded between attempts. There is no fairness and no re-entrancy:
// acquiring again before releasing deadlocks the calling goroutine, and
// a holder that dies without releasing wedges the lock forever.
func (l *SpinLock) Acquire() *Region {
	for !atomic.CompareAndSwapUint32(l.word, 0, 1) {
		runtime.Gosched()
	}
	return &Region{lock: l, data: l.data[format.LockWordSize:]}
}

// TryAcquire attempts at most spins acquisitions before giving up. It is
// an extension over Acquire for callers that cannot risk spinning
// forever on a segment whose holder died mid-critical-section.
func (l *SpinLock) TryAcquire(spins int) (*Region, bool) {
	for i := 0; i < spins; i++ {
		if atomic.CompareAndSwapUint32(l.word, 0, 1) {
			return &Region{lock: l, data: l.data[format.LockWordSize:]}, true
		}
		runtime.Gosched()
	}
	return nil, false
}

// Region is exclusive access to the guarded bytes. Release it exactly
// once when done; until then every other Acquire spins.
type Region struct {
	lock *SpinLock
	data []byte
}

// Bytes returns the guarded bytes. The slice must not be retained past
// Release: after that any other holder may rewrite it.
func (r *Region) Bytes() []byte { return r.data }

// Release clears the lock word, publishing every mutation made under
// this region to the next holder.
func (r *Region) Release() {
	atomic.StoreUint32(r.lock.word, 0)
}
