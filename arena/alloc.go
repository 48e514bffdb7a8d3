package arena

import "github.com/tinternet/rshmem/internal/format"

// The block list is threaded through the guarded region itself. The head
// sentinel occupies bytes [0, HeaderSize) and is never handed out or
// freed; zero-filled fresh segments give it size 0 and nil links for
// free. Helpers below take header offsets (payload ref minus HeaderSize).

func blockSize(data []byte, h uint64) uint64 {
	return format.ReadU64(data, int(h)+format.SizeOffset)
}

func blockNext(data []byte, h uint64) uint64 {
	return format.ReadU64(data, int(h)+format.NextOffset)
}

func blockParent(data []byte, h uint64) Ref {
	return Ref(format.ReadU64(data, int(h)+format.ParentOffset))
}

func setNext(data []byte, h, next uint64) {
	format.PutU64(data, int(h)+format.NextOffset, next)
}

// allocate carves a new block out of the first gap that can hold a
// header plus size bytes, scanning the list in address order, and
// returns the payload ref. ok is false when no such gap exists. size
// must be positive: a zero-size block would be indistinguishable from a
// tombstone and could never be freed.
func allocate(data []byte, size uint64, parent Ref) (Ref, bool) {
	end := uint64(len(data))
	cur := uint64(0) // head sentinel

	for {
		blockEnd := cur + format.HeaderSize + blockSize(data, cur)
		next := blockNext(data, cur)

		// Free space between this block and its successor, or the region end.
		var free uint64
		if next == 0 {
			free = end - blockEnd
		} else {
			free = next - blockEnd
		}

		if free >= format.HeaderSize+size {
			h := blockEnd
			format.PutU64(data, int(h)+format.SizeOffset, size)
			format.PutU64(data, int(h)+format.NextOffset, next)
			format.PutU64(data, int(h)+format.ParentOffset, uint64(parent))
			setNext(data, cur, h)
			return Ref(h + format.HeaderSize), true
		}

		if next == 0 {
			return NilRef, false
		}
		cur = next
	}
}

// deallocate removes every live block whose payload ref is ref or whose
// parent is ref, unlinking it and zeroing its header and payload in
// place. It returns the number of blocks removed; an unknown or
// already-freed ref removes nothing. Grouping is one level deep, so a
// removed child never cascades further.
func deallocate(data []byte, ref Ref) int {
	removed := 0
	prev := uint64(0) // head sentinel
	cur := blockNext(data, 0)

	for cur != 0 {
		size := blockSize(data, cur)
		next := blockNext(data, cur)
		payload := Ref(cur + format.HeaderSize)

		if size > 0 && (payload == ref || blockParent(data, cur) == ref) {
			setNext(data, prev, next)
			clear(data[cur : cur+format.HeaderSize+size])
			removed++
			// prev is unchanged: the list just moved under us.
			cur = next
			continue
		}

		prev = cur
		cur = next
	}
	return removed
}

// find returns the header offset of the live block with the given
// payload ref, or ok=false.
func find(data []byte, ref Ref) (uint64, bool) {
	for cur := blockNext(data, 0); cur != 0; cur = blockNext(data, cur) {
		if Ref(cur+format.HeaderSize) == ref && blockSize(data, cur) > 0 {
			return cur, true
		}
	}
	return 0, false
}

// snapshot walks the list once and returns the live blocks in address
// order together with the region statistics.
func snapshot(data []byte) ([]BlockInfo, Stats) {
	st := Stats{Capacity: uint64(len(data))}
	var blocks []BlockInfo

	end := uint64(len(data))
	cur := uint64(0)
	for {
		size := blockSize(data, cur)
		next := blockNext(data, cur)
		if cur != 0 {
			blocks = append(blocks, BlockInfo{
				Ref:    Ref(cur + format.HeaderSize),
				Size:   size,
				Parent: blockParent(data, cur),
			})
			st.Used += format.HeaderSize + size
		}

		blockEnd := cur + format.HeaderSize + size
		var gap uint64
		if next == 0 {
			gap = end - blockEnd
		} else {
			gap = next - blockEnd
		}
		if gap > st.LargestGap {
			st.LargestGap = gap
		}

		if next == 0 {
			break
		}
		cur = next
	}

	st.Blocks = len(blocks)
	st.Free = st.Capacity - format.HeaderSize - st.Used
	return blocks, st
}
