//go:build unix

package arena

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinternet/rshmem/internal/format"
)

func openTestArena(t *testing.T, size int) *Arena {
	t.Helper()
	a, err := Open("arena.seg", size, WithDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, a.Close())
		require.NoError(t, a.Remove())
	})
	return a
}

func TestOpenTooSmall(t *testing.T) {
	_, err := Open("tiny.seg", format.MinSegmentSize-1, WithDir(t.TempDir()))
	require.ErrorIs(t, err, ErrArenaTooSmall)
}

func TestArenaAllocateDeallocate(t *testing.T) {
	a := openTestArena(t, 100)

	ref, ok := a.Allocate(4)
	require.True(t, ok)
	assert.NotEqual(t, NilRef, ref)

	_, ok = a.Allocate(100)
	assert.False(t, ok, "no gap in a 100-byte arena holds a header plus 100 bytes")

	assert.True(t, a.Deallocate(ref))
	assert.False(t, a.Deallocate(ref), "double free reports nothing removed")
}

func TestArenaAllocateNonPositive(t *testing.T) {
	a := openTestArena(t, 1024)

	_, ok := a.Allocate(0)
	assert.False(t, ok)
	_, ok = a.Allocate(-8)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Stats().Blocks)
}

func TestArenaView(t *testing.T) {
	a := openTestArena(t, 1024)

	ref, ok := a.Allocate(32)
	require.True(t, ok)

	buf, err := a.View(ref)
	require.NoError(t, err)
	require.Len(t, buf, 32)
	copy(buf, "hello shared world")

	again, err := a.View(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello shared world"), again[:18])

	require.True(t, a.Deallocate(ref))
	_, err = a.View(ref)
	assert.ErrorIs(t, err, ErrBadRef)
}

// TestSharedSegment opens the same named segment twice, which yields two
// independent mappings of the same pages: exactly what two cooperating
// processes see. Refs, the lock word and block contents must all travel.
func TestSharedSegment(t *testing.T) {
	dir := t.TempDir()

	a1, err := Open("shared.seg", 4096, WithDir(dir))
	require.NoError(t, err)
	defer a1.Close()
	a2, err := Open("shared.seg", 4096, WithDir(dir))
	require.NoError(t, err)
	defer a2.Close()
	defer a1.Remove()

	ref, ok := a1.Allocate(64)
	require.True(t, ok)

	buf, err := a1.View(ref)
	require.NoError(t, err)
	copy(buf, "written through mapping one")

	// The second mapping resolves the same ref to the same bytes.
	seen, err := a2.View(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("written through mapping one"), seen[:27])

	child, ok := a2.AllocateMore(16, ref)
	require.True(t, ok)
	assert.NotEqual(t, NilRef, child)

	// Freeing through the other mapping cascades as usual.
	assert.True(t, a2.Deallocate(ref))
	assert.False(t, a1.Deallocate(ref))
	assert.False(t, a1.Deallocate(child))
	assert.Equal(t, 0, a1.Stats().Blocks)
}

func TestArenaStatsAndBlocks(t *testing.T) {
	a := openTestArena(t, 2048)

	parent, ok := a.Allocate(100)
	require.True(t, ok)
	child, ok := a.AllocateMore(50, parent)
	require.True(t, ok)

	blocks := a.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, parent, blocks[0].Ref)
	assert.Equal(t, uint64(100), blocks[0].Size)
	assert.Equal(t, NilRef, blocks[0].Parent)
	assert.Equal(t, child, blocks[1].Ref)
	assert.Equal(t, parent, blocks[1].Parent)

	st := a.Stats()
	assert.Equal(t, uint64(2048-format.LockWordSize), st.Capacity)
	assert.Equal(t, 2, st.Blocks)
	assert.Equal(t, uint64(2*format.HeaderSize+150), st.Used)
}

func TestArenaConcurrentChurn(t *testing.T) {
	const (
		goroutines = 8
		iterations = 300
	)
	a := openTestArena(t, 1<<16)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < iterations; i++ {
				size := 1 + rng.Intn(64)
				ref, ok := a.Allocate(size)
				if !ok {
					continue // arena momentarily full
				}
				buf, err := a.View(ref)
				if err != nil || len(buf) != size {
					t.Errorf("View(%d) = %v, len %d", ref, err, len(buf))
					return
				}
				for j := range buf {
					buf[j] = byte(seed)
				}
				if !a.Deallocate(ref) {
					t.Errorf("lost block %d", ref)
					return
				}
			}
		}(int64(g))
	}

	// Inspect concurrently: snapshots must always be sorted and
	// non-overlapping no matter how the list churns.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			blocks := a.Blocks()
			for j := 1; j < len(blocks); j++ {
				if uint64(blocks[j-1].Ref)+blocks[j-1].Size > uint64(blocks[j].Ref)-format.HeaderSize {
					t.Errorf("overlapping blocks in snapshot %d", i)
					return
				}
			}
		}
	}()

	wg.Wait()
	<-done

	st := a.Stats()
	assert.Equal(t, 0, st.Blocks, "every allocated block was freed")
	assert.Equal(t, uint64(0), st.Used)
}

func TestArenaCloseIdempotent(t *testing.T) {
	a, err := Open("close.seg", 1024, WithDir(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, a.Remove())
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestArenaBytes(t *testing.T) {
	a := openTestArena(t, 512)
	require.Len(t, a.Bytes(), 512)
	assert.Equal(t, 512, a.Size())
}
