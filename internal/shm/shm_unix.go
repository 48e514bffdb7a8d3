//go:build unix

// Package shm provides platform-specific helpers for creating, opening
// and memory-mapping named shared-memory segments.
//
// On unix platforms a segment is a file under /dev/shm (or the system
// temp dir when /dev/shm is unavailable) mapped MAP_SHARED, so every
// process opening the same name sees the same pages. A freshly created
// segment is zero-filled by the kernel.
package shm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Segment is a named shared-memory segment mapped into this process.
type Segment struct {
	name  string
	path  string
	data  []byte
	fixed unsafe.Pointer // non-nil when mapped at a caller-chosen address
}

// DefaultDir returns the directory backing named segments: /dev/shm where
// the kernel provides it, the system temp dir otherwise.
func DefaultDir() string {
	if st, err := os.Stat("/dev/shm"); err == nil && st.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

// Open creates or opens the named segment in dir (DefaultDir when empty),
// grows it to at least size bytes and maps it shared read/write. When
// base is nonzero the mapping is placed exactly at that address and Open
// fails if the range is unavailable; with base zero the kernel picks the
// address, which is the portable mode since refs stored inside a segment
// are offsets, not pointers.
func Open(dir, name string, size int, base uintptr) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size %d", size)
	}
	if dir == "" {
		dir = DefaultDir()
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shm: open segment %q: %w", name, err)
	}
	defer f.Close() // safe before return; mapping keeps pages alive

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("shm: stat segment %q: %w", name, err)
	}
	// Only ever grow: an attached process asking for the existing size
	// must not disturb the live contents.
	if st.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			return nil, fmt.Errorf("shm: size segment %q to %d bytes: %w", name, size, err)
		}
	}

	if base != 0 {
		p, err := mapFixed(int(f.Fd()), size, base)
		if err != nil {
			return nil, fmt.Errorf("shm: map segment %q at %#x: %w", name, base, err)
		}
		return &Segment{
			name:  name,
			path:  path,
			data:  unsafe.Slice((*byte)(p), size),
			fixed: p,
		}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: map segment %q: %w", name, err)
	}
	return &Segment{name: name, path: path, data: data}, nil
}

// Name returns the segment name passed to Open.
func (s *Segment) Name() string { return s.name }

// Bytes returns the mapped segment contents. The slice is valid until Close.
func (s *Segment) Bytes() []byte { return s.data }

// Close unmaps the segment view. The named segment itself survives for
// other processes; use Remove to delete the name. Close is idempotent.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}
	var err error
	if s.fixed != nil {
		err = unix.MunmapPtr(s.fixed, uintptr(len(s.data)))
	} else {
		err = unix.Munmap(s.data)
	}
	s.data = nil
	s.fixed = nil
	if err != nil {
		return fmt.Errorf("shm: unmap segment %q: %w", s.name, err)
	}
	return nil
}

// Remove unlinks the segment name so no further process can open it.
// Existing mappings stay usable until they are closed. Removing an
// already-removed segment is a no-op.
func (s *Segment) Remove() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
