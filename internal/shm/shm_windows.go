//go:build windows

// Package shm provides platform-specific helpers for creating, opening
// and memory-mapping named shared-memory segments.
//
// On Windows a segment is a named file mapping backed by the paging file.
// Every process creating or opening the same name shares the pages; a
// freshly created mapping is zero-filled by the system.
package shm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procMapViewOfFileEx = kernel32.NewProc("MapViewOfFileEx")
)

// Segment is a named shared-memory segment mapped into this process.
type Segment struct {
	name   string
	handle windows.Handle
	view   uintptr
	data   []byte
}

// DefaultDir returns the directory backing named segments. Windows named
// mappings live in the session object namespace, not the filesystem, so
// this is always empty.
func DefaultDir() string { return "" }

// Open creates or opens the named paging-file mapping of size bytes and
// maps a read/write view. dir is ignored on Windows. When base is nonzero
// the view is placed exactly at that address via MapViewOfFileEx, which
// fails if the range is unavailable.
func Open(dir, name string, size int, base uintptr) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size %d", size)
	}
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("shm: segment name %q: %w", name, err)
	}

	high := uint32(uint64(size) >> 32)
	low := uint32(uint64(size))
	handle, err := windows.CreateFileMapping(windows.InvalidHandle, nil,
		windows.PAGE_READWRITE, high, low, namep)
	// CreateFileMapping reports ERROR_ALREADY_EXISTS alongside a valid
	// handle when attaching to a segment another process created first.
	if handle == 0 {
		return nil, fmt.Errorf("shm: create file mapping %q: %w", name, err)
	}
	if err != nil && err != windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("shm: create file mapping %q: %w", name, err)
	}

	var view uintptr
	if base != 0 {
		r, _, callErr := procMapViewOfFileEx.Call(uintptr(handle),
			uintptr(windows.FILE_MAP_READ|windows.FILE_MAP_WRITE),
			0, 0, uintptr(size), base)
		if r == 0 {
			windows.CloseHandle(handle)
			return nil, fmt.Errorf("shm: map view of %q at %#x: %w", name, base, callErr)
		}
		view = r
	} else {
		view, err = windows.MapViewOfFile(handle,
			windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
		if err != nil {
			windows.CloseHandle(handle)
			return nil, fmt.Errorf("shm: map view of %q: %w", name, err)
		}
	}

	return &Segment{
		name:   name,
		handle: handle,
		view:   view,
		data:   unsafe.Slice((*byte)(unsafe.Pointer(view)), size),
	}, nil
}

// Name returns the segment name passed to Open.
func (s *Segment) Name() string { return s.name }

// Bytes returns the mapped segment contents. The slice is valid until Close.
func (s *Segment) Bytes() []byte { return s.data }

// Close unmaps the view and closes the mapping handle. The named segment
// survives as long as any process still holds it open. Close is idempotent.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}
	s.data = nil
	if err := windows.UnmapViewOfFile(s.view); err != nil {
		windows.CloseHandle(s.handle)
		return fmt.Errorf("shm: unmap view of %q: %w", s.name, err)
	}
	s.view = 0
	if err := windows.CloseHandle(s.handle); err != nil {
		return fmt.Errorf("shm: close mapping %q: %w", s.name, err)
	}
	return nil
}

// Remove is a no-op on Windows: the object namespace drops the name when
// the last handle closes.
func (s *Segment) Remove() error { return nil }
