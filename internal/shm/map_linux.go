//go:build linux

package shm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mapFixed maps the segment exactly at base. MAP_FIXED_NOREPLACE makes
// the kernel fail with EEXIST instead of silently clobbering whatever
// already lives in that range.
func mapFixed(fd, size int, base uintptr) (unsafe.Pointer, error) {
	return unix.MmapPtr(fd, 0, unsafe.Pointer(base), uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_FIXED_NOREPLACE)
}
