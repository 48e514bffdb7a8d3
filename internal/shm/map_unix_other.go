//go:build unix && !linux

package shm

import (
	"errors"
	"unsafe"
)

// mapFixed is unsupported where MAP_FIXED_NOREPLACE does not exist; plain
// MAP_FIXED would clobber existing mappings, which is worse than failing.
func mapFixed(fd, size int, base uintptr) (unsafe.Pointer, error) {
	return nil, errors.New("fixed-address mapping is not supported on this platform")
}
