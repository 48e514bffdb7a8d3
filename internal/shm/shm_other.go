//go:build !unix && !windows

// Package shm provides platform-specific helpers for creating, opening
// and memory-mapping named shared-memory segments.
package shm

import "fmt"

// Segment is a named shared-memory segment mapped into this process.
type Segment struct{}

// DefaultDir returns the directory backing named segments.
func DefaultDir() string { return "" }

// Open fails: this platform has no shared-memory mapping support.
func Open(dir, name string, size int, base uintptr) (*Segment, error) {
	return nil, fmt.Errorf("shm: shared memory segments are not supported on this platform")
}

func (s *Segment) Name() string  { return "" }
func (s *Segment) Bytes() []byte { return nil }
func (s *Segment) Close() error  { return nil }
func (s *Segment) Remove() error { return nil }
