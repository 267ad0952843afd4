// Package region provides zero-initialised memory regions that back the
// allocator pools. Mapped regions live outside the Go heap, so addresses
// into them stay stable and the garbage collector never scans them.
package region

import (
	"errors"
	"fmt"
)

// Kind selects where a region's memory comes from.
type Kind uint8

const (
	// Mapped regions are anonymous private mappings obtained from the OS.
	// Platforms without mapping support fall back to Heap.
	Mapped Kind = iota
	// Heap regions are plain Go byte slices kept alive by the caller.
	Heap
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Mapped:
		return "mapped"
	case Heap:
		return "heap"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ErrNoMemory indicates the backing store refused the request.
var ErrNoMemory = errors.New("region: cannot allocate memory")

// Alloc returns a zeroed region of exactly size bytes together with a release
// function. Release is safe to call more than once. Callers must not touch the
// slice after releasing it.
func Alloc(size int, kind Kind) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("region: invalid size %d", size)
	}
	if kind == Mapped {
		return mapAnon(size)
	}
	return heapAlloc(size)
}

// heapAlloc allocates a region on the Go heap. Out of memory here is fatal to
// the runtime, so the only failure reported is an absurd size.
func heapAlloc(size int) (data []byte, release func() error, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, release = nil, nil
			err = fmt.Errorf("%w: %v", ErrNoMemory, r)
		}
	}()
	data = make([]byte, size)
	release = func() error {
		data = nil
		return nil
	}
	return data, release, nil
}
