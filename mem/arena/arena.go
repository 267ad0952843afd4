// Package arena provides a bump allocator over a single fixed region.
//
// An Arena hands out consecutive word-aligned slices of its region and never
// reuses memory individually: Free is a no-op and Flush rewinds the whole
// arena at once. It suits short-lived scratch data whose lifetime ends
// together, and plugs into anything that takes a mem.Allocator.
package arena

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/region"
	"github.com/joshuapare/poolkit/mem"
)

var (
	// ErrZeroSize indicates an arena was constructed with a non-positive capacity.
	ErrZeroSize = errors.New("arena: capacity must be positive")

	// ErrOutOfMemory indicates the backing store could not supply the region.
	ErrOutOfMemory = errors.New("arena: out of memory")
)

// Arena is a bump-pointer allocator. It is not safe for concurrent use.
type Arena struct {
	buf     []byte
	release func() error

	// current is the offset of the next allocation. It only moves forward
	// until Flush.
	current int
	peak    int
}

// New creates an arena over a zeroed region of capacity bytes.
//
// Parameters:
//   - capacity: region size in bytes, must be positive
//   - kind: region source (region.Mapped or region.Heap)
func New(capacity int, kind region.Kind) (*Arena, error) {
	if capacity <= 0 {
		return nil, ErrZeroSize
	}
	data, release, err := region.Alloc(capacity, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
	return &Arena{buf: data, release: release}, nil
}

// Allocate implements mem.Allocator. The request is rounded up with
// format.AlignSize; nil is returned for a negative size or once the aligned
// request no longer fits strictly below the end of the region, so the final
// byte is never handed out.
func (a *Arena) Allocate(size int) unsafe.Pointer {
	if a == nil || a.buf == nil {
		return nil
	}
	remaining := len(a.buf) - a.current
	if size < 0 || size >= remaining {
		return nil
	}
	size = format.AlignSize(size)
	if size >= remaining {
		return nil
	}
	ptr := unsafe.Pointer(&a.buf[a.current])
	a.current += size
	a.peak = max(a.peak, a.current)
	return ptr
}

// Free implements mem.Allocator. Arena memory is only reclaimed by Flush.
func (a *Arena) Free(unsafe.Pointer) {}

// Flush rewinds the arena. Every pointer it handed out becomes reusable and
// must no longer be used by its previous owner.
func (a *Arena) Flush() {
	if a == nil {
		return
	}
	a.current = 0
}

// Used returns the bytes handed out since construction or the last Flush.
func (a *Arena) Used() int {
	if a == nil {
		return 0
	}
	return a.current
}

// Peak returns the largest Used value seen since construction.
func (a *Arena) Peak() int {
	if a == nil {
		return 0
	}
	return a.peak
}

// Cap returns the size of the arena's region.
func (a *Arena) Cap() int {
	if a == nil {
		return 0
	}
	return len(a.buf)
}

// Release returns the region to the backing store. Calling it again is a
// no-op, and the arena allocates nothing afterwards.
func (a *Arena) Release() error {
	if a == nil || a.buf == nil {
		return nil
	}
	var err error
	if a.release != nil {
		err = a.release()
	}
	a.buf, a.release = nil, nil
	a.current = 0
	return err
}

// Compile-time interface check
var _ mem.Allocator = (*Arena)(nil)
