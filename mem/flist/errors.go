package flist

import "errors"

var (
	// ErrZeroSize indicates a pool or allocator was constructed with a non-positive size.
	ErrZeroSize = errors.New("flist: size must be positive")

	// ErrOutOfMemory indicates the backing store could not supply a new pool.
	ErrOutOfMemory = errors.New("flist: out of memory")

	// ErrExhausted indicates a single pool has no free block large enough.
	// The Allocator consumes it; it never escapes Allocator.Alloc.
	ErrExhausted = errors.New("flist: pool exhausted")

	// ErrInvalidPointer indicates a pointer that no pool of the allocator owns.
	ErrInvalidPointer = errors.New("flist: pointer not owned by allocator")

	// ErrDestroyed indicates use of a released pool or destroyed allocator.
	ErrDestroyed = errors.New("flist: allocator destroyed")

	// ErrCorrupt indicates Verify found a broken block layout or free list.
	ErrCorrupt = errors.New("flist: corrupt pool")
)
