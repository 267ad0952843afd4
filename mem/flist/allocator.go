package flist

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/mem"
)

// Allocator chains pools together. Requests go to each pool in chain order;
// when every pool is exhausted a new pool large enough for the request is
// appended. Pools are never moved or released before Destroy, so a pointer
// stays valid until it is freed.
//
// An Allocator is not safe for concurrent use.
type Allocator struct {
	pool *Pool // head of the chain
	tail *Pool
	n    int

	bytes int64 // region bytes held by the chain
	grows int

	opts Options
	log  *slog.Logger
}

// New creates an allocator whose chain starts with a single pool able to hold
// an allocation of initialPoolSize bytes. Construction fails without side
// effects when that pool cannot be created.
//
// Parameters:
//   - initialPoolSize: capacity of the first pool, must be positive
//   - opts: growth and backing configuration (use nil for defaults)
func New(initialPoolSize int, opts *Options) (*Allocator, error) {
	if initialPoolSize <= 0 {
		return nil, ErrZeroSize
	}
	o := opts.withDefaults(initialPoolSize)

	a := &Allocator{opts: o, log: o.Logger}
	p, err := a.newPool(initialPoolSize)
	if err != nil {
		return nil, err
	}
	a.pool, a.tail, a.n = p, p, 1
	a.logger().Debug("flist: allocator created",
		"initial", initialPoolSize, "backing", o.Backing.String())
	return a, nil
}

// Alloc returns a pointer to at least size word-aligned bytes, growing the
// chain when no pool can serve the request. It fails with ErrOutOfMemory when
// the new pool cannot be created and with ErrDestroyed after Destroy.
func (a *Allocator) Alloc(size int) (unsafe.Pointer, error) {
	if a == nil || a.pool == nil {
		return nil, ErrDestroyed
	}
	for p := a.pool; p != nil; p = p.next {
		ptr, err := p.Allocate(size)
		if err == nil {
			return ptr, nil
		}
	}

	p, err := a.grow(size)
	if err != nil {
		return nil, err
	}
	ptr, err := p.Allocate(size)
	if err != nil {
		// A fresh pool is sized for the request, so this is a sizing bug.
		return nil, fmt.Errorf("%w: new pool of %d bytes rejected %d byte request",
			ErrOutOfMemory, p.Size(), size)
	}
	return ptr, nil
}

// Allocate implements mem.Allocator. It returns nil only when growth fails.
func (a *Allocator) Allocate(size int) unsafe.Pointer {
	ptr, err := a.Alloc(size)
	if err != nil {
		if a != nil {
			a.logger().Debug("flist: allocation failed", "size", size, "err", err)
		}
		return nil
	}
	return ptr
}

// grow appends a pool of at least size bytes to the chain.
func (a *Allocator) grow(size int) (*Pool, error) {
	capacity := format.PayloadSize(size)
	if size > capacity {
		// Rounding wrapped around.
		return nil, fmt.Errorf("%w: request of %d bytes overflows", ErrOutOfMemory, size)
	}
	capacity = max(capacity, a.opts.MinPoolSize)

	p, err := a.newPool(capacity)
	if err != nil {
		a.logger().Debug("flist: grow failed", "size", size, "pools", a.n, "err", err)
		return nil, err
	}
	a.tail.next = p
	a.tail = p
	a.n++
	a.grows++
	a.logger().Debug("flist: pool added",
		"size", size, "capacity", p.Size(), "pools", a.n, "bytes", a.bytes)
	return p, nil
}

// newPool creates a pool and charges it against MaxBytes.
func (a *Allocator) newPool(capacity int) (*Pool, error) {
	if limit := a.opts.MaxBytes; limit > 0 {
		need := int64(capacity) + int64(format.OccupiedHeaderSize)
		if need < 0 || a.bytes+need > limit {
			return nil, fmt.Errorf("%w: pool of %d bytes exceeds limit %d (held %d)",
				ErrOutOfMemory, capacity, limit, a.bytes)
		}
	}
	p, err := newPool(capacity, a.opts)
	if err != nil {
		return nil, err
	}
	a.bytes += int64(len(p.region))
	return p, nil
}

// logger returns the configured logger, or the process-wide one when none
// was set. It is resolved per record so a later logger.Init takes effect.
func (a *Allocator) logger() *slog.Logger {
	return logger.Or(a.log)
}

// Free returns ptr to the pool that owns it. Nil pointers and pointers owned
// by no pool are ignored.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if a == nil || ptr == nil {
		return
	}
	if a.free(ptr) {
		return
	}
	a.logger().Debug("flist: ignoring foreign pointer", "ptr", fmt.Sprintf("%#x", uintptr(ptr)))
}

// FreeChecked is Free with a diagnosis: it returns ErrInvalidPointer when no
// pool accepts a non-nil ptr. Its effect on the allocator is identical.
func (a *Allocator) FreeChecked(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	if a == nil || a.pool == nil {
		return ErrDestroyed
	}
	if !a.free(ptr) {
		return fmt.Errorf("%w: %#x", ErrInvalidPointer, uintptr(ptr))
	}
	return nil
}

func (a *Allocator) free(ptr unsafe.Pointer) bool {
	for p := a.pool; p != nil; p = p.next {
		if p.Free(ptr) {
			return true
		}
	}
	return false
}

// Owns reports whether some pool of the chain would accept ptr.
func (a *Allocator) Owns(ptr unsafe.Pointer) bool {
	return a.owner(ptr) != nil
}

func (a *Allocator) owner(ptr unsafe.Pointer) *Pool {
	if a == nil {
		return nil
	}
	for p := a.pool; p != nil; p = p.next {
		if p.CheckPtr(ptr) {
			return p
		}
	}
	return nil
}

// Capacity returns the usable size of the allocation at ptr, or 0 for
// pointers the allocator does not own.
func (a *Allocator) Capacity(ptr unsafe.Pointer) int {
	p := a.owner(ptr)
	if p == nil {
		return 0
	}
	return p.Capacity(ptr)
}

// Pools returns the number of pools in the chain.
func (a *Allocator) Pools() int {
	if a == nil {
		return 0
	}
	return a.n
}

// Stats aggregates statistics over the chain.
func (a *Allocator) Stats() Stats {
	var st Stats
	if a == nil {
		return st
	}
	for p := a.pool; p != nil; p = p.next {
		st.add(p.Stats())
	}
	st.Grows = a.grows
	return st
}

// Each calls fn for every pool in chain order until fn returns false.
func (a *Allocator) Each(fn func(i int, p *Pool) bool) {
	if a == nil {
		return
	}
	i := 0
	for p := a.pool; p != nil; p = p.next {
		if !fn(i, p) {
			return
		}
		i++
	}
}

// Destroy releases every pool in the chain and leaves the allocator empty.
// It is safe to call on a destroyed, zero-value or nil allocator. Every
// pointer obtained from the allocator becomes invalid.
func (a *Allocator) Destroy() {
	if a == nil || a.pool == nil {
		return
	}
	var errs []error
	for p := a.pool; p != nil; {
		next := p.next
		if err := p.Release(); err != nil {
			errs = append(errs, err)
		}
		p.next = nil
		p = next
	}
	pools := a.n
	a.pool, a.tail = nil, nil
	a.n, a.grows, a.bytes = 0, 0, 0
	if err := errors.Join(errs...); err != nil {
		a.logger().Warn("flist: releasing pools", "err", err)
	}
	a.logger().Debug("flist: allocator destroyed", "pools", pools)
}

// Compile-time interface check
var _ mem.Allocator = (*Allocator)(nil)
