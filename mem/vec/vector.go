// Package vec provides a growable vector whose storage comes from a
// mem.Allocator, so it can live in a free-list pool, an arena or the Go heap.
//
// Storage handed out by an off-heap allocator is invisible to the garbage
// collector: element types must not contain Go pointers (no pointers,
// slices, strings, maps, interfaces, channels or funcs).
package vec

import (
	"errors"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/buf"
	"github.com/joshuapare/poolkit/mem"
)

// DefaultCapacity is the capacity of the first buffer a vector allocates.
const DefaultCapacity = 8

// ErrNoMemory indicates the allocator returned nil while growing.
var ErrNoMemory = errors.New("vec: out of memory")

// Vector is a growable array of T. The zero value is not usable; create
// vectors with New. A Vector is not safe for concurrent use.
type Vector[T any] struct {
	alloc mem.Allocator
	data  unsafe.Pointer
	len   int
	cap   int
}

// New returns an empty vector that sources storage from a. A nil allocator
// means mem.Default. No memory is allocated until the first Push or Reserve.
func New[T any](a mem.Allocator) *Vector[T] {
	if a == nil {
		a = mem.Default
	}
	return &Vector[T]{alloc: a}
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int { return v.len }

// Cap returns the number of elements the current buffer can hold.
func (v *Vector[T]) Cap() int { return v.cap }

// Items returns the elements as a slice aliasing the vector's buffer. The
// slice is invalidated by the next growth, Release, or Clear followed by
// Push.
func (v *Vector[T]) Items() []T {
	if v.data == nil {
		return nil
	}
	return unsafe.Slice((*T)(v.data), v.cap)[:v.len:v.len]
}

// At returns the i-th element. It panics if i is out of range.
func (v *Vector[T]) At(i int) T {
	return v.Items()[i]
}

// Set replaces the i-th element. It panics if i is out of range.
func (v *Vector[T]) Set(i int, x T) {
	v.Items()[i] = x
}

// Push appends x, doubling the buffer when it is full.
func (v *Vector[T]) Push(x T) error {
	if v.len == v.cap {
		n := DefaultCapacity
		if v.cap > 0 {
			n = v.cap * 2
		}
		if err := v.grow(n); err != nil {
			return err
		}
	}
	unsafe.Slice((*T)(v.data), v.cap)[v.len] = x
	v.len++
	return nil
}

// Pop removes and returns the last element. It reports false on an empty
// vector.
func (v *Vector[T]) Pop() (T, bool) {
	var zero T
	if v.len == 0 {
		return zero, false
	}
	v.len--
	return unsafe.Slice((*T)(v.data), v.cap)[v.len], true
}

// Reserve grows the buffer so it holds at least n elements.
func (v *Vector[T]) Reserve(n int) error {
	if n <= v.cap {
		return nil
	}
	return v.grow(n)
}

// Clear drops every element but keeps the buffer.
func (v *Vector[T]) Clear() {
	v.len = 0
}

// Release returns the buffer to the allocator and empties the vector. The
// vector may be reused afterwards.
func (v *Vector[T]) Release() {
	if v.data != nil {
		v.alloc.Free(v.data)
	}
	v.data, v.len, v.cap = nil, 0, 0
}

// grow moves the elements into a new buffer of n elements and frees the old
// one.
func (v *Vector[T]) grow(n int) error {
	var zero T
	bytes, ok := buf.MulOverflowSafe(n, int(unsafe.Sizeof(zero)))
	if !ok {
		return ErrNoMemory
	}
	data := v.alloc.Allocate(max(bytes, 1))
	if data == nil {
		return ErrNoMemory
	}
	if v.len > 0 {
		copy(unsafe.Slice((*T)(data), n), v.Items())
	}
	if v.data != nil {
		v.alloc.Free(v.data)
	}
	v.data, v.cap = data, n
	return nil
}
