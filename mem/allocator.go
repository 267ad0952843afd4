// Package mem defines the allocator capability shared by the pool engine and
// the containers layered on top of it.
//
// Any component that wants to source its storage from a specific allocator
// (a free-list chain, an arena, or the Go heap) accepts a mem.Allocator and
// calls through it instead of hard-coding make/new. The capability carries no
// ownership: memory obtained from Allocate is released with Free on the same
// allocator.
//
// Allocate(0) is not guaranteed to return a usable pointer and callers must
// not rely on it. Free(nil) is always a no-op.
package mem

import (
	"math"
	"sync"
	"unsafe"
)

// Allocator is the allocate/free capability.
type Allocator interface {
	// Allocate returns at least size bytes of word-aligned memory, or nil
	// when the request cannot be satisfied.
	Allocate(size int) unsafe.Pointer

	// Free returns memory previously obtained from Allocate. Nil and
	// foreign pointers are ignored.
	Free(ptr unsafe.Pointer)
}

// Funcs is the capability as a plain value: two entry points bound to a
// particular allocator instance. The zero value allocates nothing.
type Funcs struct {
	AllocateFunc func(size int) unsafe.Pointer
	FreeFunc     func(ptr unsafe.Pointer)
}

// Allocate implements Allocator.
func (f Funcs) Allocate(size int) unsafe.Pointer {
	if f.AllocateFunc == nil {
		return nil
	}
	return f.AllocateFunc(size)
}

// Free implements Allocator.
func (f Funcs) Free(ptr unsafe.Pointer) {
	if ptr == nil || f.FreeFunc == nil {
		return
	}
	f.FreeFunc(ptr)
}

// Bind captures a's entry points as a Funcs value.
func Bind(a Allocator) Funcs {
	if a == nil {
		return Funcs{}
	}
	if f, ok := a.(Funcs); ok {
		return f
	}
	return Funcs{AllocateFunc: a.Allocate, FreeFunc: a.Free}
}

// Bytes views n bytes starting at ptr as a slice. The slice aliases the
// allocation and is only valid until it is freed.
func Bytes(ptr unsafe.Pointer, n int) []byte {
	if ptr == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), n)
}

// Default is the platform default allocator backed by the Go heap.
var Default Allocator = NewGoAllocator()

// GoAllocator serves requests from the Go heap. Allocations are pinned in a
// table until freed so the garbage collector does not reclaim memory still
// reachable only through unsafe pointers. It is safe for concurrent use.
type GoAllocator struct {
	mu   sync.Mutex
	live map[uintptr][]uint64
}

// NewGoAllocator returns an empty GoAllocator.
func NewGoAllocator() *GoAllocator {
	return &GoAllocator{live: make(map[uintptr][]uint64)}
}

// Allocate implements Allocator. It returns nil for requests the runtime
// cannot satisfy.
func (g *GoAllocator) Allocate(size int) unsafe.Pointer {
	if size <= 0 {
		size = 1
	}
	if size > math.MaxInt-7 {
		return nil
	}
	words := makeWords((size + 7) / 8)
	if words == nil {
		return nil
	}
	ptr := unsafe.Pointer(&words[0])

	g.mu.Lock()
	g.live[uintptr(ptr)] = words
	g.mu.Unlock()
	return ptr
}

// makeWords returns n zeroed words, or nil when make rejects the length.
// []uint64 backing keeps every allocation word aligned.
func makeWords(n int) (words []uint64) {
	defer func() {
		if recover() != nil {
			words = nil
		}
	}()
	return make([]uint64, n)
}

// Free implements Allocator.
func (g *GoAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	g.mu.Lock()
	delete(g.live, uintptr(ptr))
	g.mu.Unlock()
}

// Live returns the number of allocations not yet freed.
func (g *GoAllocator) Live() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.live)
}

// Compile-time interface checks
var (
	_ Allocator = Funcs{}
	_ Allocator = (*GoAllocator)(nil)
)
