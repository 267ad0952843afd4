// Package flist provides a segmented free-list allocator for raw memory.
//
// # Overview
//
// Memory is handed out from pools: fixed-size regions obtained once from the
// backing store and never moved. Each pool threads its free blocks into an
// intrusive singly linked list stored inside the region itself, so the
// allocator needs no side tables. An Allocator chains pools together and
// appends a new pool whenever none of the existing ones can serve a request.
//
// # Block Layout
//
// Every block starts with a one-word header holding its usable size:
//
//	Occupied:  | size | payload ...           |
//	Free:      | size | next | unused ...     |
//
// The next word of a free block overlaps the first payload word and holds the
// region offset of the following free block. Pointers returned to callers
// point just past the size word and are always word aligned.
//
// # Allocation
//
// Pool.Allocate scans the free list first-fit, in list order. When the matched
// block has more than two words of slack the tail is split off as a new free
// block linked in the matched block's place; otherwise the whole block is
// handed out. Pool.Free pushes the block on the head of the list in O(1), so
// a free immediately followed by an allocation of the same size reuses it.
//
// Adjacent free blocks are never merged. Fragmentation grows with churn and
// shows up in Stats.Fragmentation.
//
// # Usage Example
//
//	a, err := flist.New(64<<10, nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Destroy()
//
//	p := a.Allocate(128)
//	if p == nil {
//	    return flist.ErrOutOfMemory
//	}
//	b := mem.Bytes(p, 128)
//	copy(b, payload)
//
//	a.Free(p)
//
// Through the capability interface a collaborator can source its storage
// from the chain:
//
//	v := vec.New[int64](a)
//	_ = v.Push(42)
//
// # Pointer Validation
//
// Free accepts any non-nil, word-aligned pointer that lies within a pool's
// payload range. It cannot tell a live allocation from an arbitrary interior
// address; freeing such a pointer corrupts the pool's free list (Verify will
// report it) but never writes outside the region. Pointers owned by no pool
// are ignored; FreeChecked reports them as ErrInvalidPointer.
//
// # Thread Safety
//
// Pools and Allocators are not safe for concurrent use. Callers needing
// concurrency must serialize access or use one Allocator per goroutine.
//
// # Memory Backing
//
// By default regions are anonymous OS mappings, outside the Go heap: they are
// not scanned by the garbage collector and must never hold Go pointers.
// Options.Backing selects Go heap slices instead.
package flist
