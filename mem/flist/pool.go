package flist

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/buf"
	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/region"
)

// Pool is one contiguous region carved into blocks, with an intrusive
// singly linked list threading its free blocks.
//
// Every byte of the region belongs to exactly one block. A block at offset
// off spans format.OccupiedHeaderSize+size bytes; free blocks additionally
// keep the offset of the next free block in their first payload word. The
// list is ordered by insertion, not by address, and adjacent free blocks are
// never merged.
type Pool struct {
	next *Pool // next pool in the owning allocator's chain

	// head is the region offset of the first free block, format.NilLink when
	// the pool has no free block.
	head int

	region  []byte
	release func() error
	start   uintptr // address of region[0]
	end     uintptr // last word-aligned address inside the region
	size    int     // usable bytes: the aligned construction capacity
	poison  bool

	stats poolCounters
}

// poolCounters are monotonic per-pool counters.
type poolCounters struct {
	allocCalls int
	exhausted  int
	freeCalls  int
	splits     int
	live       int
	liveBytes  int
}

// NewPool creates a standalone pool able to hold an allocation of capacity
// bytes. The region is zeroed and starts as a single free block of
// format.PayloadSize(capacity) bytes.
func NewPool(capacity int, opts *Options) (*Pool, error) {
	if capacity <= 0 {
		return nil, ErrZeroSize
	}
	return newPool(capacity, opts.withDefaults(capacity))
}

func newPool(capacity int, o Options) (*Pool, error) {
	if capacity > math.MaxInt-format.WordMask {
		return nil, fmt.Errorf("%w: pool of %d bytes overflows", ErrOutOfMemory, capacity)
	}
	size := format.PayloadSize(capacity)
	total, ok := buf.AddOverflowSafe(size, format.OccupiedHeaderSize)
	if !ok {
		return nil, fmt.Errorf("%w: pool of %d bytes overflows", ErrOutOfMemory, capacity)
	}

	data, release, err := region.Alloc(total, o.Backing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	p := &Pool{
		head:    0,
		region:  data,
		release: release,
		size:    size,
		poison:  o.Poison,
	}
	p.start = uintptr(unsafe.Pointer(&data[0]))
	p.end = p.start + uintptr(total-format.WordSize)

	format.PutBlockSize(data, 0, size)
	format.PutNextLink(data, 0, format.NilLink)
	return p, nil
}

// Allocate returns a word-aligned pointer to at least size bytes, or
// ErrExhausted when no free block is large enough. A size of zero is served
// as one word.
//
// The free list is searched first-fit in list order. A block with more than
// format.FreeHeaderSize bytes of slack is split and the tail stays on the
// list in the block's place; otherwise the whole block, slack included, is
// handed out.
func (p *Pool) Allocate(size int) (unsafe.Pointer, error) {
	if p.released() {
		return nil, ErrDestroyed
	}
	p.stats.allocCalls++
	if size > p.size {
		p.stats.exhausted++
		return nil, ErrExhausted
	}
	size = format.PayloadSize(size)

	prev, curr := format.NilLink, p.head
	for curr != format.NilLink && format.BlockSize(p.region, curr) < size {
		prev, curr = curr, format.NextLink(p.region, curr)
	}
	if curr == format.NilLink {
		p.stats.exhausted++
		return nil, ErrExhausted
	}

	blockSize := format.BlockSize(p.region, curr)
	next := format.NextLink(p.region, curr)
	if blockSize > size+format.FreeHeaderSize {
		rest := format.PayloadOffset(curr) + size
		format.PutBlockSize(p.region, rest, blockSize-size-format.OccupiedHeaderSize)
		format.PutNextLink(p.region, rest, next)
		p.relink(prev, rest)
		p.stats.splits++
	} else {
		p.relink(prev, next)
		size = blockSize
	}
	format.PutBlockSize(p.region, curr, size)

	p.stats.live++
	p.stats.liveBytes += size
	return unsafe.Pointer(&p.region[format.PayloadOffset(curr)]), nil
}

// relink points prev's link (or the list head when prev is NilLink) at off.
func (p *Pool) relink(prev, off int) {
	if prev == format.NilLink {
		p.head = off
		return
	}
	format.PutNextLink(p.region, prev, off)
}

// CheckPtr reports whether ptr is non-nil, word aligned and inside the range
// of payload addresses this pool can hand out. It does not prove ptr came
// from Allocate: an in-range aligned pointer that is not a live allocation
// corrupts the free list when freed.
func (p *Pool) CheckPtr(ptr unsafe.Pointer) bool {
	if ptr == nil || p.region == nil {
		return false
	}
	addr := uintptr(ptr)
	return format.IsAligned(addr) &&
		p.start+uintptr(format.OccupiedHeaderSize) <= addr &&
		addr <= p.end
}

// Contains reports whether ptr falls anywhere inside the pool's region.
func (p *Pool) Contains(ptr unsafe.Pointer) bool {
	if ptr == nil || p.region == nil {
		return false
	}
	addr := uintptr(ptr)
	return p.start <= addr && addr < p.start+uintptr(len(p.region))
}

// Free pushes the block owning ptr onto the head of the free list. It
// returns false, changing nothing, when CheckPtr rejects ptr.
func (p *Pool) Free(ptr unsafe.Pointer) bool {
	if !p.CheckPtr(ptr) {
		return false
	}
	off := format.HeaderOffset(int(uintptr(ptr) - p.start))
	size := format.BlockSize(p.region, off)

	if p.poison {
		buf.Fill(p.region, off+format.FreeHeaderSize, size-format.HeaderWord, poisonByte)
	}
	format.PutNextLink(p.region, off, p.head)
	p.head = off

	p.stats.freeCalls++
	p.stats.live--
	p.stats.liveBytes -= size
	return true
}

// Capacity returns the usable size recorded for the allocation at ptr, or 0
// when ptr is not a pointer this pool could have returned.
func (p *Pool) Capacity(ptr unsafe.Pointer) int {
	if !p.CheckPtr(ptr) {
		return 0
	}
	return format.BlockSize(p.region, format.HeaderOffset(int(uintptr(ptr)-p.start)))
}

// Size returns the usable capacity the pool was constructed with.
func (p *Pool) Size() int {
	return p.size
}

// Release returns the pool's region to the backing store. Pointers handed
// out by the pool become invalid. Calling Release again is a no-op.
func (p *Pool) Release() error {
	if p.released() {
		return nil
	}
	var err error
	if p.release != nil {
		err = p.release()
	}
	p.region, p.release = nil, nil
	p.head = format.NilLink
	p.start, p.end = 0, 0
	return err
}

// released reports whether Release has run.
func (p *Pool) released() bool {
	return p.region == nil
}
