package flist

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/mem"
)

// backings lists the region sources every behavioural test runs against.
var backings = []struct {
	name string
	kind Backing
}{
	{"mapped", BackingMapped},
	{"heap", BackingHeap},
}

// newTestPool creates a pool released at the end of the test.
func newTestPool(t testing.TB, capacity int, opts *Options) *Pool {
	t.Helper()
	p, err := NewPool(capacity, opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Release()) })
	return p
}

// newTestAllocator creates an allocator destroyed at the end of the test.
func newTestAllocator(t testing.TB, initial int, opts *Options) *Allocator {
	t.Helper()
	a, err := New(initial, opts)
	require.NoError(t, err)
	t.Cleanup(a.Destroy)
	return a
}

// offsetOf returns ptr's offset from the start of p's region.
func offsetOf(p *Pool, ptr unsafe.Pointer) int {
	return int(uintptr(ptr) - p.start)
}

// freeList returns the offsets on p's free list in list order.
func freeList(p *Pool) []int {
	var out []int
	for off := p.head; off != format.NilLink; off = format.NextLink(p.region, off) {
		out = append(out, off)
		if len(out) > len(p.region) {
			break
		}
	}
	return out
}

// fill writes a recognisable pattern derived from id over n bytes at ptr.
func fill(ptr unsafe.Pointer, n int, id int) {
	b := mem.Bytes(ptr, n)
	for i := range b {
		b[i] = byte(id + i)
	}
}

// requireFilled checks the pattern written by fill is intact.
func requireFilled(t testing.TB, ptr unsafe.Pointer, n int, id int) {
	t.Helper()
	b := mem.Bytes(ptr, n)
	for i := range b {
		if b[i] != byte(id+i) {
			require.Failf(t, "payload corrupted", "allocation %d: byte %d = %#x, want %#x",
				id, i, b[i], byte(id+i))
		}
	}
}

// span is the half-open address range of one live allocation.
type span struct {
	lo, hi uintptr
}

func (s span) overlaps(o span) bool {
	return s.lo < o.hi && o.lo < s.hi
}
