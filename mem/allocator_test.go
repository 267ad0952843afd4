package mem

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestGoAllocatorAllocateFree(t *testing.T) {
	g := NewGoAllocator()

	p := g.Allocate(24)
	require.NotNil(t, p)
	require.Zero(t, uintptr(p)%8, "allocation must be word aligned")
	require.Equal(t, 1, g.Live())

	b := Bytes(p, 24)
	for i := range b {
		b[i] = byte(i)
	}
	require.Equal(t, byte(23), b[23])

	g.Free(p)
	require.Zero(t, g.Live())

	g.Free(nil)
	g.Free(p) // double free of a forgotten pointer is ignored
	require.Zero(t, g.Live())
}

func TestGoAllocatorZeroSize(t *testing.T) {
	g := NewGoAllocator()
	p := g.Allocate(0)
	require.NotNil(t, p)
	g.Free(p)
}

func TestGoAllocatorOversized(t *testing.T) {
	g := NewGoAllocator()
	for _, size := range []int{math.MaxInt, math.MaxInt - 7, math.MaxInt / 2} {
		require.NotPanics(t, func() {
			require.Nil(t, g.Allocate(size), "size %d", size)
		})
	}
	require.Zero(t, g.Live())

	require.Nil(t, Default.Allocate(math.MaxInt))
}

func TestFuncsZeroValue(t *testing.T) {
	var f Funcs
	require.Nil(t, f.Allocate(16))
	f.Free(nil)
	f.Free(unsafe.Pointer(&struct{ x int }{}))
}

func TestBindRoutesCalls(t *testing.T) {
	g := NewGoAllocator()
	f := Bind(g)

	p := f.Allocate(8)
	require.NotNil(t, p)
	require.Equal(t, 1, g.Live())

	f.Free(nil)
	require.Equal(t, 1, g.Live(), "Free(nil) must not reach the allocator")

	f.Free(p)
	require.Zero(t, g.Live())
}

func TestBindFuncsAndNil(t *testing.T) {
	calls := 0
	orig := Funcs{
		AllocateFunc: func(int) unsafe.Pointer { calls++; return nil },
		FreeFunc:     func(unsafe.Pointer) { calls++ },
	}
	bound := Bind(orig)
	bound.Allocate(1)
	require.Equal(t, 1, calls)

	none := Bind(nil)
	require.Nil(t, none.AllocateFunc)
	require.Nil(t, none.Allocate(8))
}

func TestBytesEdgeCases(t *testing.T) {
	require.Nil(t, Bytes(nil, 8))
	var x uint64
	require.Nil(t, Bytes(unsafe.Pointer(&x), 0))
	require.Len(t, Bytes(unsafe.Pointer(&x), 8), 8)
}
