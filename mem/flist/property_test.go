package flist

import (
	"math/rand/v2"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/poolkit/internal/format"
)

// TestPropertySizeMonotonic: every allocation is at least as large as
// requested and word aligned, both in address and in capacity.
func TestPropertySizeMonotonic(t *testing.T) {
	a := newTestAllocator(t, 4096, nil)
	rng := rand.New(rand.NewPCG(1, 2))

	for i := range 2000 {
		n := rng.IntN(300)
		ptr := a.Allocate(n)
		require.NotNil(t, ptr, "allocation %d of %d bytes", i, n)

		c := a.Capacity(ptr)
		require.GreaterOrEqual(t, c, n)
		require.Zero(t, c%format.WordSize, "capacity %d not word aligned", c)
		require.True(t, format.IsAligned(uintptr(ptr)))
	}
}

// TestPropertyNoOverlap: live allocations never share bytes, and their
// contents survive arbitrary interleaved churn.
func TestPropertyNoOverlap(t *testing.T) {
	for _, bk := range backings {
		t.Run(bk.name, func(t *testing.T) {
			a := newTestAllocator(t, 2048, &Options{Backing: bk.kind, Poison: true})
			rng := rand.New(rand.NewPCG(7, 11))

			type alloc struct {
				ptr  unsafe.Pointer
				size int
				id   int
			}
			var live []alloc

			for step := range 3000 {
				if len(live) > 0 && rng.IntN(3) == 0 {
					k := rng.IntN(len(live))
					v := live[k]
					requireFilled(t, v.ptr, v.size, v.id)
					a.Free(v.ptr)
					live[k] = live[len(live)-1]
					live = live[:len(live)-1]
					continue
				}

				size := 1 + rng.IntN(200)
				ptr := a.Allocate(size)
				require.NotNil(t, ptr)

				s := span{uintptr(ptr), uintptr(ptr) + uintptr(size)}
				for _, v := range live {
					o := span{uintptr(v.ptr), uintptr(v.ptr) + uintptr(v.size)}
					require.False(t, s.overlaps(o), "step %d: %#x+%d overlaps %#x+%d",
						step, s.lo, size, o.lo, v.size)
				}
				fill(ptr, size, step)
				live = append(live, alloc{ptr, size, step})
			}

			for _, v := range live {
				requireFilled(t, v.ptr, v.size, v.id)
			}
			require.NoError(t, a.Verify())
			require.Equal(t, len(live), a.Stats().Live)
		})
	}
}

// TestPropertyFreeThenReallocate: freeing a block and immediately asking for
// the same size returns memory inside the freed block.
func TestPropertyFreeThenReallocate(t *testing.T) {
	p := newTestPool(t, 4096, nil)

	var keep []unsafe.Pointer
	for _, size := range []int{8, 24, 100, 512, 1} {
		ptr, err := p.Allocate(size)
		require.NoError(t, err)
		keep = append(keep, ptr)

		c := p.Capacity(ptr)
		require.True(t, p.Free(ptr))

		again, err := p.Allocate(size)
		require.NoError(t, err)
		lo, hi := uintptr(ptr), uintptr(ptr)+uintptr(c)
		require.True(t, uintptr(again) >= lo && uintptr(again) < hi,
			"size %d: reallocation at %#x outside freed [%#x,%#x)", size, uintptr(again), lo, hi)
		keep = append(keep, again)
	}
	require.NoError(t, p.Verify())
}

// TestPropertyOwnershipScoping: a pointer from one pool is never accepted by
// another, even when the regions are neighbours.
func TestPropertyOwnershipScoping(t *testing.T) {
	// Heap regions carved from one backing slab are exactly adjacent.
	slab := make([]byte, 2*(64+format.OccupiedHeaderSize))
	half := len(slab) / 2
	pa := adoptRegion(t, slab[:half:half])
	pb := adoptRegion(t, slab[half:])
	require.Equal(t, pa.start+uintptr(half), pb.start, "regions must be adjacent")

	ptrA, err := pa.Allocate(64)
	require.NoError(t, err)
	ptrB, err := pb.Allocate(64)
	require.NoError(t, err)

	require.True(t, pa.CheckPtr(ptrA))
	require.True(t, pb.CheckPtr(ptrB))
	require.False(t, pb.CheckPtr(ptrA))
	require.False(t, pa.CheckPtr(ptrB))
	require.False(t, pb.Free(ptrA))
	require.False(t, pa.Free(ptrB))

	// The first byte of B is A's past-the-end address: never A's.
	require.False(t, pa.CheckPtr(unsafe.Pointer(&slab[half])))

	// Through an allocator: pools in one chain each keep their own pointers.
	a := newTestAllocator(t, 32, nil)
	p1 := a.Allocate(32)
	p2 := a.Allocate(32)
	var pools []*Pool
	a.Each(func(_ int, p *Pool) bool {
		pools = append(pools, p)
		return true
	})
	require.Len(t, pools, 2)
	require.True(t, pools[0].CheckPtr(p1))
	require.False(t, pools[0].CheckPtr(p2))
	require.True(t, pools[1].CheckPtr(p2))
	require.False(t, pools[1].CheckPtr(p1))
}

// adoptRegion builds a pool over caller-supplied memory laid out the way
// newPool lays out a fresh region.
func adoptRegion(t *testing.T, data []byte) *Pool {
	t.Helper()
	size := len(data) - format.OccupiedHeaderSize
	p := &Pool{region: data, size: size}
	p.start = uintptr(unsafe.Pointer(&data[0]))
	p.end = p.start + uintptr(len(data)-format.WordSize)
	format.PutBlockSize(data, 0, size)
	format.PutNextLink(data, 0, format.NilLink)
	require.NoError(t, p.Verify())
	return p
}

// TestPropertyGrowthLiveness: a tiny initial pool never causes a spurious
// out of memory.
func TestPropertyGrowthLiveness(t *testing.T) {
	a := newTestAllocator(t, 16, nil)

	ptr, err := a.Alloc(1_000_000)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.Greater(t, a.Pools(), 1)

	// Small requests after the big one still succeed.
	for range 100 {
		require.NotNil(t, a.Allocate(16))
	}
}

// TestPropertyIdempotentTeardown: repeated Destroy and Free(nil) are safe.
func TestPropertyIdempotentTeardown(t *testing.T) {
	a, err := New(128, nil)
	require.NoError(t, err)
	for range 10 {
		require.NotNil(t, a.Allocate(64))
	}

	a.Free(nil)
	a.Destroy()
	a.Destroy()
	a.Free(nil)
	require.Zero(t, a.Pools())
}

// TestPropertyStressVerify interleaves random operations with full
// structural verification.
func TestPropertyStressVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	a := newTestAllocator(t, 1024, nil)
	rng := rand.New(rand.NewPCG(42, 42))

	var live []unsafe.Pointer
	for step := range 5000 {
		if len(live) > 0 && rng.IntN(2) == 0 {
			k := rng.IntN(len(live))
			require.NoError(t, a.FreeChecked(live[k]))
			live = append(live[:k], live[k+1:]...)
		} else {
			ptr := a.Allocate(rng.IntN(128))
			require.NotNil(t, ptr)
			live = append(live, ptr)
		}
		if step%250 == 0 {
			require.NoError(t, a.Verify(), "step %d", step)
		}
	}
	require.NoError(t, a.Verify())
	require.Equal(t, len(live), a.Stats().Live)
}
