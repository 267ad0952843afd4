package flist

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// TestScenarioPoolChurn: a single 6000 byte pool serves 500 word-sized
// requests when every fourth one is freed right away.
func TestScenarioPoolChurn(t *testing.T) {
	p := newTestPool(t, 6000, nil)

	for i := range 500 {
		ptr, err := p.Allocate(8)
		require.NoError(t, err, "allocation %d", i)
		*(*int64)(ptr) = int64(i)
		if i%4 == 0 {
			require.True(t, p.Free(ptr))
		}
	}

	st := p.Stats()
	require.Equal(t, 375, st.Live)
	require.Zero(t, st.Exhausted)
	require.NoError(t, p.Verify())
}

// TestScenarioChainChurn: a 200 byte allocator serves 2000 word-sized
// requests, freeing every eleventh, by growing the chain.
func TestScenarioChainChurn(t *testing.T) {
	for _, bk := range backings {
		t.Run(bk.name, func(t *testing.T) {
			a := newTestAllocator(t, 200, &Options{Backing: bk.kind})

			live := make([]unsafe.Pointer, 0, 2000)
			for i := range 2000 {
				ptr := a.Allocate(8)
				require.NotNil(t, ptr, "allocation %d", i)
				*(*int64)(ptr) = int64(i)
				if i%11 == 0 {
					a.Free(ptr)
					continue
				}
				live = append(live, ptr)
			}

			require.Greater(t, a.Pools(), 1)
			require.Equal(t, len(live), a.Stats().Live)

			// Nothing was overwritten.
			want := int64(1)
			for _, ptr := range live {
				for want%11 == 0 {
					want++
				}
				require.Equal(t, want, *(*int64)(ptr))
				want++
			}
			require.NoError(t, a.Verify())
		})
	}
}

// TestScenarioOversizedRequest: a 10 byte pool cannot serve 100 bytes, an
// allocator starting from the same size can.
func TestScenarioOversizedRequest(t *testing.T) {
	p := newTestPool(t, 10, nil)
	ptr, err := p.Allocate(100)
	require.ErrorIs(t, err, ErrExhausted)
	require.Nil(t, ptr)

	a := newTestAllocator(t, 10, nil)
	ptr = a.Allocate(100)
	require.NotNil(t, ptr)
	require.Equal(t, 2, a.Pools())
	require.GreaterOrEqual(t, a.Capacity(ptr), 100)
}
