package flist

import (
	"testing"
	"unsafe"
)

func BenchmarkPoolAllocateFree(b *testing.B) {
	p := newTestPool(b, 1<<20, nil)
	b.ReportAllocs()
	for b.Loop() {
		ptr, err := p.Allocate(64)
		if err != nil {
			b.Fatal(err)
		}
		p.Free(ptr)
	}
}

func BenchmarkAllocatorChurn(b *testing.B) {
	for _, bk := range backings {
		b.Run(bk.name, func(b *testing.B) {
			a := newTestAllocator(b, 64<<10, &Options{Backing: bk.kind})
			ring := make([]unsafe.Pointer, 256)
			b.ReportAllocs()
			i := 0
			for b.Loop() {
				slot := i % len(ring)
				if ring[slot] != nil {
					a.Free(ring[slot])
				}
				ring[slot] = a.Allocate(16 + (i%7)*8)
				i++
			}
		})
	}
}

func BenchmarkAllocatorGrow(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		a, err := New(4096, &Options{Backing: BackingHeap})
		if err != nil {
			b.Fatal(err)
		}
		for range 1024 {
			a.Allocate(64)
		}
		a.Destroy()
	}
}
