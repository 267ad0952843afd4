package flist

import (
	"fmt"

	"github.com/joshuapare/poolkit/internal/format"
)

// Verify checks the pool's structural invariants:
//
//   - blocks tile the region exactly, with no gap and no overlap
//   - every free-list entry is the start of a block
//   - the free list is acyclic (a double free shows up as a cycle)
//
// Verify cannot tell a live allocation from a free block that fell off the
// list, so it does not detect leaks.
func (p *Pool) Verify() error {
	if p.region == nil {
		return ErrDestroyed
	}

	starts := make(map[int]struct{})
	if err := format.Walk(p.region, func(b format.Block) bool {
		starts[b.Offset] = struct{}{}
		return true
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	seen := make(map[int]struct{})
	for off := p.head; off != format.NilLink; off = format.NextLink(p.region, off) {
		if _, ok := starts[off]; !ok {
			return fmt.Errorf("%w: free list entry %d is not a block start", ErrCorrupt, off)
		}
		if _, dup := seen[off]; dup {
			return fmt.Errorf("%w: free list revisits block %d", ErrCorrupt, off)
		}
		seen[off] = struct{}{}
	}
	return nil
}

// Verify runs Pool.Verify on every pool of the chain.
func (a *Allocator) Verify() error {
	if a == nil || a.pool == nil {
		return ErrDestroyed
	}
	i := 0
	for p := a.pool; p != nil; p = p.next {
		if err := p.Verify(); err != nil {
			return fmt.Errorf("pool %d: %w", i, err)
		}
		i++
	}
	return nil
}
