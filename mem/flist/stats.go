package flist

import "github.com/joshuapare/poolkit/internal/format"

// PoolStats describes one pool.
type PoolStats struct {
	Capacity   int // Usable bytes the pool was constructed with
	Region     int // Bytes obtained from the backing store
	FreeBlocks int // Blocks on the free list
	FreeBytes  int // Payload bytes on the free list
	Largest    int // Largest free block
	Live       int // Allocations currently handed out
	LiveBytes  int // Payload bytes currently handed out
	AllocCalls int // Allocate calls, including exhausted ones
	Exhausted  int // Allocate calls that found no fitting block
	FreeCalls  int // Accepted Free calls
	Splits     int // Blocks split during allocation
}

// Stats holds aggregate statistics for an Allocator.
type Stats struct {
	Pools int // Pools in the chain
	Grows int // Pools added after construction

	PoolStats // Sums over every pool; Largest is the chain-wide maximum
}

// Fragmentation returns the share of free bytes that is not in the largest
// free block: 0 when all free space is contiguous, approaching 1 as it
// scatters into many small blocks.
func (s PoolStats) Fragmentation() float64 {
	if s.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(s.Largest)/float64(s.FreeBytes)
}

// Stats walks the free list and returns the pool's statistics.
func (p *Pool) Stats() PoolStats {
	st := PoolStats{
		Capacity:   p.size,
		Region:     len(p.region),
		Live:       p.stats.live,
		LiveBytes:  p.stats.liveBytes,
		AllocCalls: p.stats.allocCalls,
		Exhausted:  p.stats.exhausted,
		FreeCalls:  p.stats.freeCalls,
		Splits:     p.stats.splits,
	}
	if p.region == nil {
		return st
	}
	// Bound the walk so a corrupted (cyclic) list cannot hang the caller.
	limit := len(p.region)/format.FreeHeaderSize + 1
	for off := p.head; off != format.NilLink && limit > 0; off = format.NextLink(p.region, off) {
		size := format.BlockSize(p.region, off)
		st.FreeBlocks++
		st.FreeBytes += size
		if size > st.Largest {
			st.Largest = size
		}
		limit--
	}
	return st
}

// add folds one pool's statistics into the aggregate.
func (s *Stats) add(ps PoolStats) {
	s.Pools++
	s.Capacity += ps.Capacity
	s.Region += ps.Region
	s.FreeBlocks += ps.FreeBlocks
	s.FreeBytes += ps.FreeBytes
	s.Live += ps.Live
	s.LiveBytes += ps.LiveBytes
	s.AllocCalls += ps.AllocCalls
	s.Exhausted += ps.Exhausted
	s.FreeCalls += ps.FreeCalls
	s.Splits += ps.Splits
	if ps.Largest > s.Largest {
		s.Largest = ps.Largest
	}
}
