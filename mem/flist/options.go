package flist

import (
	"log/slog"

	"github.com/joshuapare/poolkit/internal/region"
)

// Backing selects where pool regions come from.
type Backing = region.Kind

const (
	// BackingMapped places pools in anonymous OS mappings outside the Go heap.
	BackingMapped Backing = region.Mapped
	// BackingHeap places pools in Go byte slices.
	BackingHeap Backing = region.Heap
)

// poisonByte overwrites freed payloads when Options.Poison is set.
const poisonByte = 0xFF

// Options configures pools and allocators. A nil *Options means defaults.
type Options struct {
	// MinPoolSize is the smallest capacity of a pool added on demand.
	// Zero means the allocator's initial pool size.
	MinPoolSize int

	// MaxBytes caps the region bytes held by the whole chain. Growth past it
	// fails with ErrOutOfMemory. Zero means unlimited.
	MaxBytes int64

	// Backing selects the region source. Default: BackingMapped.
	Backing Backing

	// Poison fills freed payloads (past the free-list link) with 0xFF so
	// use-after-free reads are visible.
	Poison bool

	// Logger receives debug records for growth, rejected frees and teardown.
	// Nil uses the process-wide logger current at the time of each record.
	Logger *slog.Logger
}

// withDefaults returns a copy of o with defaults applied; o may be nil.
func (o *Options) withDefaults(initial int) Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.MinPoolSize <= 0 {
		out.MinPoolSize = initial
	}
	if out.MaxBytes < 0 {
		out.MaxBytes = 0
	}
	return out
}
