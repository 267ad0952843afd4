// Package scratch provides a reusable byte buffer for building short-lived
// text, with storage sourced from a mem.Allocator.
//
// A Buffer is meant to be cleared and refilled: formatting a log line, an
// identifier or a report row, then copying the result out with String.
package scratch

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/buf"
	"github.com/joshuapare/poolkit/mem"
)

// DefaultCapacity is the capacity used when New is given a non-positive one.
const DefaultCapacity = 64

// ErrNoMemory indicates the allocator returned nil while growing.
var ErrNoMemory = errors.New("scratch: out of memory")

// Buffer is an append-only byte buffer. It is not safe for concurrent use.
type Buffer struct {
	alloc mem.Allocator
	data  unsafe.Pointer
	len   int
	cap   int
}

// New allocates a buffer with room for capacity bytes from a. A nil
// allocator means mem.Default.
func New(a mem.Allocator, capacity int) (*Buffer, error) {
	if a == nil {
		a = mem.Default
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Buffer{alloc: a}
	if err := b.grow(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return b.len }

// Cap returns the capacity of the current storage.
func (b *Buffer) Cap() int { return b.cap }

// Bytes returns the contents, aliasing the buffer's storage. The slice is
// invalidated by the next write that grows the buffer, and by Release.
func (b *Buffer) Bytes() []byte {
	return mem.Bytes(b.data, b.cap)[:b.len:b.len]
}

// String returns a copy of the contents.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.reserve(len(p)); err != nil {
		return 0, err
	}
	b.len += copy(mem.Bytes(b.data, b.cap)[b.len:], p)
	return len(p), nil
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) (int, error) {
	if err := b.reserve(len(s)); err != nil {
		return 0, err
	}
	b.len += copy(mem.Bytes(b.data, b.cap)[b.len:], s)
	return len(s), nil
}

// WriteByte appends c.
func (b *Buffer) WriteByte(c byte) error {
	if err := b.reserve(1); err != nil {
		return err
	}
	mem.Bytes(b.data, b.cap)[b.len] = c
	b.len++
	return nil
}

// Printf appends the formatted text.
func (b *Buffer) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(b, format, args...)
	return err
}

// Pop drops the last n bytes. It drops everything when n exceeds Len.
func (b *Buffer) Pop(n int) {
	if n <= 0 {
		return
	}
	b.len = max(b.len-n, 0)
}

// Clear empties the buffer and keeps its storage.
func (b *Buffer) Clear() {
	b.len = 0
}

// Release returns the storage to the allocator. A released buffer allocates
// again on the next write.
func (b *Buffer) Release() {
	if b.data != nil {
		b.alloc.Free(b.data)
	}
	b.data, b.len, b.cap = nil, 0, 0
}

// reserve makes room for n more bytes, doubling the capacity as needed.
func (b *Buffer) reserve(n int) error {
	need, ok := buf.AddOverflowSafe(b.len, n)
	if !ok {
		return ErrNoMemory
	}
	if need <= b.cap {
		return nil
	}
	c := max(b.cap, DefaultCapacity)
	for c < need {
		if c > math.MaxInt/2 {
			c = need
			break
		}
		c *= 2
	}
	return b.grow(c)
}

// grow moves the contents into new storage of n bytes and frees the old one.
func (b *Buffer) grow(n int) error {
	data := b.alloc.Allocate(n)
	if data == nil {
		return ErrNoMemory
	}
	if b.len > 0 {
		copy(mem.Bytes(data, n), b.Bytes())
	}
	if b.data != nil {
		b.alloc.Free(b.data)
	}
	b.data, b.cap = data, n
	return nil
}
