package format

import (
	"fmt"

	"github.com/joshuapare/poolkit/internal/buf"
)

// Block is a decoded view of one block header inside a region. Blocks tile a
// region back to back: a block at Offset spans OccupiedHeaderSize+Size bytes.
type Block struct {
	Offset int    // Offset of the header relative to the region start
	Size   int    // Payload capacity in bytes
	Data   []byte // Payload bytes (alias of the region)
}

// End returns the offset of the byte following this block.
func (b Block) End() int {
	return b.Offset + OccupiedHeaderSize + b.Size
}

// BlockSize returns the size word of the block header at off.
func BlockSize(region []byte, off int) int {
	return int(buf.Word(region, off))
}

// PutBlockSize stores size into the header at off.
func PutBlockSize(region []byte, off, size int) {
	buf.PutWord(region, off, uint64(size))
}

// NextLink returns the free-list link stored in the free block header at off.
func NextLink(region []byte, off int) int {
	w := buf.Word(region, off+HeaderWord)
	if w == nilLinkWord {
		return NilLink
	}
	return int(w)
}

// PutNextLink stores the free-list link of the free block header at off.
func PutNextLink(region []byte, off, next int) {
	w := uint64(next)
	if next == NilLink {
		w = nilLinkWord
	}
	buf.PutWord(region, off+HeaderWord, w)
}

// PayloadOffset returns the payload offset of the block whose header is at off.
func PayloadOffset(off int) int {
	return off + OccupiedHeaderSize
}

// HeaderOffset returns the header offset of the block whose payload is at off.
func HeaderOffset(payload int) int {
	return payload - OccupiedHeaderSize
}

// NextBlock decodes the block at off and returns it with the offset of the
// block that follows it in address order.
func NextBlock(region []byte, off int) (Block, int, error) {
	if !buf.Has(region, off, OccupiedHeaderSize) {
		return Block{}, 0, fmt.Errorf("block at %d: %w", off, ErrTruncated)
	}
	size := BlockSize(region, off)
	if size <= 0 || size%WordSize != 0 {
		return Block{}, 0, fmt.Errorf("block at %d: %w (%d)", off, ErrBadSize, size)
	}
	data, ok := buf.Slice(region, PayloadOffset(off), size)
	if !ok {
		return Block{}, 0, fmt.Errorf("block at %d: %w", off, ErrTruncated)
	}
	b := Block{Offset: off, Size: size, Data: data}
	return b, b.End(), nil
}

// Walk visits every block of region in address order starting at offset 0.
// It stops early when fn returns false. A region whose blocks do not tile it
// exactly yields an error.
func Walk(region []byte, fn func(Block) bool) error {
	off := 0
	for off < len(region) {
		b, next, err := NextBlock(region, off)
		if err != nil {
			return err
		}
		if !fn(b) {
			return nil
		}
		off = next
	}
	return nil
}
