// Package format describes the in-region layout used by the free-list pools:
// word alignment, block header sizes and the accessors that read and write
// block headers inside a raw region. It holds no allocation policy of its own
// so that the pool engine and the tooling that inspects regions agree on a
// single definition of a block.
package format

import "unsafe"

const (
	// WordSize is the pointer word size of the target platform. Requested
	// sizes and payload addresses are aligned to it.
	WordSize = int(unsafe.Sizeof(uintptr(0)))

	// WordMask is WordSize-1, used for mask-based rounding.
	WordMask = WordSize - 1

	// HeaderWord is the width of one header field. Header fields are always
	// stored as 64-bit words so the layout is identical on 32-bit targets.
	HeaderWord = 8

	// OccupiedHeaderSize is the size of the header preceding every live
	// allocation: a single size word.
	//
	// Layout:
	//
	//	Offset  Size  Description
	//	0x00    8     Payload capacity in bytes (word aligned)
	//	0x08    ...   Payload owned by the caller
	OccupiedHeaderSize = HeaderWord

	// FreeHeaderSize is the size of a free block header: the size word plus
	// the link to the next free block. The link overlaps the first payload
	// word, which is always present because payloads are at least one word.
	//
	// Layout:
	//
	//	Offset  Size  Description
	//	0x00    8     Payload capacity in bytes (word aligned)
	//	0x08    8     Region offset of the next free block, NilLink at the tail
	FreeHeaderSize = 2 * HeaderWord

	// NilLink terminates a free list.
	NilLink = -1
)

// nilLinkWord is the stored encoding of NilLink.
const nilLinkWord = ^uint64(0)
