package format

import "errors"

var (
	// ErrTruncated indicates a block header or payload runs past the region end.
	ErrTruncated = errors.New("format: truncated block")
	// ErrBadSize indicates a block header declares a size that is zero or unaligned.
	ErrBadSize = errors.New("format: bad block size")
)
