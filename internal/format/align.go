package format

// Alignment utilities. All sizes handed to callers and every payload address
// are multiples of WordSize.

// AlignSize returns n rounded up to the next multiple of WordSize. A zero (or
// negative) request is treated as 1 so it still maps to a full word.
//
// Example (WordSize == 8):
//
//	AlignSize(0)  = 8
//	AlignSize(1)  = 8
//	AlignSize(8)  = 8
//	AlignSize(9)  = 16
func AlignSize(n int) int {
	if n <= 0 {
		n = 1
	}
	return (n + WordMask) & ^WordMask
}

// AlignPtr returns addr rounded up to the next multiple of WordSize.
func AlignPtr(addr uintptr) uintptr {
	return (addr + uintptr(WordMask)) & ^uintptr(WordMask)
}

// IsAligned reports whether addr is already word aligned.
func IsAligned(addr uintptr) bool {
	return addr == AlignPtr(addr)
}

// PayloadSize returns the payload capacity of a block serving an n byte
// request: AlignSize(n), but never less than one header word, so every block
// can hold a free-list link once it is freed.
func PayloadSize(n int) int {
	return max(AlignSize(n), HeaderWord)
}
