// Package buf contains bounds-checked helpers for reading and writing
// machine words inside raw memory regions.
package buf

import "encoding/binary"

// Word reads a native-endian uint64 at b[off:]. Returns 0 when the word
// does not fit inside b.
func Word(b []byte, off int) uint64 {
	w, ok := Slice(b, off, 8)
	if !ok {
		return 0
	}
	return binary.NativeEndian.Uint64(w)
}

// PutWord writes v as a native-endian uint64 at b[off:]. It reports false,
// leaving b untouched, when the word does not fit inside b.
func PutWord(b []byte, off int, v uint64) bool {
	w, ok := Slice(b, off, 8)
	if !ok {
		return false
	}
	binary.NativeEndian.PutUint64(w, v)
	return true
}

// Fill sets every byte of b[off:off+n] to v. Out of range requests are ignored.
func Fill(b []byte, off, n int, v byte) {
	w, ok := Slice(b, off, n)
	if !ok {
		return
	}
	for i := range w {
		w[i] = v
	}
}
