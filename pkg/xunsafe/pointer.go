//go:build go1.23

package xunsafe

import (
	"unsafe"
)

// Cast casts one pointer type to another.
func Cast[To, From any](p *From) *To {
	return (*To)(unsafe.Pointer(p))
}

// Add adds the given byte offset to p.
//
// Unlike the generic pointer arithmetic in the standard unsafe package, Add
// is not scaled by the size of the pointee: arena byte ranges are always
// addressed in bytes, never in units of some element type.
func Add(p *byte, off int) *byte {
	return (*byte)(unsafe.Add(unsafe.Pointer(p), off))
}

// Sub computes the byte distance between two pointers into the same
// allocation: Sub(Add(p, n), p) == n.
func Sub(p1, p2 *byte) int {
	return int(uintptr(unsafe.Pointer(p1)) - uintptr(unsafe.Pointer(p2)))
}

// Within reports whether p falls in the half-open byte range [base, base+n).
func Within(p, base *byte, n int) bool {
	off := Sub(p, base)
	return off >= 0 && off < n
}
