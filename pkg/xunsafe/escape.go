//go:build go1.23

package xunsafe

import "unsafe"

var (
	alwaysFalse bool
	sink        unsafe.Pointer //nolint:unused
)

// Escape escapes a pointer to the heap.
//
// pkg/arena calls this right before a Grow, the same way the original arena
// implementation does: it forces the Go compiler to treat p as having
// escaped, so that spilling the old buffer's address across the relocation
// callback does not get optimized into a stale register read.
func Escape[P ~*E, E any](p P) P {
	if alwaysFalse {
		sink = unsafe.Pointer(p)
	}
	return p
}

// NoEscape hides a pointer from escape analysis, preventing it from
// escaping to the heap.
func NoEscape[P ~*E, E any](p P) P {
	x := uintptr(unsafe.Pointer(p))
	return P(unsafe.Pointer(x ^ 0)) //nolint:staticcheck // intentional no-op xor to break the escape chain
}
