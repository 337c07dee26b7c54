// Package xunsafe provides a small, narrowly-scoped set of unsafe pointer
// helpers used by pkg/arena to detect whether a byte slice was carved out of
// an arena buffer and to retarget it after the arena relocates.
package xunsafe

import (
	"sync"
	"unsafe"
)

// NoCopy is a type that go vet will complain about having been moved.
//
// It does so by implementing [sync.Locker].
type NoCopy [0]sync.Mutex

func (*NoCopy) Lock()   {}
func (*NoCopy) Unlock() {}

// BitCast performs an unsafe bitcast from one type to another.
func BitCast[To, From any](v From) To {
	return *(*To)(unsafe.Pointer(&v))
}
