// Package arena provides a growable byte buffer that backs the scalar text
// (keys, values, tags, anchors) interned by a yamltree.Tree.
//
// The arena is append-only: bytes are never freed individually, only the
// whole buffer is reset at once. Growing the arena moves it to a new,
// larger backing slice; every byte range a caller is still holding that
// points inside the old slice must be retargeted to the new one, which is
// why Reserve takes a relocation callback instead of returning a new slice
// and leaving the caller to sort it out.
package arena

import (
	"errors"
	"fmt"

	"github.com/flier/yamltree/internal/debug"
	"github.com/flier/yamltree/pkg/xunsafe"
)

// ErrOutOfArena is returned by Alloc when the arena has no room left for the
// request and the caller did not reserve enough capacity beforehand.
var ErrOutOfArena = errors.New("arena: out of space")

// MinCap is the smallest capacity a freshly-grown arena is allowed to have.
const MinCap = 64

// Relocate is called once per Reserve that actually grows the backing
// buffer. old is the full previous buffer (including its unused tail);
// new is the freshly allocated buffer the used prefix of old was copied
// into. Implementations must rewrite every byte range they are holding
// that lies inside old to the corresponding range inside new.
type Relocate func(old, new []byte)

// Arena is a mutable byte buffer with a write cursor.
//
// The zero Arena is empty and ready to use.
type Arena struct {
	buf  []byte
	used int

	onRelocate Relocate
}

// New creates an Arena with the given initial capacity.
func New(cap int) *Arena {
	a := &Arena{}
	if cap > 0 {
		a.buf = make([]byte, cap)
	}
	return a
}

// Cap returns the total capacity of the arena's backing buffer.
func (a *Arena) Cap() int { return len(a.buf) }

// Len returns the number of bytes already allocated from the arena.
func (a *Arena) Len() int { return a.used }

// OnRelocate installs the callback invoked whenever Reserve grows the
// backing buffer. Installing a new callback replaces any previous one.
func (a *Arena) OnRelocate(fn Relocate) { a.onRelocate = fn }

// Alloc reserves n contiguous bytes at the cursor and returns them,
// advancing the cursor past them. It fails with ErrOutOfArena if the
// arena does not already have n bytes of spare capacity; callers that
// expect to grow the arena must call Reserve first.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	if a.used+n > len(a.buf) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d of %d", ErrOutOfArena, n, len(a.buf)-a.used, len(a.buf))
	}

	b := a.buf[a.used : a.used+n : a.used+n]
	a.used += n

	debug.Log(nil, "Alloc", "%d bytes at offset %d (len now %d/%d)", n, a.used-n, a.used, len(a.buf))

	return b, nil
}

// Reserve ensures the arena has at least cap bytes of total capacity,
// growing and relocating it if necessary. If cap is already satisfied
// this is a no-op.
//
// Growth doubles the previous capacity (never below MinCap) unless the
// caller asked for more than that, copies the used prefix into the new
// buffer, and invokes the installed Relocate callback with the old and
// new buffers so every in-arena range held by the tree can be retargeted.
func (a *Arena) Reserve(cap int) {
	if cap <= len(a.buf) {
		return
	}

	next := len(a.buf) * 2
	if next < MinCap {
		next = MinCap
	}
	if next < cap {
		next = cap
	}

	// Escape the old buffer header before the copy so the compiler can't
	// prove it's dead and elide the callback's view of it.
	old := *xunsafe.Escape(&a.buf)

	newBuf := make([]byte, next)
	copy(newBuf, a.buf[:a.used])

	debug.Log(nil, "Grow", "%d -> %d bytes", len(a.buf), next)

	a.buf = newBuf

	if a.onRelocate != nil {
		a.onRelocate(old, a.buf)
	}
}

// InArena reports whether b is a sub-slice of the arena's current backing
// buffer.
func (a *Arena) InArena(b []byte) bool {
	if len(b) == 0 || len(a.buf) == 0 {
		return false
	}

	return xunsafe.Within(&b[0], &a.buf[0], len(a.buf))
}

// Contains reports whether b is a sub-slice of buf, for checking
// membership against a specific generation of an arena's backing buffer
// (such as the old buffer handed to a Relocate callback, which is no
// longer the arena's current one by the time the callback runs).
func Contains(buf, b []byte) bool {
	if len(b) == 0 || len(buf) == 0 {
		return false
	}

	return xunsafe.Within(&b[0], &buf[0], len(buf))
}

// Relocated returns the range corresponding to b inside new, given that b
// used to point inside old. It panics if b does not lie inside old; callers
// are expected to guard with InArena against the arena's buffer before the
// swap, not after.
func Relocated(old, new []byte, b []byte) []byte {
	if len(b) == 0 {
		return b
	}

	off := xunsafe.Sub(&b[0], &old[0])
	debug.Assert(off >= 0 && off+len(b) <= len(old), "relocated range [%d:%d] escapes source arena of length %d", off, off+len(b), len(old))

	return new[off : off+len(b) : off+len(b)]
}

// Reset clears the arena's write cursor, allowing its bytes to be reused.
// It does not shrink the backing buffer, and it does not notify callers
// holding ranges into it: Reset is only safe once every node referencing
// the arena has been cleared too, which is exactly what NodeStore.Clear
// does in the same call.
func (a *Arena) Reset() {
	a.used = 0
}
