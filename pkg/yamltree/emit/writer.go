package emit

import (
	"bytes"
	"fmt"

	"github.com/flier/yamltree/pkg/zc"
)

// Writer is the narrow sink the emitter writes through: one append
// operation plus a finalizer. The emitter never reads back.
//
// Get returns the written range as a zc.View relative to the writer's
// backing buffer. errorOnExcess selects between truncation-is-error and
// truncation-is-OK for bounded writers that ran out of room.
type Writer interface {
	WriteBytes(b []byte)
	Get(errorOnExcess bool) (zc.View, error)
}

// ExcessError reports that a bounded writer's buffer was too small for
// the full output.
type ExcessError struct {
	Needed, Cap int
}

func (e *ExcessError) Error() string {
	return fmt.Sprintf("emit: output needs %d bytes, buffer has %d", e.Needed, e.Cap)
}

// FixedWriter emits into a caller-supplied buffer. Writes past the end
// are truncated; whether truncation is an error is decided at Get time.
type FixedWriter struct {
	buf    []byte
	pos    int
	needed int
}

// NewFixedWriter wraps buf.
func NewFixedWriter(buf []byte) *FixedWriter {
	return &FixedWriter{buf: buf}
}

func (w *FixedWriter) WriteBytes(b []byte) {
	w.needed += len(b)
	w.pos += copy(w.buf[w.pos:], b)
}

func (w *FixedWriter) Get(errorOnExcess bool) (zc.View, error) {
	v := zc.Raw(0, w.pos)

	if errorOnExcess && w.needed > len(w.buf) {
		return v, &ExcessError{Needed: w.needed, Cap: len(w.buf)}
	}

	return v, nil
}

// Bytes returns the written prefix of the backing buffer.
func (w *FixedWriter) Bytes() []byte { return w.buf[:w.pos] }

// Reset rewinds the writer over the same buffer.
func (w *FixedWriter) Reset() {
	w.pos, w.needed = 0, 0
}

// GrowWriter emits into a growable buffer; it never truncates, so
// errorOnExcess is moot.
type GrowWriter struct {
	buf bytes.Buffer
}

func (w *GrowWriter) WriteBytes(b []byte) {
	_, _ = w.buf.Write(b)
}

func (w *GrowWriter) Get(bool) (zc.View, error) {
	return zc.Raw(0, w.buf.Len()), nil
}

// Bytes returns the accumulated output.
func (w *GrowWriter) Bytes() []byte { return w.buf.Bytes() }

// Reset empties the writer for reuse.
func (w *GrowWriter) Reset() { w.buf.Reset() }
