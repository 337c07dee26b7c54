// Package emit serializes a yamltree.Tree as block-style YAML or as JSON.
//
// The emitter is a pure reader over the tree: it never mutates nodes, and
// writes through the narrow Writer capability only.
package emit

import (
	"bytes"
	"fmt"

	"github.com/flier/yamltree/internal/xsync"
	"github.com/flier/yamltree/pkg/yamltree"
	"github.com/flier/yamltree/pkg/zc"
)

// Type selects the output syntax.
type Type int

const (
	YAML Type = iota
	JSON
)

func (t Type) String() string {
	switch t {
	case YAML:
		return "YAML"
	case JSON:
		return "JSON"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// maxDepth caps emitter recursion; resolved alias expansion can inflate
// the effective tree depth far beyond the literal document nesting.
const maxDepth = 256

// Emit serializes the subtree rooted at id through w and finalizes the
// writer. errorOnExcess selects whether a bounded writer that truncated
// reports an error from Get.
func Emit(typ Type, t *yamltree.Tree, id yamltree.NodeID, w Writer, errorOnExcess bool) (zc.View, error) {
	e := &emitter{t: t, w: w}

	var err error

	switch typ {
	case YAML:
		err = e.yamlVisit(id, 0, false, 0)
	case JSON:
		err = e.jsonVisit(id, 0)
	default:
		err = yamltree.Fault{
			Kind:    yamltree.UnknownEmitType,
			Node:    id,
			Message: fmt.Sprintf("unknown emit type %d", int(typ)),
		}
	}

	if err != nil {
		return 0, err
	}

	return w.Get(errorOnExcess)
}

var growPool = xsync.Pool[GrowWriter]{
	Reset: func(w *GrowWriter) { w.Reset() },
}

// YAMLBytes emits the subtree at id as block YAML into a fresh buffer.
func YAMLBytes(t *yamltree.Tree, id yamltree.NodeID) ([]byte, error) {
	return emitBytes(YAML, t, id)
}

// JSONBytes emits the subtree at id as JSON into a fresh buffer.
func JSONBytes(t *yamltree.Tree, id yamltree.NodeID) ([]byte, error) {
	return emitBytes(JSON, t, id)
}

func emitBytes(typ Type, t *yamltree.Tree, id yamltree.NodeID) ([]byte, error) {
	w := growPool.Get()
	defer growPool.Put(w)

	if _, err := Emit(typ, t, id, w, true); err != nil {
		return nil, err
	}

	return bytes.Clone(w.Bytes()), nil
}

// emitter carries the shared state of one Emit call.
type emitter struct {
	t *yamltree.Tree
	w Writer
}

func (e *emitter) write(b []byte) { e.w.WriteBytes(b) }
func (e *emitter) ws(s string)    { e.w.WriteBytes([]byte(s)) }
func (e *emitter) nl()            { e.ws("\n") }

// indent writes two spaces per level.
func (e *emitter) indent(ilevel int) {
	for i := 0; i < ilevel; i++ {
		e.ws("  ")
	}
}

func (e *emitter) depthFault(id yamltree.NodeID) error {
	return yamltree.Fault{
		Kind:    yamltree.DepthExceeded,
		Node:    id,
		Message: fmt.Sprintf("emit exceeded max depth %d", maxDepth),
	}
}
