package emit

import (
	"fmt"

	"github.com/flier/yamltree/pkg/yamltree"
)

// jsonVisit writes the subtree at id in JSON flow syntax. JSON is a strict
// subset of what the tree can hold: streams, tags, and anchors (and
// unresolved refs) have no JSON form and are rejected.
func (e *emitter) jsonVisit(id yamltree.NodeID, depth int) error {
	if depth > maxDepth {
		return e.depthFault(id)
	}

	t := e.t

	if t.IsStream(id) {
		return e.jsonFault(id, "streams have no JSON form")
	}

	if t.HasKeyTag(id) || t.HasValTag(id) {
		return e.jsonFault(id, "tags have no JSON form")
	}

	if t.HasKeyAnchor(id) || t.HasValAnchor(id) || t.IsKeyRef(id) || t.IsValRef(id) {
		return e.jsonFault(id, "anchors and refs have no JSON form")
	}

	if t.HasKey(id) {
		e.jsonString(t.Key(id))
		e.ws(": ")
	}

	switch {
	case t.IsMap(id):
		e.ws("{")

		for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
			if c != t.FirstChild(id) {
				e.ws(",")
			}

			if err := e.jsonVisit(c, depth+1); err != nil {
				return err
			}
		}

		e.ws("}")

	case t.IsSeq(id):
		e.ws("[")

		for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
			if c != t.FirstChild(id) {
				e.ws(",")
			}

			if err := e.jsonVisit(c, depth+1); err != nil {
				return err
			}
		}

		e.ws("]")

	case t.HasVal(id):
		e.jsonScalar(t.Val(id), t.IsValQuoted(id))

	default:
		e.ws("null")
	}

	return nil
}

// jsonScalar writes a value scalar: quoted-in-source scalars stay
// strings, JSON literals (numbers, true/false/null) pass through
// verbatim, everything else becomes a string.
func (e *emitter) jsonScalar(v []byte, wasQuoted bool) {
	switch {
	case v == nil:
		e.ws("null")

	case wasQuoted:
		e.jsonString(v)

	case isJSONLiteral(v):
		e.write(v)

	default:
		e.jsonString(v)
	}
}

// jsonString writes s as a JSON string with the mandatory escapes.
func (e *emitter) jsonString(s []byte) {
	e.ws(`"`)

	for _, b := range s {
		switch {
		case b == '"':
			e.ws(`\"`)
		case b == '\\':
			e.ws(`\\`)
		case b == '\n':
			e.ws(`\n`)
		case b == '\r':
			e.ws(`\r`)
		case b == '\t':
			e.ws(`\t`)
		case b < 0x20:
			e.ws(fmt.Sprintf(`\u%04x`, b))
		default:
			e.write([]byte{b})
		}
	}

	e.ws(`"`)
}

func (e *emitter) jsonFault(id yamltree.NodeID, msg string) error {
	return yamltree.Fault{
		Kind:    yamltree.JSONFeatureUnsupported,
		Node:    id,
		Message: msg,
	}
}

// isJSONLiteral reports whether v is a JSON number or one of the three
// keyword literals.
func isJSONLiteral(v []byte) bool {
	switch string(v) {
	case "true", "false", "null":
		return true
	}

	return isJSONNumber(v)
}

// isJSONNumber checks v against JSON's number grammar, which is narrower
// than YAML's: no leading '+', no leading zeros, no bare '.'.
func isJSONNumber(v []byte) bool {
	i := 0

	if i < len(v) && v[i] == '-' {
		i++
	}

	switch {
	case i < len(v) && v[i] == '0':
		i++

	case i < len(v) && v[i] >= '1' && v[i] <= '9':
		for i < len(v) && v[i] >= '0' && v[i] <= '9' {
			i++
		}

	default:
		return false
	}

	if i < len(v) && v[i] == '.' {
		i++

		start := i
		for i < len(v) && v[i] >= '0' && v[i] <= '9' {
			i++
		}

		if i == start {
			return false
		}
	}

	if i < len(v) && (v[i] == 'e' || v[i] == 'E') {
		i++

		if i < len(v) && (v[i] == '-' || v[i] == '+') {
			i++
		}

		start := i
		for i < len(v) && v[i] >= '0' && v[i] <= '9' {
			i++
		}

		if i == start {
			return false
		}
	}

	return i == len(v)
}
