package yamltree

import (
	"errors"

	"github.com/flier/yamltree/pkg/either"
	"github.com/flier/yamltree/pkg/untrust"
)

// ErrBadPath is reported when a lookup path cannot be tokenized: an
// unterminated or non-numeric [N] index, or an empty segment.
var ErrBadPath = errors.New("yamltree: malformed lookup path")

// pathToken is one step of a lookup path: either a map key name (Left) or
// a sequence index (Right). end is the byte offset just past the token,
// including any trailing '.' separator it consumed.
type pathToken struct {
	step either.Either[string, int]
	end  int
}

// PathResult is the outcome of LookupPath. Target is the fully resolved
// node, or NONE. Closest is the deepest node the path reached; PathPos is
// how far into the path the match extended.
type PathResult struct {
	Target  NodeID
	Closest NodeID
	PathPos int

	path string
}

// Resolved reports whether the whole path matched.
func (r PathResult) Resolved() bool { return !r.Target.IsNone() }

// Unresolved returns the tail of the path that did not match.
func (r PathResult) Unresolved() string { return r.path[r.PathPos:] }

// parsePath tokenizes a lookup path like "a.b[2].c" into steps. The
// grammar: a bare name descends into a map by key, '.' separates map
// descents, and [N] selects the N'th child of a sequence.
func parsePath(path string) ([]pathToken, error) {
	r := untrust.NewReader(untrust.Input(path))

	var (
		toks []pathToken
		pos  int
	)

	for !r.AtEnd() {
		read, tok, err := untrust.ReadPartial(r, readPathToken)
		if err != nil {
			return nil, err
		}

		pos += read.Len()
		tok.end = pos
		toks = append(toks, tok)
	}

	return toks, nil
}

func readPathToken(r *untrust.Reader) (pathToken, error) {
	var tok pathToken

	if r.Peek('[') {
		_, _ = r.ReadByte()

		var (
			idx int
			any bool
		)

		for {
			b, err := r.ReadByte()
			if err != nil {
				return tok, ErrBadPath
			}

			if b == ']' {
				break
			}

			if b < '0' || b > '9' {
				return tok, ErrBadPath
			}

			idx = idx*10 + int(b-'0')
			any = true
		}

		if !any {
			return tok, ErrBadPath
		}

		if r.Peek('.') {
			_, _ = r.ReadByte()
		}

		tok.step = either.Right[string, int](idx)

		return tok, nil
	}

	var name []byte
	for !r.AtEnd() && !r.Peek('.') && !r.Peek('[') {
		b, _ := r.ReadByte()
		name = append(name, b)
	}

	if len(name) == 0 {
		return tok, ErrBadPath
	}

	if r.Peek('.') {
		_, _ = r.ReadByte()
	}

	tok.step = either.Left[string, int](string(name))

	return tok, nil
}

// LookupPath resolves path starting at start (NONE means the root). It
// never mutates the tree: a path that walks off the tree stops, leaving
// Closest at the deepest node reached and Target at NONE.
func (t *Tree) LookupPath(path string, start NodeID) PathResult {
	if start.IsNone() {
		start = t.RootID()
	}

	res := PathResult{Target: NONE, Closest: start, path: path}

	toks, err := parsePath(path)
	if err != nil {
		return res
	}

	cur := start
	for _, tok := range toks {
		var next NodeID

		if tok.step.HasRight() {
			next = t.Child(cur, tok.step.UnwrapRight())
		} else {
			next, _ = t.FindChild(cur, tok.step.UnwrapLeft())
		}

		if next.IsNone() {
			return res
		}

		cur = next
		res.Closest = cur
		res.PathPos = tok.end
	}

	res.Target = cur

	return res
}

// LookupPathOrModify resolves path starting at start, creating every
// missing intermediate node along the way: map entries are synthesized
// for name steps, sequences are padded with null placeholders up to an
// index step's ordinal, and the final node's value is set to v.
func (t *Tree) LookupPathOrModify(v []byte, path string, start NodeID) NodeID {
	id := t.lookupPathModify(path, start)
	if id.IsNone() {
		return NONE
	}

	t.SetVal(id, v)

	return id
}

// LookupPathOrMerge is LookupPathOrModify with a source subtree instead
// of a scalar default: the final node receives a merged copy of srcNode.
func (t *Tree) LookupPathOrMerge(src *Tree, srcNode NodeID, path string, start NodeID) NodeID {
	id := t.lookupPathModify(path, start)
	if id.IsNone() {
		return NONE
	}

	t.MergeWith(src, srcNode, id)

	return id
}

func (t *Tree) lookupPathModify(path string, start NodeID) NodeID {
	if start.IsNone() {
		start = t.RootID()
	}

	toks, err := parsePath(path)
	if err != nil {
		t.fault(InvariantViolation, start, "%s: %q", err, path)
		return NONE
	}

	cur := start
	for _, tok := range toks {
		if tok.step.HasRight() {
			idx := tok.step.UnwrapRight()

			t.intoSeq(cur)
			for t.NumChildren(cur) <= idx {
				c := t.AppendChild(cur)
				t.node(c).kind |= VAL
			}

			cur = t.Child(cur, idx)
			continue
		}

		name := tok.step.UnwrapLeft()

		t.intoMap(cur)

		next, ok := t.FindChild(cur, name)
		if !ok {
			next = t.AppendChild(cur)
			t.SetKey(next, []byte(name))
		}

		cur = next
	}

	return cur
}

// intoMap reshapes id into a map in place, keeping its key and style but
// dropping any scalar value. Unlike ToMap it accepts nodes that already
// hold a value: path modification overwrites shape as it descends.
func (t *Tree) intoMap(id NodeID) {
	if t.IsMap(id) {
		return
	}

	t.RemoveChildren(id)

	n := t.node(id)
	n.kind = n.kind&^(SEQ|VAL) | MAP
	n.val.text = nil
}

// intoSeq is intoMap's sequence counterpart.
func (t *Tree) intoSeq(id NodeID) {
	if t.IsSeq(id) {
		return
	}

	t.RemoveChildren(id)

	n := t.node(id)
	n.kind = n.kind&^(MAP|VAL) | SEQ
	n.val.text = nil
}
