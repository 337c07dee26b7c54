// Package yamltree implements an in-memory document object model for
// YAML 1.2: a flat, index-addressed pool of nodes whose scalar text lives
// in a single contiguous byte arena, plus the algorithms that mutate,
// resolve, and serve the tree to an emitter.
//
// The tree is single-owner: no operation is safe to call concurrently
// with any other on the same tree.
package yamltree

import "github.com/flier/yamltree/internal/debug"

// Tree is the façade over a NodeStore: typed accessors, shape mutators,
// merge, and path lookup. All node addressing is by NodeID; ids are stable
// across insert/remove but invalidated by Reorder, Swap, and Clear (a
// Handle from HandleOf detects that invalidation instead of silently
// naming another node).
type Tree struct {
	*NodeStore
}

// New creates an empty tree whose root (id 0) has no type yet.
func New() *Tree {
	return &Tree{NewNodeStore()}
}

// emptyText is a non-nil zero-length scalar, distinguishing an empty
// string (emits as ”) from an absent one (emits as ~).
var emptyText = make([]byte, 0)

// setText interns b and preserves the nil / empty-but-present distinction.
func (t *Tree) setText(b []byte) []byte {
	if b == nil {
		return nil
	}

	if len(b) == 0 {
		return emptyText
	}

	return t.internText(b)
}

// RootID returns the id of the root node, which is always 0.
func (t *Tree) RootID() NodeID { return 0 }

// Parent returns id's parent, or NONE for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.node(id).parent }

// FirstChild returns id's first child, or NONE.
func (t *Tree) FirstChild(id NodeID) NodeID { return t.node(id).firstChild }

// LastChild returns id's last child, or NONE.
func (t *Tree) LastChild(id NodeID) NodeID { return t.node(id).lastChild }

// NextSibling returns the sibling after id, or NONE.
func (t *Tree) NextSibling(id NodeID) NodeID { return t.node(id).nextSibling }

// PrevSibling returns the sibling before id, or NONE.
func (t *Tree) PrevSibling(id NodeID) NodeID { return t.node(id).prevSibling }

// NumChildren counts id's children by walking the sibling chain.
func (t *Tree) NumChildren(id NodeID) int {
	var n int
	for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
		n++
	}

	return n
}

// Child returns the pos'th child of id, or NONE if id has fewer children.
func (t *Tree) Child(id NodeID, pos int) NodeID {
	c := t.FirstChild(id)
	for ; pos > 0 && !c.IsNone(); pos-- {
		c = t.NextSibling(c)
	}

	return c
}

// ChildPos returns the ordinal of child under its parent, or -1 if child is
// not in parent's child list.
func (t *Tree) ChildPos(parent, child NodeID) int {
	pos := 0
	for c := t.FirstChild(parent); !c.IsNone(); c = t.NextSibling(c) {
		if c == child {
			return pos
		}
		pos++
	}

	return -1
}

// Kind returns id's kind bitmask.
func (t *Tree) Kind(id NodeID) Kind { return t.node(id).kind }

func (t *Tree) IsRoot(id NodeID) bool      { return id == 0 }
func (t *Tree) IsStream(id NodeID) bool    { return t.Kind(id).Has(STREAM) }
func (t *Tree) IsDoc(id NodeID) bool       { return t.Kind(id).Has(DOC) }
func (t *Tree) IsMap(id NodeID) bool       { return t.Kind(id).Has(MAP) }
func (t *Tree) IsSeq(id NodeID) bool       { return t.Kind(id).Has(SEQ) }
func (t *Tree) IsContainer(id NodeID) bool { return t.Kind(id).Any(MAP | SEQ | STREAM) }
func (t *Tree) IsVal(id NodeID) bool       { return t.Kind(id).Has(VAL) && !t.Kind(id).Has(KEY) }
func (t *Tree) IsKeyVal(id NodeID) bool    { return t.Kind(id).Has(KEYVAL) }

func (t *Tree) HasKey(id NodeID) bool       { return t.Kind(id).Has(KEY) }
func (t *Tree) HasVal(id NodeID) bool       { return t.Kind(id).Has(VAL) }
func (t *Tree) HasChildren(id NodeID) bool  { return !t.node(id).firstChild.IsNone() }
func (t *Tree) HasKeyAnchor(id NodeID) bool { return t.Kind(id).Has(KEYANCH) }
func (t *Tree) HasValAnchor(id NodeID) bool { return t.Kind(id).Has(VALANCH) }
func (t *Tree) IsKeyRef(id NodeID) bool     { return t.Kind(id).Has(KEYREF) }
func (t *Tree) IsValRef(id NodeID) bool     { return t.Kind(id).Has(VALREF) }
func (t *Tree) HasKeyTag(id NodeID) bool    { return len(t.node(id).key.tag) > 0 }
func (t *Tree) HasValTag(id NodeID) bool    { return len(t.node(id).val.tag) > 0 }
func (t *Tree) IsKeyQuoted(id NodeID) bool  { return t.Kind(id).Has(KEYQUO) }
func (t *Tree) IsValQuoted(id NodeID) bool  { return t.Kind(id).Has(VALQUO) }

// Key returns id's key scalar text.
func (t *Tree) Key(id NodeID) []byte { return t.node(id).key.text }

// Val returns id's value scalar text. A nil return means the value is
// absent (null); a non-nil empty return means an empty string.
func (t *Tree) Val(id NodeID) []byte { return t.node(id).val.text }

func (t *Tree) KeyTag(id NodeID) []byte    { return t.node(id).key.tag }
func (t *Tree) ValTag(id NodeID) []byte    { return t.node(id).val.tag }
func (t *Tree) KeyAnchor(id NodeID) []byte { return t.node(id).key.anchor }
func (t *Tree) ValAnchor(id NodeID) []byte { return t.node(id).val.anchor }

// KeyRef returns the alias name held in id's key slot; meaningful only
// while IsKeyRef(id).
func (t *Tree) KeyRef(id NodeID) []byte { return t.node(id).key.text }

// ValRef returns the alias name held in id's val slot; meaningful only
// while IsValRef(id).
func (t *Tree) ValRef(id NodeID) []byte { return t.node(id).val.text }

// AppendChild claims a fresh untyped node and links it as the last child
// of parent, returning its id.
func (t *Tree) AppendChild(parent NodeID) NodeID {
	id := t.claim()
	t.SetHierarchy(id, parent, t.LastChild(parent))
	return id
}

// PrependChild claims a fresh untyped node and links it as the first child
// of parent.
func (t *Tree) PrependChild(parent NodeID) NodeID {
	id := t.claim()
	t.SetHierarchy(id, parent, NONE)
	return id
}

// InsertChild claims a fresh untyped node under parent, immediately after
// `after` (NONE means at the front).
func (t *Tree) InsertChild(parent, after NodeID) NodeID {
	id := t.claim()
	t.SetHierarchy(id, parent, after)
	return id
}

// AppendSibling claims a fresh untyped node and links it immediately after
// id under id's parent.
func (t *Tree) AppendSibling(id NodeID) NodeID {
	parent := t.Parent(id)
	debug.Assert(!parent.IsNone(), "cannot append a sibling to the root")

	sib := t.claim()
	t.SetHierarchy(sib, parent, id)
	return sib
}

// Remove unlinks id and releases it and its whole subtree back to the
// free-list. The root cannot be removed; Clear resets the whole tree.
func (t *Tree) Remove(id NodeID) {
	if id == 0 {
		t.fault(InvariantViolation, id, "root node cannot be removed")
		return
	}

	t.removeSubtree(id)
}

// RemoveChildren releases id's entire subtree but keeps id itself.
func (t *Tree) RemoveChildren(id NodeID) {
	c := t.FirstChild(id)
	for !c.IsNone() {
		next := t.NextSibling(c)
		t.removeSubtree(c)
		c = next
	}
}

// Duplicate deep-copies id (and descendants, in order) within this tree as
// a child of parent, positioned after `after`.
func (t *Tree) Duplicate(id, parent, after NodeID) NodeID {
	return Duplicate(t.NodeStore, t.NodeStore, id, parent, after)
}

// DuplicateFrom deep-copies id out of src into this tree.
func (t *Tree) DuplicateFrom(src *Tree, id, parent, after NodeID) NodeID {
	return Duplicate(t.NodeStore, src.NodeStore, id, parent, after)
}

func (t *Tree) SetKeyAnchor(id NodeID, name []byte) {
	n := t.node(id)
	n.key.anchor = t.setText(name)
	n.kind |= KEYANCH
}

func (t *Tree) SetValAnchor(id NodeID, name []byte) {
	n := t.node(id)
	n.val.anchor = t.setText(name)
	n.kind |= VALANCH
}

// SetKeyRef marks id's key slot as an unresolved alias to the anchor
// called name (without the leading '*').
func (t *Tree) SetKeyRef(id NodeID, name []byte) {
	n := t.node(id)
	n.key.text = t.setText(name)
	n.kind |= KEY | KEYREF
}

// SetValRef marks id's val slot as an unresolved alias to the anchor
// called name (without the leading '*').
func (t *Tree) SetValRef(id NodeID, name []byte) {
	n := t.node(id)
	n.val.text = t.setText(name)
	n.kind |= VAL | VALREF
}

func (t *Tree) SetKeyTag(id NodeID, tag []byte) {
	t.node(id).key.tag = t.setText(tag)
}

func (t *Tree) SetValTag(id NodeID, tag []byte) {
	t.node(id).val.tag = t.setText(tag)
}

func (t *Tree) SetKeyQuoted(id NodeID) { t.node(id).kind |= KEYQUO }
func (t *Tree) SetValQuoted(id NodeID) { t.node(id).kind |= VALQUO }

// checkReshape enforces the shared precondition of every To* mutator: the
// node must not have children.
func (t *Tree) checkReshape(id NodeID) bool {
	if t.HasChildren(id) {
		t.fault(InvariantViolation, id, "cannot reshape a node that has children")
		return false
	}

	return true
}

// parentIsMap reports whether id sits in a map's child list. Root and doc
// nodes have no containing map by definition.
func (t *Tree) parentIsMap(id NodeID) bool {
	p := t.Parent(id)
	return !p.IsNone() && t.IsMap(p)
}

// ToVal turns id into a plain value node. The parent must not be a map
// (map children carry keys; use ToKeyVal), unless id is the root or a doc.
func (t *Tree) ToVal(id NodeID, v []byte) {
	if !t.checkReshape(id) {
		return
	}

	if t.parentIsMap(id) && !t.IsDoc(id) {
		t.fault(InvariantViolation, id, "a map child needs a key; use ToKeyVal")
		return
	}

	n := t.node(id)
	n.kind = n.kind&styleMask | n.kind&(DOC|STREAM) | VAL
	n.key = scalar{}
	n.val.text = t.setText(v)
}

// ToKeyVal turns id into a key-value pair. The parent must be a map.
func (t *Tree) ToKeyVal(id NodeID, k, v []byte) {
	if !t.checkReshape(id) {
		return
	}

	if !t.parentIsMap(id) {
		t.fault(InvariantViolation, id, "ToKeyVal requires a map parent")
		return
	}

	t.indexRemove(t.Parent(id), id)

	n := t.node(id)
	n.kind = n.kind&styleMask | KEYVAL
	n.key.text = t.setText(k)
	n.val.text = t.setText(v)

	t.indexInsert(t.Parent(id), id)
}

// ToMap turns id into an (empty) map. The parent must not be a map, unless
// id is the root or a doc; map children become maps with ToMapKeyed.
func (t *Tree) ToMap(id NodeID) {
	if !t.checkReshape(id) {
		return
	}

	if t.parentIsMap(id) && !t.IsDoc(id) {
		t.fault(InvariantViolation, id, "a map child needs a key; use ToMapKeyed")
		return
	}

	n := t.node(id)
	n.kind = n.kind&styleMask | n.kind&(DOC|STREAM) | MAP
	n.key = scalar{}
	n.val.text = nil
}

// ToMapKeyed turns id into an (empty) map that is itself a map entry with
// key k. The parent must be a map.
func (t *Tree) ToMapKeyed(id NodeID, k []byte) {
	if !t.checkReshape(id) {
		return
	}

	if !t.parentIsMap(id) {
		t.fault(InvariantViolation, id, "ToMapKeyed requires a map parent")
		return
	}

	t.indexRemove(t.Parent(id), id)

	n := t.node(id)
	n.kind = n.kind&styleMask | KEYMAP
	n.key.text = t.setText(k)
	n.val.text = nil

	t.indexInsert(t.Parent(id), id)
}

// ToSeq turns id into an (empty) sequence; same parent rules as ToMap.
func (t *Tree) ToSeq(id NodeID) {
	if !t.checkReshape(id) {
		return
	}

	if t.parentIsMap(id) && !t.IsDoc(id) {
		t.fault(InvariantViolation, id, "a map child needs a key; use ToSeqKeyed")
		return
	}

	n := t.node(id)
	n.kind = n.kind&styleMask | n.kind&(DOC|STREAM) | SEQ
	n.key = scalar{}
	n.val.text = nil
}

// ToSeqKeyed turns id into an (empty) sequence keyed by k under a map
// parent.
func (t *Tree) ToSeqKeyed(id NodeID, k []byte) {
	if !t.checkReshape(id) {
		return
	}

	if !t.parentIsMap(id) {
		t.fault(InvariantViolation, id, "ToSeqKeyed requires a map parent")
		return
	}

	t.indexRemove(t.Parent(id), id)

	n := t.node(id)
	n.kind = n.kind&styleMask | KEYSEQ
	n.key.text = t.setText(k)
	n.val.text = nil

	t.indexInsert(t.Parent(id), id)
}

// ToDoc marks id as a document node.
func (t *Tree) ToDoc(id NodeID) {
	n := t.node(id)
	n.kind |= DOC
}

// ToStream turns id into a stream node. Only the root can be a stream.
func (t *Tree) ToStream(id NodeID) {
	if !t.checkReshape(id) {
		return
	}

	if id != 0 {
		t.fault(InvariantViolation, id, "only the root can be a stream")
		return
	}

	n := t.node(id)
	n.kind = STREAM
	n.key = scalar{}
	n.val = scalar{}
}

// SetVal replaces id's value scalar without reshaping.
func (t *Tree) SetVal(id NodeID, v []byte) {
	n := t.node(id)
	n.val.text = t.setText(v)
	n.kind |= VAL
}

// SetKey replaces id's key scalar without reshaping, keeping any key index
// on the parent coherent.
func (t *Tree) SetKey(id NodeID, k []byte) {
	t.indexRemove(t.Parent(id), id)

	n := t.node(id)
	n.key.text = t.setText(k)
	n.kind |= KEY

	t.indexInsert(t.Parent(id), id)
}

// SetRootAsStream wraps the current root content in a stream. If the root
// is already a stream this is a no-op; otherwise the root becomes STREAM
// with a single DOC child that inherits the root's former kind, scalars,
// and children. A bare value root is preserved as a single-document
// stream (STREAM > DOC(VAL)).
func (t *Tree) SetRootAsStream() {
	if t.IsStream(0) {
		return
	}

	doc := t.claim()

	r, d := t.node(0), t.node(doc)

	d.kind = r.kind | DOC
	d.key, d.val = r.key, r.val

	d.firstChild, d.lastChild = r.firstChild, r.lastChild
	for c := d.firstChild; !c.IsNone(); c = t.node(c).nextSibling {
		t.node(c).parent = doc
	}

	delete(t.keyIndexes, 0)

	r.kind = STREAM
	r.key, r.val = scalar{}, scalar{}
	r.firstChild, r.lastChild = NONE, NONE

	t.SetHierarchy(doc, 0, NONE)
}

// MergeWith merges the subtree at srcNode in src into dstNode in t:
// values overwrite (discarding any dst children), sequences append, and
// maps merge recursively by key. src may be t itself.
func (t *Tree) MergeWith(src *Tree, srcNode, dstNode NodeID) {
	t.mergeDepth(src, srcNode, dstNode, 0, maxDepth)
}

func (t *Tree) mergeDepth(src *Tree, srcNode, dstNode NodeID, depth, limit int) {
	if depth > limit {
		t.fault(DepthExceeded, dstNode, "merge exceeded max depth %d", limit)
		return
	}

	switch {
	case src.HasVal(srcNode):
		t.RemoveChildren(dstNode)

		n := t.node(dstNode)
		sn := src.node(srcNode)

		n.kind = n.kind&^(MAP|SEQ) | VAL
		n.val.text = t.setText(sn.val.text)

		if src.HasKey(srcNode) && t.parentIsMap(dstNode) {
			t.SetKey(dstNode, sn.key.text)
		}

	case src.IsSeq(srcNode):
		if !t.IsSeq(dstNode) {
			t.RemoveChildren(dstNode)
			n := t.node(dstNode)
			n.kind = n.kind&^(MAP|VAL) | SEQ
			n.val.text = nil
		}

		for c := src.FirstChild(srcNode); !c.IsNone(); c = src.NextSibling(c) {
			t.DuplicateFrom(src, c, dstNode, t.LastChild(dstNode))
		}

	case src.IsMap(srcNode):
		if !t.IsMap(dstNode) {
			t.RemoveChildren(dstNode)
			n := t.node(dstNode)
			n.kind = n.kind&^(SEQ|VAL) | MAP
			n.val.text = nil
		}

		for c := src.FirstChild(srcNode); !c.IsNone(); c = src.NextSibling(c) {
			existing, ok := t.FindChild(dstNode, string(src.Key(c)))
			if ok {
				t.mergeDepth(src, c, existing, depth+1, limit)
			} else {
				t.DuplicateFrom(src, c, dstNode, t.LastChild(dstNode))
			}
		}
	}
}
