package yamltree

import (
	"bytes"
	"iter"

	"github.com/flier/yamltree/pkg/res"
	"github.com/flier/yamltree/pkg/xiter"
)

// mergeKey is the YAML merge key: a map entry `<<: *a` (or `<<: [*a, *b]`)
// injects the entries of the referenced map(s) into the containing map.
var mergeKey = []byte("<<")

// refRecord is one anchor or alias occurrence, emitted in document order
// by the collect pass. A record is an anchor (KEYANCH/VALANCH, declaring
// name on node) or a reference (KEYREF/VALREF, to be resolved against the
// most recent preceding anchor with the same name).
type refRecord struct {
	kind Kind
	node NodeID
	name []byte

	// prevAnchor is the index of the most recently seen anchor record
	// before this one, or -1; resolution walks these links backward.
	prevAnchor int

	// parentRef is set on the members of a `<<: [*a, *b]` sequence: the
	// containing KEYSEQ node. Successive members chain their insertion
	// point so merged entries land in sequence order; the chain starts
	// just before parentRef, which also bounds the override decisions of
	// DuplicateChildrenNoRep.
	parentRef NodeID

	target refTarget
}

// refTarget is a resolved anchor: the node that declared it, and which
// side (KEYANCH or VALANCH) it was declared on.
type refTarget struct {
	node NodeID
	side Kind
}

func (r refRecord) isAnchor() bool { return r.kind.Any(KEYANCH | VALANCH) }

// Walk yields id and every node below it in document (DFS, pre-) order.
func (t *Tree) Walk(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		t.walkVisit(id, yield)
	}
}

func (t *Tree) walkVisit(id NodeID, yield func(NodeID) bool) bool {
	if !yield(id) {
		return false
	}

	for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
		if !t.walkVisit(c, yield) {
			return false
		}
	}

	return true
}

// recordsFor emits the ref records node n contributes, in order: key-side
// anchor, key-side ref, val-side anchor, val-side ref. A merge key's
// reference members are tagged with their containing KEYSEQ so the
// rewrite pass can chain their insertions.
func (t *Tree) recordsFor(n NodeID) []refRecord {
	var recs []refRecord

	if t.HasKeyAnchor(n) {
		recs = append(recs, refRecord{kind: KEYANCH, node: n, name: t.KeyAnchor(n), parentRef: NONE})
	}

	if t.IsKeyRef(n) && !bytes.Equal(t.Key(n), mergeKey) {
		recs = append(recs, refRecord{kind: KEYREF, node: n, name: t.KeyRef(n), parentRef: NONE})
	}

	if t.HasValAnchor(n) {
		recs = append(recs, refRecord{kind: VALANCH, node: n, name: t.ValAnchor(n), parentRef: NONE})
	}

	if t.IsValRef(n) {
		rec := refRecord{kind: VALREF, node: n, name: t.ValRef(n), parentRef: NONE}

		if p := t.Parent(n); !p.IsNone() && t.IsSeq(p) && bytes.Equal(t.Key(p), mergeKey) {
			rec.parentRef = p
		}

		recs = append(recs, rec)
	}

	return recs
}

// collectRefs is the resolver's first pass: DFS the tree gathering every
// anchor and reference in document order, then thread each record's
// prevAnchor link to the anchor most recently seen before it.
func (t *Tree) collectRefs() []refRecord {
	var recs []refRecord

	for batch := range xiter.Map(t.Walk(t.RootID()), t.recordsFor) {
		recs = append(recs, batch...)
	}

	last := -1
	for i := range recs {
		recs[i].prevAnchor = last
		if recs[i].isAnchor() {
			last = i
		}
	}

	return recs
}

// findAnchor is the resolver's second pass for one reference: walk the
// prevAnchor chain backward from the record at `from` until an anchor
// with a matching name is found.
func findAnchor(recs []refRecord, from int, name []byte) res.Result[refTarget] {
	for i := recs[from].prevAnchor; i >= 0; i = recs[i].prevAnchor {
		if recs[i].isAnchor() && bytes.Equal(recs[i].name, name) {
			return res.Ok(refTarget{node: recs[i].node, side: recs[i].kind})
		}
	}

	return res.Err[refTarget](&ResolveError{Name: string(name)})
}

// Resolve rewrites every alias in the tree against its anchor: merge keys
// inject the target map's entries into the containing map, scalar aliases
// copy the target's text, and container aliases deep-duplicate the
// target's contents in place. Afterwards every anchor and ref marker is
// cleared; Resolve on a tree with no refs left is a no-op.
func (t *Tree) Resolve() error {
	recs := t.collectRefs()

	for i := range recs {
		if recs[i].isAnchor() {
			continue
		}

		r := findAnchor(recs, i, recs[i].name)
		if r.IsErr() {
			t.fault(AnchorNotFound, recs[i].node, "anchor does not exist: %q", string(recs[i].name))
			return r.Err
		}

		recs[i].target = r.Unwrap()
	}

	// Insertion points for merge sequences chain across members of the
	// same parentRef, so `<<: [*a, *b]` lands a's entries before b's.
	mergePos := make(map[NodeID]NodeID)

	var pending []NodeID

	for i := range recs {
		rec := &recs[i]
		if rec.isAnchor() {
			continue
		}

		switch {
		case !rec.parentRef.IsNone():
			after, ok := mergePos[rec.parentRef]
			if !ok {
				after = t.PrevSibling(rec.parentRef)
			}

			dst := t.Parent(rec.parentRef)
			mergePos[rec.parentRef] = DuplicateChildrenNoRep(t.NodeStore, t.NodeStore, rec.target.node, dst, after)

		case rec.kind == VALREF && t.IsKeyVal(rec.node) && bytes.Equal(t.Key(rec.node), mergeKey):
			dst := t.Parent(rec.node)
			DuplicateChildrenNoRep(t.NodeStore, t.NodeStore, rec.target.node, dst, t.PrevSibling(rec.node))
			pending = append(pending, rec.node)

		default:
			t.rewriteRef(rec)
		}
	}

	for _, id := range pending {
		t.Remove(id)
	}

	for parent := range mergePos {
		t.Remove(parent)
	}

	t.clearRefMarkers()

	return nil
}

// rewriteRef rewrites one plain (non-merge) alias: a reference to a scalar
// anchor copies the target's text into the corresponding slot; a val
// reference to a container anchor deep-duplicates the target's contents
// into the alias node in place.
func (t *Tree) rewriteRef(rec *refRecord) {
	target := rec.target.node

	if t.IsContainer(target) {
		if rec.kind == KEYREF {
			t.fault(InvariantViolation, rec.node, "key alias %q refers to a container anchor", string(rec.name))
			return
		}

		n := t.node(rec.node)
		n.kind = n.kind&^(VALREF|VAL) | t.Kind(target)&(MAP|SEQ)
		n.val.text = nil

		prev := NONE
		for c := t.FirstChild(target); !c.IsNone(); c = t.NextSibling(c) {
			prev = t.Duplicate(c, rec.node, prev)
		}

		return
	}

	text := t.node(target).val.text
	if rec.target.side == KEYANCH {
		text = t.node(target).key.text
	}

	n := t.node(rec.node)
	if rec.kind == KEYREF {
		n.key.text = t.setText(text)
		n.kind = n.kind&^KEYREF | KEY
	} else {
		n.val.text = t.setText(text)
		n.kind = n.kind&^VALREF | VAL
	}
}

// clearRefMarkers drops every anchor and ref flag (and anchor name) from
// the tree; after this, Resolve finds nothing to do.
func (t *Tree) clearRefMarkers() {
	for id := range t.Walk(t.RootID()) {
		n := t.node(id)
		n.kind &^= KEYREF | VALREF | KEYANCH | VALANCH
		n.key.anchor = nil
		n.val.anchor = nil
	}
}
