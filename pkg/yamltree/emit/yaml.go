package emit

import "github.com/flier/yamltree/pkg/yamltree"

// yamlVisit is the recursive block-style writer. ilevel is the indent
// depth (two spaces per level); doIndent says whether this node must
// prefix itself with indent (false when it continues a line its parent
// started, such as the first child after "- ").
func (e *emitter) yamlVisit(id yamltree.NodeID, ilevel int, doIndent bool, depth int) error {
	if depth > maxDepth {
		return e.depthFault(id)
	}

	t := e.t

	switch {
	case t.IsStream(id):
		for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
			if err := e.yamlVisit(c, ilevel, false, depth+1); err != nil {
				return err
			}
		}

	case t.IsDoc(id):
		return e.yamlDoc(id, ilevel, depth)

	case t.IsContainer(id):
		return e.yamlContainer(id, ilevel, doIndent, depth)

	case t.IsKeyVal(id):
		e.yamlKeyVal(id, ilevel, doIndent)

	case t.HasVal(id):
		e.yamlVal(id, ilevel, doIndent)
	}

	return nil
}

// yamlDoc writes one document: a "---" marker unless the doc is the root
// itself, an inline value for a bare doc-val, then the children at the
// same level (top-level children do not add indent).
func (e *emitter) yamlDoc(id yamltree.NodeID, ilevel, depth int) error {
	t := e.t

	if !t.IsRoot(id) {
		e.ws("---")

		if t.HasVal(id) {
			e.ws(" ")
			e.yamlValProps(id)
			e.yamlScalar(t.Val(id), t.IsValQuoted(id))
		}

		e.nl()
	} else if t.HasVal(id) {
		e.yamlValProps(id)
		e.yamlScalar(t.Val(id), t.IsValQuoted(id))
		e.nl()
	}

	for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
		if err := e.yamlVisit(c, ilevel, true, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// yamlContainer writes a map or sequence node: its "- " or "<key>:"
// prefix, tag and anchor, then either an empty-flow marker or its
// children one level deeper.
func (e *emitter) yamlContainer(id yamltree.NodeID, ilevel int, doIndent bool, depth int) error {
	t := e.t

	if doIndent {
		e.indent(ilevel)
	}

	parent := t.Parent(id)
	seqElem := !parent.IsNone() && t.IsSeq(parent) && !t.HasKey(id)

	prefixed := false

	if seqElem {
		e.ws("-")
		prefixed = true
	}

	if t.HasKey(id) {
		e.yamlKeySide(id)
		e.ws(":")
		prefixed = true
	}

	props := false

	if t.HasValTag(id) {
		e.ws(" ")
		e.write(t.ValTag(id))
		props = true
	}

	if t.HasValAnchor(id) {
		e.ws(" &")
		e.write(t.ValAnchor(id))
		props = true
	}

	if !t.HasChildren(id) {
		if prefixed || props {
			e.ws(" ")
		}

		if t.IsMap(id) {
			e.ws("{}")
		} else {
			e.ws("[]")
		}

		e.nl()

		return nil
	}

	childLevel := ilevel + 1
	if t.IsRoot(id) || t.IsDoc(id) {
		childLevel = ilevel
	}

	if !prefixed && !props {
		// Bare container (the root, or a doc body): if this call already
		// wrote the indent, the first child continues the line; the rest
		// indent themselves.
		childIndent := !doIndent

		for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
			if err := e.yamlVisit(c, childLevel, childIndent, depth+1); err != nil {
				return err
			}

			childIndent = true
		}

		return nil
	}

	if seqElem && !props {
		// "- " followed by the first child inline; the rest indent under it.
		e.ws(" ")

		first := t.FirstChild(id)
		if err := e.yamlVisit(first, childLevel, false, depth+1); err != nil {
			return err
		}

		for c := t.NextSibling(first); !c.IsNone(); c = t.NextSibling(c) {
			if err := e.yamlVisit(c, childLevel, true, depth+1); err != nil {
				return err
			}
		}

		return nil
	}

	e.nl()

	for c := t.FirstChild(id); !c.IsNone(); c = t.NextSibling(c) {
		if err := e.yamlVisit(c, childLevel, true, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// yamlKeyVal writes "<key>: <val>" with tags, anchors, refs, and literal
// block forms on either side.
func (e *emitter) yamlKeyVal(id yamltree.NodeID, ilevel int, doIndent bool) {
	t := e.t

	if doIndent {
		e.indent(ilevel)
	}

	key := t.Key(id)

	if !t.IsKeyRef(id) && needsBlock(key) {
		// An explicit key: "? |" block, then ":" back at this level.
		e.ws("? ")
		e.yamlBlockScalar(key, ilevel)
		e.indent(ilevel)
		e.ws(":")
	} else {
		e.yamlKeySide(id)
		e.ws(":")
	}

	e.yamlValProps2(id)

	if t.IsValRef(id) {
		e.ws(" *")
		e.write(t.ValRef(id))
		e.nl()

		return
	}

	v := t.Val(id)

	if needsBlock(v) {
		e.ws(" ")
		e.yamlBlockScalar(v, ilevel)

		return
	}

	e.ws(" ")
	e.yamlScalar(v, t.IsValQuoted(id))
	e.nl()
}

// yamlVal writes a plain value node: a sequence element ("- <val>") or a
// bare root/doc value.
func (e *emitter) yamlVal(id yamltree.NodeID, ilevel int, doIndent bool) {
	t := e.t

	if doIndent {
		e.indent(ilevel)
	}

	parent := t.Parent(id)
	if !parent.IsNone() && t.IsSeq(parent) {
		e.ws("- ")
	}

	e.yamlValProps(id)

	if t.IsValRef(id) {
		e.ws("*")
		e.write(t.ValRef(id))
		e.nl()

		return
	}

	v := t.Val(id)

	if needsBlock(v) {
		e.yamlBlockScalar(v, ilevel)
		return
	}

	e.yamlScalar(v, t.IsValQuoted(id))
	e.nl()
}

// yamlKeySide writes the key scalar with its tag and anchor (or its alias
// form for an unresolved key ref).
func (e *emitter) yamlKeySide(id yamltree.NodeID) {
	t := e.t

	if t.HasKeyTag(id) {
		e.write(t.KeyTag(id))
		e.ws(" ")
	}

	if t.HasKeyAnchor(id) {
		e.ws("&")
		e.write(t.KeyAnchor(id))
		e.ws(" ")
	}

	if t.IsKeyRef(id) {
		e.ws("*")
		e.write(t.KeyRef(id))

		return
	}

	e.yamlScalar(t.Key(id), t.IsKeyQuoted(id))
}

// yamlValProps writes the value-side tag and anchor with trailing spaces,
// for positions where the value follows on the same line.
func (e *emitter) yamlValProps(id yamltree.NodeID) {
	t := e.t

	if t.HasValTag(id) {
		e.write(t.ValTag(id))
		e.ws(" ")
	}

	if t.HasValAnchor(id) {
		e.ws("&")
		e.write(t.ValAnchor(id))
		e.ws(" ")
	}
}

// yamlValProps2 is yamlValProps with leading spaces instead, for the
// position right after a key's ":".
func (e *emitter) yamlValProps2(id yamltree.NodeID) {
	t := e.t

	if t.HasValTag(id) {
		e.ws(" ")
		e.write(t.ValTag(id))
	}

	if t.HasValAnchor(id) {
		e.ws(" &")
		e.write(t.ValAnchor(id))
	}
}
