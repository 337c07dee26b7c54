package yamltree

import "github.com/flier/yamltree/internal/debug"

// SetHierarchy inserts child immediately after prevSibling under parent. If
// prevSibling is NONE, child becomes the new first child. It operates
// purely on link fields; it never touches scalar data.
func (s *NodeStore) SetHierarchy(child, parent, prevSibling NodeID) {
	debug.Assert(child != parent, "node %d cannot be its own parent", child)

	c := s.node(child)
	c.parent = parent

	p := s.node(parent)

	if prevSibling.IsNone() {
		c.prevSibling = NONE
		c.nextSibling = p.firstChild

		if p.firstChild.IsNone() {
			p.lastChild = child
		} else {
			s.node(p.firstChild).prevSibling = child
		}

		p.firstChild = child
	} else {
		prev := s.node(prevSibling)
		next := prev.nextSibling

		c.prevSibling = prevSibling
		c.nextSibling = next
		prev.nextSibling = child

		if next.IsNone() {
			p.lastChild = child
		} else {
			s.node(next).prevSibling = child
		}
	}

	s.indexInsert(parent, child)
}

// RemHierarchy unlinks id from its parent's child list, repairing
// first_child/last_child, and leaves id's own parent/sibling fields
// pointing nowhere.
func (s *NodeStore) RemHierarchy(id NodeID) {
	n := s.node(id)
	parent := n.parent

	s.indexRemove(parent, id)

	if n.prevSibling.IsNone() {
		if !parent.IsNone() {
			s.node(parent).firstChild = n.nextSibling
		}
	} else {
		s.node(n.prevSibling).nextSibling = n.nextSibling
	}

	if n.nextSibling.IsNone() {
		if !parent.IsNone() {
			s.node(parent).lastChild = n.prevSibling
		}
	} else {
		s.node(n.nextSibling).prevSibling = n.prevSibling
	}

	n.parent = NONE
	n.prevSibling = NONE
	n.nextSibling = NONE
}

// Move repositions id to immediately after `after` under its current
// parent.
func (s *NodeStore) Move(id, after NodeID) {
	parent := s.node(id).parent
	s.RemHierarchy(id)
	s.SetHierarchy(id, parent, after)
}

// MoveTo relocates id to be a child of newParent, positioned after `after`.
// newParent must not be NONE and id must not be the root.
func (s *NodeStore) MoveTo(id, newParent, after NodeID) {
	debug.Assert(!newParent.IsNone(), "MoveTo requires a non-NONE new parent")
	debug.Assert(id != 0, "root node cannot be moved")

	s.RemHierarchy(id)
	s.SetHierarchy(id, newParent, after)
}

// MoveAcross relocates id from src into dst as a child of newParent,
// positioned after `after`, then removes the original from src. It is
// equivalent to Duplicate followed by a removal on the source tree.
func MoveAcross(dst, src *NodeStore, id, newParent, after NodeID) NodeID {
	newID := Duplicate(dst, src, id, newParent, after)
	src.removeSubtree(id)
	return newID
}

// Swap exchanges both the property blocks and the hierarchy positions of a
// and b, such that id a ends up exactly where b used to be (with b's old
// content) and vice versa. It handles adjacency (a and b are siblings),
// identical-parent endpoints, and parent/child relationships (a is an
// ancestor of b or vice versa) correctly, by substituting every internal
// self-reference to a or b with the other before assigning. If one side is
// NOTYPE (free), the operation degenerates to a one-way copy of the live
// side into the free slot.
func (s *NodeStore) Swap(a, b NodeID) {
	if a == b {
		return
	}

	an, bn := s.node(a), s.node(b)

	if an.kind == NOTYPE || bn.kind == NOTYPE {
		s.swapWithFree(a, b)
		return
	}

	A0, B0 := *an, *bn

	subst := func(x NodeID) NodeID {
		switch x {
		case a:
			return b
		case b:
			return a
		default:
			return x
		}
	}

	an.kind, an.key, an.val = B0.kind, B0.key, B0.val
	an.parent = subst(B0.parent)
	an.prevSibling = subst(B0.prevSibling)
	an.nextSibling = subst(B0.nextSibling)
	an.firstChild = subst(B0.firstChild)
	an.lastChild = subst(B0.lastChild)

	bn.kind, bn.key, bn.val = A0.kind, A0.key, A0.val
	bn.parent = subst(A0.parent)
	bn.prevSibling = subst(A0.prevSibling)
	bn.nextSibling = subst(A0.nextSibling)
	bn.firstChild = subst(A0.firstChild)
	bn.lastChild = subst(A0.lastChild)

	s.retargetNeighbors(A0, a, b)
	s.retargetNeighbors(B0, b, a)

	// A map's own key index follows its content to the other id.
	if s.keyIndexes != nil {
		ia, ib := s.keyIndexes[a], s.keyIndexes[b]
		delete(s.keyIndexes, a)
		delete(s.keyIndexes, b)

		if ib != nil {
			s.keyIndexes[a] = ib
		}

		if ia != nil {
			s.keyIndexes[b] = ia
		}
	}

	s.indexSwap(subst(A0.parent), a, b)
	s.indexSwap(subst(B0.parent), b, a)

	s.gens[a]++
	s.gens[b]++
}

// retargetNeighbors fixes up every node outside {a,b} that used to
// reference `from` (old's own owner id, either a or b) so it now
// references `to` instead: from's old parent's child-list endpoints, its
// old siblings, and its old children. Nodes that are themselves a or b are
// skipped, since their own records were already corrected directly by the
// substitution in Swap.
func (s *NodeStore) retargetNeighbors(old NodeData, from, to NodeID) {
	a, b := from, to

	if p := old.parent; !p.IsNone() && p != a && p != b {
		pn := s.node(p)
		if old.prevSibling.IsNone() {
			pn.firstChild = to
		}
		if old.nextSibling.IsNone() {
			pn.lastChild = to
		}
	}

	if prev := old.prevSibling; !prev.IsNone() && prev != a && prev != b {
		s.node(prev).nextSibling = to
	}

	if next := old.nextSibling; !next.IsNone() && next != a && next != b {
		s.node(next).prevSibling = to
	}

	for c := old.firstChild; !c.IsNone(); {
		if c == a || c == b {
			// c is the other swapped node: its content, and with it the
			// sibling link to follow, now lives at from.
			c = s.node(from).nextSibling
			continue
		}
		s.node(c).parent = to
		c = s.node(c).nextSibling
	}
}

// fixNeighbors repairs the sibling/parent pointers of id's neighbors (and
// parent's first/last child) to point at id, given that id has already
// recorded parent and prevSibling correctly (its own nextSibling is
// likewise already correct from the field swap).
func (s *NodeStore) fixNeighbors(id, parent, prev NodeID) {
	n := s.node(id)
	n.parent = parent
	n.prevSibling = prev

	if prev.IsNone() {
		if !parent.IsNone() {
			s.node(parent).firstChild = id
		}
	} else {
		s.node(prev).nextSibling = id
	}

	next := n.nextSibling
	if next.IsNone() {
		if !parent.IsNone() {
			s.node(parent).lastChild = id
		}
	} else {
		s.node(next).prevSibling = id
	}
}

// fixChildrenParent repoints every child of id back at id, needed after id
// moved slots during a swap.
func (s *NodeStore) fixChildrenParent(id NodeID) {
	for c := s.node(id).firstChild; !c.IsNone(); c = s.node(c).nextSibling {
		s.node(c).parent = id
	}
}

// swapWithFree handles Swap when exactly one side is a free (NOTYPE) slot:
// the live side is copied into the free slot and the original live slot is
// released back to the free-list.
func (s *NodeStore) swapWithFree(a, b NodeID) {
	live, free := a, b
	if s.node(a).kind == NOTYPE {
		live, free = b, a
	}

	debug.Assert(live != 0, "root node (id 0) must never be vacated into a free slot")

	s.unlinkFree(free)

	parent := s.node(live).parent
	prev := s.node(live).prevSibling

	*s.node(free) = *s.node(live)
	s.size++ // release(live) below undoes claim's implicit accounting; free becomes live here
	s.gens[free]++
	s.fixNeighbors(free, parent, prev)
	s.fixChildrenParent(free)
	s.indexSwap(parent, live, free)

	s.release(live)
}

// unlinkFree removes id from the free-list, wherever it sits in the chain.
// The free-list is singly linked through next_sibling, so this is only
// O(1) when id happens to be the head; callers only reach this path (via
// Reorder, when a target slot is free rather than occupied by another live
// node) rarely enough that the occasional O(free count) scan is acceptable.
func (s *NodeStore) unlinkFree(id NodeID) {
	if s.freeHead == id {
		s.freeHead = s.node(id).nextSibling
		if s.freeHead.IsNone() {
			s.freeTail = NONE
		}
		return
	}

	for c := s.freeHead; !c.IsNone(); c = s.node(c).nextSibling {
		if s.node(c).nextSibling == id {
			next := s.node(id).nextSibling
			s.node(c).nextSibling = next
			if next.IsNone() {
				s.freeTail = c
			}
			return
		}
	}
}

// removeSubtree unlinks id and releases it and every descendant back to
// the free-list.
func (s *NodeStore) removeSubtree(id NodeID) {
	s.RemHierarchy(id)
	s.releaseSubtree(id)
}

func (s *NodeStore) releaseSubtree(id NodeID) {
	child := s.node(id).firstChild
	for !child.IsNone() {
		next := s.node(child).nextSibling
		s.releaseSubtree(child)
		child = next
	}

	s.release(id)
}

// Duplicate deep-copies id (and all its descendants, in order) from src
// into dst as a child of parent, positioned after `after`, and returns the
// new id.
func Duplicate(dst, src *NodeStore, id, parent, after NodeID) NodeID {
	return duplicateDepth(dst, src, id, parent, after, 0, maxDepth)
}

const maxDepth = 256

func duplicateDepth(dst, src *NodeStore, id, parent, after NodeID, depth, limit int) NodeID {
	if depth > limit {
		dst.fault(DepthExceeded, id, "duplicate exceeded max depth %d", limit)
		return NONE
	}

	newID := dst.claim()
	srcNode := src.node(id)

	dstNode := dst.node(newID)
	dstNode.kind = srcNode.kind
	dstNode.key = copyScalar(dst, src, srcNode.key)
	dstNode.val = copyScalar(dst, src, srcNode.val)

	dst.SetHierarchy(newID, parent, after)

	prevChild := NONE
	for c := srcNode.firstChild; !c.IsNone(); c = src.node(c).nextSibling {
		prevChild = duplicateDepth(dst, src, c, newID, prevChild, depth+1, limit)
	}

	return newID
}

func copyScalar(dst, src *NodeStore, s scalar) scalar {
	return scalar{
		text:   internFrom(dst, src, s.text),
		tag:    internFrom(dst, src, s.tag),
		anchor: internFrom(dst, src, s.anchor),
	}
}

// internFrom copies b into dst's arena if dst and src are different
// stores (cross-tree duplication); within the same store, external
// (non-arena) ranges are reused verbatim and arena ranges are still
// re-interned, since the source range may later be invalidated by src's
// own arena growth.
func internFrom(dst, src *NodeStore, b []byte) []byte {
	if len(b) == 0 {
		// Preserves the present-but-empty vs absent distinction: a
		// zero-length range is never in-arena, so it is safe to share.
		return b
	}

	if dst != src && !src.arena.InArena(b) {
		return b
	}

	return dst.internText(b)
}

// DuplicateChildrenNoRep merges src's children under srcParent into dst's
// children under dstParent, placing them one after another starting after
// `after`, without repeating keys already present in the destination: if
// the destination has no child with a source child's key, a copy of the
// source child is inserted at the current insertion point; otherwise, if
// the existing destination child sits before `after` it is removed and the
// source copy is inserted at the current insertion point (source
// overrides), and if it sits at or after `after` the existing child is
// moved to the current insertion point and the source copy is discarded
// (destination overrides).
func DuplicateChildrenNoRep(dst, src *NodeStore, srcParent, dstParent, after NodeID) NodeID {
	pos := after

	for c := src.node(srcParent).firstChild; !c.IsNone(); c = src.node(c).nextSibling {
		key := string(src.node(c).key.text)

		existing, ok := dst.FindChild(dstParent, key)
		if !ok {
			pos = Duplicate(dst, src, c, dstParent, pos)
			continue
		}

		if isBefore(dst, existing, after) {
			dst.removeSubtree(existing)
			pos = Duplicate(dst, src, c, dstParent, pos)
		} else {
			if existing != pos {
				dst.Move(existing, pos)
			}
			pos = existing
		}
	}

	return pos
}

// isBefore reports whether id occurs strictly before mark in mark's
// sibling chain (NONE counts as "at the very end", so nothing is before
// NONE... except everything is, since "insert after NONE" means "insert
// at the front": callers treat mark == NONE as "destination override can
// never apply", matching the source's dominant code path for this
// otherwise-ambiguous case).
func isBefore(s *NodeStore, id, mark NodeID) bool {
	if mark.IsNone() {
		return true
	}

	for c := s.node(s.node(id).parent).firstChild; !c.IsNone(); c = s.node(c).nextSibling {
		if c == mark {
			// Sitting exactly at the mark counts as at-or-after.
			return false
		}
		if c == id {
			return true
		}
	}

	return true
}

// Reorder performs an in-place DFS that swaps nodes so that ids reflect
// document order: after Reorder, traversal by increasing id equals
// traversal by first_child/next_sibling.
func (s *NodeStore) Reorder() {
	next := NodeID(0)
	s.reorderWalk(0, &next)
}

func (s *NodeStore) reorderWalk(id NodeID, next *NodeID) {
	want := *next
	*next++

	if id != want {
		s.Swap(id, want)
		id = want
	}

	c := s.node(id).firstChild
	for !c.IsNone() {
		// The child is about to be swapped into slot *next; read its
		// sibling link from there afterwards, since its old slot now
		// holds whatever the swap displaced.
		landed := *next
		s.reorderWalk(c, next)
		c = s.node(landed).nextSibling
	}
}
