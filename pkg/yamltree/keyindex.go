package yamltree

import "github.com/dolthub/maphash"

// keyThreshold is the number of children a map node must have before its
// lazy key index is built. Below it, find_child's linear scan over
// siblings is already as fast as a hash lookup, and not worth the upkeep.
const keyThreshold = 8

// keyIndex is a hash index from a map node's key text to the ids of its
// children with that key, used by FindChild to avoid an O(children) scan
// on wide maps. It intentionally does not live in the arena: it indexes
// NodeIDs, not scalar content.
type keyIndex struct {
	hash    maphash.Hasher[string]
	buckets map[uint64][]NodeID
}

func newKeyIndex() *keyIndex {
	return &keyIndex{hash: maphash.NewHasher[string]()}
}

func (ix *keyIndex) add(key string, id NodeID) {
	if ix.buckets == nil {
		ix.buckets = make(map[uint64][]NodeID)
	}

	h := ix.hash.Hash(key)
	ix.buckets[h] = append(ix.buckets[h], id)
}

func (ix *keyIndex) remove(key string, id NodeID) {
	if ix.buckets == nil {
		return
	}

	h := ix.hash.Hash(key)
	ids := ix.buckets[h]
	for i, v := range ids {
		if v == id {
			ix.buckets[h] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// find calls match for every child previously added under key, in the
// order they were added, returning the first id match accepts.
//
// A hash index only narrows by key text; match still has to confirm the
// candidate's actual key bytes and kind, since keyIndex never compares
// key content directly (two different keys can share a bucket).
func (ix *keyIndex) find(key string, match func(NodeID) bool) (NodeID, bool) {
	if ix.buckets == nil {
		return NONE, false
	}

	h := ix.hash.Hash(key)
	for _, id := range ix.buckets[h] {
		if match(id) {
			return id, true
		}
	}

	return NONE, false
}

// indexInsert records child's current key under parent's index, if parent
// already has one built. It does not build a new index eagerly: indexes
// are only built lazily, by FindChild, once a linear scan proves costly.
func (s *NodeStore) indexInsert(parent, child NodeID) {
	if parent.IsNone() {
		return
	}

	ix := s.keyIndexes[parent]
	if ix == nil {
		return
	}

	ix.add(string(s.node(child).key.text), child)
}

// indexRemove drops child from parent's index, if one exists. It must be
// called before the child's key text is cleared.
func (s *NodeStore) indexRemove(parent, child NodeID) {
	if parent.IsNone() {
		return
	}

	ix := s.keyIndexes[parent]
	if ix == nil {
		return
	}

	ix.remove(string(s.node(child).key.text), child)
}

// indexSwap updates parent's index, if one exists, to point at newID
// wherever it pointed at oldID: used when swapWithFree relocates a live
// node into a free slot without going through RemHierarchy/SetHierarchy.
func (s *NodeStore) indexSwap(parent, oldID, newID NodeID) {
	if parent.IsNone() {
		return
	}

	ix := s.keyIndexes[parent]
	if ix == nil {
		return
	}

	key := string(s.node(newID).key.text)
	ix.remove(key, oldID)
	ix.add(key, newID)
}

// FindChild returns the id of the child of parent whose key text equals
// key, if any. It scans linearly below keyThreshold children; past that,
// it lazily builds (and thereafter incrementally maintains) a hash index
// so repeated lookups on wide maps stay close to O(1).
func (s *NodeStore) FindChild(parent NodeID, key string) (NodeID, bool) {
	if ix := s.keyIndexes[parent]; ix != nil {
		return ix.find(key, func(id NodeID) bool {
			return string(s.node(id).key.text) == key
		})
	}

	var (
		found NodeID = NONE
		count int
	)

	for c := s.node(parent).firstChild; !c.IsNone(); c = s.node(c).nextSibling {
		count++
		if found.IsNone() && string(s.node(c).key.text) == key {
			found = c
		}
	}

	if count > keyThreshold {
		s.buildIndex(parent)
	}

	return found, !found.IsNone()
}

func (s *NodeStore) buildIndex(parent NodeID) {
	if s.keyIndexes == nil {
		s.keyIndexes = make(map[NodeID]*keyIndex)
	}

	ix := newKeyIndex()
	for c := s.node(parent).firstChild; !c.IsNone(); c = s.node(c).nextSibling {
		ix.add(string(s.node(c).key.text), c)
	}

	s.keyIndexes[parent] = ix
}
