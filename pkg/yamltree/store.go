package yamltree

import (
	"fmt"

	"github.com/flier/yamltree/internal/debug"
	"github.com/flier/yamltree/pkg/arena"
)

// minCap is the smallest capacity a freshly grown NodeStore is allowed to
// have.
const minCap = 16

// NodeStore is a flat, index-addressed pool of NodeData, backed by a byte
// arena for scalar text. Free slots are threaded through nextSibling into
// a singly linked free-list; claiming pops the head, releasing pushes a
// new head.
type NodeStore struct {
	nodes []NodeData
	gens  []uint32

	freeHead, freeTail NodeID
	size               int

	arena *arena.Arena
	hook  Hook

	// keyIndexes lazily indexes wide map nodes' children by key text; see
	// keyindex.go. Entries are built by FindChild once a map's child count
	// exceeds keyThreshold and kept up to date by SetHierarchy /
	// RemHierarchy, the key-setting mutators, and Swap.
	keyIndexes map[NodeID]*keyIndex
}

// NewNodeStore creates a NodeStore with a claimed root at id 0, per
// invariant 1: the root always exists and always has id 0.
func NewNodeStore() *NodeStore {
	s := &NodeStore{
		freeHead: NONE,
		freeTail: NONE,
		arena:    arena.New(256),
		hook:     panicHook,
	}

	s.growTo(minCap)

	root := s.claim()
	debug.Assert(root == 0, "first claimed node must be id 0, got %d", root)

	return s
}

// SetHook installs the fault hook used for invariant violations and other
// recoverable errors surfaced from deep within hierarchy or resolve
// operations. The default hook panics.
func (s *NodeStore) SetHook(h Hook) {
	if h == nil {
		h = panicHook
	}
	s.hook = h
}

func (s *NodeStore) fault(kind FaultKind, node NodeID, format string, args ...any) {
	s.hook(Fault{Kind: kind, Node: node, Message: fmt.Sprintf(format, args...)})
}

// Len returns the number of live (non-free) nodes.
func (s *NodeStore) Len() int { return s.size }

// Cap returns the total number of slots, live and free.
func (s *NodeStore) Cap() int { return len(s.nodes) }

func (s *NodeStore) node(id NodeID) *NodeData {
	debug.Assert(id >= 0 && int(id) < len(s.nodes), "node id %d out of range [0,%d)", id, len(s.nodes))
	return &s.nodes[id]
}

// growTo grows the pool so it has at least n slots, appending the new
// slots to the free-list tail in ascending id order.
func (s *NodeStore) growTo(n int) {
	if n <= len(s.nodes) {
		return
	}

	start := len(s.nodes)
	grown := make([]NodeData, n)
	copy(grown, s.nodes)
	for i := start; i < n; i++ {
		grown[i] = freeNode()
	}
	s.nodes = grown

	gens := make([]uint32, n)
	copy(gens, s.gens)
	s.gens = gens

	debug.Log(nil, "Reserve", "%d -> %d slots", start, n)

	for i := start; i < n; i++ {
		id := NodeID(i)
		if s.freeTail.IsNone() {
			s.freeHead = id
		} else {
			s.nodes[s.freeTail].nextSibling = id
		}
		s.freeTail = id
	}
}

// Reserve grows the pool to at least n slots. Unlike claim's implicit
// doubling, this is the bulk-load entry point: callers that know they are
// about to insert many nodes should call it up front to avoid repeated
// reallocation.
func (s *NodeStore) Reserve(n int) { s.growTo(n) }

// claim pops the free-list head, growing the pool by doubling (minimum
// minCap) first if it is empty, and returns the claimed id.
func (s *NodeStore) claim() NodeID {
	if s.freeHead.IsNone() {
		next := len(s.nodes) * 2
		if next < minCap {
			next = minCap
		}
		s.growTo(next)
	}

	id := s.freeHead
	n := s.node(id)
	s.freeHead = n.nextSibling
	if s.freeHead.IsNone() {
		s.freeTail = NONE
	}

	*n = freeNode()
	s.size++

	debug.Log(nil, "Claim", "id %d (size now %d)", id, s.size)

	return id
}

// release clears id's node and pushes it onto the free-list head.
func (s *NodeStore) release(id NodeID) {
	debug.Assert(id != 0, "root node (id 0) must never be released")

	*s.node(id) = freeNode()
	s.node(id).nextSibling = s.freeHead
	s.freeHead = id
	if s.freeTail.IsNone() {
		s.freeTail = id
	}
	s.size--
	s.gens[id]++

	delete(s.keyIndexes, id)

	debug.Log(nil, "Release", "id %d (size now %d)", id, s.size)
}

// Clear resets the store to a single claimed root at id 0, as if freshly
// constructed, but keeps the existing pool capacity and arena buffer.
func (s *NodeStore) Clear() {
	for i := range s.nodes {
		s.nodes[i] = freeNode()
	}

	s.freeHead, s.freeTail = NONE, NONE
	s.size = 0
	s.keyIndexes = nil
	s.arena.Reset()

	for i := range s.gens {
		s.gens[i]++
	}

	for i := range s.nodes {
		id := NodeID(i)
		if s.freeTail.IsNone() {
			s.freeHead = id
		} else {
			s.nodes[s.freeTail].nextSibling = id
		}
		s.freeTail = id
	}

	root := s.claim()
	debug.Assert(root == 0, "root reclaimed after Clear must be id 0, got %d", root)
}

// HandleOf returns a generation-checked cookie for id. Unlike the bare id,
// the cookie goes stale (and says so through ResolveHandle) once the slot
// is released, swapped, or cleared, instead of silently naming whatever
// node lives there afterwards.
func (s *NodeStore) HandleOf(id NodeID) Handle {
	return Handle{id: id, gen: s.gens[id]}
}

// ResolveHandle returns the id h names, or false if the slot has been
// released, relabeled by Swap or Reorder, or invalidated by Clear since
// the handle was taken.
func (s *NodeStore) ResolveHandle(h Handle) (NodeID, bool) {
	if h.id < 0 || int(h.id) >= len(s.nodes) {
		return NONE, false
	}

	if s.gens[h.id] != h.gen {
		return NONE, false
	}

	return h.id, true
}

// internText copies b into the arena, reserving more capacity first if
// needed, and returns the interned range. An empty b interns to nil
// without touching the arena.
func (s *NodeStore) internText(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	if s.arena.Len()+len(b) > s.arena.Cap() {
		s.relocateAll(func() { s.arena.Reserve(s.arena.Len() + len(b)) })
	}

	dst, err := s.arena.Alloc(len(b))
	if err != nil {
		s.fault(ArenaTooSmall, NONE, "%s", err)
		return nil
	}

	copy(dst, b)

	return dst
}

// AllocArena reserves n contiguous bytes directly from the arena without
// copying anything into them, for parser-ingestion callers that want to
// write scalar bytes in place.
func (s *NodeStore) AllocArena(n int) []byte {
	if s.arena.Len()+n > s.arena.Cap() {
		s.relocateAll(func() { s.arena.Reserve(s.arena.Len() + n) })
	}

	b, err := s.arena.Alloc(n)
	if err != nil {
		s.fault(ArenaTooSmall, NONE, "%s", err)
		return nil
	}

	return b
}

// relocateAll wraps an arena-growing operation with a relocation pass
// over every node's six scalar ranges, retargeting any that pointed into
// the old buffer: the one O(N) fix-up pass per arena growth.
func (s *NodeStore) relocateAll(grow func()) {
	s.arena.OnRelocate(func(old, new []byte) {
		for i := range s.nodes {
			n := &s.nodes[i]
			relocateIfOwned(old, new, &n.key.text)
			relocateIfOwned(old, new, &n.key.tag)
			relocateIfOwned(old, new, &n.key.anchor)
			relocateIfOwned(old, new, &n.val.text)
			relocateIfOwned(old, new, &n.val.tag)
			relocateIfOwned(old, new, &n.val.anchor)
		}
	})

	grow()
}

func relocateIfOwned(old, new []byte, b *[]byte) {
	if !arena.Contains(old, *b) {
		return
	}

	*b = arena.Relocated(old, new, *b)
}
