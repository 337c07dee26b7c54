package yamltree

// NodeID is a dense, nonnegative index into a NodeStore's pool. It is
// stable across insertions but not across Reorder, Swap, or Clear.
type NodeID int32

// NONE is the reserved sentinel meaning "no node".
const NONE NodeID = -1

// IsNone reports whether id is the NONE sentinel.
func (id NodeID) IsNone() bool { return id == NONE }

// scalar holds one side (key or val) of a node's scalar content: the text
// itself plus its tag and anchor, each an independent byte range that is
// either a sub-slice of the tree's arena or an externally interned range
// supplied by the caller.
type scalar struct {
	text   []byte
	tag    []byte
	anchor []byte
}

// NodeData is the fixed-size record stored per slot in a NodeStore.
type NodeData struct {
	kind Kind

	key scalar
	val scalar

	parent      NodeID
	firstChild  NodeID
	lastChild   NodeID
	prevSibling NodeID
	nextSibling NodeID
}

func freeNode() NodeData {
	return NodeData{
		kind:        NOTYPE,
		parent:      NONE,
		firstChild:  NONE,
		lastChild:   NONE,
		prevSibling: NONE,
		nextSibling: NONE,
	}
}

// Handle is a generation-checked cookie for a node. Unlike a bare NodeID, a
// stale Handle can be detected: ResolveHandle returns false once the slot it
// names has been released and possibly reused, or relabeled by Swap or
// Reorder (which is implemented in terms of Swap), rather than silently
// handing back whatever unrelated node now lives at that id.
type Handle struct {
	id  NodeID
	gen uint32
}
