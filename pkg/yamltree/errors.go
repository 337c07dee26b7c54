package yamltree

import "fmt"

// Kind of a reported Fault. These mirror the error kinds a caller-installed
// hook is expected to discriminate on.
type FaultKind int

const (
	// UnknownEmitType is reported when Emit is called with an unrecognized
	// output type.
	UnknownEmitType FaultKind = iota
	// JSONFeatureUnsupported is reported when JSON emission encounters a
	// stream, tag, or anchor.
	JSONFeatureUnsupported
	// AnchorNotFound is reported when an alias has no matching preceding
	// anchor.
	AnchorNotFound
	// InvariantViolation is reported when a structural precondition fails:
	// wrong node kind, orphan child, free-list corruption.
	InvariantViolation
	// ArenaTooSmall is reported when a scalar allocation exceeds the
	// reserved arena and no growth policy is installed.
	ArenaTooSmall
	// DepthExceeded is reported when a recursive operation exceeds its
	// configured maximum depth.
	DepthExceeded
)

func (k FaultKind) String() string {
	switch k {
	case UnknownEmitType:
		return "UnknownEmitType"
	case JSONFeatureUnsupported:
		return "JSONFeatureUnsupported"
	case AnchorNotFound:
		return "AnchorNotFound"
	case InvariantViolation:
		return "InvariantViolation"
	case ArenaTooSmall:
		return "ArenaTooSmall"
	case DepthExceeded:
		return "DepthExceeded"
	default:
		return "Unknown"
	}
}

// Fault is the value passed to an error hook: a kind plus a human-readable
// message and, where relevant, the node the fault concerns.
type Fault struct {
	Kind    FaultKind
	Message string
	Node    NodeID
}

func (f Fault) Error() string {
	if f.Node.IsNone() {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}

	return fmt.Sprintf("%s: %s (node %d)", f.Kind, f.Message, f.Node)
}

// Hook is called whenever a Tree or Emitter encounters a Fault. The default
// hook panics; callers may install one that unwinds some other way (a
// sentinel error return, a longjmp-style panic/recover pair of their own,
// or a log-and-continue policy for non-fatal kinds).
type Hook func(Fault)

func panicHook(f Fault) { panic(f) }

// InvariantError reports a failed structural precondition: a wrong node
// kind, an orphaned child, or free-list corruption detected outside of a
// debug build's assertions.
type InvariantError struct {
	Node    NodeID
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at node %d: %s", e.Node, e.Message)
}

// ResolveError reports an alias with no matching preceding anchor.
type ResolveError struct {
	Node NodeID
	Name string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("anchor does not exist: %q", e.Name)
}

// ErrDepthExceeded describes a recursive operation exceeding its maximum
// depth. Duplicate and MergeWith report that case through the hook as a
// Fault of kind DepthExceeded, and the emitters return such a Fault; none
// of them returns an ErrDepthExceeded, and LookupPath has no depth cap.
// Alias expansion can inflate effective tree depth far beyond the literal
// document nesting, which is why those operations cap recursion.
type ErrDepthExceeded struct {
	Node  NodeID
	Limit int
}

func (e *ErrDepthExceeded) Error() string {
	return fmt.Sprintf("max depth %d exceeded at node %d", e.Limit, e.Node)
}
