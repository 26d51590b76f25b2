package treesearch

import "cmp"

// Mode selects which per-node processing the skeleton engine runs.
// Exactly one Mode is required by every Search entry point; the zero
// value is intentionally invalid so a caller who forgets to set it
// gets a configuration error rather than silent CountNodes behaviour.
type Mode int

const (
	// ModeUnspecified is the zero value; Search rejects it.
	ModeUnspecified Mode = iota

	// ModeCountNodes accumulates a per-depth histogram of visited nodes.
	ModeCountNodes

	// ModeOptimisation requires BoundFn and maintains a running
	// incumbent, pruning children whose bound cannot beat it.
	ModeOptimisation

	// ModeDecision behaves like ModeOptimisation but stops the whole
	// search as soon as DecisionHit reports a match.
	ModeDecision
)

func (m Mode) String() string {
	switch m {
	case ModeCountNodes:
		return "count-nodes"
	case ModeOptimisation:
		return "optimisation"
	case ModeDecision:
		return "decision"
	default:
		return "unspecified"
	}
}

// Comparator reports whether a is strictly better than b under the
// search's objective. Optimisation/Decision skeletons call it to
// decide whether a candidate improves on the current bound.
type Comparator[Bound any] func(a, b Bound) bool

// Greater returns a Comparator implementing the conventional
// maximising objective ">" for any cmp.Ordered bound type. It is not
// applied automatically: Options.Better has no default.
func Greater[T cmp.Ordered]() Comparator[T] {
	return func(a, b T) bool { return a > b }
}

// Options configures a skeleton run. It is the Go realisation of the
// original compile-time tag bag: one Mode plus a handful of optional
// hooks, monomorphised per call rather than dynamically dispatched on
// the hot expansion path.
type Options[Space, Node, Bound any] struct {
	// Mode selects CountNodes, Optimisation or Decision. Required.
	Mode Mode

	// PruneLevel, when true, stops expanding remaining siblings as
	// soon as one child is pruned by bound. Only sound when a
	// Generator yields children in non-increasing bound order.
	PruneLevel bool

	// BoundFn computes an admissible upper bound for a node, used
	// purely to decide whether a subtree can be pruned against the
	// current incumbent. Required for Optimisation and Decision,
	// ignored for CountNodes. Must be a pure function, safe to call
	// concurrently. BoundFn is typically a relaxation (e.g. knapsack's
	// fractional-capacity estimate) and will usually overstate what the
	// subtree can actually achieve — it must never be used as the
	// node's own value.
	BoundFn func(space Space, node Node) Bound

	// ValueFn returns the node's own achieved objective value — the
	// quantity recorded and compared when a node becomes (or is
	// checked against) the incumbent. Distinct from BoundFn whenever
	// the bound is a relaxation rather than an exact value. When left
	// nil, it defaults to BoundFn, which is only correct for problems
	// where the two coincide (e.g. a bound that is already exact, such
	// as MaxClique's candidate-set-size bound at a leaf); callers whose
	// BoundFn overstates the true value (e.g. knapsack's fractional
	// relaxation) must set ValueFn explicitly.
	ValueFn func(space Space, node Node) Bound

	// Better compares two bounds, reporting whether a is strictly
	// better than b. There is no default: a nil Better is a
	// configuration error in Optimisation/Decision mode, so callers set
	// it explicitly, e.g. with treesearch.Greater[int]().
	Better Comparator[Bound]

	// DecisionHit reports whether a candidate meets the decision
	// target. Required for Decision mode.
	DecisionHit func(cand Candidate[Node, Bound]) bool
}
