package treesearch

// Candidate is a proposed solution: a node paired with its bound and a
// flag distinguishing a real find from the sentinel "not found" value
// returned when Decision mode exhausts the tree without a hit.
type Candidate[Node, Bound any] struct {
	Solution Node  `json:"solution"`
	Bound    Bound `json:"bound"`
	Found    bool  `json:"found"`
}

// Params bundles the parameters shared by every parallel skeleton.
type Params[Bound any] struct {
	// SpawnDepth is the depth at or below which the DepthBounded
	// skeleton spawns a task per child; deeper children recurse
	// inline. Ignored by SearchSeq.
	SpawnDepth uint32 `json:"spawnDepth"`

	// MaxDepth is the inclusive depth bound. SearchDepthBounded and
	// SearchBnB reject 0; only SearchSeq, which takes its own maxDepth
	// argument, treats 0 as unlimited.
	MaxDepth uint32 `json:"maxDepth"`

	// InitialBound seeds Registry.localBound.
	InitialBound Bound `json:"initialBound"`
}

// Result is what SearchSeq and SearchDepthBounded return in every
// Mode: a per-depth histogram (CountNodes) and/or the best candidate
// found (Optimisation and Decision). SearchBnB returns only the
// Candidate.
type Result[Node, Bound any] struct {
	// Counts holds the number of nodes visited at each depth, sized
	// MaxDepth+1 and indexed 0..=MaxDepth. SearchSeq with maxDepth 0
	// sizes it to the deepest depth that has nodes, plus one.
	Counts []uint64

	// Incumbent holds the best candidate found in Optimisation or
	// Decision mode; zero value in CountNodes mode.
	Incumbent Candidate[Node, Bound]
}

// TotalNodes sums Counts; equals the size of the enumerated tree.
func (r Result[Node, Bound]) TotalNodes() uint64 {
	var total uint64
	for _, c := range r.Counts {
		total += c
	}
	return total
}
