// Package incumbent implements the single-linearisation-point holder
// of the current best known candidate in Optimisation/Decision
// searches. Exactly one Incumbent lives on the root locality; remote
// proposers reach it through a transport.ClusterTransport RemoteCall.
package incumbent

import "sync"

// Candidate mirrors treesearch.Candidate without importing the engine
// package (incumbent is a leaf dependency of the engine, not the
// other way around).
type Candidate[Node, Bound any] struct {
	Solution Node
	Bound    Bound
	Found    bool
}

// Comparator reports whether a is strictly better than b.
type Comparator[Bound any] func(a, b Bound) bool

// BoundBroadcaster is invoked whenever Propose accepts a new
// candidate, to push the improved bound out to every locality's
// Registry. Wiring this to transport.ClusterTransport.Broadcast keeps
// this package free of a transport dependency.
type BoundBroadcaster[Bound any] func(bound Bound)

// Incumbent holds the current best candidate under a mutex — the
// distilled spec's "single-writer mutex, or compare-and-swap plus
// re-check"; a plain mutex is simplest here since Propose also has a
// side effect (the broadcast) that must happen exactly once per
// accepted improvement, which a bare CAS loop would complicate.
type Incumbent[Node, Bound any] struct {
	mu        sync.Mutex
	current   Candidate[Node, Bound]
	better    Comparator[Bound]
	broadcast BoundBroadcaster[Bound]
}

// New constructs an Incumbent seeded with initial (typically the
// sentinel "not found" candidate with Found=false). broadcast may be
// nil, in which case Propose never pushes bound updates out (useful
// for single-locality runs where the registry is updated directly).
func New[Node, Bound any](initial Candidate[Node, Bound], better Comparator[Bound], broadcast BoundBroadcaster[Bound]) *Incumbent[Node, Bound] {
	return &Incumbent[Node, Bound]{
		current:   initial,
		better:    better,
		broadcast: broadcast,
	}
}

// Propose replaces the current candidate iff candidate's bound beats
// it, and broadcasts the new bound to every locality on acceptance.
// No-op otherwise. Safe for concurrent callers.
func (i *Incumbent[Node, Bound]) Propose(candidate Candidate[Node, Bound]) (accepted bool) {
	if !candidate.Found {
		return false
	}

	i.mu.Lock()
	if !i.current.Found || i.better(candidate.Bound, i.current.Bound) {
		i.current = candidate
		accepted = true
	}
	bcast := i.broadcast
	bound := i.current.Bound
	i.mu.Unlock()

	if accepted && bcast != nil {
		bcast(bound)
	}
	return accepted
}

// Get returns a copy of the current candidate.
func (i *Incumbent[Node, Bound]) Get() Candidate[Node, Bound] {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}
