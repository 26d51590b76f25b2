// Package registry implements the per-locality, per-search shared
// state: the search space and parameters, the monotone local bound,
// the cooperative stop flag, and the per-depth node counters. One
// Registry lives for the duration of one search.
package registry

import (
	"sync"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
)

// Comparator reports whether a is strictly better than b, mirroring
// treesearch.Comparator without importing the engine package (which
// imports registry, not the other way around).
type Comparator[Bound any] func(a, b Bound) bool

// Registry holds the process-wide state for one active search of type
// <Space, Node, Bound>. The zero value is not usable; call Init first —
// every other method panics if called before Init, by design: a
// registry touched before initialisation is a programmer error, not a
// search-time failure to be surfaced through the error-return path.
type Registry[Space, Bound any] struct {
	mu     sync.Mutex
	better Comparator[Bound]
	space  Space
	bound  Bound
	inited bool
	stop   stopFlag
	counts []atomicCounter
}

// New constructs an empty Registry; callers must call Init before any
// other method.
func New[Space, Bound any](better Comparator[Bound]) *Registry[Space, Bound] {
	return &Registry[Space, Bound]{better: better}
}

func (r *Registry[Space, Bound]) requireInit() {
	if !r.inited {
		panic("registry: method called before Init")
	}
}

// Init sets space/initialBound, clears stopSearch, and allocates
// maxDepth+1 zeroed counters (uniformly sized per the resolved Open
// Question: always maxDepth+1 slots, indexed 0..=maxDepth).
func (r *Registry[Space, Bound]) Init(space Space, initialBound Bound, maxDepth uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.space = space
	r.bound = initialBound
	r.stop.store(false)
	r.counts = make([]atomicCounter, maxDepth+1)
	r.inited = true
}

// Space returns the registry's search space.
func (r *Registry[Space, Bound]) Space() Space {
	r.requireInit()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.space
}

// UpdateBound sets localBound = max(localBound, b) under the
// registry's comparator. Idempotent and safe under concurrent
// callers.
//
// The distilled spec calls this a "CAS loop"; Go's atomic package has
// no generic compare-and-swap over an arbitrary ordered Bound type
// without reflection, so this is realised as a small mutex-guarded
// critical section instead — same monotone-update semantics, just a
// locked read-modify-write rather than a lock-free retry loop.
func (r *Registry[Space, Bound]) UpdateBound(b Bound) {
	r.requireInit()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.better(b, r.bound) {
		r.bound = b
	}
}

// LocalBound returns the current local bound.
func (r *Registry[Space, Bound]) LocalBound() Bound {
	r.requireInit()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bound
}

// SetStop sets stopSearch true. Idempotent: repeated calls are
// equivalent to one.
func (r *Registry[Space, Bound]) SetStop() {
	r.requireInit()
	r.stop.store(true)
}

// StopRequested reports whether SetStop has been called.
func (r *Registry[Space, Bound]) StopRequested() bool {
	r.requireInit()
	return r.stop.load()
}

// UpdateCounts adds each element of local into the registry's
// per-depth counters. Called at most once per completed subtree task,
// to amortise atomics. local must not be longer than the registry's
// counters slice; a caller that sizes local to maxDepth+1 always
// satisfies this.
func (r *Registry[Space, Bound]) UpdateCounts(local []uint64) {
	r.requireInit()
	if len(local) > len(r.counts) {
		panic(apperrors.New(apperrors.CodeConfigError, "registry: local counts longer than registry counters").Error())
	}
	for i, v := range local {
		if v == 0 {
			continue
		}
		r.counts[i].add(v)
	}
}

// Counts returns a snapshot of the per-depth counters, sized
// maxDepth+1.
func (r *Registry[Space, Bound]) Counts() []uint64 {
	r.requireInit()
	out := make([]uint64, len(r.counts))
	for i := range r.counts {
		out[i] = r.counts[i].load()
	}
	return out
}
