package treesearch

import (
	"time"

	"github.com/yewpar-go/yewpar/pkg/treesearch/pool"
	"github.com/yewpar-go/yewpar/pkg/treesearch/transport"
)

// Runtime bundles the distributed collaborators a parallel skeleton
// needs: one transport view per participating locality, the pool
// policy constructor, and scheduler tuning. A single-process test
// passes a one-locality Runtime (backed by a one-locality
// transport.LocalCluster); a multi-process driver passes a Runtime
// whose transports are transport.GRPCTransport views of real peers.
//
// This is the "explicit SearchContext value passed by reference"
// called for in the design notes, replacing the source's
// Registry::gReg global singleton: every field a search needs is
// reachable from this one value instead of a templated global.
type Runtime[Space, Node, Bound any] struct {
	// Transports maps locality id -> this process's view of that
	// locality's ClusterTransport. RootLocality must be a key.
	Transports map[int]transport.ClusterTransport

	// RootLocality is where the Incumbent lives and where the root
	// subtree task is seeded.
	RootLocality int

	// Workers is the per-locality worker goroutine count; 0 selects
	// scheduler.DefaultConfig's runtime.NumCPU()-1 heuristic.
	Workers int

	// StealAttempts and BackoffBase tune the scheduler's steal round;
	// zero values select scheduler.DefaultConfig's defaults.
	StealAttempts int
	BackoffBase   time.Duration

	// NewPool constructs the task-pool policy for one locality. Called
	// once per locality. Defaults to pool.NewWorkpool[Node] if nil.
	NewPool func() pool.Pool[Node]
}

func (rt Runtime[Space, Node, Bound]) localities() []int {
	ids := make([]int, 0, len(rt.Transports))
	for id := range rt.Transports {
		ids = append(ids, id)
	}
	return ids
}

func (rt Runtime[Space, Node, Bound]) newPool() pool.Pool[Node] {
	if rt.NewPool != nil {
		return rt.NewPool()
	}
	return pool.NewWorkpool[Node]()
}
