package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/yewpar-go/yewpar/pkg/treesearch"
	"github.com/yewpar-go/yewpar/pkg/treesearch/transport"
)

// skeletonResult is what every skeleton/problem combination normalises
// to for printing and persistence, regardless of which of
// SearchSeq/SearchDepthBounded/SearchBnB actually ran.
type skeletonResult[Node, Bound any] struct {
	Counts    []uint64
	Incumbent treesearch.Candidate[Node, Bound]
}

// runSkeleton dispatches to the skeleton named by skeletonType, generic
// over whichever problem's (Space, Node, Bound) triple the caller has
// already built. "dist" and "bnb" require a known untilDepth (> 0);
// "seq" allows 0 to mean unlimited.
func runSkeleton[Space, Node, Bound any](
	ctx context.Context,
	skeletonType string,
	space Space,
	root Node,
	newGen treesearch.NewGeneratorFunc[Space, Node],
	opts treesearch.Options[Space, Node, Bound],
	spawnDepth, untilDepth uint32,
	localities, workers, stealAttempts int,
) (skeletonResult[Node, Bound], error) {
	switch skeletonType {
	case "seq":
		result, err := treesearch.SearchSeq(untilDepth, space, root, newGen, opts)
		if err != nil {
			return skeletonResult[Node, Bound]{}, err
		}
		return skeletonResult[Node, Bound]{Counts: result.Counts, Incumbent: result.Incumbent}, nil

	case "dist":
		rt, err := buildRuntime[Space, Node, Bound](localities, workers, stealAttempts)
		if err != nil {
			return skeletonResult[Node, Bound]{}, err
		}
		result, err := treesearch.SearchDepthBounded(ctx, space, root, newGen,
			treesearch.Params[Bound]{SpawnDepth: spawnDepth, MaxDepth: untilDepth}, opts, rt)
		if err != nil {
			return skeletonResult[Node, Bound]{}, err
		}
		return skeletonResult[Node, Bound]{Counts: result.Counts, Incumbent: result.Incumbent}, nil

	case "bnb":
		rt, err := buildRuntime[Space, Node, Bound](localities, workers, stealAttempts)
		if err != nil {
			return skeletonResult[Node, Bound]{}, err
		}
		cand, err := treesearch.SearchBnB(ctx, space, root, newGen,
			treesearch.Params[Bound]{SpawnDepth: spawnDepth, MaxDepth: untilDepth}, opts, rt)
		if err != nil {
			return skeletonResult[Node, Bound]{}, err
		}
		return skeletonResult[Node, Bound]{Incumbent: cand}, nil

	default:
		return skeletonResult[Node, Bound]{}, fmt.Errorf("unknown skeleton type: %q (valid: seq, dist, bnb)", skeletonType)
	}
}

// buildRuntime assembles an in-process Runtime over `localities`
// simulated localities using transport.LocalCluster, the same harness
// pkg/treesearch's own tests use; a real multi-process run would
// instead wire one transport.GRPCTransport per locality.
func buildRuntime[Space, Node, Bound any](localities, workers, stealAttempts int) (treesearch.Runtime[Space, Node, Bound], error) {
	if localities < 1 {
		return treesearch.Runtime[Space, Node, Bound]{}, fmt.Errorf("localities must be at least 1")
	}

	ids := make([]int, localities)
	for i := range ids {
		ids[i] = i
	}
	cluster := transport.NewLocalCluster(ids...)

	transports := make(map[int]transport.ClusterTransport, localities)
	for _, id := range ids {
		transports[id] = cluster.ForLocality(id)
	}

	return treesearch.Runtime[Space, Node, Bound]{
		Transports:    transports,
		RootLocality:  0,
		Workers:       workers,
		StealAttempts: stealAttempts,
		BackoffBase:   time.Millisecond,
	}, nil
}
