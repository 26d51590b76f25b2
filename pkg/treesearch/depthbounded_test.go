package treesearch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yewpar-go/yewpar/pkg/treesearch/transport"
)

func TestSearchDepthBounded_CountNodesAcrossLocalitiesMatchesSeq(t *testing.T) {
	root := boundedNode{id: 0, remaining: 2}
	seqResult, err := SearchSeq(2, 0, root, newBoundedGen(3), Options[int, boundedNode, int]{Mode: ModeCountNodes})
	require.NoError(t, err)

	cluster := transport.NewLocalCluster(0, 1)
	rt := Runtime[int, boundedNode, int]{
		Transports: map[int]transport.ClusterTransport{
			0: cluster.ForLocality(0),
			1: cluster.ForLocality(1),
		},
		RootLocality:  0,
		Workers:       1,
		StealAttempts: 3,
		BackoffBase:   time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := SearchDepthBounded(ctx, 0, root, newBoundedGen(3),
		Params[int]{SpawnDepth: 1, MaxDepth: 2}, Options[int, boundedNode, int]{Mode: ModeCountNodes}, rt)
	require.NoError(t, err)

	assert.Equal(t, seqResult.Counts, result.Counts)
	assert.Equal(t, seqResult.TotalNodes(), result.TotalNodes())
}

func TestSearchDepthBounded_OptimisationFindsGlobalMax(t *testing.T) {
	space := fixedFanoutSpace{fanout: 2}
	cluster := transport.NewLocalCluster(0)
	rt := Runtime[fixedFanoutSpace, int, int]{
		Transports:    map[int]transport.ClusterTransport{0: cluster.ForLocality(0)},
		RootLocality:  0,
		Workers:       2,
		StealAttempts: 1,
		BackoffBase:   time.Millisecond,
	}
	opts := Options[fixedFanoutSpace, int, int]{
		Mode:    ModeOptimisation,
		Better:  Greater[int](),
		BoundFn: func(_ fixedFanoutSpace, n int) int { return n },
	}
	params := Params[int]{SpawnDepth: 1, MaxDepth: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Complete binary tree of depth 2 rooted at id 0 under the
	// base*fanout+i labelling: the largest id reachable is 6
	// (0 -> 2 -> 6), and optimisation must find it regardless of the
	// order spawned subtree tasks happen to execute in.
	result, err := SearchDepthBounded(ctx, space, 0, newFixedFanoutGen, params, opts, rt)
	require.NoError(t, err)
	require.True(t, result.Incumbent.Found)
	assert.Equal(t, 6, result.Incumbent.Bound)
}

func TestSearchDepthBounded_RejectsZeroMaxDepth(t *testing.T) {
	cluster := transport.NewLocalCluster(0)
	rt := Runtime[int, boundedNode, int]{
		Transports:   map[int]transport.ClusterTransport{0: cluster.ForLocality(0)},
		RootLocality: 0,
	}
	_, err := SearchDepthBounded(context.Background(), 0, boundedNode{remaining: 1}, newBoundedGen(2),
		Params[int]{}, Options[int, boundedNode, int]{Mode: ModeCountNodes}, rt)
	assert.Error(t, err)
}

func TestSearchDepthBounded_RejectsUnknownRootLocality(t *testing.T) {
	cluster := transport.NewLocalCluster(0)
	rt := Runtime[int, boundedNode, int]{
		Transports:   map[int]transport.ClusterTransport{0: cluster.ForLocality(0)},
		RootLocality: 7,
	}
	_, err := SearchDepthBounded(context.Background(), 0, boundedNode{remaining: 1}, newBoundedGen(2),
		Params[int]{MaxDepth: 1}, Options[int, boundedNode, int]{Mode: ModeCountNodes}, rt)
	assert.Error(t, err)
}
