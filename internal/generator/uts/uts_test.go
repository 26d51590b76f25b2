package uts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yewpar-go/yewpar/pkg/treesearch"
	"github.com/yewpar-go/yewpar/pkg/treesearch/transport"
)

func binomialParams() Params {
	return Params{
		RootBranchingFactor:    4,
		NonLeafBranchingFactor: 4,
		NonLeafProbability:     15.0 / 64.0,
	}
}

func TestBinomialGenerator_RootUsesRootBranchingFactor(t *testing.T) {
	params := binomialParams()
	root := Root(0)
	gen := NewBinomialGenerator(params)(params, root)
	assert.Equal(t, params.RootBranchingFactor, gen.NumChildren())
}

func TestBinomialGenerator_ChildrenHaveIncrementedDepth(t *testing.T) {
	params := binomialParams()
	root := Root(0)
	gen := NewBinomialGenerator(params)(params, root)
	for i := 0; i < gen.NumChildren(); i++ {
		child := gen.Next()
		assert.EqualValues(t, 1, child.Depth)
		assert.False(t, child.IsRoot)
	}
}

func TestBinomialGenerator_SameParentStateIsDeterministic(t *testing.T) {
	params := binomialParams()
	root := Root(42)
	genA := NewBinomialGenerator(params)(params, root)
	genB := NewBinomialGenerator(params)(params, root)
	require.Equal(t, genA.NumChildren(), genB.NumChildren())
	for i := 0; i < genA.NumChildren(); i++ {
		assert.Equal(t, genA.Next(), genB.Next())
	}
}

func TestBinomialGenerator_SiblingsGetDistinctStates(t *testing.T) {
	params := binomialParams()
	root := Root(1)
	gen := NewBinomialGenerator(params)(params, root)
	require.GreaterOrEqual(t, gen.NumChildren(), 2)
	first := gen.Next()
	second := gen.Next()
	assert.NotEqual(t, first.State, second.State)
}

func TestGeometricGenerator_RootUsesRootBranchingFactorAsExpectation(t *testing.T) {
	params := Params{RootBranchingFactor: 4, GenMax: 6, GeoShape: ShapeLinear}
	root := Root(7)
	gen := NewGeometricGenerator(params)(params, root)
	// A geometric draw is unbounded above in principle, but with a
	// positive root branching factor root nodes routinely have several
	// children; just assert the generator is well-formed and usable.
	n := gen.NumChildren()
	assert.GreaterOrEqual(t, n, 0)
	for i := 0; i < n; i++ {
		child := gen.Next()
		assert.EqualValues(t, 1, child.Depth)
	}
}

func TestGeometricGenerator_FixedShapeStopsAtGenMax(t *testing.T) {
	params := Params{RootBranchingFactor: 4, GenMax: 2, GeoShape: ShapeFixed}
	deepNode := Node{IsRoot: false, Depth: 5, State: seedState(3)}
	gen := NewGeometricGenerator(params)(params, deepNode)
	assert.Equal(t, 0, gen.NumChildren())
}

// SearchSeq over the binomial UTS tree must terminate and produce a
// finite, reproducible per-depth histogram for a shallow configuration
// with a strict depth bound, exercising the generator through the
// actual skeleton engine rather than in isolation.
func TestBinomialGenerator_SearchSeqCountNodesTerminates(t *testing.T) {
	params := binomialParams()
	root := Root(0)
	opts := treesearch.Options[Params, Node, int]{Mode: treesearch.ModeCountNodes}

	result, err := treesearch.SearchSeq(3, params, root, NewBinomialGenerator(params), opts)
	require.NoError(t, err)
	assert.Len(t, result.Counts, 4)
	assert.Equal(t, uint64(1), result.Counts[0])
	assert.Equal(t, uint64(params.RootBranchingFactor), result.Counts[1])
}

// The depth-bounded skeleton must visit exactly the same per-depth
// counts as the sequential skeleton for the same tree, regardless of
// spawn depth or locality count — the generator carries no hidden
// state outside (Space, Node), so both skeletons see the same tree.
func TestBinomialGenerator_DepthBoundedMatchesSeqAcrossSpawnDepths(t *testing.T) {
	params := binomialParams()
	root := Root(0)
	opts := treesearch.Options[Params, Node, int]{Mode: treesearch.ModeCountNodes}

	seqResult, err := treesearch.SearchSeq(3, params, root, NewBinomialGenerator(params), opts)
	require.NoError(t, err)

	for _, spawnDepth := range []uint32{0, 1, 2} {
		cluster := transport.NewLocalCluster(0, 1)
		rt := treesearch.Runtime[Params, Node, int]{
			Transports: map[int]transport.ClusterTransport{
				0: cluster.ForLocality(0),
				1: cluster.ForLocality(1),
			},
			RootLocality:  0,
			Workers:       2,
			StealAttempts: 2,
			BackoffBase:   time.Millisecond,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := treesearch.SearchDepthBounded(ctx, params, root, NewBinomialGenerator(params),
			treesearch.Params[int]{SpawnDepth: spawnDepth, MaxDepth: 3}, opts, rt)
		cancel()
		require.NoError(t, err)
		assert.Equal(t, seqResult.Counts, result.Counts, "spawnDepth=%d", spawnDepth)
	}
}
