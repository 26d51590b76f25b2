// Package uts implements the Unbalanced Tree Search node generators used
// by the original apps/enumeration/uts benchmark: a binomial variant
// (every non-root node independently draws whether it has children at
// all, via a fixed probability) and a geometric variant (the branching
// factor decays with depth according to one of four shape functions).
//
// Both variants derive each child's random state deterministically from
// the parent's state and the child's index, so within one process the
// same (Space, Node) pair always yields the same children regardless of
// which worker or in-process locality expands it — the property the
// parallel skeletons require. The hash key behind every state is drawn
// at random when the process starts (seedHash), so the tree grown from
// a given seed differs between separate runs and separate processes.
package uts

import (
	"encoding/binary"
	"hash/maphash"
	"math"

	"github.com/yewpar-go/yewpar/pkg/treesearch"
)

// Shape selects the branching-factor decay function used by the
// geometric generator, mirroring the original benchmark's --uts-a
// values 0-3.
type Shape int

const (
	ShapeLinear Shape = iota
	ShapeCyclic
	ShapeFixed
	ShapeExpDec
)

// Params is the tree-shape configuration shared by both generators,
// equivalent to the original benchmark's UTSState.
type Params struct {
	// RootBranchingFactor is the number of children of the root node
	// (--uts-b).
	RootBranchingFactor int

	// NonLeafBranchingFactor is the fixed branching factor a binomial
	// non-leaf node uses (--uts-m). Ignored by the geometric generator.
	NonLeafBranchingFactor int

	// NonLeafProbability is the probability that a binomial node has
	// children at all (--uts-q). Ignored by the geometric generator.
	NonLeafProbability float64

	// GenMax is the nominal tree depth the geometric shape functions
	// are parameterised on (--uts-d). Ignored by the binomial generator.
	GenMax int

	// GeoShape selects the geometric decay function (--uts-a).
	GeoShape Shape
}

// Node is a single UTS tree node: its depth and the RNG state spawned
// for it by its parent. The root node is distinguished by IsRoot, since
// the original benchmark gives the root a fixed branching factor
// regardless of the configured shape function.
type Node struct {
	IsRoot bool   `json:"isRoot"`
	Depth  uint32 `json:"depth"`
	State  uint64 `json:"state"`
}

// Root constructs the tree's root node from a seed (--uts-r).
func Root(seed uint64) Node {
	return Node{IsRoot: true, Depth: 0, State: seedState(seed)}
}

// seedHash keys seedState and spawnState; it is chosen at random once
// per process.
var seedHash maphash.Seed

func init() {
	seedHash = maphash.MakeSeed()
}

// seedState derives the root's initial RNG state from the configured
// seed. Unlike spawnState (used for every non-root node) this has no
// parent state to mix in, so it hashes the seed alone.
func seedState(seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	return maphash.Bytes(seedHash, buf[:])
}

// spawnState derives a child's RNG state from its parent's state and
// its index among siblings, the Go analogue of the original rng_spawn:
// deterministic, collision-resistant, and independent of iteration
// order across different parents.
func spawnState(parent uint64, index int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], parent)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(index))
	return maphash.Bytes(seedHash, buf[:])
}

// toProb maps an RNG state to a uniform float in [0, 1), the Go
// analogue of rng_toProb.
func toProb(state uint64) float64 {
	return float64(state>>11) / float64(1<<53)
}

// binomialGen implements treesearch.Generator for the binomial variant.
type binomialGen struct {
	params   Params
	node     Node
	children int
	next     int
}

// NewBinomialGenerator constructs the binomial UTS generator: a non-root
// node has NonLeafBranchingFactor children with probability
// NonLeafProbability, and is a leaf otherwise. The root always has
// RootBranchingFactor children.
func NewBinomialGenerator(params Params) treesearch.NewGeneratorFunc[Params, Node] {
	return func(space Params, node Node) treesearch.Generator[Node] {
		n := 0
		if node.IsRoot {
			n = space.RootBranchingFactor
		} else if toProb(node.State) < space.NonLeafProbability {
			n = space.NonLeafBranchingFactor
		}
		return &binomialGen{params: space, node: node, children: n}
	}
}

func (g *binomialGen) NumChildren() int { return g.children }

func (g *binomialGen) Next() Node {
	child := Node{
		IsRoot: false,
		Depth:  g.node.Depth + 1,
		State:  spawnState(g.node.State, g.next),
	}
	g.next++
	return child
}

// geometricGen implements treesearch.Generator for the geometric
// variant: the expected branching factor decays with depth according
// to params.GeoShape, and the actual count is a draw from the
// corresponding geometric distribution.
type geometricGen struct {
	params   Params
	node     Node
	children int
	next     int
}

// NewGeometricGenerator constructs the geometric UTS generator.
func NewGeometricGenerator(params Params) treesearch.NewGeneratorFunc[Params, Node] {
	return func(space Params, node Node) treesearch.Generator[Node] {
		return &geometricGen{params: space, node: node, children: geometricNumChildren(space, node)}
	}
}

func geometricNumChildren(params Params, node Node) int {
	branchFactor := float64(params.RootBranchingFactor)
	if !node.IsRoot {
		branchFactor = shapeBranchFactor(params, int(node.Depth))
	}
	if branchFactor <= 0 {
		return 0
	}

	p := 1.0 / (1.0 + branchFactor)
	u := toProb(node.State)
	n := int(math.Floor(math.Log(1-u) / math.Log(1-p)))
	if n < 0 {
		return 0
	}
	return n
}

// shapeBranchFactor implements the four --uts-a shape functions, each
// parameterised by the node's depth and the configured GenMax.
func shapeBranchFactor(params Params, depth int) float64 {
	root := float64(params.RootBranchingFactor)
	genMax := float64(params.GenMax)
	if genMax <= 0 {
		return 0
	}

	switch params.GeoShape {
	case ShapeCyclic:
		if float64(depth) > 5*genMax {
			return 0
		}
		return root * math.Pow(math.Sin(2*math.Pi*float64(depth)/genMax), 2)
	case ShapeFixed:
		if float64(depth) < genMax {
			return root
		}
		return 0
	case ShapeExpDec:
		return root * math.Pow(float64(depth), -math.Log(root)/math.Log(genMax))
	default: // ShapeLinear
		return root * (1 - float64(depth)/genMax)
	}
}

func (g *geometricGen) NumChildren() int { return g.children }

func (g *geometricGen) Next() Node {
	child := Node{
		IsRoot: false,
		Depth:  g.node.Depth + 1,
		State:  spawnState(g.node.State, g.next),
	}
	g.next++
	return child
}
