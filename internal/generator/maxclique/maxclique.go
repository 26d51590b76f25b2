// Package maxclique implements the vertex-extension generator for the
// maximum clique problem: a node is a partial clique plus the set of
// vertices still eligible to extend it (adjacent to every clique
// member, and not yet tried as a sibling at this depth), and its
// children extend the clique by one eligible vertex each.
//
// Vertex sets are represented as bitsets (one bit per vertex), so the
// graph is limited to 64 vertices per Space; larger instances would
// need a multi-word bitset, left out as beyond this generator's scope.
package maxclique

import (
	"math/bits"

	"github.com/yewpar-go/yewpar/pkg/treesearch"
)

// Space is an undirected graph given as an adjacency bitset: Adj[v]
// has bit w set iff vertices v and w are adjacent.
type Space struct {
	Adj []uint64
}

// NewSpace builds a Space from an edge list over n vertices (0-based).
func NewSpace(n int, edges [][2]int) Space {
	adj := make([]uint64, n)
	for _, e := range edges {
		adj[e[0]] |= 1 << uint(e[1])
		adj[e[1]] |= 1 << uint(e[0])
	}
	return Space{Adj: adj}
}

// Node is a partial clique (Members, a vertex bitset) together with
// the vertices still eligible to extend it (Candidates).
type Node struct {
	Members    uint64 `json:"members"`
	Candidates uint64 `json:"candidates"`
}

// Root starts the search with an empty clique and every vertex
// eligible.
func Root(space Space) Node {
	var all uint64
	for v := range space.Adj {
		all |= 1 << uint(v)
	}
	return Node{Members: 0, Candidates: all}
}

// Value returns the node's own achieved value: the size of the clique
// built so far. Distinct from Bound, which overstates this by assuming
// every remaining candidate could join the clique simultaneously —
// Value is what should be recorded and compared as the incumbent,
// while Bound is only for pruning.
func Value(_ Space, node Node) int {
	return bits.OnesCount64(node.Members)
}

// Bound returns the classic clique upper bound: the current clique
// size plus the maximum number of further vertices that could still
// be added (the size of the candidate set), which can only shrink as
// the search descends.
func Bound(_ Space, node Node) int {
	return bits.OnesCount64(node.Members) + bits.OnesCount64(node.Candidates)
}

type gen struct {
	space     Space
	node      Node
	remaining uint64
}

// NewGenerator constructs the clique-extension generator. Children are
// produced in increasing vertex-index order; each child both adds its
// chosen vertex to Members and restricts Candidates to vertices
// adjacent to it, and subsequent siblings at this level exclude
// already-yielded vertices from their own Candidates, so no clique is
// enumerated twice.
func NewGenerator(space Space, node Node) treesearch.Generator[Node] {
	return &gen{space: space, node: node, remaining: node.Candidates}
}

func (g *gen) NumChildren() int { return bits.OnesCount64(g.remaining) }

func (g *gen) Next() Node {
	v := bits.TrailingZeros64(g.remaining)
	bit := uint64(1) << uint(v)
	g.remaining &^= bit

	return Node{
		Members:    g.node.Members | bit,
		Candidates: g.remaining & g.space.Adj[v],
	}
}
