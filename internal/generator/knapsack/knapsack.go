// Package knapsack implements the 0/1 knapsack branch generator: at
// each node the next undecided item is either taken (if it fits) or
// left, giving a binary decision tree of depth len(Items).
package knapsack

import (
	"sort"

	"github.com/yewpar-go/yewpar/pkg/treesearch"
)

// Item is a single knapsack item.
type Item struct {
	Weight int
	Value  int
}

// Space is the knapsack instance: the item set and the capacity.
// Items must be sorted by non-increasing value/weight density for
// Bound to be admissible and for PruneLevel (take-branch-first
// ordering) to be sound; NewSpace sorts a copy for the caller.
type Space struct {
	Items    []Item
	Capacity int
}

// NewSpace returns a Space with Items sorted by non-increasing value
// density, the ordering the fractional-relaxation bound and the
// generator's take-first child ordering both rely on.
func NewSpace(items []Item, capacity int) Space {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return float64(sorted[i].Value)/float64(sorted[i].Weight) > float64(sorted[j].Value)/float64(sorted[j].Weight)
	})
	return Space{Items: sorted, Capacity: capacity}
}

// Node is a partial assignment: every item before Index has been
// decided (taken or left), contributing Weight/Value; Index is the
// next item to decide.
type Node struct {
	Index  int `json:"index"`
	Weight int `json:"weight"`
	Value  int `json:"value"`
}

// Root is the empty assignment.
func Root() Node { return Node{} }

// Value returns the node's own achieved value — the sum of the values
// of items decided "take" so far. Distinct from Bound, which overstates
// this by the fractional relaxation of the remaining capacity; Value
// is what should be recorded and compared as the incumbent, while Bound
// is only for pruning.
func Value(_ Space, node Node) int {
	return node.Value
}

// Bound computes the classic fractional-relaxation upper bound used
// for branch-and-bound pruning: the node's own value plus the best
// value obtainable by greedily filling the remaining capacity with
// the highest-density items still undecided, allowing the last one to
// be taken fractionally.
func Bound(space Space, node Node) int {
	remaining := space.Capacity - node.Weight
	bound := float64(node.Value)
	for i := node.Index; i < len(space.Items) && remaining > 0; i++ {
		item := space.Items[i]
		if item.Weight <= remaining {
			remaining -= item.Weight
			bound += float64(item.Value)
			continue
		}
		bound += float64(item.Value) * float64(remaining) / float64(item.Weight)
		remaining = 0
	}
	return int(bound)
}

type gen struct {
	space Space
	node  Node
	kids  []Node
	i     int
}

// NewGenerator constructs the knapsack branch generator: a leaf
// (Index == len(Items)) has no children; otherwise it has a take
// child (if the item fits) followed by a leave child, in that order
// so PruneLevel's non-increasing-bound assumption holds.
func NewGenerator(space Space, node Node) treesearch.Generator[Node] {
	if node.Index >= len(space.Items) {
		return &gen{space: space, node: node}
	}

	item := space.Items[node.Index]
	var kids []Node
	if node.Weight+item.Weight <= space.Capacity {
		kids = append(kids, Node{
			Index:  node.Index + 1,
			Weight: node.Weight + item.Weight,
			Value:  node.Value + item.Value,
		})
	}
	kids = append(kids, Node{
		Index:  node.Index + 1,
		Weight: node.Weight,
		Value:  node.Value,
	})

	return &gen{space: space, node: node, kids: kids}
}

func (g *gen) NumChildren() int { return len(g.kids) }

func (g *gen) Next() Node {
	child := g.kids[g.i]
	g.i++
	return child
}
