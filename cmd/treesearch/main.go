// Command treesearch runs one of the parallel tree-search skeletons
// (sequential, depth-bounded, or branch-and-bound) over one of the
// bundled example problems (UTS, knapsack, maxclique).
package main

import "github.com/yewpar-go/yewpar/cmd/treesearch/cmd"

func main() {
	cmd.Execute()
}
