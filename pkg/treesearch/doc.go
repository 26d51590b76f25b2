// Package treesearch implements a parallel tree-search skeleton engine:
// a reusable family of algorithms (sequential, depth-bounded task
// spawning, branch-and-bound) that enumerate, optimise over, or decide
// properties of an implicitly defined tree whose shape is supplied by
// the caller through a Generator.
//
// The engine itself never knows what a Node or a Space "is" — those are
// opaque, caller-supplied types. What it owns is the traversal order,
// the decision of when to spawn a task versus recurse inline, and the
// bookkeeping (per-depth counts, bound, incumbent) needed to make that
// traversal safe to parallelise across goroutines and localities.
package treesearch
