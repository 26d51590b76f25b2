package treesearch

// Generator produces the children of a single search-tree node. It is
// constructed fresh for every expansion frame via a caller-supplied
// func(Space, Node) Generator[Node], computes NumChildren eagerly, and
// is not restartable: once Next has been called NumChildren times the
// Generator is discarded.
//
// Implementations need not be safe for concurrent use — the engine
// never shares one Generator across goroutines.
type Generator[Node any] interface {
	// NumChildren reports how many children the node that constructed
	// this Generator has. Computed eagerly at construction time.
	NumChildren() int

	// Next returns the next child, in Generator iteration order. Called
	// exactly NumChildren times; any call beyond that is undefined.
	Next() Node
}

// NewGeneratorFunc constructs a Generator for the children of node
// within space. Supplied by the caller.
type NewGeneratorFunc[Space, Node any] func(space Space, node Node) Generator[Node]
