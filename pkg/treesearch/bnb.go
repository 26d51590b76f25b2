package treesearch

import (
	"context"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
)

// SearchBnB runs branch-and-bound. It is not a separate engine: it is
// SearchDepthBounded restricted to Mode Optimisation or Decision (any
// other Mode is a configuration error),
// returning the bare incumbent Candidate rather than the full Result
// since B&B callers only ever care about the single best (or
// decision-target) solution, never the node histogram.
func SearchBnB[Space, Node, Bound any](ctx context.Context, space Space, root Node,
	newGen NewGeneratorFunc[Space, Node], params Params[Bound], opts Options[Space, Node, Bound],
	rt Runtime[Space, Node, Bound]) (Candidate[Node, Bound], error) {

	if opts.Mode != ModeOptimisation && opts.Mode != ModeDecision {
		return Candidate[Node, Bound]{}, apperrors.New(apperrors.CodeConfigError,
			"SearchBnB requires Mode Optimisation or Decision")
	}
	if opts.BoundFn == nil {
		return Candidate[Node, Bound]{}, apperrors.New(apperrors.CodeConfigError, "SearchBnB requires BoundFn")
	}

	result, err := SearchDepthBounded(ctx, space, root, newGen, params, opts, rt)
	if err != nil {
		return Candidate[Node, Bound]{}, err
	}
	return result.Incumbent, nil
}
