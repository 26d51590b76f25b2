package treesearch

import (
	"fmt"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
)

// nodeOutcome is the result of running the per-node decision table
// (distilled spec §4.6, "Per-node decision table") against one child.
type nodeOutcome int

const (
	// outcomeContinue: node processed, keep recursing into it.
	outcomeContinue nodeOutcome = iota
	// outcomePrune: this child is bounded out; skip it, keep
	// considering its siblings.
	outcomePrune
	// outcomeBreak: this child is bounded out and PruneLevel is set;
	// skip it and every remaining sibling.
	outcomeBreak
	// outcomeExit: stop traversal of the current task/frame entirely
	// (global stop requested, or a decision target was met).
	outcomeExit
)

// validateOptions enforces the configuration-error checks the
// distilled spec requires at Search entry, before any task is
// spawned: missing Mode, missing BoundFn in Optimisation/Decision,
// missing DecisionHit in Decision, missing Better comparator.
func validateOptions[Space, Node, Bound any](opts Options[Space, Node, Bound]) error {
	switch opts.Mode {
	case ModeCountNodes:
		return nil
	case ModeOptimisation, ModeDecision:
		if opts.BoundFn == nil {
			return apperrors.New(apperrors.CodeConfigError, "BoundFn is required in Optimisation/Decision mode")
		}
		if opts.Better == nil {
			return apperrors.New(apperrors.CodeConfigError, "Better comparator is required in Optimisation/Decision mode")
		}
		if opts.Mode == ModeDecision && opts.DecisionHit == nil {
			return apperrors.New(apperrors.CodeConfigError, "DecisionHit is required in Decision mode")
		}
		return nil
	default:
		return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("unknown or unset Mode %v", opts.Mode))
	}
}

// safeCallGenerator invokes newGen, converting a panic into a
// CodeUserCodeError rather than crashing the worker.
func safeCallGenerator[Space, Node any](newGen NewGeneratorFunc[Space, Node], space Space, n Node) (gen Generator[Node], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.CodeUserCodeError, fmt.Sprintf("generator constructor panicked: %v", r))
		}
	}()
	return newGen(space, n), nil
}

// safeCallNext invokes gen.Next, converting a panic into a
// CodeUserCodeError.
func safeCallNext[Node any](gen Generator[Node]) (n Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.CodeUserCodeError, fmt.Sprintf("generator.Next panicked: %v", r))
		}
	}()
	return gen.Next(), nil
}

// growCounts extends counts with zeros until index depth is valid,
// used by SearchSeq when maxDepth == 0 (unlimited) and the final tree
// depth isn't known up front.
func growCounts(counts []uint64, depth uint32) []uint64 {
	for uint32(len(counts)) <= depth {
		counts = append(counts, 0)
	}
	return counts
}

// valueFn returns opts.ValueFn, falling back to opts.BoundFn when the
// caller left the node's own achieved-value hook unset.
func valueFn[Space, Node, Bound any](opts Options[Space, Node, Bound]) func(Space, Node) Bound {
	if opts.ValueFn != nil {
		return opts.ValueFn
	}
	return opts.BoundFn
}

// safeCallBound invokes fn, converting a panic into a
// CodeUserCodeError.
func safeCallBound[Space, Node, Bound any](fn func(Space, Node) Bound, space Space, n Node) (b Bound, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.CodeUserCodeError, fmt.Sprintf("BoundFn panicked: %v", r))
		}
	}()
	return fn(space, n), nil
}
