package treesearch

import (
	"context"
	"encoding/json"
	stdruntime "runtime"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
	"github.com/yewpar-go/yewpar/pkg/treesearch/incumbent"
	"github.com/yewpar-go/yewpar/pkg/treesearch/pool"
	"github.com/yewpar-go/yewpar/pkg/treesearch/registry"
	"github.com/yewpar-go/yewpar/pkg/treesearch/scheduler"
	"github.com/yewpar-go/yewpar/pkg/treesearch/transport"
)

// Transport operations the DepthBounded engine wires up across every
// participating locality. registry.init/updateBound/stop fan the
// per-locality Registry copies out from whichever locality touches
// them first; incumbent.propose/get are only ever served by
// Runtime.RootLocality, the single Incumbent's home.
const (
	opRegistryInit        = "registry.init"
	opRegistryUpdateBound = "registry.updateBound"
	opRegistryStop        = "registry.stop"
	opIncumbentPropose    = "incumbent.propose"
	opIncumbentGet        = "incumbent.get"
)

type localityState[Space, Node, Bound any] struct {
	transport transport.ClusterTransport
	reg       *registry.Registry[Space, Bound]
	pool      pool.Pool[Node]
	sched     *scheduler.Scheduler[Node]
}

// depthEngine holds the wiring SearchDepthBounded needs across the
// lifetime of one search: a Registry and Scheduler per locality plus
// the single root-hosted Incumbent, reached uniformly (including from
// the root locality itself) through ClusterTransport.RemoteCall.
type depthEngine[Space, Node, Bound any] struct {
	space  Space
	newGen NewGeneratorFunc[Space, Node]
	opts   Options[Space, Node, Bound]
	params Params[Bound]

	rootLocality int
	localities   map[int]*localityState[Space, Node, Bound]
	inc          *incumbent.Incumbent[Node, Bound]
}

// SearchDepthBounded runs the depth-bounded parallel skeleton: a
// subtree task is spawned per child at or above params.SpawnDepth,
// fed into the locality's own pool.Pool and drained by
// scheduler.Scheduler workers (which steal from peer localities on a
// local miss); children below SpawnDepth are expanded inline in the
// worker that reached them. Completion is tracked the same way the
// source's future-per-task recursion is: subtreeTask blocks on the
// Done channel of every task it directly spawned, and a stolen task's
// completion is relayed back to its origin by the scheduler's
// TaskDoneOp, so the top-level call returns only once the whole
// dynamically-unfolded task tree has finished.
func SearchDepthBounded[Space, Node, Bound any](ctx context.Context, space Space, root Node,
	newGen NewGeneratorFunc[Space, Node], params Params[Bound], opts Options[Space, Node, Bound],
	rt Runtime[Space, Node, Bound]) (Result[Node, Bound], error) {

	if err := validateOptions(opts); err != nil {
		return Result[Node, Bound]{}, err
	}
	if params.MaxDepth == 0 {
		// Unlike SearchSeq, the parallel skeletons size a fixed
		// per-depth counters array up front (registry.Registry.Init)
		// and a fixed depth-bucket pool when the caller opts into
		// pool.DepthPool, so an unbounded tree has nowhere to put
		// depths past what was allocated. Run unbounded counts
		// through SearchSeq instead.
		return Result[Node, Bound]{}, apperrors.New(apperrors.CodeConfigError,
			"SearchDepthBounded requires a known Params.MaxDepth > 0")
	}
	if _, ok := rt.Transports[rt.RootLocality]; !ok {
		return Result[Node, Bound]{}, apperrors.New(apperrors.CodeConfigError,
			"Runtime.RootLocality has no matching Transports entry")
	}

	e := &depthEngine[Space, Node, Bound]{
		space: space, newGen: newGen, opts: opts, params: params,
		rootLocality: rt.RootLocality,
		localities:   make(map[int]*localityState[Space, Node, Bound], len(rt.Transports)),
	}

	better := registryComparator(opts)
	for id, tr := range rt.Transports {
		e.localities[id] = &localityState[Space, Node, Bound]{
			transport: tr,
			reg:       registry.New[Space, Bound](better),
		}
	}

	for _, ls := range e.localities {
		ls := ls
		ls.transport.Register(opRegistryInit, func(ctx context.Context, _ json.RawMessage) (any, error) {
			ls.reg.Init(space, params.InitialBound, params.MaxDepth)
			return nil, nil
		})
		ls.transport.Register(opRegistryUpdateBound, func(ctx context.Context, raw json.RawMessage) (any, error) {
			var b Bound
			if err := transport.DecodePayload(raw, &b); err != nil {
				return nil, err
			}
			ls.reg.UpdateBound(b)
			return nil, nil
		})
		ls.transport.Register(opRegistryStop, func(ctx context.Context, _ json.RawMessage) (any, error) {
			ls.reg.SetStop()
			return nil, nil
		})
	}

	rootTransport := rt.Transports[rt.RootLocality]
	if err := rootTransport.Broadcast(ctx, opRegistryInit, nil); err != nil {
		return Result[Node, Bound]{}, err
	}

	var broadcaster incumbent.BoundBroadcaster[Bound]
	if opts.Mode != ModeCountNodes {
		broadcaster = func(b Bound) {
			_ = rootTransport.Broadcast(ctx, opRegistryUpdateBound, b)
		}
	}
	e.inc = incumbent.New[Node, Bound](incumbent.Candidate[Node, Bound]{Found: false}, incumbentComparator(opts), broadcaster)

	rootTransport.Register(opIncumbentPropose, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var cand incumbent.Candidate[Node, Bound]
		if err := transport.DecodePayload(raw, &cand); err != nil {
			return nil, err
		}
		return e.inc.Propose(cand), nil
	})
	rootTransport.Register(opIncumbentGet, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return e.inc.Get(), nil
	})

	numCPU := stdruntime.NumCPU()
	for _, ls := range e.localities {
		ls.pool = rt.newPool()
		cfg := scheduler.Config{Workers: rt.Workers, StealAttempts: rt.StealAttempts, BackoffBase: rt.BackoffBase}
		d := scheduler.DefaultConfig(numCPU)
		if cfg.Workers <= 0 {
			cfg.Workers = d.Workers
		}
		if cfg.StealAttempts <= 0 {
			cfg.StealAttempts = d.StealAttempts
		}
		if cfg.BackoffBase <= 0 {
			cfg.BackoffBase = d.BackoffBase
		}
		ls.sched = scheduler.New[Node](cfg, ls.pool, ls.transport, e.subtreeTask)
	}
	for _, ls := range e.localities {
		ls.sched.Start(ctx)
	}

	rootLS := e.localities[rt.RootLocality]
	rootLS.reg.UpdateCounts([]uint64{1}) // the root node itself, at depth 0

	rootTask := pool.NewTask[Node](root, 0)
	e.subtreeTask(ctx, rootTask, rt.RootLocality)
	searchErr := <-rootTask.Done

	for _, ls := range e.localities {
		ls.sched.Stop()
	}
	for _, ls := range e.localities {
		ls.sched.Wait()
	}

	if searchErr != nil {
		return Result[Node, Bound]{}, searchErr
	}

	total := make([]uint64, params.MaxDepth+1)
	for _, ls := range e.localities {
		for i, v := range ls.reg.Counts() {
			if i < len(total) {
				total[i] += v
			}
		}
	}

	return Result[Node, Bound]{Counts: total, Incumbent: e.inc.Get()}, nil
}

// subtreeTask is the scheduler.Execute bound to this engine: run the
// subtree rooted at task.Root to completion and signal task.Done
// exactly once. It satisfies the Execute[Node] signature directly, so
// it is also called synchronously for the top-level root task.
func (e *depthEngine[Space, Node, Bound]) subtreeTask(ctx context.Context, task *pool.Task[Node], locality int) {
	task.Done <- e.runSubtree(ctx, task.Root, task.ChildDepth, locality)
}

func (e *depthEngine[Space, Node, Bound]) runSubtree(ctx context.Context, node Node, childDepth uint32, locality int) error {
	ls := e.localities[locality]
	if ls.reg.StopRequested() {
		return nil
	}
	if e.params.MaxDepth > 0 && childDepth >= e.params.MaxDepth {
		return nil
	}
	if childDepth <= e.params.SpawnDepth {
		return e.spawnChildren(ctx, ls, node, childDepth, locality)
	}
	local := make([]uint64, e.params.MaxDepth+1)
	err := e.expandInline(ctx, ls, node, childDepth, locality, local)
	ls.reg.UpdateCounts(local)
	return err
}

// spawnChildren realises the distilled spec's depth-bounded pseudocode:
// every non-pruned child at or above SpawnDepth becomes its own
// subtreeTask, enqueued in the LOCAL pool of whichever locality is
// currently running this frame (which, after a steal, is the thief's
// locality, not the task's origin).
func (e *depthEngine[Space, Node, Bound]) spawnChildren(ctx context.Context, ls *localityState[Space, Node, Bound], node Node, childDepth uint32, locality int) error {
	gen, err := safeCallGenerator(e.newGen, e.space, node)
	if err != nil {
		return err
	}
	numChildren := gen.NumChildren()
	grandDepth := childDepth + 1
	local := make([]uint64, e.params.MaxDepth+1)

	var childDones []chan error
	for i := 0; i < numChildren; i++ {
		child, nextErr := safeCallNext(gen)
		if nextErr != nil {
			ls.reg.UpdateCounts(local)
			return waitChildren(childDones, nextErr)
		}
		if e.opts.Mode == ModeCountNodes {
			bumpCount(local, grandDepth)
		}

		outcome, decideErr := e.decide(ctx, ls, child, locality)
		if decideErr != nil {
			ls.reg.UpdateCounts(local)
			return waitChildren(childDones, decideErr)
		}
		switch outcome {
		case outcomeExit, outcomeBreak:
			ls.reg.UpdateCounts(local)
			return waitChildren(childDones, nil)
		case outcomePrune:
			continue
		}

		childTask := pool.NewTask(child, grandDepth)
		ls.sched.AddWork(childTask, grandDepth)
		childDones = append(childDones, childTask.Done)
	}

	ls.reg.UpdateCounts(local)
	return waitChildren(childDones, nil)
}

// expandInline recurses sequentially within the current task frame, no
// further spawning, for every child deeper than SpawnDepth.
func (e *depthEngine[Space, Node, Bound]) expandInline(ctx context.Context, ls *localityState[Space, Node, Bound], node Node, depth uint32, locality int, local []uint64) error {
	if ls.reg.StopRequested() {
		return nil
	}
	if e.params.MaxDepth > 0 && depth >= e.params.MaxDepth {
		return nil
	}

	gen, err := safeCallGenerator(e.newGen, e.space, node)
	if err != nil {
		return err
	}
	childDepth := depth + 1
	numChildren := gen.NumChildren()
	if e.opts.Mode == ModeCountNodes {
		bumpCountBy(local, childDepth, uint64(numChildren))
	}

	for i := 0; i < numChildren; i++ {
		child, nextErr := safeCallNext(gen)
		if nextErr != nil {
			return nextErr
		}

		outcome, decideErr := e.decide(ctx, ls, child, locality)
		if decideErr != nil {
			return decideErr
		}
		switch outcome {
		case outcomeExit, outcomeBreak:
			return nil
		case outcomePrune:
			continue
		}

		if err := e.expandInline(ctx, ls, child, childDepth, locality, local); err != nil {
			return err
		}
		if ls.reg.StopRequested() {
			return nil
		}
	}
	return nil
}

// decide runs the per-node decision table against one child, reaching
// the root-hosted Incumbent through the calling locality's transport
// regardless of whether that locality happens to be the root.
func (e *depthEngine[Space, Node, Bound]) decide(ctx context.Context, ls *localityState[Space, Node, Bound], child Node, locality int) (nodeOutcome, error) {
	if e.opts.Mode == ModeCountNodes {
		return outcomeContinue, nil
	}
	if ls.reg.StopRequested() {
		return outcomeExit, nil
	}

	b, err := safeCallBound(e.opts.BoundFn, e.space, child)
	if err != nil {
		return outcomeContinue, err
	}

	cur, err := e.getIncumbent(ctx, locality)
	if err != nil {
		return outcomeContinue, err
	}
	if cur.Found && !e.opts.Better(b, cur.Bound) {
		if e.opts.PruneLevel {
			return outcomeBreak, nil
		}
		return outcomePrune, nil
	}

	v, err := safeCallBound(valueFn(e.opts), e.space, child)
	if err != nil {
		return outcomeContinue, err
	}

	cand := Candidate[Node, Bound]{Solution: child, Bound: v, Found: true}
	if err := e.proposeIncumbent(ctx, locality, cand); err != nil {
		return outcomeContinue, err
	}

	if e.opts.Mode == ModeDecision && e.opts.DecisionHit(cand) {
		if err := ls.transport.Broadcast(ctx, opRegistryStop, nil); err != nil {
			return outcomeContinue, err
		}
		return outcomeExit, nil
	}
	return outcomeContinue, nil
}

func (e *depthEngine[Space, Node, Bound]) proposeIncumbent(ctx context.Context, locality int, cand Candidate[Node, Bound]) error {
	tr := e.localities[locality].transport
	ic := incumbent.Candidate[Node, Bound]{Solution: cand.Solution, Bound: cand.Bound, Found: cand.Found}
	_, err := tr.RemoteCall(ctx, e.rootLocality, opIncumbentPropose, ic)
	return err
}

func (e *depthEngine[Space, Node, Bound]) getIncumbent(ctx context.Context, locality int) (Candidate[Node, Bound], error) {
	tr := e.localities[locality].transport
	raw, err := tr.RemoteCall(ctx, e.rootLocality, opIncumbentGet, nil)
	if err != nil {
		return Candidate[Node, Bound]{}, err
	}
	var ic incumbent.Candidate[Node, Bound]
	if err := transport.DecodePayload(raw, &ic); err != nil {
		return Candidate[Node, Bound]{}, err
	}
	return Candidate[Node, Bound]{Solution: ic.Solution, Bound: ic.Bound, Found: ic.Found}, nil
}

// waitChildren blocks on every spawned child's Done channel (each is
// 1-buffered, so this never deadlocks even on early return) and
// returns the first non-nil error among them or leadErr.
func waitChildren(childDones []chan error, leadErr error) error {
	firstErr := leadErr
	for _, d := range childDones {
		if d == nil {
			continue
		}
		if err := <-d; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func bumpCount(counts []uint64, depth uint32) {
	bumpCountBy(counts, depth, 1)
}

func bumpCountBy(counts []uint64, depth uint32, n uint64) {
	if len(counts) == 0 {
		return
	}
	if int(depth) < len(counts) {
		counts[depth] += n
		return
	}
	counts[len(counts)-1] += n
}

func registryComparator[Space, Node, Bound any](opts Options[Space, Node, Bound]) registry.Comparator[Bound] {
	if opts.Better == nil {
		return func(a, b Bound) bool { return false }
	}
	return registry.Comparator[Bound](opts.Better)
}

func incumbentComparator[Space, Node, Bound any](opts Options[Space, Node, Bound]) incumbent.Comparator[Bound] {
	if opts.Better == nil {
		return func(a, b Bound) bool { return false }
	}
	return incumbent.Comparator[Bound](opts.Better)
}
