// Package scheduler runs the per-locality worker pool that drains a
// pool.Pool of subtree tasks, stealing from peer localities on a local
// miss, and parking when no work can be found anywhere.
package scheduler

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yewpar-go/yewpar/pkg/treesearch/pool"
	"github.com/yewpar-go/yewpar/pkg/treesearch/transport"
)

// StealOp is the transport operation a Scheduler registers to let peer
// localities steal work from it. TaskDoneOp is the operation a
// locality that executed a stolen task uses to signal completion back
// to the task's origin locality — a Go channel cannot itself cross a
// process boundary, so a stolen task travels as a (Root, ChildDepth,
// TaskID) payload and its Done promise is resolved remotely by TaskID.
const (
	StealOp    = "scheduler.steal"
	TaskDoneOp = "scheduler.taskDone"
)

// Config tunes a Scheduler. Workers defaults to runtime.NumCPU()-1,
// floored at 1, mirroring the corpus's DefaultPoolConfig worker-count
// heuristic. StealAttempts bounds how many peer localities one steal
// round tries before a worker parks.
type Config struct {
	Workers       int
	StealAttempts int
	BackoffBase   time.Duration
}

// DefaultConfig returns Config{Workers: max(1, numCPU-1), StealAttempts: 3, BackoffBase: time.Millisecond}.
func DefaultConfig(numCPU int) Config {
	workers := numCPU - 1
	if workers < 1 {
		workers = 1
	}
	return Config{Workers: workers, StealAttempts: 3, BackoffBase: time.Millisecond}
}

// wirePayload is the on-the-wire shape of a stolen task: Root and
// ChildDepth carry the work, TaskID lets the origin locality match a
// later TaskDoneOp call back to the pending Task.Done channel.
type wirePayload[Node any] struct {
	TaskID     string `json:"taskId"`
	Root       Node   `json:"root"`
	ChildDepth uint32 `json:"childDepth"`
}

type taskDoneArgs struct {
	TaskID string `json:"taskId"`
	Err    string `json:"err,omitempty"`
}

// Execute runs task to completion; supplied by the skeleton engine
// (the subtreeTask routine), taking the task and the locality id it's
// executing on.
type Execute[Node any] func(ctx context.Context, task *pool.Task[Node], locality int)

// Scheduler owns one locality's worker goroutines. AddWork feeds the
// local pool; Start launches the workers; Stop sets the shared
// stopped flag — a worker exits once it finds no local or stealable
// task, so tasks already queued still run; no task is cancelled
// mid-expansion.
type Scheduler[Node any] struct {
	cfg     Config
	p       pool.Pool[Node]
	t       transport.ClusterTransport
	execute Execute[Node]
	stopped atomic.Bool
	wakeCh  chan struct{}
	wg      sync.WaitGroup

	nextTaskID atomic.Int64
	pendingMu  sync.Mutex
	pending    map[string]*pool.Task[Node] // tasks stolen *from* this locality, awaiting TaskDoneOp
}

// New constructs a Scheduler over pool p, reachable through transport
// t, executing tasks with execute.
func New[Node any](cfg Config, p pool.Pool[Node], t transport.ClusterTransport, execute Execute[Node]) *Scheduler[Node] {
	s := &Scheduler[Node]{
		cfg: cfg, p: p, t: t, execute: execute,
		wakeCh:  make(chan struct{}),
		pending: make(map[string]*pool.Task[Node]),
	}

	t.Register(StealOp, func(ctx context.Context, _ json.RawMessage) (any, error) {
		task, ok := s.p.Steal()
		if !ok {
			return nil, nil
		}
		id := strconv.FormatInt(s.nextTaskID.Add(1), 10)
		s.pendingMu.Lock()
		s.pending[id] = task
		s.pendingMu.Unlock()
		return wirePayload[Node]{TaskID: id, Root: task.Root, ChildDepth: task.ChildDepth}, nil
	})

	t.Register(TaskDoneOp, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args taskDoneArgs
		if err := transport.DecodePayload(raw, &args); err != nil {
			return nil, err
		}
		s.pendingMu.Lock()
		task, ok := s.pending[args.TaskID]
		if ok {
			delete(s.pending, args.TaskID)
		}
		s.pendingMu.Unlock()
		if !ok {
			return nil, nil
		}
		if args.Err != "" {
			task.Done <- errString(args.Err)
		} else {
			task.Done <- nil
		}
		return nil, nil
	})

	return s
}

type errString string

func (e errString) Error() string { return string(e) }

// AddWork enqueues task locally and wakes any parked worker.
func (s *Scheduler[Node]) AddWork(task *pool.Task[Node], depthHint uint32) {
	s.p.AddWork(task, depthHint)
	s.wake()
}

func (s *Scheduler[Node]) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Start launches cfg.Workers worker goroutines.
func (s *Scheduler[Node]) Start(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx)
	}
}

// Stop marks the scheduler stopped; each worker exits the next time it
// finds neither a local nor a stealable task.
func (s *Scheduler[Node]) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.wakeCh)
	}
}

// Wait blocks until every worker goroutine has exited.
func (s *Scheduler[Node]) Wait() {
	s.wg.Wait()
}

func (s *Scheduler[Node]) workerLoop(ctx context.Context) {
	defer s.wg.Done()
	backoff := s.cfg.BackoffBase
	if backoff <= 0 {
		backoff = time.Millisecond
	}
	for {
		if task, ok := s.p.GetLocal(); ok {
			s.execute(ctx, task, s.t.Self())
			continue
		}

		if task, ok := s.stealRound(ctx); ok {
			s.execute(ctx, task, s.t.Self())
			continue
		}

		if s.stopped.Load() {
			return
		}

		select {
		case _, open := <-s.wakeCh:
			if !open {
				return
			}
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// stealRound tries local steal first, then up to StealAttempts
// randomly chosen peer localities, with exponential backoff between
// remote attempts starting at cfg.BackoffBase. A successfully stolen
// remote task is rewrapped with a local Done channel; completion is
// reported back to the origin locality via TaskDoneOp.
func (s *Scheduler[Node]) stealRound(ctx context.Context) (*pool.Task[Node], bool) {
	if task, ok := s.p.Steal(); ok {
		return task, true
	}

	peers := s.peerLocalities()
	if len(peers) == 0 {
		return nil, false
	}

	attempts := s.cfg.StealAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := s.cfg.BackoffBase
	if delay <= 0 {
		delay = time.Millisecond
	}

	for i := 0; i < attempts; i++ {
		victim := peers[rand.Intn(len(peers))]
		raw, err := s.t.RemoteCall(ctx, victim, StealOp, nil)
		if err == nil && len(raw) > 0 {
			var wp wirePayload[Node]
			if jsonErr := transport.DecodePayload(raw, &wp); jsonErr == nil {
				local := pool.NewTask(wp.Root, wp.ChildDepth)
				go s.reportBack(victim, wp.TaskID, local)
				return local, true
			}
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, false
		}
		delay *= 2
	}
	return nil, false
}

// reportBack waits for local's completion and relays it to origin via
// TaskDoneOp, resolving the origin's pending Done channel for taskID.
func (s *Scheduler[Node]) reportBack(origin int, taskID string, local *pool.Task[Node]) {
	err := <-local.Done
	args := taskDoneArgs{TaskID: taskID}
	if err != nil {
		args.Err = err.Error()
	}
	// Best-effort: a failure to report back leaves the origin's
	// pending Done channel for taskID unresolved, which this engine treats the same
	// as any other transport failure — fatal to the overall search.
	_, _ = s.t.RemoteCall(context.Background(), origin, TaskDoneOp, args)
}

func (s *Scheduler[Node]) peerLocalities() []int {
	self := s.t.Self()
	all := s.t.Localities()
	peers := make([]int, 0, len(all))
	for _, id := range all {
		if id != self {
			peers = append(peers, id)
		}
	}
	return peers
}
