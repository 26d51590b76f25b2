package pool

import "sync"

// Workpool is a per-locality double-ended queue of pending subtree
// tasks: the owning worker pushes and pops at the bottom (LIFO,
// cache-friendly — a worker tends to keep expanding what it just
// spawned), while thieves steal from the top (FIFO, so a stolen task
// is the oldest, typically shallowest, and therefore largest subtree).
// Grounded on the mutex-guarded Chase-Lev-flavoured deque used for
// work-stealing strategies elsewhere in the ecosystem; this variant
// trades the lock-free fast path for a single sync.Mutex since task
// objects here are pointer-sized and contention is bounded by worker
// count, not by microsecond-scale job rates.
type Workpool[Node any] struct {
	mu    sync.Mutex
	tasks []*Task[Node]
}

// NewWorkpool returns an empty Workpool.
func NewWorkpool[Node any]() *Workpool[Node] {
	return &Workpool[Node]{}
}

// AddWork pushes a task onto the bottom of the deque. depthHint is
// unused by Workpool (DepthPool interprets it instead).
func (w *Workpool[Node]) AddWork(task *Task[Node], _ uint32) {
	w.mu.Lock()
	w.tasks = append(w.tasks, task)
	w.mu.Unlock()
}

// GetLocal pops from the bottom of the deque (LIFO).
func (w *Workpool[Node]) GetLocal() (*Task[Node], bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.tasks)
	if n == 0 {
		return nil, false
	}
	t := w.tasks[n-1]
	w.tasks = w.tasks[:n-1]
	return t, true
}

// Steal pops from the top of the deque (FIFO).
func (w *Workpool[Node]) Steal() (*Task[Node], bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.tasks) == 0 {
		return nil, false
	}
	t := w.tasks[0]
	w.tasks = w.tasks[1:]
	return t, true
}

// Len reports the number of queued tasks.
func (w *Workpool[Node]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tasks)
}
