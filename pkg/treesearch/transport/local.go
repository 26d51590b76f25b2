package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
)

// LocalCluster simulates any number of localities sharing one process:
// every LocalTransport it hands out can reach every other directly, by
// function call rather than over the network. Per the design notes,
// "a single-locality implementation for tests is sufficient for
// property checks" — LocalCluster generalises that to N simulated
// localities so the scheduler's steal path and the incumbent's
// broadcast-to-every-locality behaviour can be exercised without a
// real cluster.
type LocalCluster struct {
	mu         sync.RWMutex
	localities []int
	transports map[int]*LocalTransport
}

// NewLocalCluster builds a cluster with the given locality ids, each
// initially handler-less; call ForLocality(id) to get the
// ClusterTransport view a search running on that locality should use.
func NewLocalCluster(localities ...int) *LocalCluster {
	if len(localities) == 0 {
		localities = []int{0}
	}
	c := &LocalCluster{
		localities: append([]int(nil), localities...),
		transports: make(map[int]*LocalTransport, len(localities)),
	}
	for _, id := range localities {
		c.transports[id] = &LocalTransport{
			self:     id,
			cluster:  c,
			handlers: make(map[string]Handler),
		}
	}
	return c
}

// ForLocality returns the ClusterTransport view for locality id.
func (c *LocalCluster) ForLocality(id int) *LocalTransport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transports[id]
}

func (c *LocalCluster) dispatch(ctx context.Context, locality int, op string, raw json.RawMessage) (any, error) {
	c.mu.RLock()
	t, ok := c.transports[locality]
	c.mu.RUnlock()
	if !ok {
		return nil, apperrors.New(apperrors.CodeTransportError, fmt.Sprintf("unknown locality %d", locality))
	}
	h, ok := t.lookup(op)
	if !ok {
		return nil, apperrors.New(apperrors.CodeTransportError, fmt.Sprintf("locality %d has no handler for op %q", locality, op))
	}
	return h(ctx, raw)
}

// LocalTransport is the per-locality ClusterTransport view backed by a
// LocalCluster.
type LocalTransport struct {
	self    int
	cluster *LocalCluster

	mu       sync.RWMutex
	handlers map[string]Handler
}

// Self returns this locality's id.
func (t *LocalTransport) Self() int { return t.self }

// Localities returns every participating locality id.
func (t *LocalTransport) Localities() []int { return t.cluster.localities }

// Register installs h for op on this locality.
func (t *LocalTransport) Register(op string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[op] = h
}

func (t *LocalTransport) lookup(op string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[op]
	return h, ok
}

// Broadcast invokes op on every locality in the cluster, aggregating
// the first error encountered.
func (t *LocalTransport) Broadcast(ctx context.Context, op string, payload any) error {
	raw, err := EncodePayload(payload)
	if err != nil {
		return err
	}
	for _, id := range t.cluster.localities {
		if _, err := t.cluster.dispatch(ctx, id, op, raw); err != nil {
			return apperrors.Wrap(apperrors.CodeTransportError, fmt.Sprintf("broadcast op %q failed on locality %d", op, id), err)
		}
	}
	return nil
}

// RemoteCall invokes op on a single named locality and returns its
// JSON-encoded response.
func (t *LocalTransport) RemoteCall(ctx context.Context, locality int, op string, payload any) (json.RawMessage, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	resp, err := t.cluster.dispatch(ctx, locality, op, raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransportError, fmt.Sprintf("remote call op %q to locality %d failed", op, locality), err)
	}
	if resp == nil {
		return nil, nil
	}
	return EncodePayload(resp)
}
