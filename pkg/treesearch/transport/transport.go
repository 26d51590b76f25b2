// Package transport abstracts the broadcast/remote-call plumbing that
// the tree-search scheduler, registry and incumbent use to stay
// consistent across localities (one OS process each, in the
// distributed case). A single-locality LocalTransport is sufficient
// for property tests and for the sequential/in-process skeletons;
// GRPCTransport is the real multi-process implementation.
package transport

import (
	"context"
	"encoding/json"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
)

// Envelope is the wire struct carried by ClusterTransport: an
// operation name plus its JSON-encoded payload. Every Node, Space,
// Params and Candidate crossing a transport boundary is JSON-encoded —
// generators whose Node holds non-exported state (such as RNG bytes)
// supply their own MarshalJSON/UnmarshalJSON.
type Envelope struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one dispatched operation and returns a JSON-encodable
// response (or nil) to relay back to the caller of RemoteCall.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// ClusterTransport lets the registry, incumbent and scheduler reach
// every locality without knowing whether they're in-process or talking
// over the network.
type ClusterTransport interface {
	// Self returns this process's locality id.
	Self() int

	// Localities returns every locality id participating in the
	// current search, including Self.
	Localities() []int

	// Register installs the handler invoked when op is dispatched to
	// this locality, whether locally or by a remote caller.
	Register(op string, h Handler)

	// Broadcast dispatches op/payload to each locality's registered
	// handler in turn, waiting for each to complete. It stops at the
	// first error and returns it, wrapped as errors.CodeTransportError.
	Broadcast(ctx context.Context, op string, payload any) error

	// RemoteCall dispatches op/payload to a single locality and
	// returns its JSON-encoded response.
	RemoteCall(ctx context.Context, locality int, op string, payload any) (json.RawMessage, error)
}

// EncodePayload JSON-marshals v into an Envelope payload, wrapping
// marshal failures as a transport error since a Node/Space/Candidate
// that can't round-trip through JSON can never cross a locality
// boundary.
func EncodePayload(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransportError, "failed to encode transport payload", err)
	}
	return raw, nil
}

// DecodePayload JSON-unmarshals raw into v.
func DecodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrap(apperrors.CodeTransportError, "failed to decode transport payload", err)
	}
	return nil
}
