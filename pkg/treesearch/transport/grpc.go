package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
)

// jsonCodecName is registered with grpc's encoding package so every
// Envelope on the wire is plain JSON rather than protobuf — there is
// no protoc invocation available in this build, and every payload
// crossing a locality boundary is already required to be
// JSON-(un)marshalable (see transport.go), so reusing that format for
// the RPC layer itself avoids a second serialisation scheme.
const jsonCodecName = "treesearch-json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
func (jsonCodec) Name() string { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// dispatchServiceDesc is a hand-written grpc.ServiceDesc exposing one
// unary method, Dispatch(Envelope) (Envelope), standing in for a
// protoc-generated service — the codec above makes JSON (un)marshaling
// work without a .proto/.pb.go pair.
var dispatchServiceDesc = grpc.ServiceDesc{
	ServiceName: "treesearch.Locality",
	HandlerType: (*dispatchServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Dispatch",
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := new(Envelope)
				if err := dec(in); err != nil {
					return nil, err
				}
				return srv.(dispatchServer).Dispatch(ctx, in)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "treesearch/locality.proto",
}

type dispatchServer interface {
	Dispatch(ctx context.Context, in *Envelope) (*Envelope, error)
}

// GRPCTransport implements ClusterTransport across real OS processes:
// each locality runs a gRPC server registered via RegisterServer and
// dials its peers via NewGRPCTransport's peerAddrs.
type GRPCTransport struct {
	self       int
	localities []int
	peerAddrs  map[int]string // locality id -> "host:port", excludes self

	mu       sync.RWMutex
	handlers map[string]Handler

	connMu sync.Mutex
	conns  map[int]*grpc.ClientConn
}

// NewGRPCTransport builds the transport for locality self, given every
// peer's dial address (self's own address is not required to appear).
func NewGRPCTransport(self int, peerAddrs map[int]string) *GRPCTransport {
	localities := []int{self}
	for id := range peerAddrs {
		localities = append(localities, id)
	}
	return &GRPCTransport{
		self:       self,
		localities: localities,
		peerAddrs:  peerAddrs,
		handlers:   make(map[string]Handler),
		conns:      make(map[int]*grpc.ClientConn),
	}
}

// RegisterServer installs this transport's Dispatch handler on a
// *grpc.Server the caller manages (lifecycle, TLS, listeners — all
// owned by the locality daemon, not by this transport).
func (g *GRPCTransport) RegisterServer(s *grpc.Server) {
	s.RegisterService(&dispatchServiceDesc, grpcDispatchAdapter{g})
}

type grpcDispatchAdapter struct{ t *GRPCTransport }

func (a grpcDispatchAdapter) Dispatch(ctx context.Context, in *Envelope) (*Envelope, error) {
	h, ok := a.t.lookup(in.Op)
	if !ok {
		return nil, apperrors.New(apperrors.CodeTransportError, fmt.Sprintf("locality %d has no handler for op %q", a.t.self, in.Op))
	}
	resp, err := h(ctx, in.Payload)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &Envelope{Op: in.Op}, nil
	}
	raw, err := EncodePayload(resp)
	if err != nil {
		return nil, err
	}
	return &Envelope{Op: in.Op, Payload: raw}, nil
}

func (g *GRPCTransport) Self() int         { return g.self }
func (g *GRPCTransport) Localities() []int { return g.localities }

func (g *GRPCTransport) Register(op string, h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[op] = h
}

func (g *GRPCTransport) lookup(op string) (Handler, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.handlers[op]
	return h, ok
}

func (g *GRPCTransport) connFor(locality int) (*grpc.ClientConn, error) {
	g.connMu.Lock()
	defer g.connMu.Unlock()
	if conn, ok := g.conns[locality]; ok {
		return conn, nil
	}
	addr, ok := g.peerAddrs[locality]
	if !ok {
		return nil, apperrors.New(apperrors.CodeTransportError, fmt.Sprintf("no dial address registered for locality %d", locality))
	}
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransportError, fmt.Sprintf("dial locality %d at %s failed", locality, addr), err)
	}
	g.conns[locality] = conn
	return conn, nil
}

func (g *GRPCTransport) callRemote(ctx context.Context, locality int, op string, raw json.RawMessage) (*Envelope, error) {
	if locality == g.self {
		return grpcDispatchAdapter{g}.Dispatch(ctx, &Envelope{Op: op, Payload: raw})
	}
	conn, err := g.connFor(locality)
	if err != nil {
		return nil, err
	}
	out := new(Envelope)
	err = conn.Invoke(ctx, "/treesearch.Locality/Dispatch", &Envelope{Op: op, Payload: raw}, out)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransportError, fmt.Sprintf("dispatch op %q to locality %d failed", op, locality), err)
	}
	return out, nil
}

// Broadcast dispatches op/payload to every locality, local first.
func (g *GRPCTransport) Broadcast(ctx context.Context, op string, payload any) error {
	raw, err := EncodePayload(payload)
	if err != nil {
		return err
	}
	for _, id := range g.localities {
		if _, err := g.callRemote(ctx, id, op, raw); err != nil {
			return apperrors.Wrap(apperrors.CodeTransportError, fmt.Sprintf("broadcast op %q failed on locality %d", op, id), err)
		}
	}
	return nil
}

// RemoteCall dispatches op/payload to a single locality.
func (g *GRPCTransport) RemoteCall(ctx context.Context, locality int, op string, payload any) (json.RawMessage, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	resp, err := g.callRemote(ctx, locality, op, raw)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// Close tears down every client connection this transport opened.
func (g *GRPCTransport) Close() error {
	g.connMu.Lock()
	defer g.connMu.Unlock()
	var firstErr error
	for _, conn := range g.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
