// Command analyzer runs a single tree-search locality as a standalone
// process: it hosts a transport.GRPCTransport server so other
// locality daemons (or a coordinating treesearch CLI, dialing in as a
// peer) can reach it, and periodically health-checks its configured
// peers over the same transport.
//
// Wiring a GRPCTransport-backed Runtime into SearchDepthBounded/
// SearchBnB across real OS processes needs the engine to partition
// depthEngine construction per-locality (today it builds registry and
// scheduler state for every entry in Runtime.Transports from whichever
// process calls Search, which only works when all those transports
// are reachable in-process, as transport.LocalCluster's views are).
// That partitioning is future work; this daemon exercises the
// transport layer itself — Register/Broadcast/RemoteCall over a real
// network — standing in for the locality-daemon half of a eventual
// multi-process driver. `treesearch run --skeleton-type dist` still
// runs its localities in-process via transport.NewLocalCluster.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/yewpar-go/yewpar/pkg/treesearch/transport"
	"github.com/yewpar-go/yewpar/pkg/utils"
)

var (
	self       = flag.Int("self", 0, "This locality's id")
	listenAddr = flag.String("listen", ":9001", "Address to host this locality's gRPC transport on")
	peersFlag  = flag.String("peers", "", "Comma-separated peer list, \"id=host:port\" pairs")
	version    = flag.Bool("v", false, "Print version and exit")
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const opHealthPing = "health.ping"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("treesearch-daemon version %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	logger := utils.NewDefaultLogger(utils.LevelInfo, os.Stdout)
	utils.SetGlobalLogger(logger)

	peers, err := parsePeers(*peersFlag)
	if err != nil {
		logger.Error("Failed to parse --peers: %v", err)
		os.Exit(1)
	}

	logger.Info("Starting locality daemon, self=%d, listen=%s, peers=%d", *self, *listenAddr, len(peers))

	tr := transport.NewGRPCTransport(*self, peers)
	tr.Register(opHealthPing, func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]int{"locality": *self}, nil
	})

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Error("Failed to listen on %s: %v", *listenAddr, err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	tr.RegisterServer(grpcServer)

	serveErrCh := make(chan error, 1)
	go func() {
		logger.Info("Serving locality %d on %s", *self, *listenAddr)
		serveErrCh <- grpcServer.Serve(lis)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if len(peers) > 0 {
		go healthCheckLoop(ctx, tr, peers, logger)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down", sig)
	case err := <-serveErrCh:
		if err != nil {
			logger.Error("gRPC server stopped with error: %v", err)
		}
	}

	cancel()
	grpcServer.GracefulStop()
	logger.Info("Locality %d stopped", *self)
}

// healthCheckLoop periodically pings every configured peer over the
// real transport, logging reachability. It is a diagnostic, not part
// of the search protocol.
func healthCheckLoop(ctx context.Context, tr *transport.GRPCTransport, peers map[int]string, logger utils.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for id := range peers {
				if _, err := tr.RemoteCall(ctx, id, opHealthPing, nil); err != nil {
					logger.Warn("peer %d unreachable: %v", id, err)
				} else {
					logger.Debug("peer %d reachable", id)
				}
			}
		}
	}
}

func parsePeers(spec string) (map[int]string, error) {
	peers := make(map[int]string)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return peers, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed peer %q, expected \"id=host:port\"", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed peer id %q: %w", kv[0], err)
		}
		peers[id] = strings.TrimSpace(kv[1])
	}
	return peers, nil
}
