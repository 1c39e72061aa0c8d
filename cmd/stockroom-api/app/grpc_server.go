package app

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	httpadapter "github.com/aq2208/stockroom-api/internal/adapter/http"
	"github.com/aq2208/stockroom-api/internal/logging"
)

// HealthServer exposes grpc.health.v1 for orchestrators that check health over gRPC.
// The overall status follows the same dependency checks as /readyz.
type HealthServer struct {
	addr     string
	srv      *grpc.Server
	health   *health.Server
	checks   map[string]httpadapter.ReadyCheck
	interval time.Duration
	log      *slog.Logger
}

func NewHealthServer(addr string, checks map[string]httpadapter.ReadyCheck) *HealthServer {
	srv := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              2 * time.Minute,
			Timeout:           20 * time.Second,
		}),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{
		addr:     addr,
		srv:      srv,
		health:   hs,
		checks:   checks,
		interval: 5 * time.Second,
		log:      logging.New("grpc-health"),
	}
}

// Serve blocks until Stop is called or the listener fails.
func (h *HealthServer) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return err
	}
	h.checkAll(ctx)
	go h.watch(ctx)
	return h.srv.Serve(lis)
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}

func (h *HealthServer) watch(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.checkAll(ctx)
		}
	}
}

func (h *HealthServer) checkAll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("dependency unhealthy", "dep", name, "err", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.health.SetServingStatus("", status)
}
