package httpapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/XiaoHuahai/group3/internal/obs"
)

// HealthServer publishes readiness through the standard grpc.health.v1
// service, both for the empty service name and for serviceName.
type HealthServer struct {
	*health.Server
	readiness readinessChecker
	log       *zap.Logger
}

// NewHealthServer creates a health service that starts NOT_SERVING until
// the first Refresh.
func NewHealthServer(r readinessChecker, log *zap.Logger) *HealthServer {
	if r == nil {
		r = ReadyProbe{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &HealthServer{Server: health.NewServer(), readiness: r, log: log}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Refresh runs the readiness probe and updates the published status.
func (h *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.readiness.Check(ctx); err != nil {
		h.log.Warn("readiness probe failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	obs.SetReady(status == healthpb.HealthCheckResponse_SERVING)
	h.set(status)
	return status
}

// Run refreshes the status every interval until ctx is done, then marks the
// service as shutting down.
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		h.Refresh(probeCtx)
		cancel()
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

func (h *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.SetServingStatus("", status)
	h.SetServingStatus(serviceName, status)
}

// NewGRPCServer builds a gRPC server exposing the health service.
func NewGRPCServer(h *HealthServer, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, h.Server)
	return srv
}
