// Package grpc runs the gRPC side of the service: the standard
// grpc.health.v1.Health service backed by dependency checks, with recovery,
// logging and Prometheus interceptors.
//
//	srv := grpc.New(grpc.Checks{"database": db.Ping, "redis": cache.Ping})
//	go srv.Serve(lis)
//	defer srv.GracefulStop()
package grpc

import (
	"context"
	"runtime/debug"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/metrics"
)

var (
	handledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gebeta",
		Subsystem: "grpc",
		Name:      "handled_total",
		Help:      "gRPC calls completed, by method and code.",
	}, []string{"method", "code"})

	handlingSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gebeta",
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "gRPC call latency.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method"})
)

func init() {
	metrics.MustRegister(handledTotal, handlingSeconds)
}

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Checks maps a service name, as asked for in HealthCheckRequest.Service,
// to its check. The empty name asks for all of them.
type Checks map[string]Check

// ─── Interceptors ─────────────────────────────────────────────────────────────

func recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Error(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func observeInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	handledTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	handlingSeconds.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	logger.Debug("grpc: request", "method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds())
	return resp, err
}

// ─── Health service ───────────────────────────────────────────────────────────

// HealthServer answers grpc.health.v1 from Checks.
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	checks  Checks
	timeout time.Duration
}

func NewHealthServer(checks Checks) *HealthServer {
	if checks == nil {
		checks = Checks{}
	}
	return &HealthServer{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	names := h.names(req.GetService())
	if names == nil {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	serving := grpc_health_v1.HealthCheckResponse_SERVING
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.Warn("grpc: health check failed", "check", name, "error", err)
			serving = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	return &grpc_health_v1.HealthCheckResponse{Status: serving}, nil
}

// Watch sends the current status once.
func (h *HealthServer) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	resp, err := h.Check(stream.Context(), req)
	if err != nil {
		return err
	}
	return stream.Send(resp)
}

// names returns the checks to run for service, or nil when it is unknown.
func (h *HealthServer) names(service string) []string {
	if service == "" {
		out := make([]string, 0, len(h.checks))
		for name := range h.checks {
			out = append(out, name)
		}
		sort.Strings(out)
		return out
	}
	if _, ok := h.checks[service]; ok {
		return []string{service}
	}
	return nil
}

// New builds a server with the health service and reflection registered.
func New(checks Checks) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(4<<20),
		grpc.MaxSendMsgSize(4<<20),
	)
	grpc_health_v1.RegisterHealthServer(srv, NewHealthServer(checks))
	reflection.Register(srv)
	return srv
}
