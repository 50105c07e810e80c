package server

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"codementor/internal/grpc/interceptors"
	"codementor/internal/logging/types"
)

// ServicePrefix namespaces the per-dependency health services
const ServicePrefix = "codementor."

// Server serves the standard gRPC health service. Each dependency check is
// exposed as service "codementor.<name>"; the empty service name is the
// overall status.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	checks     map[string]func(context.Context) error
	interval   time.Duration
	metrics    *interceptors.MetricsCollector
	logger     types.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// NewServer creates the gRPC server. checks are probed every interval.
func NewServer(checks map[string]func(context.Context) error, interval time.Duration, logger types.Logger) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	logger = logger.WithField("component", "grpc_server")
	metrics := interceptors.NewMetricsCollector()

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger),
			interceptors.LoggingInterceptor(logger),
			interceptors.MetricsInterceptor(metrics),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger),
			interceptors.StreamLoggingInterceptor(logger),
			interceptors.StreamMetricsInterceptor(metrics),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		checks:     checks,
		interval:   interval,
		metrics:    metrics,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start probes the dependencies once, then serves on lis until Stop
func (s *Server) Start(lis net.Listener) error {
	s.Probe(context.Background())
	go s.probeLoop()

	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Probe runs every check and publishes the serving status
func (s *Server) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		st := healthpb.HealthCheckResponse_SERVING
		if err := check(ctx); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Debug("Dependency unhealthy", map[string]interface{}{
				"dependency": name,
				"error":      err.Error(),
			})
		}
		s.health.SetServingStatus(ServicePrefix+name, st)
	}
	s.health.SetServingStatus("", overall)
}

func (s *Server) probeLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Probe(context.Background())
		case <-s.done:
			return
		}
	}
}

// Stop marks every service as not serving and drains in-flight calls
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Shutting down gRPC server")
		close(s.done)
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	})
}

// Metrics returns the per-method call metrics
func (s *Server) Metrics() *interceptors.MetricsCollector {
	return s.metrics
}
