// Package probe exposes the gRPC health service used by orchestrators.
package probe

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported to grpc health clients
const ServiceName = "unipulse.API"

// Check reports whether a dependency is usable
type Check func(ctx context.Context) error

// Server is a gRPC server carrying only health and reflection
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// New creates a probe Server reporting NOT_SERVING until SetServing is called
func New(logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	reflection.Register(grpcServer)

	return &Server{grpc: grpcServer, health: healthServer, logger: logger}
}

// SetServing flips the reported status of ServiceName
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks serving on lis until Stop
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Monitor runs checks every interval and reports SERVING only while all pass.
// It returns when ctx is done.
func (s *Server) Monitor(ctx context.Context, interval time.Duration, checks ...Check) {
	run := func() {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		for _, check := range checks {
			if err := check(checkCtx); err != nil {
				s.logger.Warn("health check failed", zap.Error(err))
				s.SetServing(false)
				return
			}
		}
		s.SetServing(true)
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// Stop marks the service NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
