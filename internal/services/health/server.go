// Package health exposes per-camera worker liveness over the standard gRPC
// health checking protocol.
package health

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for a camera's worker
func ServiceName(cameraID string) string {
	return "camera/" + cameraID
}

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger zerolog.Logger
}

func NewServer(logger zerolog.Logger) *Server {
	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// SetCameraServing marks a camera's worker as serving or not serving.
// Watchers of the camera service are notified immediately.
func (s *Server) SetCameraServing(cameraID string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName(cameraID), status)
}

// Serve blocks accepting connections on lis until Shutdown
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server listening")
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc health server: %w", err)
	}
	return nil
}

// ListenAndServe listens on the given TCP port and serves
func (s *Server) ListenAndServe(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port %d: %w", port, err)
	}
	return s.Serve(lis)
}

// Shutdown flips every service to NOT_SERVING and stops the server.
// Open Watch streams never finish on their own, so when ctx expires before
// the graceful stop completes the server is stopped hard.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info().Msg("gRPC health server stopped")
		return nil
	case <-ctx.Done():
		s.grpc.Stop()
		<-stopped
		s.logger.Warn().Msg("gRPC health server forced to stop")
		return fmt.Errorf("grpc health server graceful stop: %w", ctx.Err())
	}
}
