package probe

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health-check name of the canvas service.
const ServiceName = "pixelcanvas.v1.Canvas"

// Server is a gRPC server exposing grpc.health.v1.Health.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New returns a Server reporting SERVING.
func New() *Server {
	hs := health.NewServer()
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor()))
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{grpc: gs, health: hs}
	s.SetServing(true)
	return s
}

// Serve accepts connections on lis until Shutdown. It returns nil after a
// clean stop.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// SetServing flips every reported status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	for _, svc := range []string{"", ServiceName} {
		s.health.SetServingStatus(svc, st)
	}
}

// Shutdown reports NOT_SERVING, then stops gracefully. Health Watch streams
// never finish on their own, so the stop is forced once ctx is done.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("probe: graceful stop timed out, forcing", "err", ctx.Err())
		s.grpc.Stop()
		<-done
	}
}

// LoggingInterceptor returns a UnaryServerInterceptor that logs each call's
// method, status code and duration at debug level.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		slog.Debug("probe: call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
