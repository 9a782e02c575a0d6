package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/metrics"
)

// Options carries the cross-cutting dependencies of the gRPC server.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// OperatorTokenHash is the bcrypt hash operator calls are checked against.
	OperatorTokenHash string
	// ShutdownTimeout bounds graceful stop before in-flight calls are cut.
	ShutdownTimeout time.Duration
}

// Server is a configured gRPC server plus its health service.
type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
	log    *slog.Logger
	grace  time.Duration
}

// NewGRPCServer builds a gRPC server with logging, metrics and operator auth
// interceptors and registers all provided services.
func NewGRPCServer(opts Options, registrars ...Registrar) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	auth := NewOperatorAuth(opts.OperatorTokenHash)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			unaryRequestLogger(log),
			unaryMetrics(opts.Metrics),
			auth.Unary(),
		),
		grpc.ChainStreamInterceptor(
			streamRequestLogger(log),
			streamMetrics(opts.Metrics),
			auth.Stream(),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	for name := range grpcServer.GetServiceInfo() {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	grace := opts.ShutdownTimeout
	if grace <= 0 {
		grace = 10 * time.Second
	}
	return &Server{GRPC: grpcServer, Health: hs, log: log, grace: grace}
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.GRPC.Serve(lis) }()

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("stopping gRPC server")
	s.Health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(s.grace):
		s.log.Warn("graceful stop timed out, forcing", "timeout", s.grace)
		s.GRPC.Stop()
	}
	return nil
}

// StartGRPCServer listens on the configured address and serves until ctx is done.
func StartGRPCServer(ctx context.Context, cfg *config.Config, opts Options, registrars ...Registrar) error {
	addr := cfg.GRPCAddr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if opts.OperatorTokenHash == "" {
		opts.OperatorTokenHash = cfg.Operator.TokenHash
	}

	srv := NewGRPCServer(opts, registrars...)
	srv.log.Info("starting gRPC server", "addr", lis.Addr().String())
	return srv.Serve(ctx, lis)
}
