package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"user-crud-service/cmd/api/di"
	"user-crud-service/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server
	Gin    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	s := &Server{
		Config: cfg,
		Logger: l,
		Gin: SetupGinServer(
			c.GinHandler,
			c.RateLimiter,
			c.Storage,
			cfg.Logger.ServiceName,
			":"+cfg.App.HTTPPort,
			cfg.App.Env,
			l,
		),
	}
	if cfg.App.GRPCEnabled {
		s.GRPC = SetupGRPC(c.GRPCService, l, c.RateLimiter)
	}
	return s
}

// Start starts the gRPC and HTTP servers and blocks until one of them fails
// or both have been shut down.
func (s *Server) Start() error {
	errCh := make(chan error, 2)
	running := 0

	if s.GRPC != nil {
		lc := net.ListenConfig{}
		lis, err := lc.Listen(context.Background(), "tcp", s.grpcAddress())
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.grpcAddress(), err)
		}

		running++
		go func() {
			s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddress()))
			if err := s.GRPC.Serve(lis); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
				return
			}
			errCh <- nil
		}()
	}

	running++
	go func() {
		s.Logger.Info("Gin REST API running", zap.String("address", s.Gin.Addr))
		if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("gin server: %w", err)
			return
		}
		errCh <- nil
	}()

	for ; running > 0; running-- {
		if err := <-errCh; err != nil {
			return err
		}
	}
	return nil
}

// Shutdown drains both servers within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		done := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", ctx.Err()))
		}
	}

	return errors.Join(errs...)
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
