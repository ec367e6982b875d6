package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "user-crud-service/internal/adapter/grpc"
	"user-crud-service/internal/adapter/grpc/middleware"
	"user-crud-service/pkg/logger"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(svc *grpcadapter.UserServiceServer, l *zap.Logger, rateLimiter *middleware.RateLimiter) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logger.RequestIDInterceptor(l)}
	if rateLimiter != nil {
		interceptors = append(interceptors, rateLimiter.UnaryInterceptor())
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpcadapter.RegisterUserServiceServer(grpcServer, svc)
	reflection.Register(grpcServer)

	return grpcServer
}
