package logger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestIDMetadataKey is the gRPC metadata key mirroring RequestIDHeader.
const requestIDMetadataKey = "x-request-id"

// MaxRequestIDLength bounds caller-supplied request IDs.
const MaxRequestIDLength = 128

// NewRequestID returns a fresh request ID.
func NewRequestID() string {
	return uuid.New().String()
}

// RequestIDOrNew returns candidate when it is 1 to MaxRequestIDLength
// printable ASCII characters, and a fresh ID otherwise.
func RequestIDOrNew(candidate string) string {
	if candidate == "" || len(candidate) > MaxRequestIDLength {
		return NewRequestID()
	}
	for i := 0; i < len(candidate); i++ {
		if candidate[i] < 0x21 || candidate[i] > 0x7e {
			return NewRequestID()
		}
	}
	return candidate
}

// RequestIDInterceptor is a gRPC interceptor that propagates the caller's
// x-request-id metadata, or generates one, and logs every call.
func RequestIDInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		var candidate string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDMetadataKey); len(v) > 0 {
				candidate = v[0]
			}
		}
		requestID := RequestIDOrNew(candidate)

		ctx = ContextWithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, requestID))

		start := time.Now()
		resp, err := handler(ctx, req)

		WithContext(ctx, log).Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)

		return resp, err
	}
}
