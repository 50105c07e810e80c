package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"codementor/internal/logging/types"
)

// recoverTo turns a panic in a health or reflection handler into an
// Internal status written to *err
func recoverTo(logger types.Logger, method string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	logger.Error("gRPC handler panic recovered", map[string]interface{}{
		"method":      method,
		"panic":       fmt.Sprintf("%v", r),
		"stack_trace": string(debug.Stack()),
	})
	*err = status.Error(codes.Internal, "internal server error")
}

// RecoveryInterceptor recovers panics in unary handlers
func RecoveryInterceptor(logger types.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer recoverTo(logger, info.FullMethod, &err)
		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor recovers panics in streaming handlers, including
// the health Watch stream
func StreamRecoveryInterceptor(logger types.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer recoverTo(logger, info.FullMethod, &err)
		return handler(srv, ss)
	}
}
