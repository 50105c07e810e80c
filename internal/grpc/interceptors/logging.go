package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"codementor/internal/logging/types"
	"codementor/pkg/utils"
)

func statusCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}

// LoggingInterceptor returns a gRPC unary interceptor that logs requests and responses
func LoggingInterceptor(logger types.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()

		resp, err := handler(ctx, req)

		logFields := map[string]interface{}{
			"request_id":      requestID,
			"method":          info.FullMethod,
			"processing_time": utils.FormatDuration(time.Since(startTime)),
			"status_code":     statusCode(err).String(),
		}
		if err != nil {
			logFields["error"] = err.Error()
			logger.Error("gRPC request failed", logFields)
		} else {
			logger.Debug("gRPC request completed", logFields)
		}

		return resp, err
	}
}

// StreamLoggingInterceptor returns a gRPC streaming interceptor that logs stream operations
func StreamLoggingInterceptor(logger types.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()

		logger.Debug("gRPC stream started", map[string]interface{}{
			"request_id": requestID,
			"method":     info.FullMethod,
		})

		err := handler(srv, ss)

		logFields := map[string]interface{}{
			"request_id":      requestID,
			"method":          info.FullMethod,
			"processing_time": utils.FormatDuration(time.Since(startTime)),
			"status_code":     statusCode(err).String(),
		}
		if err != nil {
			logFields["error"] = err.Error()
			logger.Error("gRPC stream failed", logFields)
		} else {
			logger.Debug("gRPC stream completed", logFields)
		}

		return err
	}
}
