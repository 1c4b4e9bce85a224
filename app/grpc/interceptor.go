package grpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const requestIDHeader = "x-request-id"

var grpcLogger = factory.NewModuleLogger("entitlements-grpc")

type requestIDContextKey struct{}

func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := requestIDFromMetadata(ctx)
		if requestID == "" {
			requestID = fmt.Sprintf("grpc-%s", uuid.NewString())
		}

		ctx = context.WithValue(ctx, requestIDContextKey{}, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

		return handler(ctx, req)
	}
}

// LoggingInterceptor writes one grpc_request line per call, tagged with the payer
// when the request names one.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		latency := time.Since(start)

		fields := logrus.Fields{
			"method":     info.FullMethod,
			"grpc_code":  status.Code(err).String(),
			"latency":    latency.String(),
			"latency_ns": latency.Nanoseconds(),
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			fields["request_id"] = requestID
		}
		if payerID := payerIDFromRequest(req); payerID != "" {
			fields["payer_id"] = payerID
		}

		entry := grpcLogger.WithFields(fields)
		if err != nil {
			entry.WithError(err).Warn("grpc_request")
			return resp, err
		}
		entry.Info("grpc_request")
		return resp, nil
	}
}

func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (_ interface{}, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				entry := grpcLogger.WithField("method", info.FullMethod).WithField("panic", rec)
				if requestID := RequestIDFromContext(ctx); requestID != "" {
					entry = entry.WithField("request_id", requestID)
				}
				entry.WithField("stack", string(debug.Stack())).Error("grpc_panic_recovered")
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

func loggerWithContext(ctx context.Context) logrus.FieldLogger {
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		return grpcLogger.WithField("request_id", requestID)
	}
	return grpcLogger
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(requestIDHeader)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func payerIDFromRequest(req interface{}) string {
	switch r := req.(type) {
	case *wrapperspb.StringValue:
		return strings.TrimSpace(r.GetValue())
	case *structpb.Struct:
		return strings.TrimSpace(r.GetFields()["payer_id"].GetStringValue())
	default:
		return ""
	}
}
