package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/metrics"
)

// RequestIDKey is the metadata key echoing the per-call request id.
const RequestIDKey = "x-request-id"

type requestIDCtxKey struct{}

// RequestID returns the id assigned to the current call, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

// withRequestID reuses an incoming x-request-id or mints a new one and
// echoes it back in the response header.
func withRequestID(ctx context.Context) (context.Context, string) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(RequestIDKey); len(vals) > 0 && vals[0] != "" {
			id = vals[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, id))
	return context.WithValue(ctx, requestIDCtxKey{}, id), id
}

func logCall(log *slog.Logger, method, reqID string, start time.Time, err error) {
	code := status.Code(err)
	attrs := []any{"method", method, "request_id", reqID, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK:
		log.Debug("rpc completed", attrs...)
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		log.Error("rpc failed", append(attrs, "err", err)...)
	default:
		log.Warn("rpc rejected", append(attrs, "err", err)...)
	}
}

func unaryRequestLogger(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx, reqID := withRequestID(ctx)
		resp, err := handler(ctx, req)
		logCall(log, info.FullMethod, reqID, start, err)
		return resp, err
	}
}

// wrappedStream overrides the stream context.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }

func streamRequestLogger(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx, reqID := withRequestID(ss.Context())
		err := handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
		logCall(log, info.FullMethod, reqID, start, err)
		return err
	}
}

func unaryMetrics(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if m == nil {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		m.RPCDuration.WithLabelValues(info.FullMethod, status.Code(err).String()).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

func streamMetrics(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if m == nil {
			return handler(srv, ss)
		}
		start := time.Now()
		err := handler(srv, ss)
		m.RPCDuration.WithLabelValues(info.FullMethod, status.Code(err).String()).Observe(time.Since(start).Seconds())
		return err
	}
}

// OperatorAuth guards operator methods with a bcrypt-hashed shared token.
// An empty hash disables every operator method.
type OperatorAuth struct {
	hash []byte
}

func NewOperatorAuth(tokenHash string) *OperatorAuth {
	return &OperatorAuth{hash: []byte(tokenHash)}
}

// Check verifies the operator token on ctx when fullMethod requires it.
func (a *OperatorAuth) Check(ctx context.Context, fullMethod string) error {
	if !api.IsOperatorMethod(fullMethod) {
		return nil
	}
	if len(a.hash) == 0 {
		return status.Error(codes.PermissionDenied, "operator access is disabled")
	}
	md, _ := metadata.FromIncomingContext(ctx)
	tokens := md.Get(api.OperatorMetadataKey)
	if len(tokens) == 0 || tokens[0] == "" {
		return status.Error(codes.PermissionDenied, "operator token required")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(tokens[0])); err != nil {
		return status.Error(codes.PermissionDenied, "invalid operator token")
	}
	return nil
}

func (a *OperatorAuth) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := a.Check(ctx, info.FullMethod); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func (a *OperatorAuth) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := a.Check(ss.Context(), info.FullMethod); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
