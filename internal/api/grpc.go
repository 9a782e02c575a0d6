package api

import (
	"context"

	"google.golang.org/grpc"
)

// OperatorMetadataKey carries the operator token on privileged calls.
const OperatorMetadataKey = "x-operator-token"

// operatorMethods lists full method names guarded by the operator token.
var operatorMethods = map[string]bool{}

func operatorOnly(methods ...string) {
	for _, m := range methods {
		operatorMethods[m] = true
	}
}

// IsOperatorMethod reports whether fullMethod requires the operator token.
func IsOperatorMethod(fullMethod string) bool {
	return operatorMethods[fullMethod]
}

// unary adapts a typed server method into a grpc.MethodHandler.
func unary[S, Req, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// withCodec forces the JSON content-subtype on client calls.
func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// Empty is the response of calls that only report success.
type Empty struct{}
