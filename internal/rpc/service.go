package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "softfloat.v1.Lab"

const (
	quantizeMethod = "/" + ServiceName + "/Quantize"
	rankMethod     = "/" + ServiceName + "/Rank"
)

// #region server-api
// LabServer is the server side of the evaluation service. Payloads are
// well-known Struct messages; see messages.go for their fields.
type LabServer interface {
	Quantize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Rank(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterLabServer registers srv on s.
func RegisterLabServer(s grpc.ServiceRegistrar, srv LabServer) {
	s.RegisterService(&labServiceDesc, srv)
}

var labServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LabServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Quantize", Handler: unaryHandler(quantizeMethod, LabServer.Quantize)},
		{MethodName: "Rank", Handler: unaryHandler(rankMethod, LabServer.Rank)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "softfloat/v1/lab.proto",
}

type unaryMethod func(LabServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LabServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LabServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion server-api

// #region client-api
// LabClient is the client side of the evaluation service.
type LabClient interface {
	Quantize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Rank(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type labClient struct {
	cc grpc.ClientConnInterface
}

// NewLabClient wraps a connection.
func NewLabClient(cc grpc.ClientConnInterface) LabClient {
	return &labClient{cc: cc}
}

func (c *labClient) Quantize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, quantizeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *labClient) Rank(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, rankMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion client-api
