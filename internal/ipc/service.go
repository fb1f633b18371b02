// Package ipc exposes the rasmon connection monitor as a gRPC service over
// a Windows named pipe.
//
// The wire contract is api/rasbridge/v1/monitor.proto. Every message is a
// well-known protobuf type, so the descriptor below is written by hand
// instead of generated.
package ipc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rasbridge.v1.Monitor"

// MonitorServer is the server API of the monitor service. Entry names
// select connections.
type MonitorServer interface {
	ListConnections(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Statistics(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	HangUp(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Projections(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterMonitorServer registers srv with s.
func RegisterMonitorServer(s grpc.ServiceRegistrar, srv MonitorServer) {
	s.RegisterService(&monitorServiceDesc, srv)
}

var monitorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListConnections", MonitorServer.ListConnections),
		unary("Statistics", MonitorServer.Statistics),
		unary("HangUp", MonitorServer.HangUp),
		unary("Projections", MonitorServer.Projections),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rasbridge/v1/monitor.proto",
}

func fullMethod(method string) string { return "/" + ServiceName + "/" + method }

// unary builds the method descriptor for one request/response call.
func unary[Req, Resp any](method string, call func(MonitorServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MonitorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(MonitorServer), ctx, req.(*Req))
			})
		},
	}
}

// MonitorClient is the client API of the monitor service.
type MonitorClient struct {
	cc grpc.ClientConnInterface
}

// NewMonitorClient returns a client using cc.
func NewMonitorClient(cc grpc.ClientConnInterface) *MonitorClient {
	return &MonitorClient{cc: cc}
}

// ListConnections returns {"connections": [...]}.
func (c *MonitorClient) ListConnections(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("ListConnections"), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Statistics returns the traffic counters of an active entry.
func (c *MonitorClient) Statistics(ctx context.Context, entryName string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Statistics"), wrapperspb.String(entryName), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// HangUp terminates an active entry.
func (c *MonitorClient) HangUp(ctx context.Context, entryName string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod("HangUp"), wrapperspb.String(entryName), new(emptypb.Empty), opts...)
}

// Projections returns {"projections": [...]} for an active entry.
func (c *MonitorClient) Projections(ctx context.Context, entryName string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Projections"), wrapperspb.String(entryName), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
