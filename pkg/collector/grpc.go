package collector

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "munin.collector.Collector"

// collectorService is the server side of the gRPC service. Messages are
// protobuf well-known types, so there is no generated code.
type collectorService interface {
	Config(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Acquire(context.Context, *wrapperspb.UInt64Value) (*wrapperspb.BytesValue, error)
	Autoconf(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
}

var collectorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*collectorService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Config", Handler: configHandler},
		{MethodName: "Acquire", Handler: acquireHandler},
		{MethodName: "Autoconf", Handler: autoconfHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "collector",
}

func fullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

func configHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(collectorService).Config(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Config")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(collectorService).Config(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func acquireHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(collectorService).Acquire(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Acquire")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(collectorService).Acquire(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func autoconfHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(collectorService).Autoconf(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Autoconf")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(collectorService).Autoconf(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// grpcServer adapts a Collector to the gRPC service.
type grpcServer struct {
	impl Collector
}

func (s *grpcServer) Config(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	out, err := s.impl.Config()
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(out), nil
}

func (s *grpcServer) Acquire(ctx context.Context, req *wrapperspb.UInt64Value) (*wrapperspb.BytesValue, error) {
	out, err := s.impl.Acquire(req.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(out), nil
}

func (s *grpcServer) Autoconf(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	ok, err := s.impl.Autoconf()
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bool(ok), nil
}

// grpcClient implements Collector over a plugin connection.
type grpcClient struct {
	conn *grpc.ClientConn
}

func (c *grpcClient) Config() ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(context.Background(), fullMethod("Config"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *grpcClient) Acquire(epoch uint64) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(context.Background(), fullMethod("Acquire"), wrapperspb.UInt64(epoch), out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *grpcClient) Autoconf() (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(context.Background(), fullMethod("Autoconf"), &emptypb.Empty{}, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
