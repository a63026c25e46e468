package changesync

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The ChangeSync service carries encoded changes as BytesValue payloads, so
// it is described by hand instead of from a .proto file.
const (
	ChangeSync_Push_FullMethodName      = "/wargame.changesync.v1.ChangeSync/Push"
	ChangeSync_Length_FullMethodName    = "/wargame.changesync.v1.ChangeSync/Length"
	ChangeSync_Subscribe_FullMethodName = "/wargame.changesync.v1.ChangeSync/Subscribe"
)

// PeerIDKey is the metadata key peers identify themselves with.
const PeerIDKey = "x-peer-id"

// ChangeSyncClient is the client API for the ChangeSync service.
type ChangeSyncClient interface {
	// Push performs an encoded change on the host and returns its history index.
	Push(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	// Length returns the host's history length.
	Length(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	// Subscribe streams encoded frames starting at the given history index.
	Subscribe(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.BytesValue], error)
}

type changeSyncClient struct {
	cc grpc.ClientConnInterface
}

func NewChangeSyncClient(cc grpc.ClientConnInterface) ChangeSyncClient {
	return &changeSyncClient{cc}
}

func (c *changeSyncClient) Push(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, ChangeSync_Push_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *changeSyncClient) Length(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, ChangeSync_Length_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *changeSyncClient) Subscribe(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.BytesValue], error) {
	stream, err := c.cc.NewStream(ctx, &ChangeSync_ServiceDesc.Streams[0], ChangeSync_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.Int64Value, wrapperspb.BytesValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// ChangeSyncServer is the server API for the ChangeSync service.
type ChangeSyncServer interface {
	Push(context.Context, *wrapperspb.BytesValue) (*wrapperspb.Int64Value, error)
	Length(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	Subscribe(*wrapperspb.Int64Value, grpc.ServerStreamingServer[wrapperspb.BytesValue]) error
}

// RegisterChangeSyncServer registers srv with s.
func RegisterChangeSyncServer(s grpc.ServiceRegistrar, srv ChangeSyncServer) {
	s.RegisterService(&ChangeSync_ServiceDesc, srv)
}

func _ChangeSync_Push_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChangeSyncServer).Push(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ChangeSync_Push_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChangeSyncServer).Push(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _ChangeSync_Length_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChangeSyncServer).Length(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ChangeSync_Length_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChangeSyncServer).Length(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ChangeSync_Subscribe_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(wrapperspb.Int64Value)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ChangeSyncServer).Subscribe(m, &grpc.GenericServerStream[wrapperspb.Int64Value, wrapperspb.BytesValue]{ServerStream: stream})
}

// ChangeSync_ServiceDesc is the grpc.ServiceDesc for the ChangeSync service.
var ChangeSync_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wargame.changesync.v1.ChangeSync",
	HandlerType: (*ChangeSyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Push",
			Handler:    _ChangeSync_Push_Handler,
		},
		{
			MethodName: "Length",
			Handler:    _ChangeSync_Length_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _ChangeSync_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "wargame/changesync/v1/changesync",
}
