package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// coderoom.v1.RoomService carries its messages as google.protobuf.Struct,
// so the service is described by hand instead of generated from a .proto file.
const ServiceName = "coderoom.v1.RoomService"

const (
	methodCreateRoom = "/" + ServiceName + "/CreateRoom"
	methodGetRoom    = "/" + ServiceName + "/GetRoom"
)

type RoomServiceServer interface {
	CreateRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var RoomServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoomServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateRoom", Handler: unaryHandler(methodCreateRoom, RoomServiceServer.CreateRoom)},
		{MethodName: "GetRoom", Handler: unaryHandler(methodGetRoom, RoomServiceServer.GetRoom)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coderoom/v1/room.proto",
}

type structMethod func(srv RoomServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RoomServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RoomServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RoomServiceClient calls coderoom.v1.RoomService over conn.
type RoomServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRoomServiceClient(cc grpc.ClientConnInterface) *RoomServiceClient {
	return &RoomServiceClient{cc: cc}
}

func (c *RoomServiceClient) CreateRoom(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodCreateRoom, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RoomServiceClient) GetRoom(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetRoom, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
