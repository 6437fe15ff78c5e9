package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// This is a compile-time assertion to ensure that this file is compatible
// with the grpc package it is being compiled against.
const _ = grpc.SupportPackageIsVersion9

const (
	SessionService_Session_FullMethodName = "/pairchat.SessionService/Session"
)

// SessionServiceClient is the client API for SessionService.
//
// Every message on the stream is a google.protobuf.Struct holding one
// {type, requestId, payload} frame.
type SessionServiceClient interface {
	Session(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[structpb.Struct, structpb.Struct], error)
}

type sessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) SessionServiceClient {
	return &sessionServiceClient{cc}
}

func (c *sessionServiceClient) Session(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[structpb.Struct, structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &SessionService_ServiceDesc.Streams[0], SessionService_Session_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	return x, nil
}

// This type alias is provided for backwards compatibility with existing code that references the prior non-generic stream type by name.
type SessionService_SessionClient = grpc.BidiStreamingClient[structpb.Struct, structpb.Struct]

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	Session(grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]) error
}

// UnimplementedSessionServiceServer must be embedded to have
// forward compatible implementations.
type UnimplementedSessionServiceServer struct{}

func (UnimplementedSessionServiceServer) Session(grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]) error {
	return errUnimplemented("method Session not implemented")
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionService_ServiceDesc, srv)
}

func _SessionService_Session_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(SessionServiceServer).Session(&grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// This type alias is provided for backwards compatibility with existing code that references the prior non-generic stream type by name.
type SessionService_SessionServer = grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]

// SessionService_ServiceDesc is the grpc.ServiceDesc for SessionService service.
var SessionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "pairchat.SessionService",
	HandlerType: (*SessionServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Session",
			Handler:       _SessionService_Session_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: sessionProtoPath,
}
