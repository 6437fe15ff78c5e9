package pb

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

const sessionProtoPath = "pairchat/session.proto"

// The service has no messages of its own, so the file descriptor of
// proto/pairchat/session.proto is built here and registered globally for
// server reflection.
func init() {
	structType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())
	file := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(sessionProtoPath),
		Package:    proto.String("pairchat"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Syntax:     proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/ponyo877/pairchat/pb"),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("SessionService"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:            proto.String("Session"),
				InputType:       proto.String(structType),
				OutputType:      proto.String(structType),
				ClientStreaming: proto.Bool(true),
				ServerStreaming: proto.Bool(true),
			}},
		}},
	}
	fd, err := protodesc.NewFile(file, protoregistry.GlobalFiles)
	if err != nil {
		panic(err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(err)
	}
}

func errUnimplemented(msg string) error {
	return status.Error(codes.Unimplemented, msg)
}
