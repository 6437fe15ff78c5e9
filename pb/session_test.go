package pb

import (
	"os"
	"strings"
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

func TestSessionServiceDescriptor(t *testing.T) {
	desc, err := protoregistry.GlobalFiles.FindDescriptorByName("pairchat.SessionService")
	if err != nil {
		t.Fatalf("FindDescriptorByName() error = %v", err)
	}
	service, ok := desc.(protoreflect.ServiceDescriptor)
	if !ok {
		t.Fatalf("descriptor is %T, want a service", desc)
	}
	if got := service.ParentFile().Path(); got != sessionProtoPath {
		t.Errorf("file path = %q, want %q", got, sessionProtoPath)
	}

	method := service.Methods().ByName("Session")
	if method == nil {
		t.Fatal("method Session not registered")
	}
	if !method.IsStreamingClient() || !method.IsStreamingServer() {
		t.Error("Session is not bidirectional streaming")
	}
	for _, m := range []protoreflect.MessageDescriptor{method.Input(), method.Output()} {
		if m.FullName() != "google.protobuf.Struct" {
			t.Errorf("message type = %s, want google.protobuf.Struct", m.FullName())
		}
	}
	if got := "/" + string(service.FullName()) + "/" + string(method.Name()); got != SessionService_Session_FullMethodName {
		t.Errorf("full method = %q, want %q", got, SessionService_Session_FullMethodName)
	}
}

func TestSessionProtoFileMatchesDescriptor(t *testing.T) {
	raw, err := os.ReadFile("../proto/" + sessionProtoPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	src := string(raw)
	for _, want := range []string{
		"package pairchat;",
		`import "google/protobuf/struct.proto";`,
		`option go_package = "github.com/ponyo877/pairchat/pb";`,
		"rpc Session(stream google.protobuf.Struct) returns (stream google.protobuf.Struct);",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("session.proto is missing %q", want)
		}
	}
}
