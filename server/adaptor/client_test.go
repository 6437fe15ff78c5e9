package adaptor

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/ponyo877/pairchat/pb"
	"golang.org/x/net/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const (
	frameTimeout      = 2 * time.Second
	largeFrameTimeout = 15 * time.Second
)

// frameClient is one test connection on either transport. Frames are pumped
// into a channel that is closed when the server side goes away.
type frameClient struct {
	frames chan pb.Frame
	send   func(pb.Frame) error
	close  func()
}

func (c *frameClient) sendFrame(t *testing.T, frameType, requestID string, payload pb.RequestPayload) {
	t.Helper()
	frame, err := pb.NewFrame(frameType, requestID, payload)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	if err := c.send(frame); err != nil {
		t.Fatalf("send %s error = %v", frameType, err)
	}
}

func (c *frameClient) next(t *testing.T, want string) pb.EventPayload {
	t.Helper()
	return c.nextWithin(t, want, frameTimeout)
}

// nextWithin is next with a custom wait, for frames that carry large uploads.
func (c *frameClient) nextWithin(t *testing.T, want string, timeout time.Duration) pb.EventPayload {
	t.Helper()
	select {
	case frame, ok := <-c.frames:
		if !ok {
			t.Fatalf("connection closed while waiting for %s", want)
		}
		if frame.Type != want {
			t.Fatalf("frame type = %q (%s), want %q", frame.Type, frame.Payload, want)
		}
		var payload pb.EventPayload
		if err := frame.DecodePayload(&payload); err != nil {
			t.Fatalf("DecodePayload() error = %v", err)
		}
		return payload
	case <-time.After(timeout):
		t.Fatalf("no %s frame within %v", want, timeout)
	}
	return pb.EventPayload{}
}

func (c *frameClient) waitClosed(t *testing.T) {
	t.Helper()
	deadline := time.After(frameTimeout)
	for {
		select {
		case _, ok := <-c.frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("connection was not closed")
		}
	}
}

func dialWS(t *testing.T, srv *testServer) *frameClient {
	t.Helper()
	host := strings.TrimPrefix(srv.URL, "http://")
	conn, err := websocket.Dial("ws://"+host+"/ws", "", "http://"+host)
	if err != nil {
		t.Fatalf("websocket.Dial() error = %v", err)
	}
	c := &frameClient{
		frames: make(chan pb.Frame, 32),
		send: func(frame pb.Frame) error {
			return websocket.JSON.Send(conn, frame)
		},
		close: func() {
			_ = conn.Close()
		},
	}
	go func() {
		defer close(c.frames)
		for {
			var frame pb.Frame
			if err := websocket.JSON.Receive(conn, &frame); err != nil {
				return
			}
			c.frames <- frame
		}
	}()
	t.Cleanup(c.close)
	return c
}

func dialGRPC(t *testing.T, srv *testServer) *frameClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer()
	pb.RegisterSessionServiceServer(s, NewGRPCAdaptor(srv.session))
	go func() {
		_ = s.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxFrameBytes), grpc.MaxCallSendMsgSize(maxFrameBytes)),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := pb.NewSessionServiceClient(conn).Session(ctx)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}

	c := &frameClient{
		frames: make(chan pb.Frame, 32),
		send: func(frame pb.Frame) error {
			s, err := pb.ToStruct(frame)
			if err != nil {
				return err
			}
			return stream.Send(s)
		},
		close: func() {
			_ = stream.CloseSend()
		},
	}
	go func() {
		defer close(c.frames)
		for {
			in, err := stream.Recv()
			if err != nil {
				return
			}
			frame, err := pb.FromStruct(in)
			if err != nil {
				return
			}
			c.frames <- frame
		}
	}()
	t.Cleanup(func() {
		cancel()
		_ = conn.Close()
		s.Stop()
	})
	return c
}
