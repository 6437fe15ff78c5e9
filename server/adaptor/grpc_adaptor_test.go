package adaptor

import (
	"encoding/base64"
	"testing"

	"github.com/ponyo877/pairchat/pb"
	"github.com/ponyo877/pairchat/server/domain"
)

func TestGRPCAdaptor_PairsWithWebSocket(t *testing.T) {
	srv := newTestServer(t)
	alice := dialGRPC(t, srv)
	bob := dialWS(t, srv)

	alice.sendFrame(t, "join", "", pb.RequestPayload{DisplayName: "alice"})
	alice.next(t, "waiting")
	bob.sendFrame(t, "join", "", pb.RequestPayload{DisplayName: "bob"})
	room := bob.next(t, "connected").RoomID
	if got := alice.next(t, "connected"); got.PartnerName != "bob" || got.RoomID != room {
		t.Errorf("connected = %+v, want bob in %s", got, room)
	}

	bob.sendFrame(t, "typing", "", pb.RequestPayload{RoomID: room, Sender: "bob"})
	alice.next(t, "user-typing")
	bob.sendFrame(t, "message", "", pb.RequestPayload{RoomID: room, Sender: "bob", Text: "hello from the browser"})
	if got := alice.next(t, "message"); got.Text != "hello from the browser" {
		t.Errorf("message = %+v", got)
	}

	alice.sendFrame(t, "find-new-chat", "", pb.RequestPayload{DisplayName: "alice"})
	bob.next(t, "partner-disconnected")
	alice.next(t, "disconnected-from-room")
	alice.next(t, "searching-new-chat")
}

func TestGRPCAdaptor_ErrorFrame(t *testing.T) {
	srv := newTestServer(t)
	alice := dialGRPC(t, srv)

	alice.sendFrame(t, "message", "r9", pb.RequestPayload{RoomID: "room-x-y", Text: "hi"})
	if got := alice.next(t, "error"); got.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", got)
	}
}

func TestGRPCAdaptor_CloseSendDisconnects(t *testing.T) {
	srv := newTestServer(t)
	alice := dialGRPC(t, srv)
	bob := dialWS(t, srv)

	bob.sendFrame(t, "join", "", pb.RequestPayload{DisplayName: "bob"})
	bob.next(t, "waiting")
	alice.sendFrame(t, "join", "", pb.RequestPayload{DisplayName: "alice"})
	alice.next(t, "connected")
	bob.next(t, "connected")

	alice.close()
	bob.next(t, "partner-disconnected")
	alice.waitClosed(t)
}

func TestGRPCAdaptor_UploadNearSizeCap(t *testing.T) {
	srv := newTestServer(t)
	alice := dialGRPC(t, srv)
	bob := dialWS(t, srv)

	alice.sendFrame(t, "join", "", pb.RequestPayload{DisplayName: "alice"})
	alice.next(t, "waiting")
	bob.sendFrame(t, "join", "", pb.RequestPayload{DisplayName: "bob"})
	room := bob.next(t, "connected").RoomID
	alice.next(t, "connected")

	data := paddedPNG(domain.MaxImageBytes - 1024)
	alice.sendFrame(t, "upload-image", "big-1", pb.RequestPayload{
		RoomID:          room,
		Sender:          "alice",
		Filename:        "big.png",
		ImageDataBase64: base64.StdEncoding.EncodeToString(data),
	})

	broadcast := bob.nextWithin(t, "image-message", largeFrameTimeout)
	alice.nextWithin(t, "image-message", largeFrameTimeout)
	ack := alice.nextWithin(t, "upload-image", largeFrameTimeout)
	if !ack.Success || ack.URL == "" || ack.URL != broadcast.URL {
		t.Fatalf("ack = %+v, broadcast = %+v, want a shared successful url", ack, broadcast)
	}
	if stats := srv.media.Stats(); stats.Images != 1 || stats.Bytes != int64(len(data)) {
		t.Errorf("stats = %+v, want one image of %d bytes", stats, len(data))
	}
}
