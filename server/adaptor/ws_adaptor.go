package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ponyo877/pairchat/pb"
	"github.com/ponyo877/pairchat/server/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
)

const maxDecodeErrorsPerConn = 3

type WebSocketAdaptor struct {
	session SessionUsecase
}

func NewWebSocketAdaptor(session SessionUsecase) *WebSocketAdaptor {
	return &WebSocketAdaptor{session: session}
}

// Handler accepts any Origin, including none. Native clients such as the
// terminal client do not send one.
func (a *WebSocketAdaptor) Handler() http.Handler {
	return &websocket.Server{
		Handler: a.serve,
		Handshake: func(*websocket.Config, *http.Request) error {
			return nil
		},
	}
}

// serve reads one JSON frame per WebSocket message. Malformed frames get an
// error frame back; too many in a row close the connection. An oversized
// frame is skipped and answered as a failed upload.
func (a *WebSocketAdaptor) serve(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()
	conn.MaxPayloadBytes = maxFrameBytes

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()
	remote := conn.Request().RemoteAddr

	outbox := newOutboxPeer()
	defer outbox.close()
	go func() {
		err := outbox.run(func(frame pb.Frame) error {
			return websocket.JSON.Send(conn, frame)
		})
		if err != nil {
			log.Debug().Err(err).Str("remote", remote).Msg("websocket write failed")
			_ = conn.Close()
		}
	}()

	requests := make(chan domain.StreamRequest, 32)
	sessionErr := make(chan error, 1)
	go func() {
		sessionErr <- a.session.HandleStreamSession(ctx, requests, outbox, remote)
	}()

	decodeErrors := 0
loop:
	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				log.Info().Str("remote", remote).Int("limit", maxFrameBytes).Msg("skipping oversized websocket frame")
				_ = outbox.Send(domain.NewUploadFailureResponse("", fmt.Errorf("%w: frame exceeds %d bytes", domain.ErrTooLarge, maxFrameBytes)))
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Str("remote", remote).Msg("websocket read failed")
			}
			break
		}

		var frame pb.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			decodeErrors++
			_ = outbox.Send(domain.NewStreamError("", fmt.Errorf("%w: invalid frame payload", domain.ErrValidation)))
			if decodeErrors >= maxDecodeErrorsPerConn {
				log.Info().Str("remote", remote).Msg("closing websocket after repeated invalid frames")
				break
			}
			continue
		}
		decodeErrors = 0

		request, err := decodeRequest(frame)
		if err != nil {
			_ = outbox.Send(domain.NewStreamError(frame.RequestID, err))
			continue
		}

		select {
		case requests <- request:
		case err := <-sessionErr:
			if err != nil {
				log.Warn().Err(err).Str("remote", remote).Msg("session ended with error")
			}
			return
		case <-ctx.Done():
			break loop
		}
	}

	close(requests)
	if err := <-sessionErr; err != nil {
		log.Warn().Err(err).Str("remote", remote).Msg("session ended with error")
	}
}
