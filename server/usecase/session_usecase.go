package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ponyo877/pairchat/server/domain"
	"github.com/rs/zerolog/log"
)

const eventBufferSize = 256

var ErrSessionClosed = errors.New("session loop is not running")

// SessionUsecase routes connection events. A single goroutine (Run) applies
// every event to the pairing state one at a time, so matching and room
// changes never interleave. Transports only post events.
type SessionUsecase struct {
	pairing domain.PairingService
	media   MediaStore
	events  chan domain.StreamEvent
	done    chan struct{}
	stats   atomic.Value
}

func NewSessionUsecase(pairing domain.PairingService, media MediaStore) *SessionUsecase {
	u := &SessionUsecase{
		pairing: pairing,
		media:   media,
		events:  make(chan domain.StreamEvent, eventBufferSize),
		done:    make(chan struct{}),
	}
	u.stats.Store(domain.PairingStats{})
	return u
}

// Run processes events until ctx is cancelled. It must be called once.
func (u *SessionUsecase) Run(ctx context.Context) error {
	defer close(u.done)
	log.Info().Msg("session loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session loop stopped")
			return nil
		case event := <-u.events:
			u.handle(ctx, event)
			u.stats.Store(u.pairing.Stats())
		}
	}
}

func (u *SessionUsecase) Stats() domain.PairingStats {
	return u.stats.Load().(domain.PairingStats)
}

func (u *SessionUsecase) Connect(ctx context.Context, peer domain.Peer, remote string) (domain.Connection, error) {
	conn := domain.NewConnection(domain.NewConnectionID(), remote)
	if err := u.post(ctx, domain.NewConnectEvent(conn, peer)); err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

func (u *SessionUsecase) Dispatch(ctx context.Context, id domain.ConnectionID, request domain.StreamRequest) error {
	return u.post(ctx, domain.NewRequestEvent(id, request))
}

// Disconnect is delivered even when the caller's context is already done, as
// long as the loop is still running.
func (u *SessionUsecase) Disconnect(id domain.ConnectionID) {
	if err := u.post(context.Background(), domain.NewDisconnectEvent(id)); err != nil {
		log.Debug().Err(err).Str("conn", string(id)).Msg("disconnect after session loop stopped")
	}
}

// HandleStreamSession registers the peer, forwards every request until the
// channel closes, then disconnects the connection.
func (u *SessionUsecase) HandleStreamSession(
	ctx context.Context,
	requests <-chan domain.StreamRequest,
	peer domain.Peer,
	remote string,
) error {
	conn, err := u.Connect(ctx, peer, remote)
	if err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}
	defer u.Disconnect(conn.ID)
	log.Info().Str("conn", string(conn.ID)).Str("remote", remote).Msg("connection opened")

	for {
		select {
		case <-ctx.Done():
			return nil
		case request, ok := <-requests:
			if !ok {
				log.Info().Str("conn", string(conn.ID)).Msg("connection closed")
				return nil
			}
			if err := u.Dispatch(ctx, conn.ID, request); err != nil {
				return err
			}
		}
	}
}

func (u *SessionUsecase) post(ctx context.Context, event domain.StreamEvent) error {
	select {
	case <-u.done:
		return ErrSessionClosed
	default:
	}
	select {
	case u.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-u.done:
		return ErrSessionClosed
	}
}

func (u *SessionUsecase) handle(ctx context.Context, event domain.StreamEvent) {
	switch event.Type {
	case domain.EventConnect:
		u.pairing.Attach(event.Connection, event.Peer)
	case domain.EventDisconnect:
		u.pairing.Detach(event.ConnectionID)
	case domain.EventRequest:
		u.handleRequest(ctx, event.ConnectionID, event.Request)
	case domain.EventUploadDone:
		u.handleUploadDone(event)
	default:
		log.Warn().Str("event", event.Type.String()).Msg("unknown session event")
	}
}

func (u *SessionUsecase) handleRequest(ctx context.Context, id domain.ConnectionID, request domain.StreamRequest) {
	conn, ok := u.pairing.Connection(id)
	if !ok {
		log.Debug().Str("conn", string(id)).Str("request", request.String()).Msg("request from unknown connection")
		return
	}

	err := request.Validate()
	if err == nil {
		switch request.Type {
		case domain.RequestJoin:
			err = u.pairing.DeclareIntent(id, strings.TrimSpace(request.DisplayName))
		case domain.RequestFindNewChat:
			err = u.pairing.RequestNewPartner(id, strings.TrimSpace(request.DisplayName))
		case domain.RequestLeaveRoom:
			u.pairing.Leave(id)
		case domain.RequestMessage:
			err = u.relay(id, request.RoomID, domain.NewMessageResponse(senderName(conn, request.Sender), request.Text))
		case domain.RequestTyping, domain.RequestStopTyping:
			typing := request.Type == domain.RequestTyping
			err = u.relay(id, request.RoomID, domain.NewTypingResponse(senderName(conn, request.Sender), typing))
		case domain.RequestUploadImage:
			err = u.startUpload(ctx, id, conn, request)
		}
	}
	if err != nil {
		u.reject(id, request, err)
	}
}

// relay sends the response to every member of the sender's room except the
// sender. The room named in the request must be the sender's current room.
func (u *SessionUsecase) relay(id domain.ConnectionID, roomID domain.RoomID, response domain.StreamResponse) error {
	room, ok := u.pairing.RoomOf(id)
	if !ok || room.ID != roomID {
		return fmt.Errorf("%w: not a member of room %s", domain.ErrValidation, roomID)
	}
	for _, memberID := range room.MemberIDs() {
		if memberID == id {
			continue
		}
		u.pairing.Notify(memberID, response)
	}
	return nil
}

// startUpload validates what needs pairing state, then stores the image off
// the loop. The outcome comes back as an upload-done event.
func (u *SessionUsecase) startUpload(ctx context.Context, id domain.ConnectionID, conn domain.Connection, request domain.StreamRequest) error {
	if request.RoomID != "" {
		if room, ok := u.pairing.RoomOf(id); !ok || room.ID != request.RoomID {
			return fmt.Errorf("%w: not a member of room %s", domain.ErrValidation, request.RoomID)
		}
	}
	data, err := decodeImageData(request.ImageData)
	if err != nil {
		return err
	}
	request.Sender = senderName(conn, request.Sender)
	request.ImageData = ""

	go func() {
		result, err := u.media.Upload(ctx, UploadRequest{
			RoomID:   request.RoomID,
			Sender:   request.Sender,
			Data:     data,
			Filename: request.Filename,
		})
		if postErr := u.post(context.Background(), domain.NewUploadDoneEvent(id, request, result, err)); postErr != nil {
			log.Debug().Err(postErr).Str("conn", string(id)).Msg("upload finished after session loop stopped")
		}
	}()
	return nil
}

func (u *SessionUsecase) handleUploadDone(event domain.StreamEvent) {
	request := event.Request
	if event.Error != nil {
		u.reject(event.ConnectionID, request, event.Error)
		return
	}

	broadcast := domain.NewImageMessageResponse(request.Sender, event.Upload.URL, event.Upload.ExpiresAt)
	if room, ok := u.pairing.Room(request.RoomID); ok {
		for _, memberID := range room.MemberIDs() {
			u.pairing.Notify(memberID, broadcast)
		}
	} else {
		log.Warn().Str("room", string(request.RoomID)).Str("file", event.Upload.Filename).Msg("room closed before image broadcast")
	}
	u.pairing.Notify(event.ConnectionID, domain.NewUploadSuccessResponse(request.RequestID, event.Upload.URL, event.Upload.ExpiresAt))
}

func (u *SessionUsecase) reject(id domain.ConnectionID, request domain.StreamRequest, err error) {
	log.Debug().Err(err).Str("conn", string(id)).Str("request", request.String()).Msg("request rejected")
	if request.Type == domain.RequestUploadImage {
		u.pairing.Notify(id, domain.NewUploadFailureResponse(request.RequestID, err))
		return
	}
	u.pairing.Notify(id, domain.NewStreamError(request.RequestID, err))
}

func senderName(conn domain.Connection, sender string) string {
	if sender = strings.TrimSpace(sender); sender != "" {
		return sender
	}
	if conn.Name != "" {
		return conn.Name
	}
	return "stranger"
}

// decodeImageData accepts plain base64 or a data URL.
func decodeImageData(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: imageDataBase64 is not valid base64", domain.ErrValidation)
	}
	return data, nil
}
