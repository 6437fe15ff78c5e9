package domain

import "time"

type StreamResponseType int

const (
	ResponseWaiting StreamResponseType = iota
	ResponseConnected
	ResponseMessage
	ResponseImageMessage
	ResponsePartnerDisconnected
	ResponseDisconnectedFromRoom
	ResponseSearchingNewChat
	ResponseUserTyping
	ResponseUserStoppedTyping
	ResponseUploadResult
	ResponseError
)

func (t StreamResponseType) String() string {
	switch t {
	case ResponseWaiting:
		return "waiting"
	case ResponseConnected:
		return "connected"
	case ResponseMessage:
		return "message"
	case ResponseImageMessage:
		return "image-message"
	case ResponsePartnerDisconnected:
		return "partner-disconnected"
	case ResponseDisconnectedFromRoom:
		return "disconnected-from-room"
	case ResponseSearchingNewChat:
		return "searching-new-chat"
	case ResponseUserTyping:
		return "user-typing"
	case ResponseUserStoppedTyping:
		return "user-stopped-typing"
	case ResponseUploadResult:
		return "upload-image"
	case ResponseError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	waitingMessage   = "Looking for a partner..."
	searchingMessage = "Looking for a new partner to chat with..."
)

// StreamResponse is one outbound notification for a single connection.
type StreamResponse struct {
	Type        StreamResponseType
	RequestID   string
	RoomID      RoomID
	PartnerName string
	Sender      string
	Message     string
	URL         string
	ExpiresAt   time.Time
	Success     bool
	Error       error
}

func NewWaitingResponse() StreamResponse {
	return StreamResponse{Type: ResponseWaiting, Message: waitingMessage}
}

func NewSearchingNewChatResponse() StreamResponse {
	return StreamResponse{Type: ResponseSearchingNewChat, Message: searchingMessage}
}

func NewConnectedResponse(roomID RoomID, partnerName string) StreamResponse {
	return StreamResponse{Type: ResponseConnected, RoomID: roomID, PartnerName: partnerName}
}

func NewMessageResponse(sender, text string) StreamResponse {
	return StreamResponse{Type: ResponseMessage, Sender: sender, Message: text}
}

func NewImageMessageResponse(sender, url string, expiresAt time.Time) StreamResponse {
	return StreamResponse{Type: ResponseImageMessage, Sender: sender, URL: url, ExpiresAt: expiresAt}
}

func NewPartnerDisconnectedResponse() StreamResponse {
	return StreamResponse{Type: ResponsePartnerDisconnected}
}

func NewDisconnectedFromRoomResponse() StreamResponse {
	return StreamResponse{Type: ResponseDisconnectedFromRoom}
}

func NewTypingResponse(sender string, typing bool) StreamResponse {
	if typing {
		return StreamResponse{Type: ResponseUserTyping, Sender: sender}
	}
	return StreamResponse{Type: ResponseUserStoppedTyping, Sender: sender}
}

func NewUploadSuccessResponse(requestID, url string, expiresAt time.Time) StreamResponse {
	return StreamResponse{
		Type:      ResponseUploadResult,
		RequestID: requestID,
		Success:   true,
		URL:       url,
		ExpiresAt: expiresAt,
	}
}

func NewUploadFailureResponse(requestID string, err error) StreamResponse {
	return StreamResponse{Type: ResponseUploadResult, RequestID: requestID, Error: err}
}

func NewStreamError(requestID string, err error) StreamResponse {
	return StreamResponse{Type: ResponseError, RequestID: requestID, Error: err}
}

func (r StreamResponse) IsError() bool {
	return r.Error != nil
}

func (r StreamResponse) String() string {
	if r.IsError() {
		return r.Type.String() + ": error: " + r.Error.Error()
	}
	switch r.Type {
	case ResponseConnected:
		return r.Type.String() + ": " + string(r.RoomID) + " with " + r.PartnerName
	case ResponseMessage:
		return r.Type.String() + ": " + r.Sender + ": " + r.Message
	case ResponseImageMessage, ResponseUploadResult:
		return r.Type.String() + ": " + r.URL
	default:
		return r.Type.String()
	}
}
