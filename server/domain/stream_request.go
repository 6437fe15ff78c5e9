package domain

import (
	"fmt"
	"strings"
)

type StreamRequestType int

const (
	RequestUnknown StreamRequestType = iota
	RequestJoin
	RequestFindNewChat
	RequestLeaveRoom
	RequestMessage
	RequestTyping
	RequestStopTyping
	RequestUploadImage
)

var requestTypeNames = map[StreamRequestType]string{
	RequestJoin:        "join",
	RequestFindNewChat: "find-new-chat",
	RequestLeaveRoom:   "leave-room",
	RequestMessage:     "message",
	RequestTyping:      "typing",
	RequestStopTyping:  "stop-typing",
	RequestUploadImage: "upload-image",
}

func ParseStreamRequestType(name string) StreamRequestType {
	for t, n := range requestTypeNames {
		if n == name {
			return t
		}
	}
	return RequestUnknown
}

func (t StreamRequestType) String() string {
	if name, ok := requestTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// StreamRequest is one inbound event from a connection, already decoded from
// the transport frame.
type StreamRequest struct {
	Type        StreamRequestType
	RequestID   string
	DisplayName string
	RoomID      RoomID
	Sender      string
	Text        string
	ImageData   string
	Filename    string
}

func NewJoinRequest(displayName string) StreamRequest {
	return StreamRequest{Type: RequestJoin, DisplayName: displayName}
}

func NewFindNewChatRequest(displayName string) StreamRequest {
	return StreamRequest{Type: RequestFindNewChat, DisplayName: displayName}
}

func NewLeaveRoomRequest(roomID RoomID, displayName string) StreamRequest {
	return StreamRequest{Type: RequestLeaveRoom, RoomID: roomID, DisplayName: displayName}
}

func NewMessageRequest(roomID RoomID, sender, text string) StreamRequest {
	return StreamRequest{Type: RequestMessage, RoomID: roomID, Sender: sender, Text: text}
}

func NewTypingRequest(roomID RoomID, sender string, typing bool) StreamRequest {
	t := RequestTyping
	if !typing {
		t = RequestStopTyping
	}
	return StreamRequest{Type: t, RoomID: roomID, Sender: sender}
}

func NewUploadImageRequest(requestID string, roomID RoomID, sender, imageData, filename string) StreamRequest {
	return StreamRequest{
		Type:      RequestUploadImage,
		RequestID: requestID,
		RoomID:    roomID,
		Sender:    sender,
		ImageData: imageData,
		Filename:  filename,
	}
}

// Validate checks the fields each request type needs. Upload fields are
// checked by the media store so that its own error ordering applies.
func (r StreamRequest) Validate() error {
	switch r.Type {
	case RequestJoin, RequestFindNewChat:
		if strings.TrimSpace(r.DisplayName) == "" {
			return fmt.Errorf("%w: displayName is required", ErrValidation)
		}
	case RequestLeaveRoom, RequestUploadImage:
	case RequestMessage:
		if r.RoomID == "" {
			return fmt.Errorf("%w: roomId is required", ErrValidation)
		}
		if r.Text == "" {
			return fmt.Errorf("%w: text is required", ErrValidation)
		}
	case RequestTyping, RequestStopTyping:
		if r.RoomID == "" {
			return fmt.Errorf("%w: roomId is required", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unsupported request type", ErrValidation)
	}
	return nil
}

func (r StreamRequest) String() string {
	switch r.Type {
	case RequestJoin, RequestFindNewChat:
		return r.Type.String() + ": " + r.DisplayName
	case RequestLeaveRoom:
		return r.Type.String() + ": " + string(r.RoomID)
	case RequestMessage:
		return r.Type.String() + ": " + r.Sender + " -> " + string(r.RoomID)
	case RequestTyping, RequestStopTyping:
		return r.Type.String() + ": " + r.Sender
	case RequestUploadImage:
		return r.Type.String() + ": " + r.Filename + " -> " + string(r.RoomID)
	default:
		return r.Type.String()
	}
}
