package pb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Frame is the envelope shared by the WebSocket and gRPC transports.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RequestPayload holds the fields of every inbound frame type. Each type
// reads only the fields it needs.
type RequestPayload struct {
	DisplayName     string `json:"displayName,omitempty"`
	RoomID          string `json:"roomId,omitempty"`
	Sender          string `json:"sender,omitempty"`
	Text            string `json:"text,omitempty"`
	ImageDataBase64 string `json:"imageDataBase64,omitempty"`
	Filename        string `json:"filename,omitempty"`
}

// EventPayload is the client-side view of every outbound frame type.
type EventPayload struct {
	Message     string `json:"message,omitempty"`
	RoomID      string `json:"roomId,omitempty"`
	PartnerName string `json:"partnerName,omitempty"`
	Text        string `json:"text,omitempty"`
	Sender      string `json:"sender,omitempty"`
	URL         string `json:"url,omitempty"`
	ExpiresAt   int64  `json:"expiresAt,omitempty"`
	Success     bool   `json:"success,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
}

func NewFrame(frameType, requestID string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to encode %s payload: %w", frameType, err)
	}
	return Frame{Type: frameType, RequestID: requestID, Payload: raw}, nil
}

// DecodePayload unmarshals the payload into v. A missing payload leaves v
// untouched.
func (f Frame) DecodePayload(v any) error {
	if len(f.Payload) == 0 || string(f.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", f.Type, err)
	}
	return nil
}

func ToStruct(frame Frame) (*structpb.Struct, error) {
	raw, err := json.Marshal(frame)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

func FromStruct(s *structpb.Struct) (Frame, error) {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return Frame{}, err
	}
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, err
	}
	return frame, nil
}
