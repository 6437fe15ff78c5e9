package adaptor

import (
	"fmt"

	"github.com/ponyo877/pairchat/pb"
	"github.com/ponyo877/pairchat/server/domain"
)

type statusPayload struct {
	Message string `json:"message"`
}

type connectedPayload struct {
	RoomID      string `json:"roomId"`
	PartnerName string `json:"partnerName"`
}

type messagePayload struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

type imageMessagePayload struct {
	URL       string `json:"url"`
	Sender    string `json:"sender"`
	ExpiresAt int64  `json:"expiresAt"`
}

type typingPayload struct {
	Sender string `json:"sender"`
}

type uploadSuccessPayload struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expiresAt"`
}

type uploadFailurePayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeRequest turns an inbound frame into a request. Field checks are left
// to the session loop.
func decodeRequest(frame pb.Frame) (domain.StreamRequest, error) {
	requestType := domain.ParseStreamRequestType(frame.Type)
	if requestType == domain.RequestUnknown {
		return domain.StreamRequest{}, fmt.Errorf("%w: unsupported frame type %q", domain.ErrValidation, frame.Type)
	}
	var p pb.RequestPayload
	if err := frame.DecodePayload(&p); err != nil {
		return domain.StreamRequest{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	roomID := domain.RoomID(p.RoomID)
	var request domain.StreamRequest
	switch requestType {
	case domain.RequestJoin:
		request = domain.NewJoinRequest(p.DisplayName)
	case domain.RequestFindNewChat:
		request = domain.NewFindNewChatRequest(p.DisplayName)
	case domain.RequestLeaveRoom:
		request = domain.NewLeaveRoomRequest(roomID, p.DisplayName)
	case domain.RequestMessage:
		request = domain.NewMessageRequest(roomID, p.Sender, p.Text)
	case domain.RequestTyping, domain.RequestStopTyping:
		request = domain.NewTypingRequest(roomID, p.Sender, requestType == domain.RequestTyping)
	case domain.RequestUploadImage:
		request = domain.NewUploadImageRequest(frame.RequestID, roomID, p.Sender, p.ImageDataBase64, p.Filename)
	}
	request.RequestID = frame.RequestID
	return request, nil
}

func encodeResponse(response domain.StreamResponse) (pb.Frame, error) {
	var payload any
	switch response.Type {
	case domain.ResponseWaiting, domain.ResponseSearchingNewChat:
		payload = statusPayload{Message: response.Message}
	case domain.ResponseConnected:
		payload = connectedPayload{RoomID: string(response.RoomID), PartnerName: response.PartnerName}
	case domain.ResponseMessage:
		payload = messagePayload{Text: response.Message, Sender: response.Sender}
	case domain.ResponseImageMessage:
		payload = imageMessagePayload{URL: response.URL, Sender: response.Sender, ExpiresAt: response.ExpiresAt.UnixMilli()}
	case domain.ResponseUserTyping, domain.ResponseUserStoppedTyping:
		payload = typingPayload{Sender: response.Sender}
	case domain.ResponseUploadResult:
		if response.IsError() {
			payload = uploadFailurePayload{Error: response.Error.Error(), Code: domain.ErrorCode(response.Error)}
		} else {
			payload = uploadSuccessPayload{Success: true, URL: response.URL, ExpiresAt: response.ExpiresAt.UnixMilli()}
		}
	case domain.ResponseError:
		payload = errorPayload{Code: domain.ErrorCode(response.Error), Message: errorMessage(response.Error)}
	default:
		payload = struct{}{}
	}
	return pb.NewFrame(response.Type.String(), response.RequestID, payload)
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
