package domain

import "time"

type StreamEventType int

const (
	EventConnect StreamEventType = iota
	EventRequest
	EventDisconnect
	EventUploadDone
)

func (t StreamEventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventRequest:
		return "request"
	case EventDisconnect:
		return "disconnect"
	case EventUploadDone:
		return "upload-done"
	default:
		return "unknown"
	}
}

// StreamEvent is the unit of work of the session event loop. Every change to
// pairing state is caused by exactly one event.
type StreamEvent struct {
	Type         StreamEventType
	ConnectionID ConnectionID
	Connection   Connection
	Peer         Peer
	Request      StreamRequest
	Upload       UploadResult
	Error        error
	Timestamp    time.Time
}

func NewConnectEvent(conn Connection, peer Peer) StreamEvent {
	return StreamEvent{
		Type:         EventConnect,
		ConnectionID: conn.ID,
		Connection:   conn,
		Peer:         peer,
		Timestamp:    time.Now(),
	}
}

func NewRequestEvent(id ConnectionID, request StreamRequest) StreamEvent {
	return StreamEvent{
		Type:         EventRequest,
		ConnectionID: id,
		Request:      request,
		Timestamp:    time.Now(),
	}
}

func NewDisconnectEvent(id ConnectionID) StreamEvent {
	return StreamEvent{
		Type:         EventDisconnect,
		ConnectionID: id,
		Timestamp:    time.Now(),
	}
}

// NewUploadDoneEvent carries the outcome of an upload back to the loop. The
// request is kept so the reply can reuse its request id, room and sender.
func NewUploadDoneEvent(id ConnectionID, request StreamRequest, result UploadResult, err error) StreamEvent {
	return StreamEvent{
		Type:         EventUploadDone,
		ConnectionID: id,
		Request:      request,
		Upload:       result,
		Error:        err,
		Timestamp:    time.Now(),
	}
}

func (e StreamEvent) String() string {
	switch e.Type {
	case EventRequest, EventUploadDone:
		return e.Type.String() + " " + string(e.ConnectionID) + " " + e.Request.String()
	default:
		return e.Type.String() + " " + string(e.ConnectionID)
	}
}
