package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ConnectionID identifies one live duplex channel. IDs are never reused within
// a process lifetime.
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(ulid.Make().String())
}

type Connection struct {
	ID          ConnectionID
	Name        string
	Remote      string
	ConnectedAt time.Time
}

func NewConnection(id ConnectionID, remote string) Connection {
	return Connection{
		ID:          id,
		Remote:      remote,
		ConnectedAt: time.Now(),
	}
}

func (c Connection) IsValid() bool {
	return c.ID != ""
}

func (c Connection) String() string {
	name := c.Name
	if name == "" {
		name = "anonymous"
	}
	return name + "@" + string(c.ID) + "(" + c.Remote + ")"
}
