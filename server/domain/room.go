package domain

import (
	"fmt"
	"time"
)

type RoomID string

type RoomMember struct {
	ID   ConnectionID
	Name string
}

// Room pairs exactly two connections. It is never reused once dissolved.
type Room struct {
	ID        RoomID
	Members   [2]RoomMember
	CreatedAt time.Time
}

// NewRoom derives the room id from the joiner and the waiter it was matched
// with, in that order.
func NewRoom(joiner, waiter RoomMember, createdAt time.Time) *Room {
	return &Room{
		ID:        RoomID(fmt.Sprintf("room-%s-%s", joiner.ID, waiter.ID)),
		Members:   [2]RoomMember{joiner, waiter},
		CreatedAt: createdAt,
	}
}

func (r *Room) Has(id ConnectionID) bool {
	return r.Members[0].ID == id || r.Members[1].ID == id
}

func (r *Room) Partner(id ConnectionID) (RoomMember, bool) {
	switch id {
	case r.Members[0].ID:
		return r.Members[1], true
	case r.Members[1].ID:
		return r.Members[0], true
	default:
		return RoomMember{}, false
	}
}

func (r *Room) MemberIDs() []ConnectionID {
	return []ConnectionID{r.Members[0].ID, r.Members[1].ID}
}

func (r *Room) String() string {
	return fmt.Sprintf("%s[%s, %s]", r.ID, r.Members[0].Name, r.Members[1].Name)
}
