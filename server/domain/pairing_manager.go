package domain

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// PairingManager owns the connection registry and the waiting pool and is the
// only place rooms are formed or dissolved. It holds no locks: callers must
// serialize every call, which the session event loop does.
type PairingManager struct {
	registry *ConnectionRegistry
	pool     *WaitingPool
	now      func() time.Time
}

func NewPairingManager(policy MatchPolicy) *PairingManager {
	return &PairingManager{
		registry: NewConnectionRegistry(),
		pool:     NewWaitingPool(policy),
		now:      time.Now,
	}
}

func (m *PairingManager) Attach(conn Connection, peer Peer) {
	m.registry.Add(conn, peer)
}

// Detach handles a closed transport. The connection's own peer is gone, so
// only the abandoned partner, if any, is told.
func (m *PairingManager) Detach(id ConnectionID) {
	m.pool.Remove(id)
	m.dissolve(id, false)
	m.registry.Remove(id)
}

// DeclareIntent pairs the connection with a waiter or puts it in the pool.
func (m *PairingManager) DeclareIntent(id ConnectionID, displayName string) error {
	if _, ok := m.registry.Get(id); !ok {
		return fmt.Errorf("%w: unknown connection %s", ErrValidation, id)
	}
	if room, ok := m.registry.RoomOf(id); ok {
		return fmt.Errorf("%w: already in room %s", ErrValidation, room.ID)
	}
	m.registry.SetName(id, displayName)
	if m.pool.Rename(id, displayName) {
		m.Notify(id, NewWaitingResponse())
		return nil
	}
	m.match(id, displayName, NewWaitingResponse())
	return nil
}

// RequestNewPartner leaves the current room or pool slot and matches again.
func (m *PairingManager) RequestNewPartner(id ConnectionID, displayName string) error {
	if _, ok := m.registry.Get(id); !ok {
		return fmt.Errorf("%w: unknown connection %s", ErrValidation, id)
	}
	m.registry.SetName(id, displayName)
	m.dissolve(id, true)
	m.pool.Remove(id)
	m.match(id, displayName, NewSearchingNewChatResponse())
	return nil
}

// Leave drops the connection out of its room or the pool but keeps it
// registered. It is a no-op for an idle connection.
func (m *PairingManager) Leave(id ConnectionID) {
	m.pool.Remove(id)
	m.dissolve(id, true)
}

func (m *PairingManager) Connection(id ConnectionID) (Connection, bool) {
	return m.registry.Get(id)
}

func (m *PairingManager) RoomOf(id ConnectionID) (*Room, bool) {
	return m.registry.RoomOf(id)
}

func (m *PairingManager) Room(id RoomID) (*Room, bool) {
	return m.registry.Room(id)
}

func (m *PairingManager) IsWaiting(id ConnectionID) bool {
	return m.pool.Contains(id)
}

func (m *PairingManager) Notify(id ConnectionID, response StreamResponse) {
	peer, ok := m.registry.Peer(id)
	if !ok {
		return
	}
	if err := peer.Send(response); err != nil {
		log.Warn().Err(err).Str("conn", string(id)).Str("event", response.Type.String()).Msg("failed to deliver notification")
	}
}

func (m *PairingManager) Stats() PairingStats {
	return PairingStats{
		Connections: m.registry.Len(),
		Waiting:     m.pool.Len(),
		Rooms:       m.registry.RoomCount(),
	}
}

func (m *PairingManager) match(id ConnectionID, displayName string, waiting StreamResponse) {
	partner, ok := m.pool.Pop()
	if !ok {
		m.pool.Push(WaitingEntry{ID: id, Name: displayName, EnqueuedAt: m.now()})
		m.Notify(id, waiting)
		log.Debug().Str("conn", string(id)).Str("name", displayName).Msg("waiting for a partner")
		return
	}

	room := NewRoom(
		RoomMember{ID: id, Name: displayName},
		RoomMember{ID: partner.ID, Name: partner.Name},
		m.now(),
	)
	m.registry.OpenRoom(room)
	m.Notify(id, NewConnectedResponse(room.ID, partner.Name))
	m.Notify(partner.ID, NewConnectedResponse(room.ID, displayName))
	log.Info().Str("room", string(room.ID)).Str("joiner", displayName).Str("waiter", partner.Name).Msg("matched")
}

func (m *PairingManager) dissolve(id ConnectionID, notifySelf bool) bool {
	room, ok := m.registry.RoomOf(id)
	if !ok {
		return false
	}
	m.registry.CloseRoom(room.ID)
	if partner, ok := room.Partner(id); ok {
		m.Notify(partner.ID, NewPartnerDisconnectedResponse())
	}
	if notifySelf {
		m.Notify(id, NewDisconnectedFromRoomResponse())
	}
	log.Info().Str("room", string(room.ID)).Str("conn", string(id)).Msg("room dissolved")
	return true
}
