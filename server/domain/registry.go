package domain

type registryEntry struct {
	conn   Connection
	peer   Peer
	roomID RoomID
}

// ConnectionRegistry tracks every live connection, its outbound peer and the
// room it currently belongs to. It also owns the room table so a room can only
// exist while both of its members point at it.
type ConnectionRegistry struct {
	entries map[ConnectionID]*registryEntry
	rooms   map[RoomID]*Room
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		entries: make(map[ConnectionID]*registryEntry),
		rooms:   make(map[RoomID]*Room),
	}
}

func (r *ConnectionRegistry) Add(conn Connection, peer Peer) {
	r.entries[conn.ID] = &registryEntry{conn: conn, peer: peer}
}

// Remove drops the connection. Callers must close its room first.
func (r *ConnectionRegistry) Remove(id ConnectionID) (Connection, bool) {
	entry, ok := r.entries[id]
	if !ok {
		return Connection{}, false
	}
	delete(r.entries, id)
	return entry.conn, true
}

func (r *ConnectionRegistry) Get(id ConnectionID) (Connection, bool) {
	entry, ok := r.entries[id]
	if !ok {
		return Connection{}, false
	}
	return entry.conn, true
}

func (r *ConnectionRegistry) SetName(id ConnectionID, name string) {
	if entry, ok := r.entries[id]; ok {
		entry.conn.Name = name
	}
}

func (r *ConnectionRegistry) Peer(id ConnectionID) (Peer, bool) {
	entry, ok := r.entries[id]
	if !ok || entry.peer == nil {
		return nil, false
	}
	return entry.peer, true
}

func (r *ConnectionRegistry) RoomOf(id ConnectionID) (*Room, bool) {
	entry, ok := r.entries[id]
	if !ok || entry.roomID == "" {
		return nil, false
	}
	room, ok := r.rooms[entry.roomID]
	return room, ok
}

func (r *ConnectionRegistry) Room(id RoomID) (*Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

// OpenRoom records the room and points both members at it.
func (r *ConnectionRegistry) OpenRoom(room *Room) {
	r.rooms[room.ID] = room
	for _, id := range room.MemberIDs() {
		if entry, ok := r.entries[id]; ok {
			entry.roomID = room.ID
		}
	}
}

// CloseRoom forgets the room and clears the reference of every member that
// still points at it.
func (r *ConnectionRegistry) CloseRoom(id RoomID) (*Room, bool) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, false
	}
	delete(r.rooms, id)
	for _, memberID := range room.MemberIDs() {
		if entry, ok := r.entries[memberID]; ok && entry.roomID == id {
			entry.roomID = ""
		}
	}
	return room, true
}

func (r *ConnectionRegistry) Len() int {
	return len(r.entries)
}

func (r *ConnectionRegistry) RoomCount() int {
	return len(r.rooms)
}
