package domain

// Peer is the outbound half of a connection. Send must not block the caller;
// transports queue the response and write it from their own goroutine.
type Peer interface {
	Send(response StreamResponse) error
}

type PairingService interface {
	Attach(conn Connection, peer Peer)
	Detach(id ConnectionID)

	DeclareIntent(id ConnectionID, displayName string) error
	RequestNewPartner(id ConnectionID, displayName string) error
	Leave(id ConnectionID)

	Connection(id ConnectionID) (Connection, bool)
	RoomOf(id ConnectionID) (*Room, bool)
	Room(id RoomID) (*Room, bool)
	Notify(id ConnectionID, response StreamResponse)

	Stats() PairingStats
}

type PairingStats struct {
	Connections int
	Waiting     int
	Rooms       int
}
