package room

// Broadcaster sends an event to every occupant of a room. Defined here to
// break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(code string, event string, v interface{}) error
}
