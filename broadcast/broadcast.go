package broadcast

import (
	"errors"

	"github.com/brainduel/gameserver/room"
)

var ErrRoomNotFound = errors.New("room not found")

// Broadcaster fans events out to room occupants.
type Broadcaster interface {
	BroadcastToRoom(code string, event string, v interface{}) error
}

// RoomBroadcaster resolves rooms through the registry and writes to each
// occupant's session.
type RoomBroadcaster struct {
	roomManager *room.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{roomManager: roomManager}
}

func (b *RoomBroadcaster) BroadcastToRoom(code string, event string, v interface{}) error {
	r, exists := b.roomManager.GetRoom(code)
	if !exists {
		return ErrRoomNotFound
	}

	for _, s := range r.Sessions() {
		if err := s.Send(event, v); err != nil {
			// A dead socket takes itself out through the read loop.
			continue
		}
	}
	return nil
}
