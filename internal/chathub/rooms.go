package chathub

import (
	"moodchat/backend/internal/models"
	"moodchat/backend/internal/storage"
)

// RoomDirectory resolves durable chat rooms for matched pairs. Room
// identity is deterministic and symmetric (see models.RoomIDFor), so
// re-pairing the same two users always lands in the same room.
type RoomDirectory struct {
	store storage.Storage
}

// NewRoomDirectory creates a directory over the given storage.
func NewRoomDirectory(store storage.Storage) *RoomDirectory {
	return &RoomDirectory{store: store}
}

// GetOrCreate returns the room for the pair, creating it on first match.
// Safe under concurrent calls for the same pair; the store's uniqueness
// constraint resolves the create race.
func (d *RoomDirectory) GetOrCreate(userA, userB string) (*models.ChatRoom, error) {
	return d.store.GetOrCreateRoom(userA, userB)
}

// Get fetches a single room record.
func (d *RoomDirectory) Get(roomID string) (*models.ChatRoom, error) {
	return d.store.GetRoomByID(roomID)
}

// ListForUser returns the user's rooms, most recent activity first. Used
// to rebuild the chat list after a reconnect.
func (d *RoomDirectory) ListForUser(userID string) ([]models.ChatRoom, error) {
	return d.store.GetRoomsForUser(userID)
}
