package models

import (
	"sort"
	"time"

	"github.com/lib/pq"
)

// ChatRoom represents the durable identity of a 1-on-1 chat between two
// users. The participant pair is fixed at creation and never mutated;
// uniqueness is enforced on ChatRoomID, which is itself derived from the
// sorted pair, so repeated pairing of the same two users always resolves
// to the same row.
type ChatRoom struct {
	// ChatRoomID is the deterministic, order-independent room identifier.
	ChatRoomID string `gorm:"primaryKey" json:"chatRoomId"`
	// Participants holds the two user IDs, stored sorted.
	Participants pq.StringArray `gorm:"type:text[];not null" json:"participants"`
	// CreatedAt is when the pair was first matched.
	CreatedAt time.Time `json:"createdAt"`
	// LastMessage is the timestamp of the most recent persisted message,
	// used to order a user's chat list.
	LastMessage time.Time `json:"lastMessage"`
}

// RoomIDFor derives the canonical room identifier for a pair of users.
// The two IDs are string-sorted first, so RoomIDFor(a, b) == RoomIDFor(b, a).
func RoomIDFor(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return "chat_" + pair[0] + "_" + pair[1]
}

// Counterpart returns the participant that is not userID, or "" when
// userID is not a participant of the room.
func (r *ChatRoom) Counterpart(userID string) string {
	for _, p := range r.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether userID belongs to the room.
func (r *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
