package models_test

import (
	"testing"

	"moodchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

// TestRoomIDForSymmetric verifies the pair key is order-independent, so
// repeated pairing of the same two users resolves to the same room.
func TestRoomIDForSymmetric(t *testing.T) {
	assert.Equal(t, models.RoomIDFor("alice", "bob"), models.RoomIDFor("bob", "alice"))
	assert.Equal(t, "chat_alice_bob", models.RoomIDFor("bob", "alice"))
}

// TestRoomIDForDistinctPairs verifies different pairs never collide on
// plain ID ordering.
func TestRoomIDForDistinctPairs(t *testing.T) {
	assert.NotEqual(t, models.RoomIDFor("alice", "bob"), models.RoomIDFor("alice", "carol"))
	assert.NotEqual(t, models.RoomIDFor("alice", "bob"), models.RoomIDFor("bob", "carol"))
}

func TestChatRoomCounterpart(t *testing.T) {
	room := models.ChatRoom{
		ChatRoomID:   models.RoomIDFor("alice", "bob"),
		Participants: []string{"alice", "bob"},
	}

	assert.Equal(t, "bob", room.Counterpart("alice"))
	assert.Equal(t, "alice", room.Counterpart("bob"))
	assert.True(t, room.HasParticipant("alice"))
	assert.False(t, room.HasParticipant("carol"))
}

// TestSearchRequestCompatibility covers the pairing rule: same mood,
// differing choice, never with oneself.
func TestSearchRequestCompatibility(t *testing.T) {
	tests := []struct {
		name       string
		a, b       models.SearchRequest
		compatible bool
	}{
		{
			name:       "same mood differing choice",
			a:          models.SearchRequest{UserID: "u1", Mood: "happy", Choice: "Rizzler"},
			b:          models.SearchRequest{UserID: "u2", Mood: "happy", Choice: "Gyatt"},
			compatible: true,
		},
		{
			name:       "same mood same choice",
			a:          models.SearchRequest{UserID: "u1", Mood: "happy", Choice: "Rizzler"},
			b:          models.SearchRequest{UserID: "u2", Mood: "happy", Choice: "Rizzler"},
			compatible: false,
		},
		{
			name:       "differing mood differing choice",
			a:          models.SearchRequest{UserID: "u1", Mood: "happy", Choice: "Rizzler"},
			b:          models.SearchRequest{UserID: "u2", Mood: "sad", Choice: "Gyatt"},
			compatible: false,
		},
		{
			name:       "self",
			a:          models.SearchRequest{UserID: "u1", Mood: "happy", Choice: "Rizzler"},
			b:          models.SearchRequest{UserID: "u1", Mood: "happy", Choice: "Gyatt"},
			compatible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.compatible, tt.a.CompatibleWith(&tt.b))
			assert.Equal(t, tt.compatible, tt.b.CompatibleWith(&tt.a), "compatibility must be symmetric")
		})
	}
}
