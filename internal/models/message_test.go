package models_test

import (
	"testing"
	"time"

	"moodchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

// TestMessageDedupKey verifies the key discriminates on room, sender and
// timestamp — and on nothing else.
func TestMessageDedupKey(t *testing.T) {
	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	msg := models.Message{
		ChatRoomID: "chat_a_b",
		SenderID:   "a",
		ReceiverID: "b",
		Message:    "hello",
		Timestamp:  ts,
	}

	same := msg
	same.Message = "different body"
	same.ReceiverID = "c"
	assert.Equal(t, msg.DedupKey(), same.DedupKey(),
		"body and receiver must not affect the key")

	otherSender := msg
	otherSender.SenderID = "b"
	assert.NotEqual(t, msg.DedupKey(), otherSender.DedupKey())

	otherTime := msg
	otherTime.Timestamp = ts.Add(time.Millisecond)
	assert.NotEqual(t, msg.DedupKey(), otherTime.DedupKey())

	otherRoom := msg
	otherRoom.ChatRoomID = "chat_a_c"
	assert.NotEqual(t, msg.DedupKey(), otherRoom.DedupKey())
}

// TestMessageDedupKeyTimezoneInsensitive verifies equal instants produce
// equal keys regardless of the timestamp's location.
func TestMessageDedupKeyTimezoneInsensitive(t *testing.T) {
	utc := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("UTC+3", 3*60*60))

	a := models.Message{ChatRoomID: "r", SenderID: "s", Timestamp: utc}
	b := models.Message{ChatRoomID: "r", SenderID: "s", Timestamp: offset}
	assert.Equal(t, a.DedupKey(), b.DedupKey())
}
