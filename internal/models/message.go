package models

import "time"

// Message is a single persisted chat message. Messages are append-only
// and immutable once stored; within a room they are ordered by Timestamp,
// with ties broken by arrival order at the relay.
type Message struct {
	ChatRoomID string    `bson:"chat_room_id" json:"chatRoomId"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id" json:"receiverId"`
	Message    string    `bson:"message" json:"message"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// DedupKey identifies a submitted message for duplicate detection.
// Two submissions with the same room, sender and client timestamp are
// considered the same message.
func (m *Message) DedupKey() string {
	return m.ChatRoomID + "_" + m.SenderID + "_" + m.Timestamp.UTC().Format(time.RFC3339Nano)
}
