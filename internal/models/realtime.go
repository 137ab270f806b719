package models

import (
	"encoding/json"
	"time"
)

// Inbound event types accepted on the websocket stream.
const (
	EventUserOnline     = "userOnline"
	EventStartSearching = "startSearching"
	EventStopSearching  = "stopSearching"
	EventJoinRoom       = "joinRoom"
	EventLeaveRoom      = "leaveRoom"
	EventSendMessage    = "sendMessage"
	EventGetChatHistory = "getChatHistory"
	EventGetAllChats    = "getAllChats"
	EventPing           = "ping"
)

// Outbound event types pushed down a client connection.
const (
	EventMatchFound     = "matchFound"
	EventSearchTimeout  = "searchTimeout"
	EventReceiveMessage = "receiveMessage"
	EventChatHistory    = "chatHistory"
	EventAllChats       = "allChats"
	EventError          = "error"
	EventPong           = "pong"
)

// Event is the envelope for a single inbound websocket frame.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OutEvent is the envelope for a single outbound websocket frame.
type OutEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// OnlinePayload identifies the user behind a connection.
type OnlinePayload struct {
	UserID string `json:"userId"`
}

// SearchPayload carries a start-search request. Choice is the user's own
// type label; the pairing rule matches equal moods and differing choices.
type SearchPayload struct {
	UserID string `json:"userId"`
	Choice string `json:"choice"`
	Mood   string `json:"mood"`
}

// RoomPayload addresses a join/leave/history request at a room.
type RoomPayload struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId,omitempty"`
}

// MessagePayload carries an outgoing chat message. Timestamp is the
// client's RFC 3339 send time and doubles as the dedup discriminator;
// when empty the relay stamps the arrival time.
type MessagePayload struct {
	ChatRoomID string `json:"chatRoomId"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// MatchFoundPayload notifies a searcher about their counterpart.
type MatchFoundPayload struct {
	ChatRoomID       string `json:"chatRoomId"`
	ReceiverID       string `json:"receiverId"`
	ReceiverNickname string `json:"receiverNickname"`
}

// ChatSummary is one entry of the allChats room list.
type ChatSummary struct {
	ChatRoomID       string    `json:"chatRoomId"`
	ReceiverID       string    `json:"receiverId"`
	ReceiverNickname string    `json:"receiverNickname"`
	LastMessage      string    `json:"lastMessage"`
	LastMessageTime  time.Time `json:"lastMessageTime"`
}

// SearchTimeoutPayload tells a searcher their wait expired unmatched.
type SearchTimeoutPayload struct {
	Message string `json:"message"`
}

// ErrorPayload is the only shape of user-visible failure.
type ErrorPayload struct {
	Reason string `json:"reason"`
}
