package chathub

import "moodchat/backend/internal/models"

// Client is the interface for one live bidirectional connection. It
// abstracts the underlying transport so the hub can manage connection
// handles uniformly; the only implementation today is WebSocketClient.
type Client interface {
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() string

	// GetSendChannel returns the channel the hub pushes outbound events
	// into. It is a send-only view; pushes must never block, a full
	// buffer means the event is dropped for this handle.
	GetSendChannel() chan<- models.OutEvent

	// Run starts the connection's read and write pumps.
	Run()
	// Close tears the connection down. The hub calls it on the handle
	// it supersedes during a rebind; a late push to a closed handle
	// must stay safe.
	Close()
}
