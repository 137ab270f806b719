package handler

import (
	"moodchat/backend/internal/chathub"
	"moodchat/backend/internal/storage"
)

// Handler exposes the thin HTTP surface: anonymous token issuance and
// the websocket upgrade.
type Handler struct {
	Hub       *chathub.Hub
	Storage   storage.Storage
	jwtSecret []byte
}

func NewHandler(hub *chathub.Hub, store storage.Storage, jwtSecret string) *Handler {
	return &Handler{
		Hub:       hub,
		Storage:   store,
		jwtSecret: []byte(jwtSecret),
	}
}
