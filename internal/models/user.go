package models

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an anonymous account in the system.
// The core treats it as read-only reference data: only the ID and the
// Nickname are ever consulted by the matchmaking and relay paths.
type User struct {
	// ID is the anonymous UUID handed out by the identity endpoint.
	ID string `gorm:"primaryKey" json:"id"`
	// Nickname is the display name shown to a matched counterpart.
	Nickname string `gorm:"type:text;not null" json:"nickname"`
}

// BeforeCreate is a GORM hook that fills in the ID and a default
// nickname when they were not set by the caller.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Nickname == "" {
		u.Nickname = fmt.Sprintf("Stranger-%.8s", u.ID)
	}
	return
}
