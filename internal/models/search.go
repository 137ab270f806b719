package models

import "time"

// SearchRequest is one entry of the matchmaking pool: a user waiting to
// be paired. A user appears in the pool at most once; re-issuing a search
// replaces the prior entry and resets its expiry timer.
type SearchRequest struct {
	UserID     string    `json:"userId"`
	Choice     string    `json:"choice"`
	Mood       string    `json:"mood"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// CompatibleWith reports whether two waiting users can be paired:
// equal moods and differing choices. A user is never compatible with
// themselves.
func (r *SearchRequest) CompatibleWith(other *SearchRequest) bool {
	if r.UserID == other.UserID {
		return false
	}
	return r.Mood == other.Mood && r.Choice != other.Choice
}
