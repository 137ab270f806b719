package chathub

import (
	"time"

	"moodchat/backend/internal/models"
)

type searchEntry struct {
	req   models.SearchRequest
	gen   uint64
	timer *time.Timer
}

// Matcher holds the pool of users currently waiting to be paired. A user
// appears at most once; re-issuing a search replaces the prior entry,
// re-queues the user at the back of the scan order, and invalidates the
// old expiry timer. The pool is owned by the hub goroutine and is not
// safe for concurrent use; the hub performs every scan-and-remove as one
// uninterrupted step.
type Matcher struct {
	pool  map[string]*searchEntry
	order []string
	gen   uint64
}

// NewMatcher creates an empty matchmaking pool.
func NewMatcher() *Matcher {
	return &Matcher{pool: make(map[string]*searchEntry)}
}

// Add inserts or replaces the search request for req.UserID and returns
// the generation token the caller must present when the expiry timer
// fires. A replaced entry's timer is stopped so it can never time out
// its successor, and the user moves to the back of the scan order: a
// re-search queues behind everyone who kept waiting.
func (m *Matcher) Add(req models.SearchRequest) uint64 {
	m.gen++
	if entry, ok := m.pool[req.UserID]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		entry.req = req
		entry.gen = m.gen
		entry.timer = nil
	} else {
		m.pool[req.UserID] = &searchEntry{req: req, gen: m.gen}
	}
	// Drop the user's current slot (or a stale one left by an earlier
	// removal) before appending, so the scan only ever sees them at the
	// back.
	for i, id := range m.order {
		if id == req.UserID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.order = append(m.order, req.UserID)
	return m.gen
}

// SetTimer attaches the armed expiry timer to the pool entry so Remove
// can cancel it.
func (m *Matcher) SetTimer(userID string, t *time.Timer) {
	if entry, ok := m.pool[userID]; ok {
		entry.timer = t
	}
}

// FindCounterpart scans the pool in insertion order and returns the
// first waiting request compatible with req: same mood, differing
// choice, not req's own user. First-fit, no secondary ranking — older
// requests win because they are encountered first.
func (m *Matcher) FindCounterpart(req *models.SearchRequest) *models.SearchRequest {
	for _, userID := range m.order {
		entry, ok := m.pool[userID]
		if !ok {
			continue // removed earlier, slot compacted lazily
		}
		if entry.req.CompatibleWith(req) {
			found := entry.req
			return &found
		}
	}
	return nil
}

// Remove deletes the entry for userID, stopping its expiry timer. Idempotent:
// removing an absent user reports ok=false and changes nothing.
func (m *Matcher) Remove(userID string) (req models.SearchRequest, ok bool) {
	entry, present := m.pool[userID]
	if !present {
		return models.SearchRequest{}, false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(m.pool, userID)
	m.compact()
	return entry.req, true
}

// Matches reports whether userID is still pooled under the given
// generation. An expiry callback that fails this check belongs to a
// replaced or cancelled search and must do nothing.
func (m *Matcher) Matches(userID string, gen uint64) bool {
	entry, ok := m.pool[userID]
	return ok && entry.gen == gen
}

// IsSearching reports whether userID is in the pool.
func (m *Matcher) IsSearching(userID string) bool {
	_, ok := m.pool[userID]
	return ok
}

// Waiting returns the number of pooled requests.
func (m *Matcher) Waiting() int {
	return len(m.pool)
}

func (m *Matcher) compact() {
	if len(m.order) <= 2*len(m.pool)+4 {
		return
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if _, ok := m.pool[id]; ok {
			kept = append(kept, id)
		}
	}
	m.order = kept
}
