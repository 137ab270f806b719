package chathub

import (
	"moodchat/backend/internal/models"
	"moodchat/backend/internal/storage"
)

// dedupCapacity is how many accepted message keys the relay remembers.
// The contract is "last N accepted keys", not a time window.
const dedupCapacity = 1000

// dedupCache is a bounded set of message dedup keys. Once the capacity
// is exceeded the oldest-inserted keys are dropped in bulk back down to
// the ceiling, mirroring how entries were accepted.
type dedupCache struct {
	seen  map[string]struct{}
	order []string
	cap   int
}

func newDedupCache(capacity int) *dedupCache {
	return &dedupCache{
		seen: make(map[string]struct{}, capacity),
		cap:  capacity,
	}
}

func (d *dedupCache) Seen(key string) bool {
	_, ok := d.seen[key]
	return ok
}

func (d *dedupCache) Record(key string) {
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)

	if len(d.order) > d.cap {
		drop := len(d.order) - d.cap
		for _, old := range d.order[:drop] {
			delete(d.seen, old)
		}
		d.order = append(d.order[:0], d.order[drop:]...)
	}
}

// Relay deduplicates inbound messages and persists them. Accept is
// loop-confined (it mutates the dedup cache); Persist and History only
// touch the storage backends and may run from worker goroutines.
type Relay struct {
	store storage.Storage
	dedup *dedupCache
}

// NewRelay creates a relay over the given storage.
func NewRelay(store storage.Storage) *Relay {
	return &Relay{
		store: store,
		dedup: newDedupCache(dedupCapacity),
	}
}

// Accept records the message's dedup key and reports whether this is the
// first time it was seen. A duplicate submission is dropped here and
// causes no persistence or delivery; that makes client retries on an
// ambiguous ack idempotent.
func (r *Relay) Accept(msg *models.Message) bool {
	key := msg.DedupKey()
	if r.dedup.Seen(key) {
		return false
	}
	r.dedup.Record(key)
	return true
}

// Persist writes the message to the durable store and bumps the room's
// last-activity timestamp.
func (r *Relay) Persist(msg *models.Message) error {
	if err := r.store.SaveMessage(msg); err != nil {
		return err
	}
	return r.store.TouchRoom(msg.ChatRoomID, msg.Timestamp)
}

// History returns up to limit messages of a room, newest first. The
// dedup cache is never consulted here — it only guards the write path.
func (r *Relay) History(roomID string, limit int64) ([]models.Message, error) {
	return r.store.GetChatHistory(roomID, limit)
}
