package chathub

// PresenceState tracks what a bound user is currently doing.
type PresenceState int

const (
	StateOnline PresenceState = iota
	StateSearching
	StateInRoom
)

type presenceEntry struct {
	client Client
	state  PresenceState
}

// Registry maps a user ID to at most one live connection handle. Binding
// a new connection for a user supersedes the previous one in the same
// step, so there is never a window where two handles are considered
// live. The registry is owned by the hub goroutine and is not safe for
// concurrent use.
type Registry struct {
	entries map[string]*presenceEntry
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*presenceEntry)}
}

// Bind registers or replaces the live handle for userID and returns the
// superseded handle, if any. The presence state becomes Online unless the
// user was already Searching or InRoom.
func (r *Registry) Bind(userID string, c Client) (superseded Client) {
	if entry, ok := r.entries[userID]; ok {
		if entry.client == c {
			return nil
		}
		superseded = entry.client
		entry.client = c
		return superseded
	}
	r.entries[userID] = &presenceEntry{client: c, state: StateOnline}
	return nil
}

// Unbind removes the binding owned by handle c and returns the user it
// belonged to. It is a no-op when c is not the currently-bound handle
// for its user, so a stale handle's disconnect never clobbers a newer
// binding.
func (r *Registry) Unbind(c Client) (userID string, ok bool) {
	for id, entry := range r.entries {
		if entry.client == c {
			delete(r.entries, id)
			return id, true
		}
	}
	return "", false
}

// HandleFor returns the live handle for userID, if the user is online.
func (r *Registry) HandleFor(userID string) (Client, bool) {
	entry, ok := r.entries[userID]
	if !ok || entry.client == nil {
		return nil, false
	}
	return entry.client, true
}

// IsOnline reports whether userID has a live handle.
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.entries[userID]
	return ok
}

// SetState updates the presence state; no-op for unbound users.
func (r *Registry) SetState(userID string, state PresenceState) {
	if entry, ok := r.entries[userID]; ok {
		entry.state = state
	}
}

// State returns the presence state for userID.
func (r *Registry) State(userID string) (PresenceState, bool) {
	entry, ok := r.entries[userID]
	if !ok {
		return StateOnline, false
	}
	return entry.state, true
}
