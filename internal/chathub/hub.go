package chathub

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"moodchat/backend/internal/models"
	"moodchat/backend/internal/storage"
)

const (
	// SearchExpiry is how long a search request waits before timing out.
	SearchExpiry = 60 * time.Second
	// historyLimit caps a single history fetch.
	historyLimit = 100
	// unknownNickname is shown when the counterpart's user row is missing.
	unknownNickname = "Unknown User"
)

type inbound struct {
	client Client
	event  models.Event
}

// Hub is the connection gateway: it accepts clients, dispatches their
// inbound events and owns every piece of in-memory chat state — the
// presence registry, the matchmaking pool, the relay's dedup cache and
// the room subscriptions. All of that state is mutated only inside Run's
// goroutine, so operations on it are atomic steps with respect to each
// other. Storage calls run in worker goroutines whose results re-enter
// the loop through taskCh and re-validate whatever they assumed.
type Hub struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	Presence *Registry
	Matcher  *Matcher
	Relay    *Relay
	Rooms    *RoomDirectory

	// SearchExpiry is the pool entry lifetime; tests shorten it.
	SearchExpiry time.Duration

	store      storage.Storage
	inboundCh  chan inbound
	taskCh     chan func()
	subscribed map[string]map[string]struct{} // roomID -> userIDs

	// roomEpoch counts a user's leave and disconnect events. A join
	// captures it before the membership lookup suspends; a changed epoch
	// on re-entry means the subscription request was overtaken.
	roomEpoch map[string]uint64
}

// NewHub wires the gateway over the given storage.
func NewHub(store storage.Storage) *Hub {
	return &Hub{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Presence:     NewRegistry(),
		Matcher:      NewMatcher(),
		Relay:        NewRelay(store),
		Rooms:        NewRoomDirectory(store),
		SearchExpiry: SearchExpiry,
		store:        store,
		inboundCh:    make(chan inbound, 64),
		taskCh:       make(chan func(), 64),
		subscribed:   make(map[string]map[string]struct{}),
		roomEpoch:    make(map[string]uint64),
	}
}

// Run is the hub's event loop. It must be the only goroutine touching
// the hub's maps.
func (h *Hub) Run() {
	log.Println("Chat hub started.")
	for {
		select {
		case c := <-h.RegisterCh:
			h.bind(c.GetUserID(), c)
		case c := <-h.UnregisterCh:
			h.handleDisconnect(c)
		case in := <-h.inboundCh:
			h.handleEvent(in.client, in.event)
		case task := <-h.taskCh:
			task()
		}
	}
}

// Dispatch queues one inbound event for processing. Called by each
// client's read pump; a single pump per connection keeps per-connection
// event order intact through the loop.
func (h *Hub) Dispatch(c Client, ev models.Event) {
	h.inboundCh <- inbound{client: c, event: ev}
}

// RecoverSearchPool repopulates the matchmaking pool from the Redis
// mirror. Call once at boot, before Run. Restored entries have no live
// handle: they can still be matched, and the owner picks the room up via
// getAllChats on reconnect.
func (h *Hub) RecoverSearchPool() {
	states, err := h.store.LoadSearchStates()
	if err != nil {
		log.Printf("WARNING: Search pool recovery skipped: %v", err)
		return
	}
	for _, req := range states {
		gen := h.Matcher.Add(req)
		h.armExpiry(req.UserID, gen)
	}
	if len(states) > 0 {
		log.Printf("Recovered %d waiting search requests.", len(states))
	}
}

func (h *Hub) handleEvent(c Client, ev models.Event) {
	switch ev.Type {
	case models.EventUserOnline:
		var p models.OnlinePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.UserID == "" {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		if !h.ownsIdentity(c, p.UserID) {
			return
		}
		h.bind(p.UserID, c)

	case models.EventStartSearching:
		var p models.SearchPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		if p.UserID != "" && !h.ownsIdentity(c, p.UserID) {
			return
		}
		h.handleStartSearching(c, p)

	case models.EventStopSearching:
		var p models.OnlinePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.UserID == "" {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		if !h.ownsIdentity(c, p.UserID) {
			return
		}
		h.handleStopSearching(p.UserID)

	case models.EventJoinRoom:
		var p models.RoomPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ChatRoomID == "" || p.UserID == "" {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		if !h.ownsIdentity(c, p.UserID) {
			return
		}
		h.handleJoinRoom(c, p)

	case models.EventLeaveRoom:
		var p models.RoomPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ChatRoomID == "" || p.UserID == "" {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		if !h.ownsIdentity(c, p.UserID) {
			return
		}
		h.handleLeaveRoom(p)

	case models.EventSendMessage:
		var p models.MessagePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		if p.SenderID != "" && !h.ownsIdentity(c, p.SenderID) {
			return
		}
		h.handleSendMessage(c, p)

	case models.EventGetChatHistory:
		var p models.RoomPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ChatRoomID == "" {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		h.handleGetChatHistory(c, p.ChatRoomID)

	case models.EventGetAllChats:
		var p models.OnlinePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.UserID == "" {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		if !h.ownsIdentity(c, p.UserID) {
			return
		}
		h.handleGetAllChats(c, p.UserID)

	case models.EventPing:
		h.push(c, models.OutEvent{Type: models.EventPong})

	default:
		h.pushError(c, models.ErrInvalidRequest.Error())
	}
}

// ownsIdentity checks that the payload acts on behalf of the user this
// connection authenticated as. A mismatch is rejected without any state
// change.
func (h *Hub) ownsIdentity(c Client, userID string) bool {
	if c.GetUserID() == userID {
		return true
	}
	log.Printf("Rejecting event from %s claiming identity %s.", c.GetUserID(), userID)
	h.pushError(c, models.ErrNotAuthorized.Error())
	return false
}

// bind registers c as the live handle for userID. The superseded handle
// is never delivered to again and its connection is torn down.
func (h *Hub) bind(userID string, c Client) {
	if superseded := h.Presence.Bind(userID, c); superseded != nil {
		superseded.Close()
		log.Printf("User %s rebound to a new connection, old handle is stale.", userID)
	}
}

func (h *Hub) handleStartSearching(c Client, p models.SearchPayload) {
	if p.UserID == "" || p.Choice == "" || p.Mood == "" {
		h.pushError(c, models.ErrInvalidRequest.Error())
		return
	}

	h.bind(p.UserID, c)
	h.Presence.SetState(p.UserID, StateSearching)

	req := models.SearchRequest{
		UserID:     p.UserID,
		Choice:     p.Choice,
		Mood:       p.Mood,
		EnqueuedAt: time.Now().UTC(),
	}
	gen := h.Matcher.Add(req)
	h.armExpiry(req.UserID, gen)

	go func() {
		if err := h.store.SaveSearchState(&req, h.SearchExpiry); err != nil {
			log.Printf("WARNING: Failed to mirror search state for %s: %v", req.UserID, err)
			return
		}
		h.taskCh <- func() {
			// The search may have resolved while the mirror write was in
			// flight, in which case this write landed after the cleanup
			// delete. Re-check and delete again so a matched or cancelled
			// user is not restored at the next boot.
			if h.Matcher.IsSearching(req.UserID) {
				return
			}
			go func() {
				if err := h.store.DeleteSearchState(req.UserID); err != nil {
					log.Printf("WARNING: Failed to clear search state for %s: %v", req.UserID, err)
				}
			}()
		}
	}()

	counterpart := h.Matcher.FindCounterpart(&req)
	if counterpart == nil {
		log.Printf("User %s is waiting: mood=%s choice=%s", req.UserID, req.Mood, req.Choice)
		return
	}

	// Match decision: remove both entries in the same step so no other
	// scan can still see them.
	a, okA := h.Matcher.Remove(req.UserID)
	b, okB := h.Matcher.Remove(counterpart.UserID)
	if !okA || !okB {
		return
	}
	h.Presence.SetState(a.UserID, StateOnline)
	h.Presence.SetState(b.UserID, StateOnline)
	log.Printf("Matched %s with %s.", a.UserID, b.UserID)

	go h.finalizeMatch(a, b)
}

// finalizeMatch runs after the pairing decision is final: it creates the
// durable room, resolves nicknames and schedules the notifications. A
// store failure here loses the notification but never re-opens the
// match — both users were already removed from the pool and can
// re-search.
func (h *Hub) finalizeMatch(a, b models.SearchRequest) {
	if err := h.store.DeleteSearchState(a.UserID); err != nil {
		log.Printf("WARNING: Failed to clear search state for %s: %v", a.UserID, err)
	}
	if err := h.store.DeleteSearchState(b.UserID); err != nil {
		log.Printf("WARNING: Failed to clear search state for %s: %v", b.UserID, err)
	}

	room, err := h.Rooms.GetOrCreate(a.UserID, b.UserID)
	if err != nil {
		log.Printf("ERROR: Failed to create room for %s and %s: %v", a.UserID, b.UserID, err)
		return
	}
	nickA := h.nicknameFor(a.UserID)
	nickB := h.nicknameFor(b.UserID)

	h.taskCh <- func() {
		h.deliver(a.UserID, models.OutEvent{
			Type: models.EventMatchFound,
			Payload: models.MatchFoundPayload{
				ChatRoomID:       room.ChatRoomID,
				ReceiverID:       b.UserID,
				ReceiverNickname: nickB,
			},
		})
		h.deliver(b.UserID, models.OutEvent{
			Type: models.EventMatchFound,
			Payload: models.MatchFoundPayload{
				ChatRoomID:       room.ChatRoomID,
				ReceiverID:       a.UserID,
				ReceiverNickname: nickA,
			},
		})
	}
}

func (h *Hub) handleStopSearching(userID string) {
	if _, ok := h.Matcher.Remove(userID); !ok {
		return
	}
	h.Presence.SetState(userID, StateOnline)
	go func() {
		if err := h.store.DeleteSearchState(userID); err != nil {
			log.Printf("WARNING: Failed to clear search state for %s: %v", userID, err)
		}
	}()
	log.Printf("User %s stopped searching.", userID)
}

// armExpiry schedules the pool entry's timeout. The callback re-enters
// the loop and checks the generation token, so a timer belonging to a
// replaced or cancelled search fires as a no-op.
func (h *Hub) armExpiry(userID string, gen uint64) {
	timer := time.AfterFunc(h.SearchExpiry, func() {
		h.taskCh <- func() { h.expireSearch(userID, gen) }
	})
	h.Matcher.SetTimer(userID, timer)
}

func (h *Hub) expireSearch(userID string, gen uint64) {
	if !h.Matcher.Matches(userID, gen) {
		return
	}
	h.Matcher.Remove(userID)
	h.Presence.SetState(userID, StateOnline)
	go func() {
		if err := h.store.DeleteSearchState(userID); err != nil {
			log.Printf("WARNING: Failed to clear search state for %s: %v", userID, err)
		}
	}()
	h.deliver(userID, models.OutEvent{
		Type:    models.EventSearchTimeout,
		Payload: models.SearchTimeoutPayload{Message: "No match found, back online."},
	})
	log.Printf("User %s search timed out, moved back to online.", userID)
}

func (h *Hub) handleJoinRoom(c Client, p models.RoomPayload) {
	epoch := h.roomEpoch[p.UserID]
	go func() {
		room, err := h.Rooms.Get(p.ChatRoomID)
		if errors.Is(err, models.ErrRoomNotFound) {
			// A room that does not exist reads the same as one the user
			// is not a member of.
			h.pushError(c, models.ErrNotAuthorized.Error())
			return
		}
		if err != nil {
			h.pushError(c, "action failed")
			return
		}
		if !room.HasParticipant(p.UserID) {
			log.Printf("joinRoom denied: user %s is not in room %s", p.UserID, p.ChatRoomID)
			h.pushError(c, models.ErrNotAuthorized.Error())
			return
		}
		h.taskCh <- func() {
			// A leave or disconnect processed while the membership lookup
			// was in flight wins over this join.
			if h.roomEpoch[p.UserID] != epoch {
				return
			}
			if h.subscribed[p.ChatRoomID] == nil {
				h.subscribed[p.ChatRoomID] = make(map[string]struct{})
			}
			h.subscribed[p.ChatRoomID][p.UserID] = struct{}{}
			h.Presence.SetState(p.UserID, StateInRoom)
		}
	}()
}

func (h *Hub) handleLeaveRoom(p models.RoomPayload) {
	h.roomEpoch[p.UserID]++
	members, ok := h.subscribed[p.ChatRoomID]
	if !ok {
		return
	}
	if _, ok := members[p.UserID]; !ok {
		return
	}
	delete(members, p.UserID)
	if len(members) == 0 {
		delete(h.subscribed, p.ChatRoomID)
	}
	h.Presence.SetState(p.UserID, StateOnline)
	log.Printf("User %s left room %s.", p.UserID, p.ChatRoomID)
}

func (h *Hub) handleSendMessage(c Client, p models.MessagePayload) {
	if p.ChatRoomID == "" || p.SenderID == "" || p.ReceiverID == "" || p.Message == "" {
		h.pushError(c, models.ErrInvalidRequest.Error())
		return
	}

	ts := time.Now().UTC()
	if p.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, p.Timestamp)
		if err != nil {
			h.pushError(c, models.ErrInvalidRequest.Error())
			return
		}
		ts = parsed.UTC()
	}

	msg := models.Message{
		ChatRoomID: p.ChatRoomID,
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		Message:    p.Message,
		Timestamp:  ts,
	}

	// Duplicate submissions are dropped without error: the client already
	// holds the first ack.
	if !h.Relay.Accept(&msg) {
		return
	}

	go func() {
		if err := h.Relay.Persist(&msg); err != nil {
			h.pushError(c, "action failed")
			return
		}
		h.taskCh <- func() {
			// Echo to the sender first as the persisted-confirmation,
			// then push to the receiver. Both are independent
			// best-effort deliveries against the handles live right now.
			out := models.OutEvent{Type: models.EventReceiveMessage, Payload: msg}
			senderHandle, _ := h.Presence.HandleFor(msg.SenderID)
			if senderHandle != nil {
				h.push(senderHandle, out)
			}
			if receiverHandle, ok := h.Presence.HandleFor(msg.ReceiverID); ok && receiverHandle != senderHandle {
				h.push(receiverHandle, out)
			}
		}
	}()
}

func (h *Hub) handleGetChatHistory(c Client, roomID string) {
	go func() {
		messages, err := h.Relay.History(roomID, historyLimit)
		if err != nil {
			h.pushError(c, "action failed")
			return
		}
		// The store returns newest first; clients render oldest first.
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
		h.push(c, models.OutEvent{Type: models.EventChatHistory, Payload: messages})
	}()
}

func (h *Hub) handleGetAllChats(c Client, userID string) {
	go func() {
		rooms, err := h.Rooms.ListForUser(userID)
		if err != nil {
			h.pushError(c, "action failed")
			return
		}
		chats := make([]models.ChatSummary, 0, len(rooms))
		for _, room := range rooms {
			receiverID := room.Counterpart(userID)
			summary := models.ChatSummary{
				ChatRoomID:       room.ChatRoomID,
				ReceiverID:       receiverID,
				ReceiverNickname: h.nicknameFor(receiverID),
				LastMessageTime:  room.CreatedAt,
			}
			if last, err := h.store.GetLastMessage(room.ChatRoomID); err == nil && last != nil {
				summary.LastMessage = last.Message
				summary.LastMessageTime = last.Timestamp
			}
			chats = append(chats, summary)
		}
		h.push(c, models.OutEvent{Type: models.EventAllChats, Payload: chats})
	}()
}

func (h *Hub) handleDisconnect(c Client) {
	userID, ok := h.Presence.Unbind(c)
	if !ok {
		// Stale handle: a newer connection owns this user now.
		return
	}
	if _, searching := h.Matcher.Remove(userID); searching {
		go func() {
			if err := h.store.DeleteSearchState(userID); err != nil {
				log.Printf("WARNING: Failed to clear search state for %s: %v", userID, err)
			}
		}()
	}
	h.roomEpoch[userID]++
	for roomID, members := range h.subscribed {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.subscribed, roomID)
		}
	}
	log.Printf("User %s disconnected.", userID)
}

// nicknameFor looks up a display nickname, falling back to a placeholder
// when the user row is missing or the store is down.
func (h *Hub) nicknameFor(userID string) string {
	nickname, err := h.store.GetUserNickname(userID)
	if err != nil || nickname == "" {
		return unknownNickname
	}
	return nickname
}

// deliver pushes an event to the user's live handle, if any. Offline or
// stale recipients get nothing; durable state makes the event
// recoverable where it matters.
func (h *Hub) deliver(userID string, ev models.OutEvent) {
	c, ok := h.Presence.HandleFor(userID)
	if !ok {
		return
	}
	h.push(c, ev)
}

// push writes to a client's send channel without blocking the loop; a
// full buffer drops the event for that handle.
func (h *Hub) push(c Client, ev models.OutEvent) {
	select {
	case c.GetSendChannel() <- ev:
	default:
		log.Printf("Dropping %s event for slow client %s.", ev.Type, c.GetUserID())
	}
}

func (h *Hub) pushError(c Client, reason string) {
	h.push(c, models.OutEvent{
		Type:    models.EventError,
		Payload: models.ErrorPayload{Reason: reason},
	})
}
