package chathub_test

import (
	"sync/atomic"
	"time"

	"moodchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the storage.Storage interface.
// It uses testify/mock to allow flexible expectation setting in tests.
type MockStorage struct {
	mock.Mock
}

// User operations
func (m *MockStorage) EnsureUser(userID string) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserNickname(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

// Room operations
func (m *MockStorage) GetOrCreateRoom(userA, userB string) (*models.ChatRoom, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetRoomsForUser(userID string) ([]models.ChatRoom, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatRoom), args.Error(1)
}

func (m *MockStorage) TouchRoom(roomID string, at time.Time) error {
	args := m.Called(roomID, at)
	return args.Error(0)
}

// Message operations
func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetChatHistory(roomID string, limit int64) ([]models.Message, error) {
	args := m.Called(roomID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) GetLastMessage(roomID string) (*models.Message, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// Search-state mirror operations
func (m *MockStorage) SaveSearchState(req *models.SearchRequest, ttl time.Duration) error {
	args := m.Called(req, ttl)
	return args.Error(0)
}

func (m *MockStorage) DeleteSearchState(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) LoadSearchStates() ([]models.SearchRequest, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchRequest), args.Error(1)
}

// MockClient is a test double for the chathub.Client interface. Close
// only flips a flag so late pushes stay observable through DrainEvents.
type MockClient struct {
	userID string
	send   chan models.OutEvent
	closed atomic.Bool
}

func newMockClient(id string) *MockClient {
	return &MockClient{
		userID: id,
		send:   make(chan models.OutEvent, 16), // buffered to prevent blocking in tests
	}
}

func (c *MockClient) GetUserID() string { return c.userID }

func (c *MockClient) GetSendChannel() chan<- models.OutEvent { return c.send }

func (c *MockClient) Run() {}

func (c *MockClient) Close() { c.closed.Store(true) }

// Closed reports whether the hub tore this handle down.
func (c *MockClient) Closed() bool { return c.closed.Load() }

// DrainEvents empties the send channel and returns everything that was
// pushed to this client so far.
func (c *MockClient) DrainEvents() []models.OutEvent {
	var events []models.OutEvent
	for {
		select {
		case ev := <-c.send:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// EventsOfType filters drained events by type.
func eventsOfType(events []models.OutEvent, eventType string) []models.OutEvent {
	var matched []models.OutEvent
	for _, ev := range events {
		if ev.Type == eventType {
			matched = append(matched, ev)
		}
	}
	return matched
}
