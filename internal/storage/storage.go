package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"moodchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Storage is the persistence surface the chat core depends on.
// Users and rooms live in PostgreSQL, messages in MongoDB, and the
// search-state mirror in Redis. The core never touches the engines
// directly.
type Storage interface {
	EnsureUser(userID string) (*models.User, error)
	GetUserNickname(userID string) (string, error)

	GetOrCreateRoom(userA, userB string) (*models.ChatRoom, error)
	GetRoomByID(roomID string) (*models.ChatRoom, error)
	GetRoomsForUser(userID string) ([]models.ChatRoom, error)
	TouchRoom(roomID string, at time.Time) error

	SaveMessage(msg *models.Message) error
	GetChatHistory(roomID string, limit int64) ([]models.Message, error)
	GetLastMessage(roomID string) (*models.Message, error)

	SaveSearchState(req *models.SearchRequest, ttl time.Duration) error
	DeleteSearchState(userID string) error
	LoadSearchStates() ([]models.SearchRequest, error)
}

// Service implements Storage on top of the real backends.
type Service struct {
	DB    *gorm.DB
	Mongo *mongo.Database
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService wires the three backends into one Storage.
func NewStorageService(db *gorm.DB, mdb *mongo.Database, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Mongo: mdb,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// EnsureUser returns the user row for userID, creating it with a default
// nickname on first contact.
func (s *Service) EnsureUser(userID string) (*models.User, error) {
	var user models.User
	result := s.DB.Where("id = ?", userID).FirstOrCreate(&user, models.User{ID: userID})
	if result.Error != nil {
		log.Printf("ERROR: Failed to ensure user %s: %v", userID, result.Error)
		return nil, storeErr(result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("INFO: New user %s saved to database.", userID)
	}
	return &user, nil
}

// GetUserNickname looks up the display nickname for userID.
func (s *Service) GetUserNickname(userID string) (string, error) {
	var user models.User
	err := s.DB.Select("nickname").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", gorm.ErrRecordNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get nickname for user %s: %v", userID, err)
		return "", storeErr(err)
	}
	return user.Nickname, nil
}

// GetOrCreateRoom resolves the durable room for a pair of users. The room
// ID is derived from the sorted pair, so the argument order does not
// matter. A concurrent create for the same pair is resolved by re-reading
// after the uniqueness conflict; the primary-key constraint is the source
// of truth.
func (s *Service) GetOrCreateRoom(userA, userB string) (*models.ChatRoom, error) {
	roomID := models.RoomIDFor(userA, userB)

	var room models.ChatRoom
	err := s.DB.Where("chat_room_id = ?", roomID).First(&room).Error
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("ERROR: Failed to look up room %s: %v", roomID, err)
		return nil, storeErr(err)
	}

	pair := []string{userA, userB}
	if pair[0] > pair[1] {
		pair[0], pair[1] = pair[1], pair[0]
	}
	now := time.Now().UTC()
	room = models.ChatRoom{
		ChatRoomID:   roomID,
		Participants: pair,
		CreatedAt:    now,
		LastMessage:  now,
	}
	if createErr := s.DB.Create(&room).Error; createErr != nil {
		if isDuplicateErr(createErr) {
			// Lost the create race, the other writer's row wins.
			if err := s.DB.Where("chat_room_id = ?", roomID).First(&room).Error; err != nil {
				return nil, err
			}
			return &room, nil
		}
		log.Printf("ERROR: Failed to create room %s: %v", roomID, createErr)
		return nil, storeErr(createErr)
	}
	return &room, nil
}

// GetRoomByID fetches a single room record.
func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("chat_room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrRoomNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, storeErr(err)
	}
	return &room, nil
}

// GetRoomsForUser lists every room the user participates in, most recent
// activity first.
func (s *Service) GetRoomsForUser(userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.DB.Where("? = ANY(participants)", userID).
		Order("last_message desc").
		Find(&rooms).Error
	if err != nil {
		log.Printf("ERROR: Failed to list rooms for user %s: %v", userID, err)
		return nil, storeErr(err)
	}
	return rooms, nil
}

// TouchRoom bumps the room's last-activity timestamp after a message was
// persisted.
func (s *Service) TouchRoom(roomID string, at time.Time) error {
	err := s.DB.Model(&models.ChatRoom{}).
		Where("chat_room_id = ?", roomID).
		Update("last_message", at).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// isDuplicateErr recognizes a unique-constraint violation from the
// postgres driver without depending on its error types.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key")
}

// storeErr tags a backend failure so callers can distinguish an
// unavailable store from a semantic miss like a not-found row.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}
