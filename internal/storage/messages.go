package storage

import (
	"errors"
	"log"

	"moodchat/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollection = "messages"

// SaveMessage appends a chat message to the MongoDB messages collection.
// Messages are immutable once stored.
func (s *Service) SaveMessage(msg *models.Message) error {
	collection := s.Mongo.Collection(messageCollection)
	if _, err := collection.InsertOne(s.Ctx, msg); err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", msg.ChatRoomID, err)
		return storeErr(err)
	}
	return nil
}

// GetChatHistory returns up to limit messages of a room, newest first.
func (s *Service) GetChatHistory(roomID string, limit int64) ([]models.Message, error) {
	collection := s.Mongo.Collection(messageCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cursor, err := collection.Find(s.Ctx, bson.M{"chat_room_id": roomID}, opts)
	if err != nil {
		log.Printf("ERROR: Failed to get chat history for room %s: %v", roomID, err)
		return nil, storeErr(err)
	}
	defer cursor.Close(s.Ctx)

	var messages []models.Message
	if err := cursor.All(s.Ctx, &messages); err != nil {
		return nil, storeErr(err)
	}
	return messages, nil
}

// GetLastMessage returns the most recent message of a room, or nil when
// the room has no messages yet.
func (s *Service) GetLastMessage(roomID string) (*models.Message, error) {
	collection := s.Mongo.Collection(messageCollection)

	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var msg models.Message
	err := collection.FindOne(s.Ctx, bson.M{"chat_room_id": roomID}, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get last message for room %s: %v", roomID, err)
		return nil, storeErr(err)
	}
	return &msg, nil
}
