package storage

import (
	"encoding/json"
	"log"
	"time"

	"moodchat/backend/internal/models"
)

const searchKeyPrefix = "search:"

// SaveSearchState mirrors a pool entry into Redis under search:<userId>
// with a TTL equal to the search expiry window. The mirror is an
// optimization that lets waiting searchers survive a process restart; it
// is never consulted on the hot matching path.
func (s *Service) SaveSearchState(req *models.SearchRequest, ttl time.Duration) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := s.Redis.Set(s.Ctx, searchKeyPrefix+req.UserID, data, ttl).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// DeleteSearchState drops the mirror entry for userID. Safe to call when
// no entry exists.
func (s *Service) DeleteSearchState(userID string) error {
	if err := s.Redis.Del(s.Ctx, searchKeyPrefix+userID).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// LoadSearchStates returns every mirrored search request still alive in
// Redis. Used once at boot to repopulate the matchmaking pool.
func (s *Service) LoadSearchStates() ([]models.SearchRequest, error) {
	keys, err := s.Redis.Keys(s.Ctx, searchKeyPrefix+"*").Result()
	if err != nil {
		return nil, storeErr(err)
	}

	var requests []models.SearchRequest
	for _, key := range keys {
		data, err := s.Redis.Get(s.Ctx, key).Result()
		if err != nil {
			continue // expired between KEYS and GET
		}
		var req models.SearchRequest
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			log.Printf("WARNING: Dropping unreadable search state %s: %v", key, err)
			continue
		}
		requests = append(requests, req)
	}
	return requests, nil
}
