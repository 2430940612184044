package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vinodyk/patient-appointments/models"
)

const sessionKeyPrefix = "session:ctx:"

// RedisStore keeps session context in Redis with a sliding TTL, so idle
// conversations expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return models.NewSessionContext(), nil
	}
	if err != nil {
		return nil, err
	}
	var sess models.SessionContext
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, sess *models.SessionContext) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
