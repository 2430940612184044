package utils

import (
	"context"
	"log"
	"time"

	"github.com/vinodyk/patient-appointments/config"

	"github.com/go-redis/redis/v8"
)

// SessionCacheClient is the Redis client backing session context storage.
var SessionCacheClient *redis.Client

// InitSessionCache initializes the Redis client for session context storage
// (using the session DB from AppConfig).
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionCacheClient.Ping(ctx).Result(); err != nil {
		// Not fatal: callers may fall back to the in-memory store.
		log.Printf("Failed to connect to Redis (Session Cache): %v", err)
	}
}

// GetSessionCacheClient returns the Redis client for session storage.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}
