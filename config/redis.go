package config

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis returns a client for the websocket relay, or nil when Redis
// is not configured or not reachable.
func ConnectRedis(s Settings) *redis.Client {
	if s.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, websocket events stay on this instance")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         s.RedisAddr,
		Password:     s.RedisPassword,
		DB:           s.RedisDB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		log.Println("Websocket events will stay on this instance")
		client.Close()
		return nil
	}

	log.Println("Connected to Redis")
	return client
}
