package lib

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// ClaimWebhookEvent marks a processor event id as seen. Returns false when the
// event was already claimed, so at-least-once deliveries collapse to one
// processing pass. Errors fail open: the DB uniqueness guard catches the rest.
func ClaimWebhookEvent(ctx context.Context, eventID string) bool {
	rd := GetRedisClient()
	if rd == nil {
		return true
	}
	ok, err := rd.SetNX(ctx, "stripe:event:"+eventID, 1, 72*time.Hour).Result()
	if err != nil {
		log.Printf("[redis] Error claiming webhook event %s: %s\n", eventID, err.Error())
		return true
	}
	return ok
}
