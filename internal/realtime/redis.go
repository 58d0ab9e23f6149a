package realtime

import (
	"log"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates the shared Redis client (used by the role cache).
func NewRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	dbNum, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbNum,
	})

	log.Printf("Redis client created (addr: %s)", addr)
	return rdb
}
