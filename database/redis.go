package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns nil when Redis is unreachable; callers fall back to
// database-backed storage.
func ConnectRedis(url string, log *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, running without redis", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis not available, running without it", zap.Error(err))
		client.Close()
		return nil
	}

	log.Info("redis connected", zap.String("addr", opts.Addr))
	return client
}
