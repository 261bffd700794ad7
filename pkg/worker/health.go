package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	helpers "github.com/redqueue/foreman/pkg/shared"
)

// CheckHealth reads the heartbeat key a running worker maintains and
// returns a process exit code: 0 when the key is present, 1 otherwise.
func CheckHealth(ctx context.Context, settings *Settings) int {
	s := settings.withDefaults()
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.RedisAddr,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
	})
	defer helpers.CloseOrLog(rdb)

	data, err := rdb.Get(ctx, s.healthKey()).Result()
	if errors.Is(err, redis.Nil) {
		slog.Error("health check failed: no health check sentinel found", "key", s.healthKey())
		return 1
	}
	if err != nil {
		slog.Error("health check failed", "key", s.healthKey(), "error", err)
		return 1
	}
	slog.Info("health check successful", "data", data)
	return 0
}
