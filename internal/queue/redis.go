package queue

import (
	"strings"

	"github.com/hibiken/asynq"

	"docchat-platform/internal/config"
)

// RedisOpt builds the asynq connection options from the shared Redis config.
// REDIS_URL may be a full redis:// URI or a bare host:port.
func RedisOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return asynq.ParseRedisURI(cfg.RedisURL)
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
