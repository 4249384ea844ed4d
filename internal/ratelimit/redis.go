package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/myalgostack/license-server/internal/lib/sl"
)

// RedisLimiter считает запросы в Redis: один ключ на пару (ключ, окно),
// INCR + EXPIRE. При недоступности Redis запрос пропускается, ошибка
// возвращается вызывающему для логирования.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisLimiter создает лимитер поверх готового клиента Redis.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, log: log}
}

// Check инкрементирует счетчик текущего окна и сравнивает его с лимитом.
func (l *RedisLimiter) Check(ctx context.Context, key string, cfg Config) (Result, error) {
	const op = "ratelimit.RedisLimiter.Check"

	now := time.Now()
	idx := windowIndex(now, cfg.Window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, idx)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Redis недоступен: пропускаем запрос, лимит не применяем
		return Result{
			Allowed:   true,
			Remaining: cfg.MaxRequests,
			ResetTime: now.Add(cfg.Window),
		}, fmt.Errorf("%s: %w", op, err)
	}

	if count == 1 {
		// TTL с запасом в секунду, чтобы ключ пережил границу окна
		if err := l.client.Expire(ctx, redisKey, cfg.Window+time.Second).Err(); err != nil {
			l.log.Warn("failed to set rate limit key TTL", sl.Err(err))
		}
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   int(count) <= cfg.MaxRequests,
		Remaining: remaining,
		ResetTime: windowReset(idx, cfg.Window),
	}, nil
}
