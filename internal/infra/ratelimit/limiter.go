package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNilClient возвращается, когда лимитер создан без клиента Redis
var ErrNilClient = errors.New("ratelimit: redis client is nil")

const keyPrefix = "payments:initiate"

// incrWindow увеличивает счётчик и ставит срок жизни окна одним атомарным вызовом.
// Ключ без TTL (например, после сбоя старой версии) тоже получает срок.
var incrWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisLimiter ограничивает число инициаций оплаты на покупателя в фиксированном окне.
// Счётчик общий для всех экземпляров сервиса.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter создает лимитер: не более limit попыток за window
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow увеличивает счётчик покупателя и сообщает, укладывается ли попытка в лимит
func (l *RedisLimiter) Allow(ctx context.Context, customerID int64) (bool, error) {
	if l.client == nil {
		return false, ErrNilClient
	}

	key := fmt.Sprintf("%s:%d", keyPrefix, customerID)
	count, err := incrWindow.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("ratelimit: increment counter: %w", err)
	}

	return count <= int64(l.limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ratelimit: ping redis: %w", err)
	}
	return nil
}
