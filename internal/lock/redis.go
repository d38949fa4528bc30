package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

const keyPrefix = "caption-notes:lock:"

// releaseScript deletes the key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the key's expiry only when it still holds the caller's token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type implRedis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewRedis creates a Locker shared by every process that talks to the same Redis database.
func NewRedis(addr, password string, db int, ttl time.Duration, log logger.Logger) (Locker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &implRedis{rdb: rdb, ttl: ttl, logger: log}, nil
}

func (l *implRedis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, keyPrefix+key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, models.NewError(models.ErrLocked, "locked", fmt.Errorf("another run holds %s", key))
	}
	l.logger.Debug(ctx, "Redis lock acquired: %s", key)

	stop := heartbeat(l.ttl/3, func() { l.renew(ctx, key, token) })
	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			// The run context may already be cancelled; release still has to reach Redis.
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{keyPrefix + key}, token).Err(); err != nil {
				l.logger.Warn(ctx, "Failed to release redis lock %s: %v", key, err)
			}
		})
	}, nil
}

// renew pushes the key's expiry out by another ttl while this holder still owns it.
func (l *implRedis) renew(ctx context.Context, key, token string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	n, err := renewScript.Run(rctx, l.rdb, []string{keyPrefix + key}, token, l.ttl.Milliseconds()).Int()
	if err != nil {
		l.logger.Warn(ctx, "Failed to renew redis lock %s: %v", key, err)
		return
	}
	if n == 0 {
		l.logger.Warn(ctx, "Redis lock %s is no longer held by this run", key)
	}
}

func (l *implRedis) Close() error { return l.rdb.Close() }
