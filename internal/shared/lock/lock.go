package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock is held by another owner")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived Redis locks. A nil client yields locks that
// always succeed, which keeps single-process tools working without Redis.
type Locker struct {
	rdb   *redis.Client
	ttl   time.Duration
	token func() string
}

type Option func(*Locker)

func WithTokenFunc(fn func() string) Option {
	return func(l *Locker) {
		l.token = fn
	}
}

func New(rdb *redis.Client, ttl time.Duration, opts ...Option) *Locker {
	l := &Locker{rdb: rdb, ttl: ttl, token: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type Release func(ctx context.Context) error

// Acquire takes key or returns ErrNotAcquired. The lock expires after the
// configured TTL even if Release is never called.
func (l *Locker) Acquire(ctx context.Context, key string) (Release, error) {
	if l == nil || l.rdb == nil {
		return func(context.Context) error { return nil }, nil
	}

	token := l.token()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}, nil
}
