package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter - compteur à fenêtre fixe dans Redis (INCR + EXPIRE)
type Limiter struct {
	rdb redis.UniversalClient
}

func NewLimiter(rdb redis.UniversalClient) *Limiter {
	return &Limiter{rdb: rdb}
}

// Allow compte une tentative pour key. Au-delà de limit dans la fenêtre,
// la tentative est refusée et retryAfter indique quand réessayer.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := "ratelimit:" + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, err
		}
	}

	if n > int64(limit) {
		retry, err := l.rdb.TTL(ctx, k).Result()
		if err != nil || retry < 0 {
			retry = window
		}
		return false, retry, nil
	}
	return true, 0, nil
}

// Reset efface le compteur (connexion réussie)
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, "ratelimit:"+key).Err()
}
