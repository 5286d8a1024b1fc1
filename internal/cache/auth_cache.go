package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"essence_back_end/internal/auth"
)

const otpPrefix = "otp:"

// OTPStore garde les challenges OTP dans un hash Redis {hash, attempts} avec TTL
type OTPStore struct {
	rdb redis.UniversalClient
}

func NewOTPStore(rdb redis.UniversalClient) *OTPStore {
	return &OTPStore{rdb: rdb}
}

// Save remplace le challenge précédent et remet le compteur à zéro
func (s *OTPStore) Save(ctx context.Context, key string, ch auth.Challenge, ttl time.Duration) error {
	k := otpPrefix + key
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, "hash", ch.Hash, "attempts", ch.Attempts)
	pipe.Expire(ctx, k, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *OTPStore) Load(ctx context.Context, key string) (*auth.Challenge, error) {
	fields, err := s.rdb.HGetAll(ctx, otpPrefix+key).Result()
	if err != nil {
		return nil, err
	}
	hash, ok := fields["hash"]
	if !ok || hash == "" {
		return nil, auth.ErrChallengeNotFound
	}
	attempts, _ := strconv.Atoi(fields["attempts"])
	return &auth.Challenge{Hash: hash, Attempts: attempts}, nil
}

// attemptScript incrémente les tentatives et relit le hash sans allonger le TTL
var attemptScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
local hash = redis.call('HGET', KEYS[1], 'hash')
return {hash, n}
`)

// consumeScript supprime le challenge seulement s'il n'a pas été remplacé
var consumeScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'hash') == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

func (s *OTPStore) Attempt(ctx context.Context, key string) (*auth.Challenge, error) {
	res, err := attemptScript.Run(ctx, s.rdb, []string{otpPrefix + key}).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, auth.ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, auth.ErrChallengeNotFound
	}
	hash, _ := res[0].(string)
	attempts, _ := res[1].(int64)
	if hash == "" {
		return nil, auth.ErrChallengeNotFound
	}
	return &auth.Challenge{Hash: hash, Attempts: int(attempts)}, nil
}

func (s *OTPStore) Consume(ctx context.Context, key, hash string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.rdb, []string{otpPrefix + key}, hash).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *OTPStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, otpPrefix+key).Err()
}
