package redis

import (
	"context"
	"time"

	redisx "github.com/kirinyoku/gate-go/internal/redis"
	"github.com/redis/go-redis/v9"
)

// VerificationStore keeps phone verification codes in Redis. A code lives
// until its TTL expires or it is consumed, whichever comes first; expiry and
// single-use both fall out of the key lifecycle.
type VerificationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewVerificationStore(rdb *redis.Client, ttl time.Duration) *VerificationStore {
	return &VerificationStore{rdb: rdb, ttl: ttl}
}

// Save stores the latest code for a phone, replacing any outstanding one.
func (s *VerificationStore) Save(ctx context.Context, phone, code string) error {
	return s.rdb.Set(ctx, redisx.KeyVerificationCode(phone), code, s.ttl).Err()
}

// Get returns the outstanding code for a phone, if any.
func (s *VerificationStore) Get(ctx context.Context, phone string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, redisx.KeyVerificationCode(phone)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return v, true, nil
}

// Consume removes the outstanding code after a successful verification.
func (s *VerificationStore) Consume(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, redisx.KeyVerificationCode(phone)).Err()
}
