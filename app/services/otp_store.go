package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoChallenge is returned by OTPStore.Get when the phone has no pending code.
var ErrNoChallenge = errors.New("otp: no pending challenge")

// OTPChallenge is a pending code for one phone number. Only the bcrypt hash of
// the code is kept.
type OTPChallenge struct {
	CodeHash  string
	Role      string
	ExpiresAt time.Time
	Attempts  int
}

// OTPStore keeps at most one challenge per phone.
type OTPStore interface {
	// Put stores c for phone, replacing any previous challenge.
	Put(ctx context.Context, phone string, c OTPChallenge) error
	Get(ctx context.Context, phone string) (*OTPChallenge, error)
	// IncrAttempts bumps the failed-attempt counter of a pending challenge.
	// It returns ErrNoChallenge when the challenge is gone.
	IncrAttempts(ctx context.Context, phone string) (int, error)
	// Delete removes the challenge and reports whether one existed.
	Delete(ctx context.Context, phone string) (bool, error)
	// Consume removes the challenge only while it still carries codeHash, and
	// reports whether it did. A code replaced by a resend is not consumed.
	Consume(ctx context.Context, phone, codeHash string) (bool, error)
}

// ─── Redis ────────────────────────────────────────────────────────────────────

const otpKeyPrefix = "gebeta:otp:"

var (
	// incrAttemptsScript never recreates an expired or consumed challenge.
	incrAttemptsScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

	consumeScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "code_hash") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// RedisOTPStore keeps challenges in Redis hashes that expire with the code.
type RedisOTPStore struct {
	rdb *redis.Client
}

func NewRedisOTPStore(rdb *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

func (s *RedisOTPStore) Put(ctx context.Context, phone string, c OTPChallenge) error {
	key := otpKeyPrefix + phone
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"code_hash", c.CodeHash,
			"role", c.Role,
			"expires_at", c.ExpiresAt.UnixMilli(),
			"attempts", c.Attempts,
		)
		pipe.PExpireAt(ctx, key, c.ExpiresAt)
		return nil
	})
	return err
}

func (s *RedisOTPStore) Get(ctx context.Context, phone string) (*OTPChallenge, error) {
	vals, err := s.rdb.HGetAll(ctx, otpKeyPrefix+phone).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrNoChallenge
	}
	ms, _ := strconv.ParseInt(vals["expires_at"], 10, 64)
	attempts, _ := strconv.Atoi(vals["attempts"])
	return &OTPChallenge{
		CodeHash:  vals["code_hash"],
		Role:      vals["role"],
		ExpiresAt: time.UnixMilli(ms),
		Attempts:  attempts,
	}, nil
}

func (s *RedisOTPStore) IncrAttempts(ctx context.Context, phone string) (int, error) {
	n, err := incrAttemptsScript.Run(ctx, s.rdb, []string{otpKeyPrefix + phone}).Int64()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNoChallenge
	}
	return int(n), nil
}

func (s *RedisOTPStore) Delete(ctx context.Context, phone string) (bool, error) {
	n, err := s.rdb.Del(ctx, otpKeyPrefix+phone).Result()
	return n > 0, err
}

func (s *RedisOTPStore) Consume(ctx context.Context, phone, codeHash string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.rdb, []string{otpKeyPrefix + phone}, codeHash).Int64()
	return n > 0, err
}

// ─── Memory ───────────────────────────────────────────────────────────────────

// MemoryOTPStore is the single-process fallback when Redis is not connected.
// Expired entries stay until Purge runs.
type MemoryOTPStore struct {
	mu         sync.Mutex
	challenges map[string]OTPChallenge
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{challenges: map[string]OTPChallenge{}}
}

func (s *MemoryOTPStore) Put(_ context.Context, phone string, c OTPChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[phone] = c
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, phone string) (*OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		return nil, ErrNoChallenge
	}
	return &c, nil
}

func (s *MemoryOTPStore) IncrAttempts(_ context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		return 0, ErrNoChallenge
	}
	c.Attempts++
	s.challenges[phone] = c
	return c.Attempts, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.challenges[phone]
	delete(s.challenges, phone)
	return ok, nil
}

func (s *MemoryOTPStore) Consume(_ context.Context, phone, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok || c.CodeHash != codeHash {
		return false, nil
	}
	delete(s.challenges, phone)
	return true, nil
}

// Purge drops every challenge that expired before now.
func (s *MemoryOTPStore) Purge(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for phone, c := range s.challenges {
		if now.After(c.ExpiresAt) {
			delete(s.challenges, phone)
			n++
		}
	}
	return n
}
