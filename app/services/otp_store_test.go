package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/apperror"
)

// otpStores returns every store implementation available to this run. The
// Redis store joins when GEBETA_TEST_REDIS_ADDR points at a server.
func otpStores(t *testing.T) map[string]OTPStore {
	t.Helper()
	stores := map[string]OTPStore{"memory": NewMemoryOTPStore()}

	addr := os.Getenv("GEBETA_TEST_REDIS_ADDR")
	if addr == "" {
		return stores
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Logf("redis at %s unavailable: %v", addr, err)
		_ = rdb.Close()
		return stores
	}
	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})
	stores["redis"] = NewRedisOTPStore(rdb)
	return stores
}

func TestOTPStoreContract(t *testing.T) {
	for name, store := range otpStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			phone := "+251900000001"
			expires := time.Now().Add(time.Minute).Truncate(time.Millisecond)

			_, err := store.Get(ctx, phone)
			assert.ErrorIs(t, err, ErrNoChallenge)

			require.NoError(t, store.Put(ctx, phone, OTPChallenge{CodeHash: "hash-a", Role: "user", ExpiresAt: expires}))
			got, err := store.Get(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, "hash-a", got.CodeHash)
			assert.Equal(t, "user", got.Role)
			assert.Equal(t, expires.UnixMilli(), got.ExpiresAt.UnixMilli())
			assert.Equal(t, 0, got.Attempts)

			n, err := store.IncrAttempts(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			n, err = store.IncrAttempts(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			// A replacement starts from zero attempts.
			require.NoError(t, store.Put(ctx, phone, OTPChallenge{CodeHash: "hash-b", Role: "user", ExpiresAt: expires}))
			got, err = store.Get(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, "hash-b", got.CodeHash)
			assert.Equal(t, 0, got.Attempts)

			taken, err := store.Consume(ctx, phone, "hash-a")
			require.NoError(t, err)
			assert.False(t, taken)
			_, err = store.Get(ctx, phone)
			require.NoError(t, err, "a stale hash must not remove the current challenge")

			taken, err = store.Consume(ctx, phone, "hash-b")
			require.NoError(t, err)
			assert.True(t, taken)
			taken, err = store.Consume(ctx, phone, "hash-b")
			require.NoError(t, err)
			assert.False(t, taken)

			existed, err := store.Delete(ctx, phone)
			require.NoError(t, err)
			assert.False(t, existed)
		})
	}
}

func TestOTPStoreIncrAttemptsDoesNotRecreate(t *testing.T) {
	for name, store := range otpStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			phone := "+251900000002"

			_, err := store.IncrAttempts(ctx, phone)
			assert.ErrorIs(t, err, ErrNoChallenge)

			_, err = store.Get(ctx, phone)
			assert.ErrorIs(t, err, ErrNoChallenge)
		})
	}
}

// resendingStore lands a fresh challenge right after the first Get, the way
// a resend racing a verify would.
type resendingStore struct {
	OTPStore
	once    sync.Once
	replace OTPChallenge
}

func (s *resendingStore) Get(ctx context.Context, phone string) (*OTPChallenge, error) {
	c, err := s.OTPStore.Get(ctx, phone)
	s.once.Do(func() {
		if err == nil {
			_ = s.OTPStore.Put(ctx, phone, s.replace)
		}
	})
	return c, err
}

func TestOTPVerifyKeepsChallengeReplacedMidway(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "123456")

	_, err := h.svc.RequestCode(ctx, testPhone, "")
	require.NoError(t, err)

	replacement := OTPChallenge{CodeHash: "hash-of-resent-code", Role: "user", ExpiresAt: fixedNow.Add(5 * time.Minute)}
	h.svc.store = &resendingStore{OTPStore: h.store, replace: replacement}

	_, err = h.svc.VerifyCode(ctx, testPhone, "123456")
	assertKind(t, err, apperror.KindAuthentication, "OTP expired or not requested")

	got, err := h.store.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, "hash-of-resent-code", got.CodeHash)
}
