package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/auth"
)

const testPhone = "+251911223344"

type recordingSender struct {
	sent map[string][]string
	fail bool
}

func (s *recordingSender) SendCode(_ context.Context, phone, code string) error {
	if s.fail {
		return errors.New("gateway down")
	}
	s.sent[phone] = append(s.sent[phone], code)
	return nil
}

type otpHarness struct {
	svc    *OTPService
	store  *MemoryOTPStore
	sender *recordingSender
	now    time.Time
}

// newOTPHarness issues the given codes in order.
func newOTPHarness(t *testing.T, codes ...string) *otpHarness {
	t.Helper()
	h := &otpHarness{
		store:  NewMemoryOTPStore(),
		sender: &recordingSender{sent: map[string][]string{}},
		now:    fixedNow,
	}
	next := 0
	h.svc = NewOTPService(memory.NewStore().Users, h.store, h.sender).
		WithClock(func() time.Time { return h.now }).
		WithGenerator(func() (string, error) {
			require.Less(t, next, len(codes), "generator exhausted")
			code := codes[next]
			next++
			return code, nil
		})
	h.svc.ttl = 5 * time.Minute
	h.svc.maxAttempts = 3
	return h
}

func TestOTPWrongThenRightCode(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "123456")

	issued, err := h.svc.RequestCode(ctx, testPhone, "")
	require.NoError(t, err)
	assert.Equal(t, testPhone, issued.Phone)
	assert.Equal(t, fixedNow.Add(5*time.Minute), issued.ExpiresAt)
	assert.Equal(t, []string{"123456"}, h.sender.sent[testPhone])

	stored, err := h.store.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.NotEqual(t, "123456", stored.CodeHash)

	_, err = h.svc.VerifyCode(ctx, testPhone, "000000")
	assertKind(t, err, apperror.KindAuthentication, "Invalid OTP")

	res, err := h.svc.VerifyCode(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.True(t, res.User.IsPhoneVerified)
	assert.Equal(t, testPhone, res.User.Phone())

	claims, err := auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestOTPCodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "123456", "654321")

	_, err := h.svc.RequestCode(ctx, testPhone, models.RoleRestaurantOwner)
	require.NoError(t, err)
	first, err := h.svc.VerifyCode(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRestaurantOwner, first.User.Role)

	_, err = h.svc.VerifyCode(ctx, testPhone, "123456")
	assertKind(t, err, apperror.KindAuthentication, "OTP expired or not requested")

	_, err = h.svc.RequestCode(ctx, testPhone, "")
	require.NoError(t, err)
	second, err := h.svc.VerifyCode(ctx, testPhone, "654321")
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, models.RoleRestaurantOwner, second.User.Role)
}

func TestOTPAdminRoleFallsBackToUser(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "111111")

	_, err := h.svc.RequestCode(ctx, testPhone, models.RoleAdmin)
	require.NoError(t, err)
	res, err := h.svc.VerifyCode(ctx, testPhone, "111111")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, res.User.Role)
}

func TestOTPResendInvalidatesPreviousCode(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "111111", "222222")

	_, err := h.svc.ResendCode(ctx, testPhone)
	assertKind(t, err, apperror.KindAuthentication)

	_, err = h.svc.RequestCode(ctx, testPhone, "")
	require.NoError(t, err)
	_, err = h.svc.ResendCode(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, []string{"111111", "222222"}, h.sender.sent[testPhone])

	_, err = h.svc.VerifyCode(ctx, testPhone, "111111")
	assertKind(t, err, apperror.KindAuthentication, "Invalid OTP")
	_, err = h.svc.VerifyCode(ctx, testPhone, "222222")
	require.NoError(t, err)
}

func TestOTPExpires(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "123456")

	_, err := h.svc.RequestCode(ctx, testPhone, "")
	require.NoError(t, err)

	h.now = fixedNow.Add(5 * time.Minute)
	_, err = h.svc.VerifyCode(ctx, testPhone, "123456")
	assertKind(t, err, apperror.KindAuthentication, "OTP has expired")

	_, err = h.svc.VerifyCode(ctx, testPhone, "123456")
	assertKind(t, err, apperror.KindAuthentication, "OTP expired or not requested")
}

func TestOTPAttemptsAreBounded(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "123456")

	_, err := h.svc.RequestCode(ctx, testPhone, "")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = h.svc.VerifyCode(ctx, testPhone, "999999")
		assertKind(t, err, apperror.KindAuthentication, "Invalid OTP")
	}

	_, err = h.svc.VerifyCode(ctx, testPhone, "123456")
	assertKind(t, err, apperror.KindAuthentication, "OTP expired or not requested")
}

func TestOTPSendFailureDropsChallenge(t *testing.T) {
	ctx := context.Background()
	h := newOTPHarness(t, "123456")
	h.sender.fail = true

	_, err := h.svc.RequestCode(ctx, testPhone, "")
	assertKind(t, err, apperror.KindInternal)

	_, err = h.store.Get(ctx, testPhone)
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestMemoryOTPStorePurge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOTPStore()
	require.NoError(t, s.Put(ctx, "a", OTPChallenge{ExpiresAt: fixedNow.Add(-time.Minute)}))
	require.NoError(t, s.Put(ctx, "b", OTPChallenge{ExpiresAt: fixedNow.Add(time.Minute)}))

	assert.Equal(t, 1, s.Purge(fixedNow))
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNoChallenge)
	_, err = s.Get(ctx, "b")
	assert.NoError(t, err)
}

func TestRandomCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := RandomCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
