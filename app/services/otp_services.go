package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/auth"
	"github.com/gebeta-app/gebeta/pkg/http"
	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/metrics"
)

type OTPRequestInput struct {
	Phone string `json:"phoneNumber" validate:"required,phone"`
	Role  string `json:"role" validate:"nullable,in=user|restaurant_owner|admin"`
}

type OTPVerifyInput struct {
	Phone string `json:"phoneNumber" validate:"required,phone"`
	Code  string `json:"otp" validate:"required,digits=6"`
}

type OTPResendInput struct {
	Phone string `json:"phoneNumber" validate:"required,phone"`
}

// OTPIssued is returned when a code has been sent.
type OTPIssued struct {
	Phone     string    `json:"phoneNumber"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthResult is a session: the access token and the user it belongs to.
type AuthResult struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	IsNewUser bool         `json:"isNewUser,omitempty"`
}

// OTPSender delivers a code to a phone.
type OTPSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the debug log. NewOTPSender never returns it in
// production.
type LogSender struct{}

func (LogSender) SendCode(ctx context.Context, phone, code string) error {
	logger.WithCtx(ctx).Debug("otp: code issued", "phone", phone, "code", code)
	return nil
}

// SMSGatewaySender posts {"to","message"} to an SMS gateway webhook.
type SMSGatewaySender struct {
	URL string
}

func (s SMSGatewaySender) SendCode(ctx context.Context, phone, code string) error {
	resp, err := http.Post(s.URL).
		WithContext(ctx).
		Timeout(10*time.Second).
		Retry(2, time.Second).
		Body(map[string]string{
			"to":      phone,
			"message": fmt.Sprintf("Your Gebeta verification code is %s", code),
		}).
		Send()
	if err != nil {
		return err
	}
	return resp.Throw()
}

// ErrSenderRequired is returned by NewOTPSender when production is not
// configured with an SMS gateway.
var ErrSenderRequired = errors.New("otp: OTP_SENDER=sms and SMS_GATEWAY_URL are required in production")

// NewOTPSender picks the sender named by OTP_SENDER.
func NewOTPSender() (OTPSender, error) {
	if config.OTPSender() == "sms" && config.SMSGatewayURL() != "" {
		return SMSGatewaySender{URL: config.SMSGatewayURL()}, nil
	}
	if config.IsProduction() {
		return nil, ErrSenderRequired
	}
	return LogSender{}, nil
}

// RandomCode returns a uniformly random six-digit code.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// OTPService binds short-lived single-use codes to phone numbers and turns a
// verified code into a session.
type OTPService struct {
	store       OTPStore
	sender      OTPSender
	users       repositories.UserRepository
	generate    func() (string, error)
	ttl         time.Duration
	maxAttempts int
	now         Clock
}

func NewOTPService(users repositories.UserRepository, store OTPStore, sender OTPSender) *OTPService {
	return &OTPService{
		store:       store,
		sender:      sender,
		users:       users,
		generate:    RandomCode,
		ttl:         config.OTPTTL(),
		maxAttempts: config.OTPMaxAttempts(),
		now:         time.Now,
	}
}

// WithGenerator replaces the code generator.
func (s *OTPService) WithGenerator(fn func() (string, error)) *OTPService {
	s.generate = fn
	return s
}

// WithClock replaces the time source.
func (s *OTPService) WithClock(now Clock) *OTPService {
	s.now = now
	return s
}

// RequestCode issues a new code for phone. Admin cannot be requested; it
// falls back to user.
func (s *OTPService) RequestCode(ctx context.Context, phone, role string) (*OTPIssued, error) {
	phone = strings.TrimSpace(phone)
	if role != models.RoleRestaurantOwner {
		role = models.RoleUser
	}
	issued, err := s.issue(ctx, phone, role)
	if err != nil {
		metrics.OTPRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.OTPRequests.WithLabelValues("issued").Inc()
	return issued, nil
}

// ResendCode replaces the pending code of phone with a fresh one.
func (s *OTPService) ResendCode(ctx context.Context, phone string) (*OTPIssued, error) {
	phone = strings.TrimSpace(phone)
	c, err := s.store.Get(ctx, phone)
	if errors.Is(err, ErrNoChallenge) {
		return nil, apperror.Authentication("No pending OTP for this phone number")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	issued, err := s.issue(ctx, phone, c.Role)
	if err != nil {
		metrics.OTPRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.OTPRequests.WithLabelValues("resent").Inc()
	return issued, nil
}

func (s *OTPService) issue(ctx context.Context, phone, role string) (*OTPIssued, error) {
	code, err := s.generate()
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("otp: generate: %w", err))
	}
	hash, err := auth.HashPassword(code)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("otp: hash: %w", err))
	}

	expires := s.now().Add(s.ttl)
	if err := s.store.Put(ctx, phone, OTPChallenge{CodeHash: hash, Role: role, ExpiresAt: expires}); err != nil {
		return nil, apperror.Internal(fmt.Errorf("otp: store: %w", err))
	}
	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		_, _ = s.store.Consume(ctx, phone, hash)
		return nil, apperror.Internal(fmt.Errorf("otp: send: %w", err))
	}
	return &OTPIssued{Phone: phone, ExpiresAt: expires}, nil
}

// VerifyCode consumes the pending code of phone. On success the user is
// found, or created with the requested role, and a token is minted.
func (s *OTPService) VerifyCode(ctx context.Context, phone, code string) (*AuthResult, error) {
	phone = strings.TrimSpace(phone)
	c, err := s.store.Get(ctx, phone)
	if errors.Is(err, ErrNoChallenge) {
		metrics.OTPRequests.WithLabelValues("missing").Inc()
		return nil, apperror.Authentication("OTP expired or not requested")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if !s.now().Before(c.ExpiresAt) {
		_, _ = s.store.Consume(ctx, phone, c.CodeHash)
		metrics.OTPRequests.WithLabelValues("expired").Inc()
		return nil, apperror.Authentication("OTP has expired")
	}
	if c.Attempts >= s.maxAttempts {
		_, _ = s.store.Consume(ctx, phone, c.CodeHash)
		return nil, apperror.Authentication("Too many attempts, request a new OTP")
	}

	if !auth.CheckPassword(c.CodeHash, code) {
		attempts, err := s.store.IncrAttempts(ctx, phone)
		if err == nil && attempts >= s.maxAttempts {
			_, _ = s.store.Consume(ctx, phone, c.CodeHash)
		}
		metrics.OTPRequests.WithLabelValues("invalid").Inc()
		return nil, apperror.Authentication("Invalid OTP")
	}

	// Only the caller that removes this exact challenge wins. A concurrent
	// verify sees it gone and a code issued by a resend in between survives.
	taken, err := s.store.Consume(ctx, phone, c.CodeHash)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !taken {
		return nil, apperror.Authentication("OTP expired or not requested")
	}
	metrics.OTPRequests.WithLabelValues("verified").Inc()

	user, created, err := s.userForPhone(ctx, phone, c.Role)
	if err != nil {
		return nil, err
	}
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &AuthResult{Token: token, User: user, IsNewUser: created}, nil
}

func (s *OTPService) userForPhone(ctx context.Context, phone, role string) (*models.User, bool, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		if !user.Active() {
			return nil, false, apperror.Authentication(deactivatedMessage)
		}
		if !user.IsPhoneVerified {
			user.IsPhoneVerified = true
			if err := s.users.Update(ctx, user); err != nil {
				return nil, false, apperror.Internal(err)
			}
		}
		return user, false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, false, apperror.Internal(err)
	}

	user = &models.User{PhoneNumber: &phone, Role: role, IsPhoneVerified: true}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race with another verify for the same phone.
			if existing, ferr := s.users.FindByPhone(ctx, phone); ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, apperror.Internal(err)
	}
	return user, true, nil
}
