package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/pkg/testkit"
)

func TestSMSGatewaySenderPostsCode(t *testing.T) {
	mt := testkit.MockHTTP(t)
	mt.Stub(http.MethodPost, "https://sms.example/send", http.StatusOK, `{"queued":true}`)

	sender := SMSGatewaySender{URL: "https://sms.example/send"}
	require.NoError(t, sender.SendCode(context.Background(), "+251911223344", "482913"))

	calls := mt.Calls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"to":"+251911223344","message":"Your Gebeta verification code is 482913"}`, string(calls[0].Body))
}

func TestSMSGatewaySenderSurfacesRejection(t *testing.T) {
	mt := testkit.MockHTTP(t)
	mt.Stub(http.MethodPost, "https://sms.example/send", http.StatusBadRequest, `{"error":"bad number"}`)

	err := SMSGatewaySender{URL: "https://sms.example/send"}.SendCode(context.Background(), "+1", "000000")
	assert.Error(t, err)
}

func TestNewOTPSenderRefusesLogSenderInProduction(t *testing.T) {
	t.Cleanup(func() {
		config.Set("APP_ENV", "")
		config.Set("OTP_SENDER", "")
		config.Set("SMS_GATEWAY_URL", "")
	})

	config.Set("APP_ENV", "production")
	config.Set("OTP_SENDER", "log")
	_, err := NewOTPSender()
	assert.ErrorIs(t, err, ErrSenderRequired)

	config.Set("OTP_SENDER", "sms")
	config.Set("SMS_GATEWAY_URL", "https://sms.example/send")
	sender, err := NewOTPSender()
	require.NoError(t, err)
	assert.Equal(t, SMSGatewaySender{URL: "https://sms.example/send"}, sender)

	config.Set("APP_ENV", "development")
	config.Set("OTP_SENDER", "log")
	sender, err = NewOTPSender()
	require.NoError(t, err)
	assert.Equal(t, LogSender{}, sender)
}
