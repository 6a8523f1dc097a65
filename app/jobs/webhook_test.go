package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/notification"
)

func TestWebhookPostsEventEnvelope(t *testing.T) {
	var got map[string]any
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Gebeta-Event")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	job := &Webhook{URL: srv.URL, Event: "order.created", Payload: json.RawMessage(`{"orderNumber":"ORD-1"}`)}
	require.NoError(t, job.Handle(context.Background()))

	assert.Equal(t, "order.created", header)
	assert.Equal(t, "order.created", got["event"])
	assert.Equal(t, map[string]any{"orderNumber": "ORD-1"}, got["data"])
}

func TestWebhookFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	job := &Webhook{URL: srv.URL, Event: "x", Payload: json.RawMessage(`{}`)}
	assert.Error(t, job.Handle(context.Background()))
}

func TestWebhookWithoutURL(t *testing.T) {
	job := &Webhook{Event: "x", Payload: json.RawMessage(`{}`)}
	assert.ErrorIs(t, job.Handle(context.Background()), notification.ErrChannelDisabled)
}
