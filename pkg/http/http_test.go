package http_test

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/http"
)

func TestPostSendsJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Signature"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(gohttp.StatusAccepted)
		_, _ = w.Write([]byte(`{"queued":true}`))
	}))
	defer srv.Close()

	resp, err := http.Post(srv.URL).Header("X-Signature", "secret").Body(map[string]string{"to": "+251911223344"}).Send()
	require.NoError(t, err)
	require.NoError(t, resp.Throw())
	assert.Equal(t, "+251911223344", got["to"])

	var out struct{ Queued bool }
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.Queued)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(gohttp.StatusBadGateway)
			return
		}
		w.WriteHeader(gohttp.StatusOK)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL).Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		calls.Add(1)
		w.WriteHeader(gohttp.StatusBadRequest)
		_, _ = w.Write([]byte("bad phone"))
	}))
	defer srv.Close()

	resp, err := http.Post(srv.URL).Retry(3, time.Millisecond).Body("x").Send()
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorContains(t, resp.Throw(), "bad phone")
}

func TestCancelledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := http.Get(srv.URL).WithContext(ctx).Retry(5, time.Second).Send()
	assert.Error(t, err)
}
