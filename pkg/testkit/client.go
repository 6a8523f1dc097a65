// Package testkit drives HTTP handlers in tests: a request builder with
// bearer tokens and helpers that decode the response envelope.
//
//	api := testkit.New(t, k.Handler())
//	res := api.Post("/api/v1/orders", body).As(token).Do()
//	res.AssertStatus(http.StatusCreated)
//	var order models.Order
//	res.Data(&order)
package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/auth"
)

// Client sends requests straight to a handler.
type Client struct {
	t       *testing.T
	handler http.Handler
}

func New(t *testing.T, handler http.Handler) *Client {
	return &Client{t: t, handler: handler}
}

// Token mints an access token for userID with role.
func Token(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

// Request is built fluently and sent with Do.
type Request struct {
	c       *Client
	method  string
	path    string
	body    any
	headers map[string]string
}

func (c *Client) request(method, path string, body any) *Request {
	return &Request{c: c, method: method, path: path, body: body, headers: map[string]string{}}
}

func (c *Client) Get(path string) *Request { return c.request(http.MethodGet, path, nil) }

func (c *Client) Post(path string, body any) *Request {
	return c.request(http.MethodPost, path, body)
}

func (c *Client) Put(path string, body any) *Request { return c.request(http.MethodPut, path, body) }

func (c *Client) Patch(path string, body any) *Request {
	return c.request(http.MethodPatch, path, body)
}

func (c *Client) Delete(path string) *Request { return c.request(http.MethodDelete, path, nil) }

// As sends the request with a bearer token. An empty token is anonymous.
func (r *Request) As(token string) *Request {
	if token != "" {
		r.headers["Authorization"] = "Bearer " + token
	}
	return r
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Do serves the request and records the response.
func (r *Request) Do() *Response {
	r.c.t.Helper()

	var body io.Reader
	switch b := r.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	case []byte:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(r.c.t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.c.handler.ServeHTTP(rec, req)
	return &Response{t: r.c.t, Code: rec.Code, Header: rec.Header(), Body: rec.Body.Bytes()}
}

// Response is a recorded answer.
type Response struct {
	t      *testing.T
	Code   int
	Header http.Header
	Body   []byte
}

// Envelope is the decoded standard body.
type Envelope struct {
	Status      string            `json:"status"`
	Message     string            `json:"message"`
	Errors      map[string]string `json:"errors"`
	Data        json.RawMessage   `json:"data"`
	Results     int               `json:"results"`
	Total       int64             `json:"total"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
}

// AssertStatus fails the test now when the code differs, printing the body.
func (r *Response) AssertStatus(code int) *Response {
	r.t.Helper()
	require.Equal(r.t, code, r.Code, "body: %s", r.Body)
	return r
}

func (r *Response) Envelope() Envelope {
	r.t.Helper()
	var env Envelope
	require.NoError(r.t, json.Unmarshal(r.Body, &env), "body: %s", r.Body)
	return env
}

// Data decodes the envelope's data into dest.
func (r *Response) Data(dest any) {
	r.t.Helper()
	env := r.Envelope()
	require.NotEmpty(r.t, env.Data, "no data in body: %s", r.Body)
	require.NoError(r.t, json.Unmarshal(env.Data, dest))
}

// Message returns the envelope message.
func (r *Response) Message() string {
	r.t.Helper()
	return r.Envelope().Message
}

// AssertError checks an error envelope's status code and message.
func (r *Response) AssertError(code int, message string) {
	r.t.Helper()
	r.AssertStatus(code)
	env := r.Envelope()
	assert.Equal(r.t, "error", env.Status)
	assert.Equal(r.t, message, env.Message)
}
