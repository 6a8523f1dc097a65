package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	gebetahttp "github.com/gebeta-app/gebeta/pkg/http"
)

// MockTransport answers outbound requests made through pkg/http from stubs
// and records them.
//
//	mt := testkit.MockHTTP(t)
//	mt.Stub(http.MethodPost, "https://sms.example", http.StatusOK, `{"ok":true}`)
type MockTransport struct {
	mu    sync.Mutex
	stubs []stub
	calls []Call
}

type stub struct {
	method string
	prefix string
	status int
	body   string
	hits   int
}

// Call is one intercepted request.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// MockHTTP installs a MockTransport on the shared client and restores the
// real transport when the test ends.
func MockHTTP(t *testing.T) *MockTransport {
	mt := &MockTransport{}
	gebetahttp.DefaultClient.Transport = mt
	t.Cleanup(gebetahttp.ResetTransport)
	return mt
}

// Stub answers requests whose URL starts with prefix. An empty method
// matches any method.
func (mt *MockTransport) Stub(method, prefix string, status int, body string) *MockTransport {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.stubs = append(mt.stubs, stub{method: method, prefix: prefix, status: status, body: body})
	return mt
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.calls = append(mt.calls, Call{Method: req.Method, URL: req.URL.String(), Header: req.Header.Clone(), Body: body})

	for i := range mt.stubs {
		s := &mt.stubs[i]
		if (s.method == "" || s.method == req.Method) && strings.HasPrefix(req.URL.String(), s.prefix) {
			s.hits++
			return &http.Response{
				StatusCode: s.status,
				Status:     fmt.Sprintf("%d %s", s.status, http.StatusText(s.status)),
				Header:     http.Header{"Content-Type": {"application/json"}},
				Body:       io.NopCloser(bytes.NewBufferString(s.body)),
				Request:    req,
			}, nil
		}
	}
	return nil, fmt.Errorf("testkit: unexpected outbound %s %s", req.Method, req.URL)
}

// Calls returns the intercepted requests in order.
func (mt *MockTransport) Calls() []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]Call(nil), mt.calls...)
}

// Unused lists stubs that were never hit.
func (mt *MockTransport) Unused() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var out []string
	for _, s := range mt.stubs {
		if s.hits == 0 {
			out = append(out, s.method+" "+s.prefix)
		}
	}
	return out
}
