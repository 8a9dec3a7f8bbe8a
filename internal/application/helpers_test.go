package application

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/example/plateforme-admin/internal/apiclient"
	"github.com/example/plateforme-admin/internal/logging"
	"github.com/example/plateforme-admin/internal/session"
	"github.com/example/plateforme-admin/internal/testfixtures"
)

type stubResponse struct {
	body string
	err  error
}

// stubBackend answers requests from canned JSON keyed by "METHOD /path".
// Unknown routes answer 404.
type stubBackend struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	requests  []apiclient.Request
}

func newStubBackend() *stubBackend {
	return &stubBackend{responses: make(map[string]stubResponse)}
}

func (b *stubBackend) on(method, path, body string) *stubBackend {
	b.responses[method+" "+path] = stubResponse{body: body}
	return b
}

func (b *stubBackend) fail(method, path string, err error) *stubBackend {
	b.responses[method+" "+path] = stubResponse{err: err}
	return b
}

func (b *stubBackend) Do(_ context.Context, req apiclient.Request, out any) error {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	resp, ok := b.responses[req.Method+" "+req.Path]
	b.mu.Unlock()

	if !ok {
		return &apiclient.APIError{StatusCode: http.StatusNotFound}
	}
	if resp.err != nil {
		return resp.err
	}
	if out == nil || resp.body == "" {
		return nil
	}
	return json.Unmarshal([]byte(resp.body), out)
}

func (b *stubBackend) lastRequest(t *testing.T) apiclient.Request {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatalf("expected at least one backend request")
	}
	return b.requests[len(b.requests)-1]
}

// liveStack wires the real client and session manager against a chi fake.
type liveStack struct {
	backend *testfixtures.Backend
	client  *apiclient.Client
	manager *session.Manager
	clock   *testfixtures.Clock
	kicked  int
}

func newLiveStack(t *testing.T, backend *testfixtures.Backend) *liveStack {
	t.Helper()
	stack := &liveStack{
		backend: backend,
		clock:   testfixtures.NewClock(testfixtures.ReferenceTime()),
	}
	stack.manager = session.NewManagerWithLogger(session.NewMemoryStore(), stack.clock.NowFunc(), logging.Discard())
	client, err := apiclient.New(apiclient.Config{
		BaseURL:        backend.BaseURL(),
		Logger:         logging.Discard(),
		OnUnauthorized: func(context.Context) { stack.kicked++ },
	}, stack.manager)
	if err != nil {
		t.Fatalf("apiclient.New returned error: %v", err)
	}
	stack.client = client
	return stack
}

var errBoom = &apiclient.NetworkError{Method: http.MethodGet, Path: "/x", Err: context.DeadlineExceeded}
