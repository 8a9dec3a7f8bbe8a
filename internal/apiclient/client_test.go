package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/plateforme-admin/internal/logging"
	"github.com/example/plateforme-admin/internal/testfixtures"
)

type stubSession struct {
	mu          sync.Mutex
	token       string
	invalidated int
}

func (s *stubSession) Token(context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *stubSession) Invalidate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated++
	s.token = ""
	return nil
}

func newTestClient(t *testing.T, server *httptest.Server, session SessionHandle, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = server.URL + "/api"
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.RequestID == nil {
		cfg.RequestID = testfixtures.NewIDGenerator("").NextFunc()
	}
	client, err := New(cfg, session)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestClientAttachesBearerTokenWhenPresent(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		headers []http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Clone())
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(server.Close)

	session := &stubSession{token: "a.b.c"}
	client := newTestClient(t, server, session, Config{})

	var out []map[string]any
	if err := client.Get(context.Background(), "/departements", nil, &out); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	session.token = ""
	if err := client.Get(context.Background(), "/departements", nil, &out); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(headers) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(headers))
	}
	if got := headers[0].Get("Authorization"); got != "Bearer a.b.c" {
		t.Fatalf("expected bearer header, got %q", got)
	}
	if got := headers[1].Get("Authorization"); got != "" {
		t.Fatalf("expected no authorization header without session, got %q", got)
	}
	if headers[0].Get("X-Request-ID") != "req-1" || headers[1].Get("X-Request-ID") != "req-2" {
		t.Fatalf("unexpected request ids: %q %q", headers[0].Get("X-Request-ID"), headers[1].Get("X-Request-ID"))
	}
	if headers[0].Get("Content-Type") != "application/json" {
		t.Fatalf("expected JSON content type, got %q", headers[0].Get("Content-Type"))
	}
}

func TestClientBuildsPathAndQuery(t *testing.T) {
	t.Parallel()

	var gotURL *url.URL
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL, gotMethod = r.URL, r.Method
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"idCommentaire": 4}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server, nil, Config{})
	query := url.Values{"idPresentation": {"12"}, "contenu": {"Très bien"}}
	var out struct {
		ID int `json:"idCommentaire"`
	}
	if err := client.Post(context.Background(), "commentaires", query, nil, &out); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if gotMethod != http.MethodPost || gotURL.Path != "/api/commentaires" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotURL.Path)
	}
	if gotURL.Query().Get("contenu") != "Très bien" || gotURL.Query().Get("idPresentation") != "12" {
		t.Fatalf("unexpected query %q", gotURL.RawQuery)
	}
	if out.ID != 4 {
		t.Fatalf("expected decoded id 4, got %d", out.ID)
	}
}

func TestClientUnauthorizedClearsSessionAndNotifies(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	notified := 0
	session := &stubSession{token: "a.b.c"}
	client := newTestClient(t, server, session, Config{
		OnUnauthorized: func(context.Context) { notified++ },
	})

	err := client.Get(context.Background(), "/presentations/all", nil, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if session.invalidated != 1 || session.Token(context.Background()) != "" {
		t.Fatalf("expected session invalidated once, got %d", session.invalidated)
	}
	if notified != 1 {
		t.Fatalf("expected unauthorized hook once, got %d", notified)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected no retry, got %d calls", got)
	}
}

func TestClientMapsErrorResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantField   string
	}{
		{name: "structured message", status: http.StatusBadRequest, body: `{"message":"Code déjà utilisé","errors":{"code":"doublon"}}`, wantMessage: "Code déjà utilisé", wantField: "doublon"},
		{name: "error key", status: http.StatusConflict, body: `{"error":"Conflit"}`, wantMessage: "Conflit"},
		{name: "plain text", status: http.StatusBadRequest, body: "Email invalide", wantMessage: "Email invalide"},
		{name: "html page", status: http.StatusInternalServerError, body: "<html>oops</html>", wantMessage: ""},
		{name: "not found", status: http.StatusNotFound, body: "", wantMessage: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(server.Close)

			client := newTestClient(t, server, nil, Config{})
			err := client.Delete(context.Background(), "/departements/1")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMessage {
				t.Fatalf("unexpected error %+v", apiErr)
			}
			if tt.wantField != "" && apiErr.Fields["code"] != tt.wantField {
				t.Fatalf("expected field error %q, got %v", tt.wantField, apiErr.Fields)
			}
			if tt.status == http.StatusNotFound && !IsNotFound(err) {
				t.Fatalf("expected IsNotFound to report true")
			}
		})
	}
}

func TestClientNetworkFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server, nil, Config{})
	server.Close()

	err := client.Get(context.Background(), "/departements/test", nil, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Path != "/departements/test" {
		t.Fatalf("unexpected path %q", netErr.Path)
	}
}

func TestClientTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := newTestClient(t, server, nil, Config{Timeout: 50 * time.Millisecond})
	err := client.Get(context.Background(), "/presentations/all", nil, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError on timeout, got %v", err)
	}
}

func TestClientMultipartOrdering(t *testing.T) {
	t.Parallel()

	type part struct{ name, filename, value string }
	var parts []part
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		reader, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for {
			p, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(p)
			parts = append(parts, part{p.FormName(), p.FileName(), string(data)})
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(server.Close)

	form := NewMultipart("fichiers").
		AddField("sujet", "Bilan").
		AddField("statut", "PLANIFIE").
		AddFile(File{Name: "a.pdf", ContentType: "application/pdf", Content: []byte("A")}).
		AddFile(File{Name: "b.txt", Content: []byte("B")})

	client := newTestClient(t, server, nil, Config{})
	if err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/presentations/create", Form: form}, nil); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}

	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Fatalf("expected multipart content type, got %q", contentType)
	}
	want := []part{
		{"sujet", "", "Bilan"},
		{"statut", "", "PLANIFIE"},
		{"fichiers", "a.pdf", "A"},
		{"fichiers", "b.txt", "B"},
	}
	if len(parts) != len(want) {
		t.Fatalf("expected %d parts, got %d: %+v", len(want), len(parts), parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Fatalf("part %d: expected %+v, got %+v", i, want[i], parts[i])
		}
	}
}

func TestClientDecodeFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server, nil, Config{})
	var out []string
	if err := client.Get(context.Background(), "/departements", nil, &out); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	var text string
	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Connexion OK")
	}))
	t.Cleanup(plain.Close)
	if err := newTestClient(t, plain, nil, Config{}).Get(context.Background(), "/departements/test", nil, &text); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if text != "Connexion OK" {
		t.Fatalf("expected plain text body, got %q", text)
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{BaseURL: "/api"}, nil); err == nil {
		t.Fatalf("expected error for relative base URL")
	}
}
