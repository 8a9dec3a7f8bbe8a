package testfixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// RecordedRequest is what the fake backend saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
}

// Backend is a fake REST backend mounted under /api.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewBackend starts a fake backend whose routes are registered by routes.
// The server is closed when the test ends.
func NewBackend(tb testing.TB, routes func(r chi.Router)) *Backend {
	tb.Helper()

	b := &Backend{}
	router := chi.NewRouter()
	router.Use(b.record)
	router.Route("/api", routes)
	b.Server = httptest.NewServer(router)
	tb.Cleanup(b.Server.Close)
	return b
}

// BaseURL returns the API root of the fake backend.
func (b *Backend) BaseURL() string {
	return b.Server.URL + "/api"
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many requests matched method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, req := range b.Requests() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// RequireBearer rejects requests whose bearer token differs from token with 401.
func RequireBearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Non autorisé"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSON writes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Respond returns a handler that always answers status with v.
func Respond(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, v)
	}
}
