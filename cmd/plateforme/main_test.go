package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/plateforme-admin/internal/config"
	"github.com/example/plateforme-admin/internal/logging"
	"github.com/example/plateforme-admin/internal/testfixtures"
)

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	return config.Config{
		APIBaseURL:       baseURL,
		HTTPTimeout:      2 * time.Second,
		UploadsBaseURL:   "http://files.test/uploads",
		ListenPort:       0,
		SessionDSN:       "file:" + filepath.Join(t.TempDir(), "session.db"),
		SessionSecret:    "secret-de-test",
		LogLevel:         "error",
		LogFormat:        "text",
		StatsConcurrency: 2,
	}
}

func runCommand(t *testing.T, cfg config.Config, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), cfg, args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_LoginStatusLogout(t *testing.T) {
	t.Parallel()

	tokens := testfixtures.NewTokenFactory("")
	token := tokens.Issue(t, "awa@example.com", time.Now().Add(time.Hour))
	backend := testfixtures.NewBackend(t, func(r chi.Router) {
		r.Post("/auth/login", testfixtures.Respond(http.StatusOK, map[string]any{
			"token": token, "idUtilisateur": 7, "nom": "Diallo", "prenom": "Awa", "email": "awa@example.com",
		}))
	})
	cfg := testConfig(t, backend.BaseURL())

	code, out, errOut := runCommand(t, cfg, "", "status")
	if code != 0 || !strings.Contains(out, "Aucune session active") {
		t.Fatalf("status before login: code=%d out=%q err=%q", code, out, errOut)
	}

	code, out, errOut = runCommand(t, cfg, "s3cret-pass\n", "login", "-email", "awa@example.com")
	if code != 0 || !strings.Contains(out, "Awa Diallo") {
		t.Fatalf("login: code=%d out=%q err=%q", code, out, errOut)
	}

	code, out, _ = runCommand(t, cfg, "", "status")
	if code != 0 || !strings.Contains(out, "Connecté en tant que Awa Diallo") {
		t.Fatalf("expected the session to survive across runs, got code=%d out=%q", code, out)
	}

	code, out, _ = runCommand(t, cfg, "", "logout")
	if code != 0 || !strings.Contains(out, "Déconnecté") {
		t.Fatalf("logout: code=%d out=%q", code, out)
	}
	code, out, _ = runCommand(t, cfg, "", "status")
	if code != 0 || !strings.Contains(out, "Aucune session active") {
		t.Fatalf("status after logout: code=%d out=%q", code, out)
	}
}

func TestRun_LoginRejected(t *testing.T) {
	t.Parallel()

	backend := testfixtures.NewBackend(t, func(r chi.Router) {
		r.Post("/auth/login", testfixtures.Respond(http.StatusUnauthorized, map[string]string{"message": "Identifiants invalides"}))
	})
	cfg := testConfig(t, backend.BaseURL())

	code, _, errOut := runCommand(t, cfg, "", "login", "-email", "awa@example.com", "-password", "faux")
	if code != 1 || !strings.Contains(errOut, "Email ou mot de passe incorrect.") {
		t.Fatalf("expected rejected login, got code=%d err=%q", code, errOut)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1/api")

	if code, _, errOut := runCommand(t, cfg, "", "inconnue"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("expected unknown command, got code=%d err=%q", code, errOut)
	}
	if code, _, errOut := runCommand(t, cfg, "", "login"); code != 2 || !strings.Contains(errOut, "-email is required") {
		t.Fatalf("expected missing email, got code=%d err=%q", code, errOut)
	}
	if code, out, _ := runCommand(t, cfg, "", "help"); code != 0 || !strings.Contains(out, "usage: plateforme") {
		t.Fatalf("expected usage, got code=%d out=%q", code, out)
	}
}

func TestApp_HandlerServesGateway(t *testing.T) {
	t.Parallel()

	backend := testfixtures.NewBackend(t, func(r chi.Router) {})
	cfg := testConfig(t, backend.BaseURL())
	a, err := newApp(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("newApp returned error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	server := httptest.NewServer(a.handler())
	t.Cleanup(server.Close)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(server.URL + "/plateforme")
	if err != nil {
		t.Fatalf("GET /plateforme: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/connexion" {
		t.Fatalf("expected redirect to login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}
