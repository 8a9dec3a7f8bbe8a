package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/plateforme-admin/internal/apiclient"
	"github.com/example/plateforme-admin/internal/logging"
	"github.com/example/plateforme-admin/internal/session"
	"github.com/example/plateforme-admin/internal/testfixtures"
)

func TestAuthService_LoginScenario(t *testing.T) {
	t.Parallel()

	tokens := testfixtures.NewTokenFactory("")
	now := testfixtures.ReferenceTime()
	token := tokens.Issue(t, "awa@example.com", now.Add(time.Hour))

	var received loginRequest
	backend := testfixtures.NewBackend(t, func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
			if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
				testfixtures.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "corps invalide"})
				return
			}
			if received.Password != "s3cret-pass" {
				testfixtures.WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Identifiants invalides"})
				return
			}
			testfixtures.WriteJSON(w, http.StatusOK, map[string]any{
				"token": token, "idUtilisateur": 7, "nom": "Diallo", "prenom": "Awa", "email": "awa@example.com",
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(testfixtures.RequireBearer(token))
			r.Get("/presentations/all", testfixtures.Respond(http.StatusOK, []any{}))
		})
	})
	stack := newLiveStack(t, backend)
	auth := NewAuthServiceWithLogger(stack.client, stack.manager, logging.Discard())
	ctx := context.Background()

	if stack.manager.Authenticated(ctx) {
		t.Fatalf("expected no session before login")
	}

	signed, err := auth.Login(ctx, Credentials{Email: " awa@example.com ", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if received.Email != "awa@example.com" {
		t.Fatalf("expected trimmed email sent, got %q", received.Email)
	}
	if !signed.Active || signed.UserID != "7" || signed.DisplayName != "Awa Diallo" {
		t.Fatalf("unexpected sign-in %+v", signed)
	}
	if !signed.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry from token, got %v", signed.ExpiresAt)
	}
	if !stack.manager.Authenticated(ctx) {
		t.Fatalf("expected guard to pass after login")
	}

	presentations := newPresentationService(stack.client, nil)
	if _, err := presentations.List(ctx); err != nil {
		t.Fatalf("authenticated call failed: %v", err)
	}
	requests := backend.Requests()
	if last := requests[len(requests)-1]; last.Authorization != "Bearer "+token {
		t.Fatalf("expected bearer token on follow-up call, got %q", last.Authorization)
	}
}

func TestAuthService_LoginRejected(t *testing.T) {
	t.Parallel()

	backend := testfixtures.NewBackend(t, func(r chi.Router) {
		r.Post("/auth/login", testfixtures.Respond(http.StatusUnauthorized, map[string]string{"message": "Identifiants invalides"}))
	})
	stack := newLiveStack(t, backend)
	auth := NewAuthServiceWithLogger(stack.client, stack.manager, logging.Discard())

	_, err := auth.Login(context.Background(), Credentials{Email: "awa@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if UserMessage(err) != MessageInvalidCredentials {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
	if _, ok := stack.manager.Current(context.Background()); ok {
		t.Fatalf("expected no session after failed login")
	}

	_, err = auth.Login(context.Background(), Credentials{Email: "pas-un-email", Password: ""})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["email"] == "" || vErr.FieldErrors["motDePasse"] == "" {
		t.Fatalf("expected field errors for email and motDePasse, got %v", err)
	}
}

func TestAuthService_UnauthorizedScenario(t *testing.T) {
	t.Parallel()

	tokens := testfixtures.NewTokenFactory("")
	token := tokens.Issue(t, "awa@example.com", testfixtures.ReferenceTime().Add(time.Hour))
	backend := testfixtures.NewBackend(t, func(r chi.Router) {
		r.Get("/presentations/all", testfixtures.Respond(http.StatusUnauthorized, map[string]string{"message": "Jeton révoqué"}))
	})
	stack := newLiveStack(t, backend)
	ctx := context.Background()
	if err := stack.manager.Establish(ctx, session.Record{Token: token, DisplayName: "Awa"}); err != nil {
		t.Fatalf("Establish returned error: %v", err)
	}

	_, err := newPresentationService(stack.client, nil).List(ctx)
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if stack.manager.Token(ctx) != "" {
		t.Fatalf("expected session cleared after 401")
	}
	if stack.kicked != 1 {
		t.Fatalf("expected one redirect notification, got %d", stack.kicked)
	}
	if n := backend.Count(http.MethodGet, "/api/presentations/all"); n != 1 {
		t.Fatalf("expected exactly one attempt, got %d", n)
	}
}

func TestAuthService_RegisterWithoutToken(t *testing.T) {
	t.Parallel()

	backend := newStubBackend().on(http.MethodPost, "/auth/register", `{"idUtilisateur": "12"}`)
	manager := session.NewManagerWithLogger(session.NewMemoryStore(), nil, logging.Discard())
	auth := NewAuthServiceWithLogger(backend, manager, logging.Discard())

	signed, err := auth.Register(context.Background(), Registration{
		FirstName: "Awa", LastName: "Diallo", Position: "Analyste", BadgeID: "M-12",
		Email: "awa@example.com", Password: "long-enough",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if signed.Active || signed.UserID != "12" || signed.DisplayName != "Awa Diallo" {
		t.Fatalf("unexpected registration %+v", signed)
	}
	if _, ok := manager.Current(context.Background()); ok {
		t.Fatalf("expected no session without token")
	}
	req, ok := backend.lastRequest(t).Body.(registerRequest)
	if !ok || req.BadgeID != "M-12" || req.Password != "long-enough" {
		t.Fatalf("unexpected register payload %#v", backend.lastRequest(t).Body)
	}

	_, err = auth.Register(context.Background(), Registration{Email: "awa@example.com", Password: "short"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["motDePasse"] == "" || vErr.FieldErrors["prenom"] == "" {
		t.Fatalf("expected validation errors, got %v", err)
	}
}

func TestAuthService_PasswordFlows(t *testing.T) {
	t.Parallel()

	backend := newStubBackend().
		on(http.MethodPost, "/auth/forgot-password", ``).
		on(http.MethodPost, "/auth/change-password", ``)
	auth := NewAuthServiceWithLogger(backend, session.NewManager(nil, nil), logging.Discard())
	ctx := context.Background()

	if err := auth.ForgotPassword(ctx, "awa@example.com"); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	if err := auth.ForgotPassword(ctx, "nope"); ErrorKind(err) != "validation" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := auth.ChangePassword(ctx, PasswordChange{Token: "reset", NewPassword: "brand-new-pass"}); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	body, ok := backend.lastRequest(t).Body.(changePasswordRequest)
	if !ok || body.Token != "reset" || body.NewPassword != "brand-new-pass" {
		t.Fatalf("unexpected change payload %#v", backend.lastRequest(t).Body)
	}
}

func TestAuthService_ProfileRefreshesSession(t *testing.T) {
	t.Parallel()

	token := testfixtures.NewTokenFactory("").Issue(t, "awa@example.com", time.Now().Add(time.Hour))
	backend := newStubBackend().
		on(http.MethodGet, "/auth/profile", `{"idUtilisateur": 7, "prenom": "Awa", "nom": "Diallo", "email": "awa@example.com",
			"poste": "Analyste", "matricule": "M-7", "departement": "Finance", "dateInscription": "2024-01-15T08:00:00", "photoProfil": "awa.png"}`).
		on(http.MethodPut, "/auth/profile", `{"idUtilisateur": 7, "prenom": "Awa", "nom": "Diallo-Sow", "email": "awa@example.com"}`)
	manager := session.NewManagerWithLogger(session.NewMemoryStore(), nil, logging.Discard())
	if err := manager.Establish(context.Background(), session.Record{Token: token, DisplayName: "Awa Diallo"}); err != nil {
		t.Fatalf("Establish returned error: %v", err)
	}
	auth := NewAuthServiceWithLogger(backend, manager, logging.Discard())

	profile, err := auth.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	if profile.Department != "Finance" || profile.BadgeID != "M-7" || profile.RegisteredAt.Year() != 2024 || profile.PhotoURL != "awa.png" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	updated, err := auth.UpdateProfile(context.Background(), ProfileInput{FirstName: "Awa", LastName: "Diallo-Sow", Email: "awa@example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.LastName != "Diallo-Sow" {
		t.Fatalf("unexpected updated profile %+v", updated)
	}
	record, ok := manager.Current(context.Background())
	if !ok || record.DisplayName != "Awa Diallo-Sow" || record.Token != token {
		t.Fatalf("expected refreshed display name with same token, got %+v", record)
	}
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()

	token := testfixtures.NewTokenFactory("").Issue(t, "awa@example.com", time.Now().Add(time.Hour))
	manager := session.NewManagerWithLogger(session.NewMemoryStore(), nil, logging.Discard())
	_ = manager.Establish(context.Background(), session.Record{Token: token})
	auth := NewAuthServiceWithLogger(newStubBackend(), manager, logging.Discard())

	if err := auth.Logout(context.Background()); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if manager.Token(context.Background()) != "" {
		t.Fatalf("expected session cleared")
	}
}
