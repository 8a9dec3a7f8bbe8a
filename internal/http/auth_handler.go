package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/plateforme-admin/internal/application"
)

type authService interface {
	Login(ctx context.Context, creds application.Credentials) (application.SignedIn, error)
	Register(ctx context.Context, form application.Registration) (application.SignedIn, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, change application.PasswordChange) error
	Profile(ctx context.Context) (application.Profile, error)
	UpdateProfile(ctx context.Context, input application.ProfileInput) (application.Profile, error)
}

// AuthHandler serves the account pages: login, logout, sign-up, password
// reset and the profile.
type AuthHandler struct {
	service   authService
	guard     SessionGuard
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(service authService, guard SessionGuard, logger *slog.Logger) *AuthHandler {
	logger = defaultLogger(logger)
	return &AuthHandler{
		service:   service,
		guard:     guard,
		responder: newResponder(logger),
		logger:    logger,
	}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h == nil || h.service == nil {
		newResponder(nil).writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return false
	}
	return true
}

type homeResponse struct {
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"displayName,omitempty"`
}

// Home reports whether a session is active without contacting the backend.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	resp := homeResponse{}
	if h.guard != nil && h.guard.Check(ctx).Authenticated() {
		if record, ok := h.guard.Current(ctx); ok {
			resp = homeResponse{Authenticated: true, DisplayName: record.DisplayName}
		}
	}
	h.responder.success(ctx, w, http.StatusOK, resp)
}

// Login authenticates and stores the session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var creds application.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	signed, err := h.service.Login(ctx, creds)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.log(ctx, "Login", "user_id", signed.UserID).InfoContext(ctx, "user signed in")
	h.responder.success(ctx, w, http.StatusOK, signed)
}

// Logout ends the session and points the client at the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.service.Logout(ctx); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, page{State: stateSuccess, Location: LoginPath})
}

// Register creates an account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var form application.Registration
	if err := decodeJSON(r, &form); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	signed, err := h.service.Register(ctx, form)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusCreated, signed)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type confirmation struct {
	Message string `json:"message"`
}

// ForgotPassword asks the backend to email a reset link.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.ForgotPassword(ctx, req.Email); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, confirmation{
		Message: "Un lien de réinitialisation a été envoyé à votre adresse email.",
	})
}

// ChangePassword applies a reset. The reset token may come from the body or
// from the ?token= query of the emailed link.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var change application.PasswordChange
	if err := decodeJSON(r, &change); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(change.Token) == "" {
		change.Token = r.URL.Query().Get("token")
	}
	if err := h.service.ChangePassword(ctx, change); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, confirmation{
		Message: "Votre mot de passe a été modifié.",
	})
}

// Profile returns the signed-in user's account.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	profile, err := h.service.Profile(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, profile)
}

// UpdateProfile saves the editable profile fields.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var input application.ProfileInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	profile, err := h.service.UpdateProfile(ctx, input)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, profile)
}
