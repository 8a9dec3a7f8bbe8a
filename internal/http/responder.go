package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/plateforme-admin/internal/apiclient"
	"github.com/example/plateforme-admin/internal/application"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/connexion"

const (
	stateSuccess  = "success"
	stateError    = "error"
	stateRedirect = "redirect"
)

var (
	errBadRequestBody = errors.New("Requête invalide.")
	errInvalidID      = errors.New("Identifiant invalide.")
)

// page is the envelope returned by every page handler.
type page struct {
	State    string            `json:"state"`
	Data     any               `json:"data,omitempty"`
	Message  string            `json:"message,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Location string            `json:"location,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) success(ctx context.Context, w http.ResponseWriter, status int, data any) {
	r.writeJSON(ctx, w, status, page{State: stateSuccess, Data: data})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	r.writeJSON(ctx, w, status, page{State: stateError, Message: message})
}

// redirectToLogin answers 303 to the login page with no return path.
func (r responder) redirectToLogin(ctx context.Context, w http.ResponseWriter) {
	w.Header().Set("Location", LoginPath)
	r.writeJSON(ctx, w, http.StatusSeeOther, page{
		State:    stateRedirect,
		Message:  application.MessageSessionExpired,
		Location: LoginPath,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, nil)
		return
	}
	if errors.Is(err, apiclient.ErrUnauthorized) && !errors.Is(err, application.ErrInvalidCredentials) {
		r.redirectToLogin(ctx, w)
		return
	}

	r.writeJSON(ctx, w, statusForError(err), page{
		State:   stateError,
		Message: application.UserMessage(err),
		Errors:  application.FieldErrors(err),
	})
}

func statusForError(err error) int {
	var (
		vErr   *application.ValidationError
		netErr *apiclient.NetworkError
		apiErr *apiclient.APIError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &netErr), errors.Is(err, application.ErrMissingToken):
		return http.StatusBadGateway
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requête invalide."
	case http.StatusUnauthorized:
		return "Authentification requise."
	case http.StatusNotFound:
		return application.MessageNotFound
	case http.StatusMethodNotAllowed:
		return "Méthode non autorisée."
	case http.StatusUnprocessableEntity:
		return application.MessageValidation
	default:
		return application.MessageUnexpected
	}
}
