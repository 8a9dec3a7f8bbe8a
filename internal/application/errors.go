package application

import (
	"errors"

	"github.com/example/plateforme-admin/internal/apiclient"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrMissingToken is returned when a login response carries no usable token.
	ErrMissingToken = errors.New("application: login response without token")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// Messages displayed by the gateway.
const (
	MessageValidation         = "Veuillez corriger les champs indiqués."
	MessageSessionExpired     = "Votre session a expiré. Veuillez vous reconnecter."
	MessageInvalidCredentials = "Email ou mot de passe incorrect."
	MessageNotFound           = "Élément introuvable."
	MessageUnexpected         = "Une erreur est survenue. Veuillez réessayer."
)

// UserMessage returns a French message suitable for display for any error
// returned by this package. The backend message wins when one was sent.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return MessageValidation
	}
	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) {
		return apiclient.NetworkMessage
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return MessageInvalidCredentials
	}
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return MessageSessionExpired
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrNotFound) {
		return MessageNotFound
	}
	return MessageUnexpected
}

// FieldErrors returns the per-field messages carried by err, from local
// validation or from the backend.
func FieldErrors(err error) map[string]string {
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		return vErr.FieldErrors
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		return apiErr.Fields
	}
	return nil
}
