package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned for any 401 response. The session has already
// been invalidated by the time the caller sees it.
var ErrUnauthorized = errors.New("unauthorized")

// ErrDecode marks a 2xx response whose body does not match the expected shape.
var ErrDecode = errors.New("unexpected response body")

// NetworkMessage is shown when no response was received.
const NetworkMessage = "Impossible de se connecter au serveur."

// APIError describes a non-2xx response other than 401.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// NetworkError wraps transport failures such as refused connections and
// timeouts.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// errorBody covers the shapes the backend uses for error payloads.
type errorBody struct {
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Errors  map[string]any `json:"errors"`
}

func (b errorBody) fields() map[string]string {
	if len(b.Errors) == 0 {
		return nil
	}
	fields := make(map[string]string, len(b.Errors))
	for key, value := range b.Errors {
		fields[key] = fmt.Sprint(value)
	}
	return fields
}

func (b errorBody) message() string {
	if msg := strings.TrimSpace(b.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(b.Error)
}
