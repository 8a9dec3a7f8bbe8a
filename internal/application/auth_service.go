package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/plateforme-admin/internal/apiclient"
	"github.com/example/plateforme-admin/internal/session"
)

// SessionWriter is the part of the session manager the auth service drives.
// *session.Manager satisfies it.
type SessionWriter interface {
	Establish(ctx context.Context, record session.Record) error
	End(ctx context.Context) error
	Current(ctx context.Context) (session.Record, bool)
}

var _ SessionWriter = (*session.Manager)(nil)

// AuthService handles sign-in, registration, password flows and the profile.
type AuthService struct {
	backend  Backend
	sessions SessionWriter
	logger   *slog.Logger
}

// NewAuthService constructs an auth service.
func NewAuthService(backend Backend, sessions SessionWriter) *AuthService {
	return NewAuthServiceWithLogger(backend, sessions, nil)
}

// NewAuthServiceWithLogger constructs an auth service with a specified logger.
func NewAuthServiceWithLogger(backend Backend, sessions SessionWriter, logger *slog.Logger) *AuthService {
	return &AuthService{backend: backend, sessions: sessions, logger: defaultLogger(logger)}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil || s.backend == nil || s.sessions == nil {
		return fmt.Errorf("AuthService is not configured")
	}
	return nil
}

// Login authenticates against the backend and stores the issued session.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (signed SignedIn, err error) {
	if err = s.ready(); err != nil {
		return SignedIn{}, err
	}
	logger := s.loggerWith(ctx, "Login")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", signed.UserID).InfoContext(ctx, "login succeeded")
	}()

	creds.Email = strings.TrimSpace(creds.Email)
	if vErr := validateStruct(creds); vErr.HasErrors() {
		err = vErr
		return SignedIn{}, err
	}

	var resp loginResponse
	req := loginRequest{Email: creds.Email, Password: creds.Password}
	if err = sendJSON(ctx, s.backend, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		err = loginError(err)
		return SignedIn{}, err
	}

	signed, err = s.establish(ctx, resp)
	if err == nil && !signed.Active {
		err = ErrMissingToken
	}
	return signed, err
}

// Register creates an account. When the backend answers with a token the
// new user is signed in immediately.
func (s *AuthService) Register(ctx context.Context, form Registration) (signed SignedIn, err error) {
	if err = s.ready(); err != nil {
		return SignedIn{}, err
	}
	logger := s.loggerWith(ctx, "Register")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("signed_in", signed.Active).InfoContext(ctx, "registration succeeded")
	}()

	form.Email = strings.TrimSpace(form.Email)
	if vErr := validateStruct(form); vErr.HasErrors() {
		err = vErr
		return SignedIn{}, err
	}

	req := registerRequest{
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Position:  strings.TrimSpace(form.Position),
		BadgeID:   strings.TrimSpace(form.BadgeID),
		Email:     form.Email,
		Password:  form.Password,
	}
	var resp loginResponse
	if err = sendJSON(ctx, s.backend, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		err = remoteError("register", err)
		return SignedIn{}, err
	}
	if resp.Email == "" {
		resp.Email = req.Email
	}
	if resp.FirstName == "" && resp.LastName == "" {
		resp.FirstName, resp.LastName = req.FirstName, req.LastName
	}
	return s.establish(ctx, resp)
}

// Logout ends the local session.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.sessions.End(ctx); err != nil {
		s.loggerWith(ctx, "Logout").ErrorContext(ctx, "logout failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// ForgotPassword asks the backend to email a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	if err = s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "ForgotPassword")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password reset request failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password reset requested")
	}()

	email = strings.TrimSpace(email)
	if verr := validate.Var(email, "required,email"); verr != nil {
		vErr := &ValidationError{}
		vErr.add("email", fieldMessage("email", ""))
		err = vErr
		return err
	}
	if err = sendJSON(ctx, s.backend, http.MethodPost, "/auth/forgot-password", nil, forgotPasswordRequest{Email: email}, nil); err != nil {
		err = remoteError("forgot password", err)
	}
	return err
}

// ChangePassword sets a new password using the emailed reset token.
func (s *AuthService) ChangePassword(ctx context.Context, change PasswordChange) (err error) {
	if err = s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "ChangePassword")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password change failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password changed")
	}()

	change.Token = strings.TrimSpace(change.Token)
	if vErr := validateStruct(change); vErr.HasErrors() {
		err = vErr
		return err
	}
	req := changePasswordRequest{Token: change.Token, NewPassword: change.NewPassword}
	if err = sendJSON(ctx, s.backend, http.MethodPost, "/auth/change-password", nil, req, nil); err != nil {
		err = remoteError("change password", err)
	}
	return err
}

// Profile returns the signed-in user's account.
func (s *AuthService) Profile(ctx context.Context) (profile Profile, err error) {
	if err = s.ready(); err != nil {
		return Profile{}, err
	}
	var dto userDTO
	if err = getJSON(ctx, s.backend, "/auth/profile", nil, &dto); err != nil {
		err = remoteError("get profile", err)
		s.loggerWith(ctx, "Profile").ErrorContext(ctx, "failed to load profile", "error", err, "error_kind", ErrorKind(err))
		return Profile{}, err
	}
	return toProfile(dto), nil
}

// UpdateProfile replaces the editable profile fields and refreshes the
// display name cached in the session.
func (s *AuthService) UpdateProfile(ctx context.Context, input ProfileInput) (profile Profile, err error) {
	if err = s.ready(); err != nil {
		return Profile{}, err
	}
	logger := s.loggerWith(ctx, "UpdateProfile")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update profile", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated")
	}()

	input.Email = strings.TrimSpace(input.Email)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return Profile{}, err
	}

	req := profileUpdateRequest{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     input.Email,
		Position:  strings.TrimSpace(input.Position),
		BadgeID:   strings.TrimSpace(input.BadgeID),
	}
	var dto userDTO
	if err = sendJSON(ctx, s.backend, http.MethodPut, "/auth/profile", nil, req, &dto); err != nil {
		err = remoteError("update profile", err)
		return Profile{}, err
	}
	if dto.FirstName == "" && dto.LastName == "" && dto.Email == "" {
		dto.FirstName, dto.LastName, dto.Email = req.FirstName, req.LastName, req.Email
		dto.Position, dto.BadgeID = req.Position, req.BadgeID
	}
	profile = toProfile(dto)

	if record, ok := s.sessions.Current(ctx); ok {
		record.DisplayName = displayName(profile.FirstName, profile.LastName)
		record.Email = profile.Email
		if refreshErr := s.sessions.Establish(ctx, record); refreshErr != nil {
			logger.WarnContext(ctx, "failed to refresh cached display name", "error", refreshErr)
		}
	}
	return profile, nil
}

func (s *AuthService) establish(ctx context.Context, resp loginResponse) (SignedIn, error) {
	signed := SignedIn{
		UserID:      resp.UserID.String(),
		DisplayName: displayName(resp.FirstName, resp.LastName),
		Email:       strings.TrimSpace(resp.Email),
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return signed, nil
	}

	claims, err := session.ParseClaims(token)
	if err != nil {
		return SignedIn{}, errors.Join(ErrMissingToken, err)
	}
	if signed.Email == "" {
		signed.Email = claims.Subject
	}
	record := session.Record{
		Token:       token,
		DisplayName: signed.DisplayName,
		UserID:      signed.UserID,
		Email:       signed.Email,
	}
	if err := s.sessions.Establish(ctx, record); err != nil {
		return SignedIn{}, fmt.Errorf("store session: %w", err)
	}
	signed.ExpiresAt = claims.ExpiresAt
	signed.Active = true
	return signed, nil
}

func loginError(err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return fmt.Errorf("login: %w: %w", ErrInvalidCredentials, err)
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusForbidden) {
		return fmt.Errorf("login: %w: %w", ErrInvalidCredentials, err)
	}
	return remoteError("login", err)
}

func displayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
