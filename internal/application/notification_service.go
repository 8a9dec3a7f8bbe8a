package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// NotificationService reads and updates the signed-in user's notifications.
type NotificationService struct {
	backend Backend
	logger  *slog.Logger
}

// NewNotificationService constructs a notification service over backend.
func NewNotificationService(backend Backend) *NotificationService {
	return NewNotificationServiceWithLogger(backend, nil)
}

// NewNotificationServiceWithLogger constructs a notification service with a specified logger.
func NewNotificationServiceWithLogger(backend Backend, logger *slog.Logger) *NotificationService {
	return &NotificationService{backend: backend, logger: defaultLogger(logger)}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

func (s *NotificationService) ready() error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("NotificationService is not configured")
	}
	return nil
}

// List returns every notification.
func (s *NotificationService) List(ctx context.Context) ([]Notification, error) {
	return s.list(ctx, "List", "/notifications/my")
}

// Unread returns the notifications not yet marked read.
func (s *NotificationService) Unread(ctx context.Context) ([]Notification, error) {
	return s.list(ctx, "Unread", "/notifications/my/unread")
}

func (s *NotificationService) list(ctx context.Context, operation, path string) (notifications []Notification, err error) {
	if err = s.ready(); err != nil {
		return nil, err
	}
	logger := s.loggerWith(ctx, operation)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load notifications", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var dtos []notificationDTO
	if err = getJSON(ctx, s.backend, path, nil, &dtos); err != nil {
		err = remoteError("list notifications", err)
		return nil, err
	}
	notifications = make([]Notification, 0, len(dtos))
	for _, dto := range dtos {
		notifications = append(notifications, toNotification(dto))
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications, or 0 when it
// cannot be loaded.
func (s *NotificationService) UnreadCount(ctx context.Context) int {
	if err := s.ready(); err != nil {
		return 0
	}
	var dto countDTO
	if err := getJSON(ctx, s.backend, "/notifications/my/unread/count", nil, &dto); err != nil {
		err = remoteError("unread count", err)
		s.loggerWith(ctx, "UnreadCount").WarnContext(ctx, "unread count unavailable", "error", err, "error_kind", ErrorKind(err))
		return 0
	}
	return dto.Count
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	return s.write(ctx, "MarkRead", http.MethodPut, idPath("/notifications/%s/read", id), "notification_id", id)
}

// MarkAllRead marks every notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.write(ctx, "MarkAllRead", http.MethodPut, "/notifications/read-all")
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	return s.write(ctx, "Delete", http.MethodDelete, idPath("/notifications/%s", id), "notification_id", id)
}

func (s *NotificationService) write(ctx context.Context, operation, method, path string, attrs ...any) (err error) {
	if err = s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, operation, attrs...)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "notification update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notification updated")
	}()

	if err = sendJSON(ctx, s.backend, method, path, nil, nil, nil); err != nil {
		err = remoteError(operation, err)
	}
	return err
}
