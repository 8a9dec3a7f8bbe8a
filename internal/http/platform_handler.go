package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/plateforme-admin/internal/application"
)

type dashboardService interface {
	Stats(ctx context.Context) (application.DashboardStats, error)
}

type notificationService interface {
	List(ctx context.Context) ([]application.Notification, error)
	Unread(ctx context.Context) ([]application.Notification, error)
	UnreadCount(ctx context.Context) int
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
}

type presentationLister interface {
	List(ctx context.Context) ([]application.Presentation, error)
	Search(ctx context.Context, term string) ([]application.Presentation, error)
}

// PlatformHandler serves the dashboard, calendar, search and notification
// pages of the signed-in area.
type PlatformHandler struct {
	dashboard     dashboardService
	notifications notificationService
	presentations presentationLister
	responder     responder
	logger        *slog.Logger
}

// PlatformServices groups the services behind PlatformHandler.
type PlatformServices struct {
	Dashboard     dashboardService
	Notifications notificationService
	Presentations presentationLister
}

// NewPlatformHandler constructs a PlatformHandler.
func NewPlatformHandler(services PlatformServices, logger *slog.Logger) *PlatformHandler {
	logger = defaultLogger(logger)
	return &PlatformHandler{
		dashboard:     services.Dashboard,
		notifications: services.Notifications,
		presentations: services.Presentations,
		responder:     newResponder(logger),
		logger:        logger,
	}
}

func (h *PlatformHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "PlatformHandler", operation, attrs...)
}

func (h *PlatformHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h == nil || h.dashboard == nil || h.notifications == nil || h.presentations == nil {
		newResponder(nil).writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return false
	}
	return true
}

type dashboardResponse struct {
	DisplayName string                     `json:"displayName"`
	UnreadCount int                        `json:"unreadCount"`
	Stats       application.DashboardStats `json:"stats"`
}

// Dashboard renders the platform summary with the unread badge.
func (h *PlatformHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	stats, err := h.dashboard.Stats(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	record, _ := SessionFromContext(ctx)
	h.responder.success(ctx, w, http.StatusOK, dashboardResponse{
		DisplayName: record.DisplayName,
		UnreadCount: h.notifications.UnreadCount(ctx),
		Stats:       stats,
	})
}

// Calendar renders every presentation as a calendar event.
func (h *PlatformHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	presentations, err := h.presentations.List(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, application.Calendar(presentations))
}

type searchResponse struct {
	Term    string                     `json:"term"`
	Results []application.Presentation `json:"results"`
	Groups  []application.StatusGroup  `json:"groups"`
}

// Search finds presentations matching ?term=.
func (h *PlatformHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	term := strings.TrimSpace(r.URL.Query().Get("term"))
	var (
		results []application.Presentation
		err     error
	)
	if term == "" {
		results, err = h.presentations.List(ctx)
	} else {
		results, err = h.presentations.Search(ctx, term)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	if results == nil {
		results = []application.Presentation{}
	}
	h.log(ctx, "Search", "term", term, "count", len(results)).DebugContext(ctx, "search completed")
	h.responder.success(ctx, w, http.StatusOK, searchResponse{
		Term:    term,
		Results: results,
		Groups:  application.GroupByStatus(results),
	})
}

type notificationsResponse struct {
	UnreadCount   int                        `json:"unreadCount"`
	Notifications []application.Notification `json:"notifications"`
}

// Notifications lists the inbox; ?unread=true keeps unread entries only.
func (h *PlatformHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var (
		notifications []application.Notification
		err           error
	)
	if queryFlag(r, "unread") {
		notifications, err = h.notifications.Unread(ctx)
	} else {
		notifications, err = h.notifications.List(ctx)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	if notifications == nil {
		notifications = []application.Notification{}
	}
	h.responder.success(ctx, w, http.StatusOK, notificationsResponse{
		UnreadCount:   h.notifications.UnreadCount(ctx),
		Notifications: notifications,
	})
}

func (h *PlatformHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.notifications.MarkRead(ctx, id); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlatformHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.notifications.MarkAllRead(ctx); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlatformHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.notifications.Delete(ctx, id); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
