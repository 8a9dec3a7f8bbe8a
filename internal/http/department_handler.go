package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/plateforme-admin/internal/application"
)

type departmentService interface {
	TestConnection(ctx context.Context) (string, error)
	List(ctx context.Context) ([]application.Department, error)
	Search(ctx context.Context, keyword string) ([]application.Department, error)
	Get(ctx context.Context, id int64) (application.Department, error)
	Create(ctx context.Context, input application.DepartmentInput) (application.Department, error)
	Update(ctx context.Context, id int64, input application.DepartmentInput) (application.Department, error)
	Delete(ctx context.Context, id int64) error
}

// DepartmentHandler serves the department management page.
type DepartmentHandler struct {
	service   departmentService
	responder responder
	logger    *slog.Logger
}

// NewDepartmentHandler constructs a DepartmentHandler.
func NewDepartmentHandler(service departmentService, logger *slog.Logger) *DepartmentHandler {
	logger = defaultLogger(logger)
	return &DepartmentHandler{
		service:   service,
		responder: newResponder(logger),
		logger:    logger,
	}
}

func (h *DepartmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "DepartmentHandler", operation, attrs...)
}

func (h *DepartmentHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h == nil || h.service == nil {
		newResponder(nil).writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return false
	}
	return true
}

// List returns every department, or the matches of ?keyword= when present.
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	var (
		departments []application.Department
		err         error
	)
	if keyword != "" {
		departments, err = h.service.Search(ctx, keyword)
	} else {
		departments, err = h.service.List(ctx)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, departments)
}

// TestConnection checks that the backend is reachable.
func (h *DepartmentHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	message, err := h.service.TestConnection(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, confirmation{Message: message})
}

func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	department, err := h.service.Get(ctx, id)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, department)
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var input application.DepartmentInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	department, err := h.service.Create(ctx, input)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.log(ctx, "Create", "department_id", department.ID).InfoContext(ctx, "department created")
	h.responder.success(ctx, w, http.StatusCreated, department)
}

func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	var input application.DepartmentInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	department, err := h.service.Update(ctx, id, input)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, department)
}

func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.Delete(ctx, id); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.log(ctx, "Delete", "department_id", id).InfoContext(ctx, "department deleted")
	w.WriteHeader(http.StatusNoContent)
}
