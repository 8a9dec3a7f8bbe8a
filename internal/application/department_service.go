package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// DepartmentService manages departments on the backend.
type DepartmentService struct {
	backend Backend
	logger  *slog.Logger
}

// NewDepartmentService constructs a department service over backend.
func NewDepartmentService(backend Backend) *DepartmentService {
	return NewDepartmentServiceWithLogger(backend, nil)
}

// NewDepartmentServiceWithLogger constructs a department service with a specified logger.
func NewDepartmentServiceWithLogger(backend Backend, logger *slog.Logger) *DepartmentService {
	return &DepartmentService{backend: backend, logger: defaultLogger(logger)}
}

func (s *DepartmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DepartmentService", operation, attrs...)
}

// TestConnection probes the backend and returns its greeting.
func (s *DepartmentService) TestConnection(ctx context.Context) (message string, err error) {
	if s == nil || s.backend == nil {
		return "", fmt.Errorf("DepartmentService is not configured")
	}
	logger := s.loggerWith(ctx, "TestConnection")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "backend unreachable", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "backend reachable")
	}()

	if err = getJSON(ctx, s.backend, "/departements/test", nil, &message); err != nil {
		err = remoteError("test connection", err)
		return "", err
	}
	return strings.TrimSpace(message), nil
}

// List returns every department.
func (s *DepartmentService) List(ctx context.Context) (departments []Department, err error) {
	if s == nil || s.backend == nil {
		return nil, fmt.Errorf("DepartmentService is not configured")
	}
	logger := s.loggerWith(ctx, "List")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list departments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "departments listed", "count", len(departments))
	}()

	var dtos []departmentDTO
	if err = getJSON(ctx, s.backend, "/departements", nil, &dtos); err != nil {
		err = remoteError("list departments", err)
		return nil, err
	}
	return toDepartments(dtos), nil
}

// Search returns the departments matching keyword. A blank keyword lists all.
func (s *DepartmentService) Search(ctx context.Context, keyword string) (departments []Department, err error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.List(ctx)
	}
	if s == nil || s.backend == nil {
		return nil, fmt.Errorf("DepartmentService is not configured")
	}
	logger := s.loggerWith(ctx, "Search")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to search departments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "departments searched", "count", len(departments))
	}()

	var dtos []departmentDTO
	if err = getJSON(ctx, s.backend, "/departements/search", url.Values{"keyword": {keyword}}, &dtos); err != nil {
		err = remoteError("search departments", err)
		return nil, err
	}
	return toDepartments(dtos), nil
}

// Get returns one department.
func (s *DepartmentService) Get(ctx context.Context, id int64) (department Department, err error) {
	if s == nil || s.backend == nil {
		return Department{}, fmt.Errorf("DepartmentService is not configured")
	}
	logger := s.loggerWith(ctx, "Get", "department_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load department", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var dto departmentDTO
	if err = getJSON(ctx, s.backend, idPath("/departements/%s", id), nil, &dto); err != nil {
		err = remoteError("get department", err)
		return Department{}, err
	}
	return toDepartment(dto), nil
}

// Create validates input and creates a department.
func (s *DepartmentService) Create(ctx context.Context, input DepartmentInput) (department Department, err error) {
	if s == nil || s.backend == nil {
		return Department{}, fmt.Errorf("DepartmentService is not configured")
	}
	logger := s.loggerWith(ctx, "Create")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create department", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("department_id", department.ID).InfoContext(ctx, "department created")
	}()

	if vErr := validateDepartmentInput(input); vErr.HasErrors() {
		err = vErr
		return Department{}, err
	}

	var dto departmentDTO
	if err = sendJSON(ctx, s.backend, http.MethodPost, "/departements", nil, departmentPayload(input), &dto); err != nil {
		err = remoteError("create department", err)
		return Department{}, err
	}
	return toDepartment(dto), nil
}

// Update validates input and replaces the department fields.
func (s *DepartmentService) Update(ctx context.Context, id int64, input DepartmentInput) (department Department, err error) {
	if s == nil || s.backend == nil {
		return Department{}, fmt.Errorf("DepartmentService is not configured")
	}
	logger := s.loggerWith(ctx, "Update", "department_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update department", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "department updated")
	}()

	if vErr := validateDepartmentInput(input); vErr.HasErrors() {
		err = vErr
		return Department{}, err
	}

	payload := departmentPayload(input)
	payload.ID = id
	var dto departmentDTO
	if err = sendJSON(ctx, s.backend, http.MethodPut, idPath("/departements/%s", id), nil, payload, &dto); err != nil {
		err = remoteError("update department", err)
		return Department{}, err
	}
	if dto.ID == 0 {
		dto = payload
	}
	return toDepartment(dto), nil
}

// Delete removes a department.
func (s *DepartmentService) Delete(ctx context.Context, id int64) (err error) {
	if s == nil || s.backend == nil {
		return fmt.Errorf("DepartmentService is not configured")
	}
	logger := s.loggerWith(ctx, "Delete", "department_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete department", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "department deleted")
	}()

	if err = deleteResource(ctx, s.backend, idPath("/departements/%s", id)); err != nil {
		err = remoteError("delete department", err)
	}
	return err
}

func departmentPayload(input DepartmentInput) departmentDTO {
	return departmentDTO{
		Name:          strings.TrimSpace(input.Name),
		Code:          strings.TrimSpace(input.Code),
		Description:   strings.TrimSpace(input.Description),
		EmployeeCount: input.EmployeeCount,
	}
}

func toDepartments(dtos []departmentDTO) []Department {
	out := make([]Department, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, toDepartment(dto))
	}
	return out
}
