package application

import (
	"context"
	"fmt"
	"log/slog"
)

// DashboardService loads the platform summary.
type DashboardService struct {
	backend Backend
	logger  *slog.Logger
}

// NewDashboardService constructs a dashboard service over backend.
func NewDashboardService(backend Backend) *DashboardService {
	return NewDashboardServiceWithLogger(backend, nil)
}

// NewDashboardServiceWithLogger constructs a dashboard service with a specified logger.
func NewDashboardServiceWithLogger(backend Backend, logger *slog.Logger) *DashboardService {
	return &DashboardService{backend: backend, logger: defaultLogger(logger)}
}

// Stats returns the dashboard counters. Status keys are translated to
// display labels and every known label is present.
func (s *DashboardService) Stats(ctx context.Context) (stats DashboardStats, err error) {
	if s == nil || s.backend == nil {
		return DashboardStats{}, fmt.Errorf("DashboardService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "DashboardService", "Stats")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load dashboard", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var dto dashboardDTO
	if err = getJSON(ctx, s.backend, "/dashboard/stats", nil, &dto); err != nil {
		err = remoteError("dashboard stats", err)
		return DashboardStats{}, err
	}

	byStatus := make(map[Status]int, len(dto.ByStatus)+4)
	for _, status := range Statuses() {
		byStatus[status] = 0
	}
	for code, n := range dto.ByStatus {
		byStatus[StatusToDisplay(code)] += n
	}

	return DashboardStats{
		TotalPresentations: dto.TotalPresentations,
		TotalUsers:         dto.TotalUsers,
		TotalDepartments:   dto.TotalDepartments,
		UnreadCount:        dto.UnreadCount,
		ByStatus:           byStatus,
		Upcoming:           toPresentations(dto.Upcoming),
	}, nil
}
