package service

import (
	"context"

	"github.com/stemsi/quizprep-backend/internal/repository"
)

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	repository.DashboardSummary
	RecentRuns []repository.DashboardRecentRun `json:"recent_runs"`
}

// DashboardStore reads the dashboard aggregates.
type DashboardStore interface {
	GetSummary(ctx context.Context) (*repository.DashboardSummary, error)
	GetRecentRuns(ctx context.Context, limit int) ([]repository.DashboardRecentRun, error)
}

const (
	DefaultRecentRuns = 10
	MaxRecentRuns     = 50
)

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo DashboardStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo DashboardStore) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData fetches the summary counters and the latest limit runs.
// A non-positive limit means DefaultRecentRuns.
func (s *DashboardService) GetDashboardData(ctx context.Context, limit int) (*DashboardData, error) {
	if limit <= 0 {
		limit = DefaultRecentRuns
	}
	if limit > MaxRecentRuns {
		limit = MaxRecentRuns
	}

	summary, err := s.repo.GetSummary(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.GetRecentRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	return &DashboardData{DashboardSummary: *summary, RecentRuns: recent}, nil
}
