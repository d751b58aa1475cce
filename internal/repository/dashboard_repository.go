package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// DashboardSummary holds the high-level counters.
type DashboardSummary struct {
	TotalQuestions       int     `json:"total_questions"`
	MultiSelectQuestions int     `json:"multi_select_questions"`
	RecordedRuns         int     `json:"recorded_runs"`
	AverageAccuracy      float64 `json:"average_accuracy"`
}

// GetSummary retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummary(ctx context.Context) (*DashboardSummary, error) {
	s := &DashboardSummary{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM questions WHERE jsonb_array_length(correct_answers) > 1),
			(SELECT COUNT(*) FROM practice_results),
			(SELECT COALESCE(AVG(accuracy), 0)::float8 FROM practice_results WHERE answered > 0)`,
	).Scan(&s.TotalQuestions, &s.MultiSelectQuestions, &s.RecordedRuns, &s.AverageAccuracy)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DashboardRecentRun represents a recently finished practice run.
type DashboardRecentRun struct {
	SessionID   uuid.UUID `json:"session_id"`
	Total       int       `json:"total"`
	Answered    int       `json:"answered"`
	Accuracy    int       `json:"accuracy_percent"`
	Practice    bool      `json:"practice_mode"`
	CompletedAt time.Time `json:"completed_at"`
}

// GetRecentRuns retrieves the latest finished runs.
func (r *DashboardRepository) GetRecentRuns(ctx context.Context, limit int) ([]DashboardRecentRun, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, total, answered, accuracy, practice_mode, completed_at
		 FROM practice_results
		 ORDER BY completed_at DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []DashboardRecentRun
	for rows.Next() {
		var run DashboardRecentRun
		if err := rows.Scan(&run.SessionID, &run.Total, &run.Answered, &run.Accuracy, &run.Practice, &run.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if runs == nil {
		runs = []DashboardRecentRun{}
	}
	return runs, rows.Err()
}
