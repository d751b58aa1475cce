package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizprep-backend/internal/model"
)

// ResultRepository handles practice result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

var resultCopyColumns = []string{
	"session_id", "total", "answered", "correct", "incorrect", "accuracy",
	"filter_mode", "is_random", "practice_mode", "completed_at",
}

// InsertBatch bulk-inserts results with COPY.
func (r *ResultRepository) InsertBatch(ctx context.Context, results []model.PracticeResult) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"practice_results"},
		resultCopyColumns,
		pgx.CopyFromSlice(len(results), func(i int) ([]interface{}, error) {
			p := results[i]
			return []interface{}{
				p.SessionID, p.Total, p.Answered, p.Correct, p.Incorrect, p.Accuracy,
				p.FilterMode, p.Random, p.Practice, p.CompletedAt,
			}, nil
		}),
	)
	return err
}

// Insert stores a single result.
func (r *ResultRepository) Insert(ctx context.Context, p *model.PracticeResult) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO practice_results
		 (session_id, total, answered, correct, incorrect, accuracy, filter_mode, is_random, practice_mode, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		p.SessionID, p.Total, p.Answered, p.Correct, p.Incorrect, p.Accuracy,
		p.FilterMode, p.Random, p.Practice, p.CompletedAt,
	).Scan(&p.ID)
}

// ListBySession retrieves the recorded runs of a session, newest first.
func (r *ResultRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]model.PracticeResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, total, answered, correct, incorrect, accuracy, filter_mode, is_random, practice_mode, completed_at
		 FROM practice_results
		 WHERE session_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2`, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.PracticeResult{}
	for rows.Next() {
		var p model.PracticeResult
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Total, &p.Answered, &p.Correct, &p.Incorrect,
			&p.Accuracy, &p.FilterMode, &p.Random, &p.Practice, &p.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// IsPermanent reports whether retrying the failed statement cannot help:
// data exceptions and integrity violations (SQLSTATE classes 22 and 23).
func IsPermanent(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}
