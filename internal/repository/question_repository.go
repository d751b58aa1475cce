package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizprep-backend/internal/model"
)

const questionColumns = `id, text, options, correct_answers, explanation, created_at, updated_at`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// List retrieves every question in catalogue order.
func (r *QuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectQuestions(rows)
}

// Search retrieves questions whose text contains term, or whose id equals it.
func (r *QuestionRepository) Search(ctx context.Context, term string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE text ILIKE '%' || $1 || '%' OR id::text = $1
		 ORDER BY id`, term,
	)
	if err != nil {
		return nil, err
	}
	return collectQuestions(rows)
}

// GetByID retrieves a question. It returns pgx.ErrNoRows when it does not exist.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	return scanQuestion(row)
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, correct, explanation, err := encodeQuestion(q)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (text, options, correct_answers, explanation)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		q.Text, options, correct, explanation,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update replaces a question's content. It returns pgx.ErrNoRows when it does not exist.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	options, correct, explanation, err := encodeQuestion(q)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET text = $1, options = $2, correct_answers = $3, explanation = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5
		 RETURNING created_at, updated_at`,
		q.Text, options, correct, explanation, q.ID,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

// Delete removes a question. It returns pgx.ErrNoRows when it does not exist.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RestoreAll replaces the whole catalogue in one transaction. Questions keep
// their ids when they carry one; the id sequence is moved past the highest id.
func (r *QuestionRepository) RestoreAll(ctx context.Context, questions []model.Question) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions`); err != nil {
		return 0, fmt.Errorf("clear questions: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		options, correct, explanation, err := encodeQuestion(q)
		if err != nil {
			return 0, err
		}

		if q.ID > 0 {
			_, err = tx.Exec(ctx,
				`INSERT INTO questions (id, text, options, correct_answers, explanation)
				 VALUES ($1, $2, $3, $4, $5)`,
				q.ID, q.Text, options, correct, explanation,
			)
		} else {
			err = tx.QueryRow(ctx,
				`INSERT INTO questions (text, options, correct_answers, explanation)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id`,
				q.Text, options, correct, explanation,
			).Scan(&q.ID)
		}
		if err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence('questions', 'id'), COALESCE((SELECT MAX(id) FROM questions), 0) + 1, false)`,
	); err != nil {
		return 0, fmt.Errorf("resync id sequence: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit restore: %w", err)
	}
	return len(questions), nil
}

// ─── Helpers ────────────────────────────────────────────────────────

func encodeQuestion(q *model.Question) (options, correct, explanation []byte, err error) {
	if options, err = json.Marshal(q.Options); err != nil {
		return nil, nil, nil, fmt.Errorf("encode options: %w", err)
	}
	if correct, err = json.Marshal(q.CorrectAnswers); err != nil {
		return nil, nil, nil, fmt.Errorf("encode correct answers: %w", err)
	}
	if explanation, err = json.Marshal(q.Explanation); err != nil {
		return nil, nil, nil, fmt.Errorf("encode explanation: %w", err)
	}
	return options, correct, explanation, nil
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var (
		q                             model.Question
		options, correct, explanation []byte
	)
	if err := row.Scan(&q.ID, &q.Text, &options, &correct, &explanation, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options of question %d: %w", q.ID, err)
	}
	if err := json.Unmarshal(correct, &q.CorrectAnswers); err != nil {
		return nil, fmt.Errorf("decode correct answers of question %d: %w", q.ID, err)
	}
	if err := json.Unmarshal(explanation, &q.Explanation); err != nil {
		return nil, fmt.Errorf("decode explanation of question %d: %w", q.ID, err)
	}
	return &q, nil
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
