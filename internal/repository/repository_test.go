package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/quizprep-backend/internal/model"
)

func TestParseVersion(t *testing.T) {
	v, err := parseVersion(redis.NewStringResult("", redis.Nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	v, err = parseVersion(redis.NewStringResult("42", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = parseVersion(redis.NewStringResult("forty-two", nil))
	assert.Error(t, err)

	boom := errors.New("connection refused")
	_, err = parseVersion(redis.NewStringResult("", boom))
	assert.ErrorIs(t, err, boom)
}

// cannedRow feeds fixed column values to the scan helpers.
type cannedRow struct {
	values []interface{}
	err    error
}

func (r cannedRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d columns, got %d", len(r.values), len(dest))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *int:
			*d = v.(int)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			if v != nil {
				t := v.(time.Time)
				*d = &t
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

func TestEncodeScanQuestion(t *testing.T) {
	q := &model.Question{
		Text:           "Pick the even numbers",
		Options:        []string{"1", "2", "3", "4"},
		CorrectAnswers: []int{1, 3},
		Explanation:    model.Explanation{"2 and 4 divide by two."},
	}

	options, correct, explanation, err := encodeQuestion(q)
	require.NoError(t, err)
	assert.JSONEq(t, `["1","2","3","4"]`, string(options))
	assert.JSONEq(t, `[1,3]`, string(correct))

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := scanQuestion(cannedRow{values: []interface{}{
		int64(7), q.Text, options, correct, explanation, created, created,
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, q.Options, got.Options)
	assert.Equal(t, q.CorrectAnswers, got.CorrectAnswers)
	assert.Equal(t, q.Explanation, got.Explanation)
}

func TestScanQuestion_Errors(t *testing.T) {
	_, err := scanQuestion(cannedRow{err: pgx.ErrNoRows})
	assert.True(t, IsNotFound(err))

	created := time.Now()
	_, err = scanQuestion(cannedRow{values: []interface{}{
		int64(1), "broken", []byte(`{`), []byte(`[0]`), []byte(`[]`), created, created,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode options of question 1")
}

func TestScanAdmin(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a, err := scanAdmin(cannedRow{values: []interface{}{
		4, "ada@example.com", "Ada", "hash", nil, created, created,
	}})
	require.NoError(t, err)
	assert.Equal(t, 4, a.ID)
	assert.Equal(t, "ada@example.com", a.Email)
	assert.Nil(t, a.LastLoginAt)

	a, err = scanAdmin(cannedRow{values: []interface{}{
		4, "ada@example.com", "Ada", "hash", created, created, created,
	}})
	require.NoError(t, err)
	require.NotNil(t, a.LastLoginAt)
	assert.Equal(t, created, *a.LastLoginAt)

	_, err = scanAdmin(cannedRow{err: pgx.ErrNoRows})
	assert.True(t, IsNotFound(err))
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsPermanent(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22003"})))
	assert.False(t, IsPermanent(&pgconn.PgError{Code: "40001"}), "serialization failures can be retried")
	assert.False(t, IsPermanent(errors.New("connection reset")))
	assert.False(t, IsPermanent(nil))
}
