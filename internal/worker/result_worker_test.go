package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/stemsi/quizprep-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanQueue struct {
	items  chan []byte
	mu     sync.Mutex
	pushed [][]byte
	buried [][]byte
}

func newChanQueue() *chanQueue {
	return &chanQueue{items: make(chan []byte, 16)}
}

func (q *chanQueue) Push(_ context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushed = append(q.pushed, payload)
	return nil
}

func (q *chanQueue) Bury(_ context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buried = append(q.buried, payload)
	return nil
}

func (q *chanQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case item := <-q.items:
		return item, nil
	case <-time.After(timeout):
		return nil, repository.ErrQueueEmpty
	}
}

type memResults struct {
	mu        sync.Mutex
	rows      []model.PracticeResult
	batchErr  error
	rejectIDs map[uuid.UUID]bool
	rejectErr error
}

func (s *memResults) InsertBatch(_ context.Context, results []model.PracticeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batchErr != nil {
		return s.batchErr
	}
	s.rows = append(s.rows, results...)
	return nil
}

func (s *memResults) Insert(_ context.Context, p *model.PracticeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectIDs[p.SessionID] {
		if s.rejectErr != nil {
			return s.rejectErr
		}
		return errors.New("connection reset")
	}
	s.rows = append(s.rows, *p)
	return nil
}

func (s *memResults) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func encodeResult(t *testing.T, id uuid.UUID, correct int) []byte {
	t.Helper()
	raw, err := json.Marshal(model.PracticeResult{SessionID: id, Total: 10, Answered: 10, Correct: correct, Accuracy: correct * 10})
	require.NoError(t, err)
	return raw
}

func TestResultWorker_FlushesOnShutdown(t *testing.T) {
	queue := newChanQueue()
	store := &memResults{}
	w := NewResultWorker(queue, store, zerolog.Nop())

	for i := 0; i < 3; i++ {
		queue.items <- encodeResult(t, uuid.New(), i)
	}
	queue.items <- []byte("{not json")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(queue.items) == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 3, store.count())
	assert.Equal(t, [][]byte{[]byte("{not json")}, queue.buried)
}

func TestResultWorker_FallbackRequeuesFailures(t *testing.T) {
	queue := newChanQueue()
	bad := uuid.New()
	store := &memResults{
		batchErr:  errors.New("copy failed"),
		rejectIDs: map[uuid.UUID]bool{bad: true},
	}
	w := NewResultWorker(queue, store, zerolog.Nop())

	good := uuid.New()
	w.flushSafe(context.Background(), []queuedResult{
		{PracticeResult: model.PracticeResult{SessionID: good, Total: 4, Correct: 4}},
		{PracticeResult: model.PracticeResult{SessionID: bad, Total: 4, Correct: 1}},
	})

	require.Equal(t, 1, store.count())
	assert.Equal(t, good, store.rows[0].SessionID)

	require.Len(t, queue.pushed, 1)
	var requeued queuedResult
	require.NoError(t, json.Unmarshal(queue.pushed[0], &requeued))
	assert.Equal(t, bad, requeued.SessionID)
	assert.Equal(t, 1, requeued.Correct)
	assert.Equal(t, 1, requeued.Attempts)
	assert.Empty(t, queue.buried)
}

func TestResultWorker_ConstraintViolationIsBuried(t *testing.T) {
	queue := newChanQueue()
	bad := uuid.New()
	store := &memResults{
		batchErr:  errors.New("copy failed"),
		rejectIDs: map[uuid.UUID]bool{bad: true},
		rejectErr: &pgconn.PgError{Code: "23505", Message: "duplicate key value"},
	}
	w := NewResultWorker(queue, store, zerolog.Nop())

	w.flushSafe(context.Background(), []queuedResult{
		{PracticeResult: model.PracticeResult{SessionID: bad, Total: 2}},
	})

	assert.Empty(t, queue.pushed, "a constraint violation is never retried")
	require.Len(t, queue.buried, 1)
	var buried queuedResult
	require.NoError(t, json.Unmarshal(queue.buried[0], &buried))
	assert.Equal(t, bad, buried.SessionID)
}

func TestResultWorker_RetriesRunOut(t *testing.T) {
	queue := newChanQueue()
	bad := uuid.New()
	store := &memResults{
		batchErr:  errors.New("copy failed"),
		rejectIDs: map[uuid.UUID]bool{bad: true},
	}
	w := NewResultWorker(queue, store, zerolog.Nop())

	// A transient failure keeps coming back until the last attempt.
	raw, err := json.Marshal(queuedResult{PracticeResult: model.PracticeResult{SessionID: bad}})
	require.NoError(t, err)
	for attempt := 1; attempt <= ResultMaxAttempts; attempt++ {
		var q queuedResult
		require.NoError(t, json.Unmarshal(raw, &q))
		queue.pushed = nil
		w.flushSafe(context.Background(), []queuedResult{q})

		if attempt < ResultMaxAttempts {
			require.Len(t, queue.pushed, 1, "attempt %d", attempt)
			raw = queue.pushed[0]
			continue
		}
		assert.Empty(t, queue.pushed)
		require.Len(t, queue.buried, 1)
		var buried queuedResult
		require.NoError(t, json.Unmarshal(queue.buried[0], &buried))
		assert.Equal(t, ResultMaxAttempts, buried.Attempts)
	}
}

func TestResultWorker_EmptyBatchIsNoop(t *testing.T) {
	store := &memResults{batchErr: errors.New("should not be called")}
	w := NewResultWorker(newChanQueue(), store, zerolog.Nop())

	w.flushSafe(context.Background(), nil)
	assert.Zero(t, store.count())
}
