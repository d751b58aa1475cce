package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/stemsi/quizprep-backend/internal/repository"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
	// ResultMaxAttempts is how many failed inserts a result gets before it
	// goes to the dead-letter list.
	ResultMaxAttempts = 5
)

// ResultSource is the queue finished runs arrive on.
type ResultSource interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Bury(ctx context.Context, payload []byte) error
}

// ResultStore persists finished runs.
type ResultStore interface {
	InsertBatch(ctx context.Context, results []model.PracticeResult) error
	Insert(ctx context.Context, result *model.PracticeResult) error
}

// queuedResult is a result as it travels on the queue.
type queuedResult struct {
	model.PracticeResult
	Attempts int `json:"attempts,omitempty"`
}

// ResultWorker drains the results queue into PostgreSQL in batches.
type ResultWorker struct {
	queue ResultSource
	store ResultStore
	log   zerolog.Logger
	now   func() time.Time
}

func NewResultWorker(queue ResultSource, store ResultStore, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		queue: queue,
		store: store,
		log:   log.With().Str("component", "result_worker").Logger(),
		now:   time.Now,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled. The pending batch is flushed on the way out.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]queuedResult, 0, ResultBatchSize)
	lastFlush := w.now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || w.now().Sub(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = w.now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			raw, err := w.queue.Pop(ctx, ResultPollTimeout)
			if err != nil {
				if !errors.Is(err, repository.ErrQueueEmpty) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Pop error")
					// Back off so a dead Redis does not spin the loop.
					sleepCtx(ctx, ResultPollTimeout)
				}
				continue
			}

			var p queuedResult
			if err := json.Unmarshal(raw, &p); err != nil {
				w.log.Error().Err(err).Int("bytes", len(raw)).Msg("Invalid JSON payload, moving to dead letters")
				if err := w.queue.Bury(ctx, raw); err != nil {
					w.log.Error().Err(err).Msg("Bury failed, payload dropped")
				}
				continue
			}

			batch = append(batch, p)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with per-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []queuedResult) {
	if len(batch) == 0 {
		return
	}

	rows := make([]model.PracticeResult, len(batch))
	for i := range batch {
		rows[i] = batch[i].PracticeResult
	}
	err := w.store.InsertBatch(ctx, rows)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Results persisted")
		return
	}

	w.log.Warn().Err(err).Int("count", len(batch)).Msg("bulk result insert failed, using fallback")

	for i := range batch {
		q := batch[i]
		err := w.store.Insert(ctx, &q.PracticeResult)
		if err == nil {
			continue
		}
		q.Attempts++
		w.retryOrBury(q, err)
	}
}

// retryOrBury requeues a failed row, or parks it for good when the failure
// cannot go away or it ran out of attempts.
func (w *ResultWorker) retryOrBury(q queuedResult, cause error) {
	log := w.log.With().
		Str("session_id", q.SessionID.String()).
		Int("attempts", q.Attempts).
		Logger()

	raw, err := json.Marshal(q)
	if err != nil {
		log.Error().Err(err).Msg("Encode failed, result dropped")
		return
	}

	// Shutdown may have cancelled the caller's context.
	ctx := context.Background()
	if repository.IsPermanent(cause) || q.Attempts >= ResultMaxAttempts {
		log.Error().Err(cause).Msg("Insert failed for good, moving to dead letters")
		if err := w.queue.Bury(ctx, raw); err != nil {
			log.Error().Err(err).Msg("Bury failed, result dropped")
		}
		return
	}

	log.Warn().Err(cause).Msg("Insert failed, requeueing")
	if err := w.queue.Push(ctx, raw); err != nil {
		log.Error().Err(err).Msg("Requeue failed, result dropped")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
