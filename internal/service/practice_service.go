package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/stemsi/quizprep-backend/internal/practice"
)

// Practice errors.
var (
	ErrSessionNotFound = errors.New("practice session not found")
	ErrUnknownAction   = errors.New("unknown practice action")
)

const (
	snapshotWriteTimeout = 5 * time.Second
	historyLimit         = 50
	janitorInterval      = time.Minute
)

// CatalogSource provides the current question catalogue.
type CatalogSource interface {
	Catalog(ctx context.Context) (*model.Catalog, error)
}

// SnapshotStore is the key/value store holding one snapshot per session.
type SnapshotStore interface {
	Get(ctx context.Context, sessionID string) ([]byte, bool, error)
	Set(ctx context.Context, sessionID string, data []byte) error
	Remove(ctx context.Context, sessionID string) error
}

// ResultPublisher hands finished runs to the results worker.
type ResultPublisher interface {
	Push(ctx context.Context, payload []byte) error
}

// ResultHistory reads recorded runs.
type ResultHistory interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]model.PracticeResult, error)
}

// PracticeOptions tunes a PracticeService.
type PracticeOptions struct {
	Debounce    time.Duration
	IdleTimeout time.Duration
	// Clock drives the debounced snapshot writes. Nil uses the system timer.
	Clock practice.Clock
	// Now defaults to time.Now.
	Now func() time.Time
	// Rand is shared by every session and must be safe for concurrent use.
	// Nil uses the process-wide source.
	Rand practice.Rand
}

// liveSession is a session held in memory. mu serialises actions and
// snapshot writes.
type liveSession struct {
	mu       sync.Mutex
	id       uuid.UUID
	engine   *practice.Session
	version  int64
	lastSeen time.Time
	// evicted is set under mu once the session left the live map; holders of
	// a stale pointer must look the session up again.
	evicted bool
}

// PracticeService runs learner practice sessions.
type PracticeService struct {
	catalog   CatalogSource
	snapshots SnapshotStore
	results   ResultPublisher
	history   ResultHistory
	debouncer *practice.Debouncer
	idle      time.Duration
	now       func() time.Time
	rng       practice.Rand
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession
	// draining holds sessions whose final snapshot is still being written.
	draining map[uuid.UUID]chan struct{}
}

// NewPracticeService creates a new PracticeService.
func NewPracticeService(
	catalog CatalogSource,
	snapshots SnapshotStore,
	results ResultPublisher,
	history ResultHistory,
	opts PracticeOptions,
	log zerolog.Logger,
) *PracticeService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PracticeService{
		catalog:   catalog,
		snapshots: snapshots,
		results:   results,
		history:   history,
		debouncer: practice.NewDebouncer(opts.Debounce, opts.Clock),
		idle:      opts.IdleTimeout,
		now:       opts.Now,
		rng:       opts.Rand,
		log:       log.With().Str("component", "practice_service").Logger(),
		sessions:  make(map[uuid.UUID]*liveSession),
		draining:  make(map[uuid.UUID]chan struct{}),
	}
}

// ─── Views ──────────────────────────────────────────────────────────

// PracticeView is the state of a session as shown to the learner.
type PracticeView struct {
	SessionID      uuid.UUID           `json:"session_id"`
	Status         practice.Status     `json:"status"`
	Position       int                 `json:"position"`
	Total          int                 `json:"total"`
	Filter         practice.FilterMode `json:"filter_mode"`
	Ordering       practice.Ordering   `json:"ordering"`
	PracticeMode   bool                `json:"practice_mode"`
	Question       *QuestionView       `json:"question,omitempty"`
	Metrics        practice.Metrics    `json:"metrics"`
	Notice         string              `json:"notice,omitempty"`
	Results        *ResultsView        `json:"results,omitempty"`
	CatalogVersion int64               `json:"catalog_version"`
}

// QuestionView is the current question. The correct answers and the
// explanation are only filled once the question is locked.
type QuestionView struct {
	ID             int64                  `json:"id"`
	Number         int                    `json:"number"`
	Text           string                 `json:"text"`
	Options        []string               `json:"options"`
	MultiSelect    bool                   `json:"multi_select"`
	State          practice.QuestionState `json:"state"`
	Selected       *practice.Answer       `json:"selected,omitempty"`
	IsCorrect      *bool                  `json:"is_correct,omitempty"`
	CorrectAnswers []int                  `json:"correct_answers,omitempty"`
	Explanation    model.Explanation      `json:"explanation,omitempty"`
}

// ResultsView summarises a finished run.
type ResultsView struct {
	practice.Metrics
	Message string `json:"message"`
}

// ─── Operations ─────────────────────────────────────────────────────

// Create starts a new session over the current catalogue.
func (s *PracticeService) Create(ctx context.Context) (*PracticeView, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	ls := &liveSession{
		id:       uuid.New(),
		engine:   practice.NewSession(catalog.Questions, s.sessionOptions()...),
		version:  catalog.Version,
		lastSeen: s.now(),
	}
	ls.engine.Render()

	s.mu.Lock()
	s.sessions[ls.id] = ls
	s.mu.Unlock()

	ls.mu.Lock()
	defer ls.mu.Unlock()
	s.schedulePersist(ls)

	s.log.Info().Str("session_id", ls.id.String()).Int("questions", len(catalog.Questions)).Msg("Practice session created")
	return s.view(ls, ""), nil
}

// Get returns the current view of a session, loading it from its snapshot
// when it is not live.
func (s *PracticeService) Get(ctx context.Context, id uuid.UUID) (*PracticeView, error) {
	ls, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ls.mu.Unlock()

	ls.engine.Render()
	return s.view(ls, ""), nil
}

// Apply runs one action against a session. Rejected actions leave the session
// unchanged and return the engine's error.
func (s *PracticeService) Apply(ctx context.Context, id uuid.UUID, action model.PracticeAction) (*PracticeView, error) {
	ls, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ls.mu.Unlock()

	ls.engine.Render()
	before := ls.engine.Status()

	notice, err := s.dispatch(ctx, ls, action)
	if err != nil {
		return nil, err
	}

	if before != practice.StatusResults && ls.engine.Status() == practice.StatusResults {
		s.persistNow(ls)
		s.publishResult(ctx, ls)
	} else {
		s.schedulePersist(ls)
	}

	return s.view(ls, notice), nil
}

// Reset returns a session to the full catalogue and discards its progress.
func (s *PracticeService) Reset(ctx context.Context, id uuid.UUID) (*PracticeView, error) {
	return s.Apply(ctx, id, model.PracticeAction{Action: model.ActionReset})
}

// History lists the recorded runs of a session, newest first.
func (s *PracticeService) History(ctx context.Context, id uuid.UUID) ([]model.PracticeResult, error) {
	return s.history.ListBySession(ctx, id, historyLimit)
}

// EvictIdle drops sessions idle for longer than the idle timeout after
// writing their pending changes. It returns the number evicted. Until a
// session's write lands, lookups of that session wait for it.
func (s *PracticeService) EvictIdle() int {
	if s.idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idle)

	type drain struct {
		id   uuid.UUID
		snap practice.Snapshot
		done chan struct{}
	}
	var drains []drain
	evicted := 0

	s.mu.Lock()
	for id, ls := range s.sessions {
		ls.mu.Lock()
		if ls.lastSeen.Before(cutoff) {
			ls.evicted = true
			delete(s.sessions, id)
			evicted++
			if s.debouncer.Cancel(id.String()) {
				d := drain{id: id, snap: ls.engine.Snapshot(), done: make(chan struct{})}
				s.draining[id] = d.done
				drains = append(drains, d)
			}
		}
		ls.mu.Unlock()
	}
	s.mu.Unlock()

	for _, d := range drains {
		s.writeSnapshot(d.id, d.snap)

		s.mu.Lock()
		delete(s.draining, d.id)
		s.mu.Unlock()
		close(d.done)
	}
	return evicted
}

// RunJanitor evicts idle sessions until ctx is cancelled.
func (s *PracticeService) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.log.Debug().Int("evicted", n).Msg("Idle practice sessions evicted")
			}
		}
	}
}

// Shutdown writes every pending snapshot.
func (s *PracticeService) Shutdown() {
	s.debouncer.Flush()
}

// LiveSessions returns the number of sessions held in memory.
func (s *PracticeService) LiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ─── Internal ───────────────────────────────────────────────────────

func (s *PracticeService) sessionOptions() []practice.Option {
	if s.rng == nil {
		return nil
	}
	return []practice.Option{practice.WithRand(s.rng)}
}

// acquire returns the live session locked, loading it first if needed.
func (s *PracticeService) acquire(ctx context.Context, id uuid.UUID) (*liveSession, error) {
	for {
		s.mu.Lock()
		ls, live := s.sessions[id]
		drained := s.draining[id]
		s.mu.Unlock()

		if !live && drained != nil {
			select {
			case <-drained:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if !live {
			var err error
			if ls, err = s.load(ctx, id); err != nil {
				return nil, err
			}
		}

		ls.mu.Lock()
		if ls.evicted {
			ls.mu.Unlock()
			continue
		}
		if live {
			s.refreshCatalog(ctx, ls)
		}
		ls.lastSeen = s.now()
		return ls, nil
	}
}

// load restores a session from its snapshot. A corrupt snapshot is removed
// and the session starts fresh.
func (s *PracticeService) load(ctx context.Context, id uuid.UUID) (*liveSession, error) {
	key := id.String()

	data, found, err := s.snapshots.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", ErrContentUnavailable, err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := practice.DecodeSnapshot(data)
	corrupt := err != nil
	if corrupt {
		s.log.Warn().Err(err).Str("session_id", key).Msg("Corrupt snapshot discarded")
		if err := s.snapshots.Remove(ctx, key); err != nil {
			s.log.Error().Err(err).Str("session_id", key).Msg("Remove corrupt snapshot failed")
		}
		snap = nil
	}

	ls := &liveSession{
		id:       id,
		engine:   practice.Restore(catalog.Questions, snap, s.sessionOptions()...),
		version:  catalog.Version,
		lastSeen: s.now(),
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[id] = ls
	s.mu.Unlock()

	if corrupt {
		ls.mu.Lock()
		s.schedulePersist(ls)
		ls.mu.Unlock()
	}
	return ls, nil
}

// refreshCatalog re-attaches a live session to a newer catalogue. When the
// catalogue cannot be read the session keeps its last known questions.
// Callers hold ls.mu.
func (s *PracticeService) refreshCatalog(ctx context.Context, ls *liveSession) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", ls.id.String()).Msg("Catalog refresh failed, keeping in-memory questions")
		return
	}
	if catalog.Version == ls.version {
		return
	}

	snap := ls.engine.Snapshot()
	ls.engine = practice.Restore(catalog.Questions, &snap, s.sessionOptions()...)
	ls.version = catalog.Version

	s.log.Debug().
		Str("session_id", ls.id.String()).
		Int64("catalog_version", catalog.Version).
		Msg("Session re-attached to new catalog")
}

func (s *PracticeService) dispatch(ctx context.Context, ls *liveSession, action model.PracticeAction) (notice string, err error) {
	e := ls.engine

	switch action.Action {
	case model.ActionSubmit:
		return "", e.Submit(action.Selected)
	case model.ActionChangeAnswer:
		return "", e.ChangeAnswer()
	case model.ActionNext:
		return "", e.Next()
	case model.ActionPrev:
		return "", e.Prev()
	case model.ActionSetFilter:
		return e.SetFilter(practice.FilterMode(action.Filter))
	case model.ActionStartRandom:
		return "", e.StartRandomPractice(action.Count)
	case model.ActionStartSequential:
		return "", e.StartSequentialPractice(action.From, action.To)
	case model.ActionRestart:
		e.Restart()
		return "", nil
	case model.ActionContinue:
		e.Continue()
		return "", nil
	case model.ActionReset:
		e.Reset()
		key := ls.id.String()
		s.debouncer.Cancel(key)
		if err := s.snapshots.Remove(ctx, key); err != nil {
			s.log.Error().Err(err).Str("session_id", key).Msg("Remove snapshot on reset failed")
		}
		return "", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action.Action)
	}
}

// schedulePersist (re)starts the quiet period for the session's snapshot.
// The snapshot itself is taken when the write fires.
func (s *PracticeService) schedulePersist(ls *liveSession) {
	s.debouncer.Schedule(ls.id.String(), func() {
		ls.mu.Lock()
		snap := ls.engine.Snapshot()
		ls.mu.Unlock()
		s.writeSnapshot(ls.id, snap)
	})
}

// persistNow writes the snapshot immediately. Callers hold ls.mu.
func (s *PracticeService) persistNow(ls *liveSession) {
	s.debouncer.Cancel(ls.id.String())
	s.writeSnapshot(ls.id, ls.engine.Snapshot())
}

func (s *PracticeService) writeSnapshot(id uuid.UUID, snap practice.Snapshot) {
	data, err := practice.EncodeSnapshot(snap)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", id.String()).Msg("Encode snapshot failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
	defer cancel()

	if err := s.snapshots.Set(ctx, id.String(), data); err != nil {
		s.log.Error().Err(err).Str("session_id", id.String()).Msg("Save snapshot failed")
	}
}

func (s *PracticeService) publishResult(ctx context.Context, ls *liveSession) {
	m := ls.engine.Metrics()
	result := model.PracticeResult{
		SessionID:   ls.id,
		Total:       m.Total,
		Answered:    m.Answered,
		Correct:     m.Correct,
		Incorrect:   m.Incorrect,
		Accuracy:    m.Accuracy,
		FilterMode:  string(ls.engine.Filter()),
		Random:      ls.engine.Ordering() == practice.OrderingRandom,
		Practice:    ls.engine.PracticeActive(),
		CompletedAt: s.now().UTC(),
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Msg("Encode practice result failed")
		return
	}
	if err := s.results.Push(ctx, payload); err != nil {
		s.log.Error().Err(err).Str("session_id", ls.id.String()).Msg("Queue practice result failed")
	}
}

// view builds the learner view. Callers hold ls.mu.
func (s *PracticeService) view(ls *liveSession, notice string) *PracticeView {
	e := ls.engine
	metrics := e.Metrics()

	v := &PracticeView{
		SessionID:      ls.id,
		Status:         e.Status(),
		Position:       e.Position(),
		Total:          e.Len(),
		Filter:         e.Filter(),
		Ordering:       e.Ordering(),
		PracticeMode:   e.PracticeActive(),
		Metrics:        metrics,
		Notice:         notice,
		CatalogVersion: ls.version,
	}

	if q, ok := e.Current(); ok {
		qv := &QuestionView{
			ID:          q.ID,
			Number:      e.Position() + 1,
			Text:        q.Text,
			Options:     q.Options,
			MultiSelect: practice.IsMultiSelect(q),
			State:       e.QuestionState(q.ID),
		}
		if ans, answered := e.AnswerFor(q.ID); answered {
			correct := practice.IsCorrect(q, ans)
			qv.Selected = &ans
			qv.IsCorrect = &correct
			qv.CorrectAnswers = practice.CorrectSet(q)
			qv.Explanation = q.Explanation
		}
		v.Question = qv
	}

	if v.Status == practice.StatusResults {
		v.Results = &ResultsView{
			Metrics: metrics,
			Message: practice.ResultMessage(metrics.Accuracy),
		}
	}
	return v
}
