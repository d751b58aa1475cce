package practice

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/stemsi/quizprep-backend/internal/model"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in_progress"
	StatusResults    Status = "results"
)

// QuestionState tells whether a question accepts a submission.
type QuestionState string

const (
	QuestionUnanswered QuestionState = "unanswered"
	QuestionLocked     QuestionState = "locked"
)

// Session is the selection and scoring state of one practice run.
// It is not safe for concurrent use; callers serialise access.
type Session struct {
	questions []model.Question
	answers   map[int64]Answer

	order    []int // working set
	pool     []int // filter base while a practice run is active
	position int

	filter   FilterMode
	ordering Ordering
	practice bool
	status   Status

	rng Rand
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the randomness source used for random practice and reshuffles.
func WithRand(rng Rand) Option {
	return func(s *Session) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// NewSession starts a fresh session over the full catalogue.
func NewSession(questions []model.Question, opts ...Option) *Session {
	s := &Session{
		questions: questions,
		answers:   make(map[int64]Answer),
		filter:    FilterAll,
		ordering:  OrderingSequential,
		status:    StatusIdle,
		rng:       globalRand{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.order = BuildFullOrder(len(questions))
	s.pool = slices.Clone(s.order)
	return s
}

// ─── Read accessors ─────────────────────────────────────────────────

func (s *Session) Status() Status { return s.status }
func (s *Session) Position() int { return s.position }
func (s *Session) Filter() FilterMode { return s.filter }
func (s *Session) Ordering() Ordering { return s.ordering }
func (s *Session) PracticeActive() bool { return s.practice }
func (s *Session) Len() int { return len(s.order) }
func (s *Session) WorkingSet() []int { return slices.Clone(s.order) }
func (s *Session) PracticePool() []int { return slices.Clone(s.pool) }
func (s *Session) Questions() []model.Question { return s.questions }

// Current returns the question at the current position.
func (s *Session) Current() (model.Question, bool) {
	if s.position < 0 || s.position >= len(s.order) {
		return model.Question{}, false
	}
	idx := s.order[s.position]
	if idx < 0 || idx >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[idx], true
}

// AnswerFor returns the recorded answer for a question id.
func (s *Session) AnswerFor(id int64) (Answer, bool) {
	a, ok := s.answers[id]
	return a, ok
}

// Answers returns a copy of all recorded answers.
func (s *Session) Answers() map[int64]Answer {
	return maps.Clone(s.answers)
}

// QuestionState returns whether the question with id is locked by a recorded answer.
func (s *Session) QuestionState(id int64) QuestionState {
	if _, ok := s.answers[id]; ok {
		return QuestionLocked
	}
	return QuestionUnanswered
}

// Metrics computes metrics over the current working set.
func (s *Session) Metrics() Metrics {
	return ComputeMetrics(s.order, s.questions, s.answers)
}

// ─── Lifecycle ──────────────────────────────────────────────────────

// Render marks the session as in progress once it has something to show.
func (s *Session) Render() {
	if s.status == StatusIdle && len(s.order) > 0 {
		s.status = StatusInProgress
	}
}

// Next advances one question. Advancing past the last question enters the
// results state instead of wrapping.
func (s *Session) Next() error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.position < len(s.order)-1 {
		s.position++
		return nil
	}
	s.status = StatusResults
	return nil
}

// Prev steps back one question. It is a no-op on the first question.
func (s *Session) Prev() error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.position > 0 {
		s.position--
	}
	return nil
}

// Continue leaves the results state and keeps the current position.
func (s *Session) Continue() {
	s.resume()
}

// Restart clears every answer and starts the current working set over.
func (s *Session) Restart() {
	s.answers = make(map[int64]Answer)
	s.position = 0
	s.resume()
}

// Reset returns to the full catalogue in order, clears answers and leaves practice mode.
func (s *Session) Reset() {
	s.answers = make(map[int64]Answer)
	s.position = 0
	s.practice = false
	s.ordering = OrderingSequential
	s.filter = FilterAll
	s.order = BuildFullOrder(len(s.questions))
	s.pool = slices.Clone(s.order)
	s.resume()
}

// ─── Answering ──────────────────────────────────────────────────────

// Submit records the selection for the current question.
func (s *Session) Submit(selected []int) error {
	q, err := s.currentForAnswer()
	if err != nil {
		return err
	}
	if s.QuestionState(q.ID) == QuestionLocked {
		return ErrAnswerLocked
	}

	ans, err := ValidateSubmission(q, selected)
	if err != nil {
		return err
	}
	s.answers[q.ID] = ans
	return nil
}

// ChangeAnswer clears the recorded answer of the current question so it can be
// answered again.
func (s *Session) ChangeAnswer() error {
	q, err := s.currentForAnswer()
	if err != nil {
		return err
	}
	if s.QuestionState(q.ID) != QuestionLocked {
		return ErrNotAnswered
	}
	delete(s.answers, q.ID)
	return nil
}

// ─── Selection ──────────────────────────────────────────────────────

// SetFilter rebuilds the working set from the filter base. When the filter
// matches nothing the session falls back to FilterAll and the returned notice
// says so.
func (s *Session) SetFilter(mode FilterMode) (notice string, err error) {
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, mode)
	}
	if len(s.questions) == 0 {
		return "", ErrNoQuestions
	}

	base := s.filterBase()
	seq, err := ApplyFilter(base, mode, s.judge)
	if errors.Is(err, ErrNoMatchingQuestions) {
		notice = fmt.Sprintf("No %s questions found.", mode)
		mode = FilterAll
		seq, err = ApplyFilter(base, FilterAll, s.judge)
	}
	if err != nil {
		return "", err
	}

	if s.ordering == OrderingRandom {
		Shuffle(seq, s.rng)
	}

	s.order = seq
	s.filter = mode
	s.position = 0
	s.resume()
	return notice, nil
}

// StartRandomPractice starts a practice run over count randomly drawn questions.
// A non-positive count selects the whole catalogue.
func (s *Session) StartRandomPractice(count int) error {
	total := len(s.questions)
	if count <= 0 || count > total {
		count = total
	}

	pool := BuildRandomSubset(count, total, s.rng)
	if len(pool) == 0 {
		return ErrEmptyPractice
	}

	s.startPractice(pool, OrderingRandom)
	return nil
}

// StartSequentialPractice starts a practice run over questions from..to,
// 1-based and inclusive.
func (s *Session) StartSequentialPractice(from, to int) error {
	if from > to {
		return fmt.Errorf("%w: from %d, to %d", ErrInvalidRange, from, to)
	}
	pool, err := BuildSequentialRange(from-1, to, len(s.questions))
	if err != nil {
		return err
	}
	if len(pool) == 0 {
		return ErrEmptyPractice
	}

	s.startPractice(pool, OrderingSequential)
	return nil
}

// ─── Internal ───────────────────────────────────────────────────────

func (s *Session) startPractice(pool []int, ordering Ordering) {
	s.practice = true
	s.ordering = ordering
	s.filter = FilterAll
	s.position = 0
	s.pool = pool
	s.order = slices.Clone(pool)
	s.resume()
}

func (s *Session) filterBase() []int {
	if s.practice {
		return s.pool
	}
	return BuildFullOrder(len(s.questions))
}

func (s *Session) judge(idx int) (answered, correct bool) {
	if idx < 0 || idx >= len(s.questions) {
		return false, false
	}
	q := s.questions[idx]
	ans, ok := s.answers[q.ID]
	if !ok {
		return false, false
	}
	return true, IsCorrect(q, ans)
}

func (s *Session) resume() {
	if len(s.order) == 0 {
		s.status = StatusIdle
		return
	}
	s.status = StatusInProgress
}

func (s *Session) requireInProgress() error {
	if len(s.order) == 0 {
		return ErrNoQuestions
	}
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	return nil
}

func (s *Session) currentForAnswer() (model.Question, error) {
	if err := s.requireInProgress(); err != nil {
		return model.Question{}, err
	}
	q, ok := s.Current()
	if !ok {
		return model.Question{}, ErrNoQuestions
	}
	return q, nil
}
