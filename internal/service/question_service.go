package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/stemsi/quizprep-backend/internal/practice"
	"github.com/stemsi/quizprep-backend/internal/repository"
)

// Question errors.
var (
	ErrQuestionNotFound   = errors.New("question not found")
	ErrInvalidQuestion    = errors.New("invalid question")
	ErrInvalidBackupData  = errors.New("invalid backup data format")
	ErrContentUnavailable = errors.New("question catalogue unavailable")
)

// QuestionStore is the question persistence used by QuestionService.
type QuestionStore interface {
	List(ctx context.Context) ([]model.Question, error)
	Search(ctx context.Context, term string) ([]model.Question, error)
	GetByID(ctx context.Context, id int64) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id int64) error
	RestoreAll(ctx context.Context, questions []model.Question) (int, error)
}

// CatalogCache caches the question catalogue and tracks its version.
type CatalogCache interface {
	Get(ctx context.Context) (*model.Catalog, error)
	Version(ctx context.Context) (int64, error)
	Set(ctx context.Context, catalog *model.Catalog) error
	Invalidate(ctx context.Context) error
}

// QuestionService handles the question catalogue.
type QuestionService struct {
	repo  QuestionStore
	cache CatalogCache
	log   zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(repo QuestionStore, cache CatalogCache, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		repo:  repo,
		cache: cache,
		log:   log.With().Str("component", "question_service").Logger(),
	}
}

// Catalog returns the current catalogue, served from cache when it is fresh.
func (s *QuestionService) Catalog(ctx context.Context) (*model.Catalog, error) {
	cached, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Catalog cache read failed, loading from database")
	}
	if cached != nil {
		return cached, nil
	}

	version, err := s.cache.Version(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Catalog version read failed")
	}

	questions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	catalog := &model.Catalog{Version: version, Questions: questions}
	if err := s.cache.Set(ctx, catalog); err != nil {
		s.log.Warn().Err(err).Msg("Catalog cache write failed")
	}
	return catalog, nil
}

// List returns every question in catalogue order.
func (s *QuestionService) List(ctx context.Context) ([]model.Question, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Questions, nil
}

// Search filters questions by text or id. An empty term lists everything.
func (s *QuestionService) Search(ctx context.Context, term string) ([]model.Question, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	return s.repo.Search(ctx, term)
}

// Get retrieves a single question.
func (s *QuestionService) Get(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, req *model.QuestionRequest) (*model.Question, error) {
	q := questionFromRequest(req)
	if err := NormalizeQuestion(q); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return q, nil
}

// Update validates and replaces a question's content.
func (s *QuestionService) Update(ctx context.Context, id int64, req *model.QuestionRequest) (*model.Question, error) {
	q := questionFromRequest(req)
	q.ID = id
	if err := NormalizeQuestion(q); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, q); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	return q, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrQuestionNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Backup returns every question straight from the database.
func (s *QuestionService) Backup(ctx context.Context) ([]model.Question, error) {
	return s.repo.List(ctx)
}

// Restore replaces the catalogue with a JSON array of questions.
func (s *QuestionService) Restore(ctx context.Context, raw []byte) (*model.RestoreResult, error) {
	questions, err := DecodeBackup(raw)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.RestoreAll(ctx, questions)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.log.Info().Int("count", count).Msg("Questions restored from backup")
	return &model.RestoreResult{
		RestoredCount: count,
		Message:       fmt.Sprintf("Successfully restored %d questions", count),
	}, nil
}

func (s *QuestionService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Error().Err(err).Msg("Catalog cache invalidation failed")
	}
}

// ─── Validation ─────────────────────────────────────────────────────

// NormalizeQuestion checks a question and rewrites it into stored form: the
// legacy single index is folded into the sorted, de-duplicated correct list.
func NormalizeQuestion(q *model.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: at least two options are required", ErrInvalidQuestion)
	}

	correct := practice.CorrectSet(*q)
	if len(correct) == 0 {
		return fmt.Errorf("%w: at least one correct answer is required", ErrInvalidQuestion)
	}
	for _, idx := range correct {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("%w: correct answer %d is not an option", ErrInvalidQuestion, idx)
		}
	}

	q.CorrectAnswers = correct
	q.CorrectAnswer = nil
	if q.Explanation == nil {
		q.Explanation = model.Explanation{}
	}
	return nil
}

// DecodeBackup parses and validates a backup document. Anything but a JSON
// array is rejected with ErrInvalidBackupData.
func DecodeBackup(raw []byte) ([]model.Question, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidBackupData
	}

	var questions []model.Question
	if err := json.Unmarshal(trimmed, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackupData, err)
	}

	seen := make(map[int64]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		if err := NormalizeQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.ID > 0 {
			if seen[q.ID] {
				return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidBackupData, q.ID)
			}
			seen[q.ID] = true
		}
	}
	return questions, nil
}

func questionFromRequest(req *model.QuestionRequest) *model.Question {
	return &model.Question{
		Text:           req.Text,
		Options:        req.Options,
		CorrectAnswers: req.CorrectAnswers,
		CorrectAnswer:  req.CorrectAnswer,
		Explanation:    req.Explanation,
	}
}
