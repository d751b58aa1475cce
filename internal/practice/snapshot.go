package practice

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/stemsi/quizprep-backend/internal/model"
)

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Answers      map[int64]Answer `json:"user_answers"`
	Position     int              `json:"current_question_index"`
	Order        []int            `json:"question_order"`
	Filter       FilterMode       `json:"filter_mode"`
	Random       bool             `json:"is_random_mode"`
	Practice     bool             `json:"practice_mode"`
	PracticePool []int            `json:"practice_question_pool"`
}

// Snapshot captures the session state as it is right now.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Answers:      maps.Clone(s.answers),
		Position:     s.position,
		Order:        slices.Clone(s.order),
		Filter:       s.filter,
		Random:       s.ordering == OrderingRandom,
		Practice:     s.practice,
		PracticePool: slices.Clone(s.pool),
	}
}

// EncodeSnapshot serialises a snapshot.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// DecodeSnapshot parses a stored snapshot. Callers treat an error as "no snapshot".
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Restore rebuilds a session from a snapshot over the given catalogue.
// Validation is loose: a nil snapshot starts fresh, an empty working set becomes
// the full order, an out-of-range position becomes 0, and indices that no longer
// exist in the catalogue are dropped.
func Restore(questions []model.Question, snap *Snapshot, opts ...Option) *Session {
	s := NewSession(questions, opts...)
	if snap == nil {
		return s
	}

	total := len(questions)

	if order := keepInRange(snap.Order, total); len(order) > 0 {
		s.order = order
	}

	s.practice = snap.Practice
	if pool := keepInRange(snap.PracticePool, total); len(pool) > 0 {
		s.pool = pool
	} else if s.practice {
		s.pool = slices.Clone(s.order)
	}

	if snap.Answers != nil {
		s.answers = maps.Clone(snap.Answers)
	}

	if snap.Filter.Valid() {
		s.filter = snap.Filter
	}
	if snap.Random {
		s.ordering = OrderingRandom
	}

	if snap.Position >= 0 && snap.Position < len(s.order) {
		s.position = snap.Position
	}
	return s
}

func keepInRange(seq []int, total int) []int {
	out := make([]int, 0, len(seq))
	for _, idx := range seq {
		if idx >= 0 && idx < total {
			out = append(out, idx)
		}
	}
	return out
}
