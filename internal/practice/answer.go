package practice

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/stemsi/quizprep-backend/internal/model"
)

// Answer is the recorded selection for one question.
// Single-select answers encode as a bare index, multi-select answers as an array.
type Answer struct {
	Indices []int
	Multi   bool
}

// SingleAnswer returns a single-select answer.
func SingleAnswer(index int) Answer {
	return Answer{Indices: []int{index}}
}

// MultiAnswer returns a multi-select answer.
func MultiAnswer(indices ...int) Answer {
	return Answer{Indices: slices.Clone(indices), Multi: true}
}

// IsEmpty reports whether no option is selected.
func (a Answer) IsEmpty() bool {
	return len(a.Indices) == 0
}

// Normalize returns the canonical option set: ascending, without duplicates.
// The result is never nil.
func (a Answer) Normalize() []int {
	if len(a.Indices) == 0 {
		return []int{}
	}
	out := slices.Clone(a.Indices)
	slices.Sort(out)
	return slices.Compact(out)
}

// MarshalJSON implements json.Marshaler.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsEmpty() {
		return []byte("null"), nil
	}
	if !a.Multi && len(a.Indices) == 1 {
		return json.Marshal(a.Indices[0])
	}
	return json.Marshal(a.Indices)
}

// UnmarshalJSON implements json.Unmarshaler. It accepts null, a number, or an array.
func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Answer{}
		return nil
	}

	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		*a = SingleAnswer(single)
		return nil
	}

	var list []int
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("answer must be an index or a list of indices: %w", err)
	}
	*a = MultiAnswer(list...)
	return nil
}

// CorrectSet returns the question's correct option indices, ascending.
// The explicit list wins over the legacy single index; absent data yields an empty set.
func CorrectSet(q model.Question) []int {
	switch {
	case q.CorrectAnswers != nil:
		out := slices.Clone(q.CorrectAnswers)
		slices.Sort(out)
		return slices.Compact(out)
	case q.CorrectAnswer != nil:
		return []int{*q.CorrectAnswer}
	default:
		return []int{}
	}
}

// IsMultiSelect reports whether the question has more than one correct option.
func IsMultiSelect(q model.Question) bool {
	return len(CorrectSet(q)) > 1
}

// IsCorrect reports whether the answer matches the correct set exactly.
// There is no partial credit.
func IsCorrect(q model.Question, a Answer) bool {
	return slices.Equal(a.Normalize(), CorrectSet(q))
}

// ValidateSubmission checks a raw selection against the question and returns the
// answer to record.
func ValidateSubmission(q model.Question, selected []int) (Answer, error) {
	picked := MultiAnswer(selected...).Normalize()
	if len(picked) == 0 {
		return Answer{}, ErrEmptySelection
	}
	for _, idx := range picked {
		if idx < 0 || idx >= len(q.Options) {
			return Answer{}, fmt.Errorf("%w: %d", ErrOptionOutOfRange, idx)
		}
	}

	if !IsMultiSelect(q) {
		if len(picked) != 1 {
			return Answer{}, ErrSingleSelectOnly
		}
		return SingleAnswer(picked[0]), nil
	}
	return MultiAnswer(picked...), nil
}
