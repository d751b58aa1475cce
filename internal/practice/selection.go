package practice

import (
	"fmt"
	"math/rand/v2"
)

// Rand is the randomness source used for shuffling. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// FilterMode restricts the working set to matching questions.
type FilterMode string

const (
	FilterAll        FilterMode = "all"
	FilterIncorrect  FilterMode = "incorrect"
	FilterUnanswered FilterMode = "unanswered"
)

// Valid reports whether m is a known filter mode.
func (m FilterMode) Valid() bool {
	switch m {
	case FilterAll, FilterIncorrect, FilterUnanswered:
		return true
	}
	return false
}

// Ordering is the order in which the working set is presented.
type Ordering string

const (
	OrderingSequential Ordering = "sequential"
	OrderingRandom     Ordering = "random"
)

// Judge reports whether the question at a catalogue index has a recorded answer
// and whether that answer is correct.
type Judge func(idx int) (answered, correct bool)

// BuildFullOrder returns [0, total).
func BuildFullOrder(total int) []int {
	if total < 0 {
		total = 0
	}
	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	return order
}

// BuildRandomSubset draws min(count, total) distinct indices from [0, total)
// using a partial Fisher–Yates shuffle.
func BuildRandomSubset(count, total int, rng Rand) []int {
	n := min(count, total)
	if n <= 0 {
		return []int{}
	}

	indices := BuildFullOrder(total)
	for i := 0; i < n; i++ {
		r := i + rng.IntN(total-i)
		indices[i], indices[r] = indices[r], indices[i]
	}
	return indices[:n:n]
}

// BuildSequentialRange returns [start, end) clipped to [0, total).
func BuildSequentialRange(start, end, total int) ([]int, error) {
	if start > end {
		return nil, fmt.Errorf("%w: start %d, end %d", ErrInvalidRange, start, end)
	}

	lo, hi := max(start, 0), min(end, total)
	out := make([]int, 0, max(hi-lo, 0))
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out, nil
}

// Shuffle permutes seq in place (full Fisher–Yates).
func Shuffle(seq []int, rng Rand) {
	for i := len(seq) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		seq[i], seq[j] = seq[j], seq[i]
	}
}

// ApplyFilter derives a new sequence from base. A non-all filter with no match
// returns ErrNoMatchingQuestions; the caller is expected to fall back to FilterAll.
func ApplyFilter(base []int, mode FilterMode, judge Judge) ([]int, error) {
	out := make([]int, 0, len(base))

	switch mode {
	case FilterAll:
		return append(out, base...), nil
	case FilterIncorrect:
		for _, idx := range base {
			if answered, correct := judge(idx); answered && !correct {
				out = append(out, idx)
			}
		}
	case FilterUnanswered:
		for _, idx := range base {
			if answered, _ := judge(idx); !answered {
				out = append(out, idx)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, mode)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingQuestions, mode)
	}
	return out, nil
}
