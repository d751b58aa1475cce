package practice

import (
	"math"

	"github.com/stemsi/quizprep-backend/internal/model"
)

// Metrics are derived counts over a working set.
type Metrics struct {
	Total      int     `json:"total"`
	Answered   int     `json:"answered"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Accuracy   int     `json:"accuracy_percent"`
	Completion float64 `json:"completion_percent"`
}

// ComputeMetrics counts answered, correct and incorrect questions in order.
func ComputeMetrics(order []int, questions []model.Question, answers map[int64]Answer) Metrics {
	m := Metrics{Total: len(order)}

	for _, idx := range order {
		if idx < 0 || idx >= len(questions) {
			continue
		}
		q := questions[idx]
		ans, ok := answers[q.ID]
		if !ok {
			continue
		}
		m.Answered++
		if IsCorrect(q, ans) {
			m.Correct++
		} else {
			m.Incorrect++
		}
	}

	if m.Answered > 0 {
		m.Accuracy = int(math.Round(100 * float64(m.Correct) / float64(m.Answered)))
	}
	if m.Total > 0 {
		m.Completion = 100 * float64(m.Answered) / float64(m.Total)
	}
	return m
}

// ResultMessage returns the closing message for a finished run.
func ResultMessage(accuracy int) string {
	switch {
	case accuracy >= 90:
		return "Excellent work!"
	case accuracy >= 70:
		return "Good job!"
	default:
		return "Keep studying!"
	}
}
