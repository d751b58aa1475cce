package model

import (
	"encoding/json"
	"time"
)

// Question represents a single practice question.
type Question struct {
	ID             int64       `json:"id"`
	Text           string      `json:"text"`
	Options        []string    `json:"options"`
	CorrectAnswers []int       `json:"correct_answers"`
	Explanation    Explanation `json:"explanation"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	// CorrectAnswer is the legacy single-index form. It is only read on input
	// and folded into CorrectAnswers before storage.
	CorrectAnswer *int `json:"correct_answer,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Backups exported by the earlier
// editor use camelCase keys (correctAnswers, correctAnswer); both spellings are
// accepted and the snake_case one wins when both are present.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		*plain
		CorrectAnswersCamel []int `json:"correctAnswers"`
		CorrectAnswerCamel  *int  `json:"correctAnswer"`
	}{plain: (*plain)(q)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if q.CorrectAnswers == nil && aux.CorrectAnswersCamel != nil {
		q.CorrectAnswers = aux.CorrectAnswersCamel
	}
	if q.CorrectAnswer == nil && aux.CorrectAnswerCamel != nil {
		q.CorrectAnswer = aux.CorrectAnswerCamel
	}
	return nil
}

// Explanation is an ordered list of explanation paragraphs.
// It decodes from either a JSON array of strings or a single string.
type Explanation []string

// UnmarshalJSON implements json.Unmarshaler.
func (e *Explanation) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = Explanation{}
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*e = Explanation{}
		} else {
			*e = Explanation{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*e = Explanation(list)
	return nil
}

// QuestionRequest is the payload for creating or updating a question.
type QuestionRequest struct {
	Text           string      `json:"text" binding:"required,notblank,max=20000"`
	Options        []string    `json:"options" binding:"required,min=2,max=26,dive,max=5000"`
	CorrectAnswers []int       `json:"correct_answers" binding:"omitempty,dive,min=0"`
	CorrectAnswer  *int        `json:"correct_answer" binding:"omitempty,min=0"`
	Explanation    Explanation `json:"explanation"`
}

// RestoreResult is returned after a backup has been restored.
type RestoreResult struct {
	RestoredCount int    `json:"restored_count"`
	Message       string `json:"message"`
}

// Catalog is the ordered question list practice sessions index into.
// Version changes whenever the stored questions change.
type Catalog struct {
	Version   int64      `json:"version"`
	Questions []Question `json:"questions"`
}
