package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionKind names one discrete practice action.
type ActionKind string

const (
	ActionSubmit          ActionKind = "submit"
	ActionChangeAnswer    ActionKind = "change_answer"
	ActionNext            ActionKind = "next"
	ActionPrev            ActionKind = "prev"
	ActionSetFilter       ActionKind = "set_filter"
	ActionStartRandom     ActionKind = "start_random"
	ActionStartSequential ActionKind = "start_sequential"
	ActionRestart         ActionKind = "restart"
	ActionContinue        ActionKind = "continue"
	ActionReset           ActionKind = "reset"
)

// PracticeAction is one action sent by a learner. Only the fields the action
// needs are read.
type PracticeAction struct {
	Action   ActionKind `json:"action" binding:"required,oneof=submit change_answer next prev set_filter start_random start_sequential restart continue reset"`
	Selected []int      `json:"selected,omitempty"`
	Filter   string     `json:"filter,omitempty"`
	Count    int        `json:"count,omitempty"`
	From     int        `json:"from,omitempty"`
	To       int        `json:"to,omitempty"`
}

// PracticeResult summarises a practice run that reached the results screen.
type PracticeResult struct {
	ID          int64     `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	Total       int       `json:"total"`
	Answered    int       `json:"answered"`
	Correct     int       `json:"correct"`
	Incorrect   int       `json:"incorrect"`
	Accuracy    int       `json:"accuracy_percent"`
	FilterMode  string    `json:"filter_mode"`
	Random      bool      `json:"is_random"`
	Practice    bool      `json:"practice_mode"`
	CompletedAt time.Time `json:"completed_at"`
}
