package practice

import "errors"

// Validation errors. Operations returning one of these leave the session untouched.
var (
	ErrEmptySelection      = errors.New("no option selected")
	ErrSingleSelectOnly    = errors.New("single-select question accepts exactly one option")
	ErrOptionOutOfRange    = errors.New("selected option does not exist")
	ErrAnswerLocked        = errors.New("question already answered, change the answer first")
	ErrNotAnswered         = errors.New("question has no recorded answer")
	ErrInvalidRange        = errors.New("range start is after range end")
	ErrInvalidFilter       = errors.New("unknown filter mode")
	ErrNoMatchingQuestions = errors.New("no matching questions")
	ErrEmptyPractice       = errors.New("practice selection contains no questions")
	ErrNoQuestions         = errors.New("no questions available")
	ErrNotInProgress       = errors.New("session is not in progress")
)
