package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation        ErrCode = "VALIDATION_ERROR"
	ErrInvalidID         ErrCode = "INVALID_ID"
	ErrInvalidPayload    ErrCode = "INVALID_PAYLOAD"
	ErrInvalidBackupData ErrCode = "INVALID_BACKUP_DATA"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"

	// ─── Practice ──────────────────────────────────────────────────────
	ErrUnknownAction      ErrCode = "UNKNOWN_ACTION"
	ErrEmptySelection     ErrCode = "EMPTY_SELECTION"
	ErrSingleSelectOnly   ErrCode = "SINGLE_SELECT_ONLY"
	ErrOptionOutOfRange   ErrCode = "OPTION_OUT_OF_RANGE"
	ErrAnswerLocked       ErrCode = "ANSWER_LOCKED"
	ErrNotAnswered        ErrCode = "NOT_ANSWERED"
	ErrInvalidRange       ErrCode = "INVALID_RANGE"
	ErrInvalidFilter      ErrCode = "INVALID_FILTER"
	ErrEmptyPractice      ErrCode = "EMPTY_PRACTICE"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrNotInProgress      ErrCode = "NOT_IN_PROGRESS"
	ErrContentUnavailable ErrCode = "CONTENT_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidBackupData:
		return "Invalid backup data format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrSessionNotFound:
		return "Practice session not found."

	// ─── Practice ──────────────────────────────────────────────────────
	case ErrUnknownAction:
		return "Unknown practice action."
	case ErrEmptySelection:
		return "Please select an answer."
	case ErrSingleSelectOnly:
		return "This question accepts exactly one answer."
	case ErrOptionOutOfRange:
		return "The selected option does not exist."
	case ErrAnswerLocked:
		return "This question is already answered. Change the answer first."
	case ErrNotAnswered:
		return "This question has not been answered yet."
	case ErrInvalidRange:
		return "The start of the range must not be after its end."
	case ErrInvalidFilter:
		return "Unknown filter mode."
	case ErrEmptyPractice:
		return "The selected range contains no questions."
	case ErrNoQuestions:
		return "No questions available."
	case ErrNotInProgress:
		return "The practice run is not in progress."
	case ErrContentUnavailable:
		return "Questions are temporarily unavailable. Please try again later."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
