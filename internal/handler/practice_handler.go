package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/stemsi/quizprep-backend/internal/response"
	"github.com/stemsi/quizprep-backend/internal/service"
	"github.com/stemsi/quizprep-backend/internal/validator"
)

// PracticeHandler handles learner practice sessions.
type PracticeHandler struct {
	practiceService *service.PracticeService
	log             zerolog.Logger
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practiceService *service.PracticeService, log zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		practiceService: practiceService,
		log:             log.With().Str("component", "practice_handler").Logger(),
	}
}

// CreateSession godoc
// POST /api/v1/practice/sessions
// Starts a new session over the full catalogue and returns its first view.
func (h *PracticeHandler) CreateSession(c *gin.Context) {
	view, err := h.practiceService.Create(c.Request.Context())
	if err != nil {
		failPractice(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, view)
}

// GetSession godoc
// GET /api/v1/practice/sessions/:id
// Returns the current view, resuming the session from its snapshot if needed.
func (h *PracticeHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.practiceService.Get(c.Request.Context(), id)
	if err != nil {
		failPractice(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// ApplyAction godoc
// POST /api/v1/practice/sessions/:id/actions
// Applies one action (submit, next, set_filter, ...) and returns the new view.
func (h *PracticeHandler) ApplyAction(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.PracticeAction
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.practiceService.Apply(c.Request.Context(), id, req)
	if err != nil {
		failPractice(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// ResetSession godoc
// DELETE /api/v1/practice/sessions/:id
// Discards all progress and returns the session to the full catalogue.
func (h *PracticeHandler) ResetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.practiceService.Reset(c.Request.Context(), id)
	if err != nil {
		failPractice(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GetHistory godoc
// GET /api/v1/practice/sessions/:id/history
// Lists the recorded runs of a session, newest first.
func (h *PracticeHandler) GetHistory(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	results, err := h.practiceService.History(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", id.String()).Msg("List practice history failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.PracticeResult{}
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
