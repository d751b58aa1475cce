package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/stemsi/quizprep-backend/internal/response"
	"github.com/stemsi/quizprep-backend/internal/service"
	"github.com/stemsi/quizprep-backend/internal/validator"
)

const maxBackupBytes = 32 << 20

// QuestionHandler handles the question catalogue endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/questions
// Lists the whole catalogue in practice order.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questionService.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": nonNil(questions)})
}

// GetQuestion godoc
// GET /api/v1/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}

	q, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

type searchQuery struct {
	Search string `form:"search" binding:"max=200"`
	response.PageQuery
}

// SearchQuestions godoc
// GET /api/v1/admin/questions?search=&page=&per_page=
// Filters questions by text or exact id, one page at a time. An empty search
// lists everything.
func (h *QuestionHandler) SearchQuestions(c *gin.Context) {
	var q searchQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.Search(c.Request.Context(), q.Search)
	if err != nil {
		h.fail(c, err)
		return
	}

	page := response.NewPagination(q.PageQuery, len(questions))
	start, end := page.Bounds()
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": nonNil(questions[start:end])}, page)
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}

	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// Backup godoc
// GET /api/v1/admin/backup[?format=xlsx]
// Downloads every question as a JSON array, or as a spreadsheet.
func (h *QuestionHandler) Backup(c *gin.Context) {
	questions, err := h.questionService.Backup(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	questions = nonNil(questions)
	stamp := time.Now().UTC().Format("20060102-150405")

	if c.Query("format") == "xlsx" {
		data, err := service.ExportBackupXLSX(questions)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="questions-%s.xlsx"`, stamp))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="questions-%s.json"`, stamp))
	c.JSON(http.StatusOK, questions)
}

// Restore godoc
// POST /api/v1/admin/restore
// Replaces the catalogue with the JSON array in the request body.
func (h *QuestionHandler) Restore(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBackupBytes+1))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if len(raw) > maxBackupBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrInvalidPayload)
		return
	}

	result, err := h.questionService.Restore(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBackupData) || errors.Is(err, service.ErrInvalidQuestion) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidBackupData,
				map[string]string{"detail": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *QuestionHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidQuestion):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrContentUnavailable):
		h.log.Warn().Err(err).Msg("Question catalogue unavailable")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrContentUnavailable)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Question request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func questionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func nonNil(questions []model.Question) []model.Question {
	if questions == nil {
		return []model.Question{}
	}
	return questions
}
