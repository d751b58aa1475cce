package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/practice"
	"github.com/stemsi/quizprep-backend/internal/response"
	"github.com/stemsi/quizprep-backend/internal/service"
)

type errMapping struct {
	target error
	status int
	code   response.ErrCode
}

var practiceErrors = []errMapping{
	{service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
	{service.ErrUnknownAction, http.StatusBadRequest, response.ErrUnknownAction},
	{service.ErrContentUnavailable, http.StatusServiceUnavailable, response.ErrContentUnavailable},
	{practice.ErrEmptySelection, http.StatusBadRequest, response.ErrEmptySelection},
	{practice.ErrSingleSelectOnly, http.StatusBadRequest, response.ErrSingleSelectOnly},
	{practice.ErrOptionOutOfRange, http.StatusBadRequest, response.ErrOptionOutOfRange},
	{practice.ErrAnswerLocked, http.StatusConflict, response.ErrAnswerLocked},
	{practice.ErrNotAnswered, http.StatusConflict, response.ErrNotAnswered},
	{practice.ErrInvalidRange, http.StatusBadRequest, response.ErrInvalidRange},
	{practice.ErrInvalidFilter, http.StatusBadRequest, response.ErrInvalidFilter},
	{practice.ErrEmptyPractice, http.StatusBadRequest, response.ErrEmptyPractice},
	{practice.ErrNoQuestions, http.StatusConflict, response.ErrNoQuestions},
	{practice.ErrNotInProgress, http.StatusConflict, response.ErrNotInProgress},
}

// mapPracticeError converts a practice or session error to its HTTP status and
// code. Anything unrecognised is an internal error.
func mapPracticeError(err error) (int, response.ErrCode) {
	for _, m := range practiceErrors {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

func failPractice(c *gin.Context, log zerolog.Logger, err error) {
	status, code := mapPracticeError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Practice request failed")
	}
	response.Fail(c, status, code)
}
