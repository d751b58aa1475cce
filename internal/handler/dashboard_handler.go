package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/response"
	"github.com/stemsi/quizprep-backend/internal/service"
	"github.com/stemsi/quizprep-backend/internal/validator"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	log              zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, log: log}
}

type dashboardQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// GetDashboardData godoc
// GET /api/v1/admin/dashboard?limit=10
// Returns catalogue counts, recorded run totals and the latest runs.
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	var q dashboardQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	data, err := h.dashboardService.GetDashboardData(c.Request.Context(), q.Limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load dashboard")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, data)
}
