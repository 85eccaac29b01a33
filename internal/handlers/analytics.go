package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avilacode/bloomtrack-backend/internal/learning/aggregate"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

type AnalyticsHandler struct {
	log        *logger.Logger
	aggregator *aggregate.Aggregator
}

func NewAnalyticsHandler(baseLog *logger.Logger, aggregator *aggregate.Aggregator) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:        baseLog.With("handler", "AnalyticsHandler"),
		aggregator: aggregator,
	}
}

// GET /api/analytics/students/:id
func (h *AnalyticsHandler) StudentSummary(c *gin.Context) {
	summary, err := h.aggregator.ComputeStudentSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Error("failed to compute student summary", "student_id", c.Param("id"), "error", err)
		RespondError(c, http.StatusInternalServerError, "summary_failed", err)
		return
	}
	RespondOK(c, summary)
}

// GET /api/analytics/cohort?role=
func (h *AnalyticsHandler) CohortSummary(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		RespondError(c, http.StatusBadRequest, "missing_role", errors.New("role query param required"))
		return
	}
	summary, err := h.aggregator.ComputeCohortSummary(c.Request.Context(), role)
	if err != nil {
		h.log.Error("failed to compute cohort summary", "role", role, "error", err)
		RespondError(c, http.StatusInternalServerError, "summary_failed", err)
		return
	}
	RespondOK(c, summary)
}
