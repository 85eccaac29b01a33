package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avilacode/bloomtrack-backend/internal/data/store"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
	errs "github.com/avilacode/bloomtrack-backend/internal/pkg/errors"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// EnqueueFunc schedules recommendation generation for a stored diagnostic
// result. Submission never waits on the engine.
type EnqueueFunc func(ctx context.Context, diagnosticResultID string) error

type DiagnosticHandler struct {
	log     *logger.Logger
	results *store.Store[domain.DiagnosticResult]
	enqueue EnqueueFunc
}

func NewDiagnosticHandler(baseLog *logger.Logger, results *store.Store[domain.DiagnosticResult], enqueue EnqueueFunc) *DiagnosticHandler {
	return &DiagnosticHandler{
		log:     baseLog.With("handler", "DiagnosticHandler"),
		results: results,
		enqueue: enqueue,
	}
}

// POST /api/diagnostics/results
// Stores the result and queues recommendation generation. The response does
// not wait for recommendations; callers poll GET /api/recommendations.
func (h *DiagnosticHandler) Submit(c *gin.Context) {
	var result domain.DiagnosticResult
	if err := c.ShouldBindJSON(&result); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if result.PassingStatus == "" {
		if result.OverallScore >= 75.0 {
			result.PassingStatus = domain.PassingStatusPassed
		} else {
			result.PassingStatus = domain.PassingStatusFailed
		}
	}

	stored, err := h.results.Create(c.Request.Context(), &result, result.ID)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_result", err)
			return
		}
		h.log.Error("failed to store diagnostic result", "error", err)
		RespondError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}

	if h.enqueue != nil {
		if err := h.enqueue(c.Request.Context(), stored.ID); err != nil {
			// the result is stored; generation can be re-triggered later
			h.log.Error("failed to enqueue recommendation job", "result_id", stored.ID, "error", err)
		}
	}

	RespondCreated(c, stored)
}

// GET /api/diagnostics/results/:id
func (h *DiagnosticHandler) Get(c *gin.Context) {
	result, err := h.results.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		h.log.Error("failed to load diagnostic result", "id", c.Param("id"), "error", err)
		RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	if result == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("diagnostic result not found"))
		return
	}
	RespondOK(c, result)
}

// GET /api/diagnostics/results?user_id=&cursor=&limit=
func (h *DiagnosticHandler) List(c *gin.Context) {
	limit, cursor := pageParams(c)
	ctx := c.Request.Context()

	var (
		page store.Page[domain.DiagnosticResult]
		err  error
	)
	if userID := c.Query("user_id"); userID != "" {
		page, err = h.results.Where(ctx, "user_id", "==", userID, limit, cursor)
	} else {
		page, err = h.results.GetAll(ctx, store.NonDeleted, limit, cursor)
	}
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_query", err)
			return
		}
		h.log.Error("failed to list diagnostic results", "error", err)
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	respondPage(c, page)
}
