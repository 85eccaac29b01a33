package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avilacode/bloomtrack-backend/internal/data/store"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
	errs "github.com/avilacode/bloomtrack-backend/internal/pkg/errors"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

type RecommendationHandler struct {
	log             *logger.Logger
	recommendations *store.Store[domain.Recommendation]
}

func NewRecommendationHandler(baseLog *logger.Logger, recommendations *store.Store[domain.Recommendation]) *RecommendationHandler {
	return &RecommendationHandler{
		log:             baseLog.With("handler", "RecommendationHandler"),
		recommendations: recommendations,
	}
}

// GET /api/recommendations?user_id=|diagnostic_result_id=&cursor=&limit=
func (h *RecommendationHandler) List(c *gin.Context) {
	limit, cursor := pageParams(c)
	ctx := c.Request.Context()

	var (
		page store.Page[domain.Recommendation]
		err  error
	)
	switch {
	case c.Query("diagnostic_result_id") != "":
		page, err = h.recommendations.Where(ctx, "diagnostic_result_id", "==", c.Query("diagnostic_result_id"), limit, cursor)
	case c.Query("user_id") != "":
		page, err = h.recommendations.Where(ctx, "user_id", "==", c.Query("user_id"), limit, cursor)
	default:
		page, err = h.recommendations.GetAll(ctx, store.NonDeleted, limit, cursor)
	}
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_query", err)
			return
		}
		h.log.Error("failed to list recommendations", "error", err)
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	respondPage(c, page)
}

// GET /api/recommendations/:id
func (h *RecommendationHandler) Get(c *gin.Context) {
	rec, err := h.recommendations.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		h.log.Error("failed to load recommendation", "id", c.Param("id"), "error", err)
		RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	if rec == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("recommendation not found"))
		return
	}
	RespondOK(c, rec)
}
