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

type ActivityHandler struct {
	log        *logger.Logger
	activities *store.Store[domain.Activity]
}

func NewActivityHandler(baseLog *logger.Logger, activities *store.Store[domain.Activity]) *ActivityHandler {
	return &ActivityHandler{
		log:        baseLog.With("handler", "ActivityHandler"),
		activities: activities,
	}
}

// POST /api/activities
func (h *ActivityHandler) Create(c *gin.Context) {
	var activity domain.Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	stored, err := h.activities.Create(c.Request.Context(), &activity, activity.ID)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_activity", err)
			return
		}
		h.log.Error("failed to store activity", "error", err)
		RespondError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}
	RespondCreated(c, stored)
}

// GET /api/activities?user_id=&cursor=&limit=
func (h *ActivityHandler) List(c *gin.Context) {
	limit, cursor := pageParams(c)
	ctx := c.Request.Context()

	var (
		page store.Page[domain.Activity]
		err  error
	)
	if userID := c.Query("user_id"); userID != "" {
		page, err = h.activities.Where(ctx, "user_id", "==", userID, limit, cursor)
	} else {
		page, err = h.activities.GetAll(ctx, store.NonDeleted, limit, cursor)
	}
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_query", err)
			return
		}
		h.log.Error("failed to list activities", "error", err)
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	respondPage(c, page)
}
