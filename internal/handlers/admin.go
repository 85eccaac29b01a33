package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avilacode/bloomtrack-backend/internal/data"
	errs "github.com/avilacode/bloomtrack-backend/internal/pkg/errors"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// PurgeFunc permanently deletes every record in a collection matching one
// predicate, soft-deleted rows included.
type PurgeFunc func(ctx context.Context, field, op string, value any) (int, error)

type AdminHandler struct {
	log     *logger.Logger
	purgers map[string]PurgeFunc
}

func NewAdminHandler(baseLog *logger.Logger, stores data.Stores) *AdminHandler {
	return &AdminHandler{
		log: baseLog.With("handler", "AdminHandler"),
		purgers: map[string]PurgeFunc{
			stores.Activities.Collection():        stores.Activities.PurgeWhere,
			stores.DiagnosticResults.Collection(): stores.DiagnosticResults.PurgeWhere,
			stores.Recommendations.Collection():   stores.Recommendations.PurgeWhere,
			stores.Modules.Collection():           stores.Modules.PurgeWhere,
			stores.Quizzes.Collection():           stores.Quizzes.PurgeWhere,
			stores.Subjects.Collection():          stores.Subjects.PurgeWhere,
			stores.TOS.Collection():               stores.TOS.PurgeWhere,
			stores.Profiles.Collection():          stores.Profiles.PurgeWhere,
		},
	}
}

// DELETE /api/admin/:collection/purge?field=&op=&value=
// Purging is batched; the reported count is what actually went away, even
// when a later batch fails.
func (h *AdminHandler) Purge(c *gin.Context) {
	collection := c.Param("collection")
	purge, ok := h.purgers[collection]
	if !ok {
		RespondError(c, http.StatusNotFound, "unknown_collection",
			fmt.Errorf("unknown collection %q", collection))
		return
	}

	field := c.Query("field")
	op := c.Query("op")
	value := c.Query("value")
	if field == "" || op == "" {
		RespondError(c, http.StatusBadRequest, "missing_predicate",
			errors.New("field and op query params required"))
		return
	}

	count, err := purge(c.Request.Context(), field, op, value)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_predicate", err)
			return
		}
		h.log.Error("purge failed", "collection", collection, "purged", count, "error", err)
		RespondError(c, http.StatusInternalServerError, "purge_failed", err)
		return
	}

	h.log.Info("collection purged", "collection", collection, "field", field, "count", count)
	RespondOK(c, gin.H{"purged": count})
}
