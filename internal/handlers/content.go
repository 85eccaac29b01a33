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

type ContentHandler struct {
	log      *logger.Logger
	modules  *store.Store[domain.Module]
	quizzes  *store.Store[domain.Quiz]
	subjects *store.Store[domain.Subject]
}

func NewContentHandler(baseLog *logger.Logger, modules *store.Store[domain.Module], quizzes *store.Store[domain.Quiz], subjects *store.Store[domain.Subject]) *ContentHandler {
	return &ContentHandler{
		log:      baseLog.With("handler", "ContentHandler"),
		modules:  modules,
		quizzes:  quizzes,
		subjects: subjects,
	}
}

// GET /api/modules?subject_id=&cursor=&limit=
func (h *ContentHandler) ListModules(c *gin.Context) {
	listBySubject(c, h.log, h.modules)
}

// GET /api/quizzes?subject_id=&cursor=&limit=
func (h *ContentHandler) ListQuizzes(c *gin.Context) {
	listBySubject(c, h.log, h.quizzes)
}

// GET /api/subjects/:id
func (h *ContentHandler) GetSubject(c *gin.Context) {
	subject, err := h.subjects.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		h.log.Error("failed to load subject", "id", c.Param("id"), "error", err)
		RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	if subject == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("subject not found"))
		return
	}
	RespondOK(c, subject)
}

func listBySubject[T any](c *gin.Context, log *logger.Logger, s *store.Store[T]) {
	limit, cursor := pageParams(c)
	ctx := c.Request.Context()

	var (
		page store.Page[T]
		err  error
	)
	if subjectID := c.Query("subject_id"); subjectID != "" {
		page, err = s.Where(ctx, "subject_id", "==", subjectID, limit, cursor)
	} else {
		page, err = s.GetAll(ctx, store.NonDeleted, limit, cursor)
	}
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_query", err)
			return
		}
		log.Error("failed to list content", "collection", s.Collection(), "error", err)
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	respondPage(c, page)
}
