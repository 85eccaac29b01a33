package data

import (
	"context"

	"github.com/avilacode/bloomtrack-backend/internal/data/store"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
)

// ActivityReader walks a student's full activity history page by page. The
// underlying Where query excludes soft-deleted records at the query level.
type ActivityReader struct {
	store *store.Store[domain.Activity]
}

func NewActivityReader(s *store.Store[domain.Activity]) *ActivityReader {
	return &ActivityReader{store: s}
}

func (r *ActivityReader) ListByUser(ctx context.Context, userID string) ([]*domain.Activity, error) {
	var out []*domain.Activity
	cursor := ""
	for {
		page, err := r.store.Where(ctx, "user_id", "==", userID, store.MaxPageSize, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// ProfileReader resolves the active (non-deleted) student profiles for a
// role.
type ProfileReader struct {
	store *store.Store[domain.UserProfile]
}

func NewProfileReader(s *store.Store[domain.UserProfile]) *ProfileReader {
	return &ProfileReader{store: s}
}

func (r *ProfileReader) StudentsByRole(ctx context.Context, roleID string) ([]*domain.UserProfile, error) {
	var out []*domain.UserProfile
	cursor := ""
	for {
		page, err := r.store.Where(ctx, "role_id", "==", roleID, store.MaxPageSize, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// Catalog is the engine-facing read path over the content collections.
type Catalog struct {
	modules *store.Store[domain.Module]
	quizzes *store.Store[domain.Quiz]
}

func NewCatalog(modules *store.Store[domain.Module], quizzes *store.Store[domain.Quiz]) *Catalog {
	return &Catalog{modules: modules, quizzes: quizzes}
}

func (c *Catalog) ModulesForSubject(ctx context.Context, subjectID string, limit int) ([]*domain.Module, error) {
	page, err := c.modules.Where(ctx, "subject_id", "==", subjectID, limit, "")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Catalog) QuizzesForSubject(ctx context.Context, subjectID string, limit int) ([]*domain.Quiz, error) {
	page, err := c.quizzes.Where(ctx, "subject_id", "==", subjectID, limit, "")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// DiagnosticReader adapts the diagnostic-result store for the engine.
type DiagnosticReader struct {
	store *store.Store[domain.DiagnosticResult]
}

func NewDiagnosticReader(s *store.Store[domain.DiagnosticResult]) *DiagnosticReader {
	return &DiagnosticReader{store: s}
}

func (r *DiagnosticReader) Get(ctx context.Context, id string) (*domain.DiagnosticResult, error) {
	return r.store.Get(ctx, id, false)
}
