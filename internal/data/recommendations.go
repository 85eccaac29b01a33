package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
	errs "github.com/avilacode/bloomtrack-backend/internal/pkg/errors"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// RecommendationRepo is the engine-facing write path for recommendations.
// Upsert keys on (user_id, recommended_topic, diagnostic_result_id) so
// re-running generation for the same diagnostic result replaces rather than
// duplicates.
type RecommendationRepo interface {
	Upsert(ctx context.Context, rec *domain.Recommendation) (*domain.Recommendation, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) Upsert(ctx context.Context, rec *domain.Recommendation) (*domain.Recommendation, error) {
	if rec == nil || rec.UserID == "" || rec.RecommendedTopic == "" {
		return nil, fmt.Errorf("upsert recommendation: missing user or topic: %w", errs.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.MarkCreated(now)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "recommended_topic"},
				{Name: "diagnostic_result_id"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"subject_id":          rec.SubjectID,
				"recommended_modules": rec.RecommendedModules,
				"recommended_quizzes": rec.RecommendedQuizzes,
				"bloom_focus":         rec.BloomFocus,
				"priority":            rec.Priority,
				"reason":              rec.Reason,
				"confidence":          rec.Confidence,
				"updated_at":          now,
				"deleted":             false,
				"deleted_at":          nil,
			}),
		}).
		Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("upsert recommendation: %w", err)
	}

	// reload by the dedup key: on conflict the row keeps its original id
	var row domain.Recommendation
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND recommended_topic = ? AND diagnostic_result_id = ?",
			rec.UserID, rec.RecommendedTopic, rec.DiagnosticResultID).
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert recommendation: reload: %w", err)
	}
	return &row, nil
}
