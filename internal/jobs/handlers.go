package jobs

import (
	"context"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
)

// RecommendationGenerator is the engine as seen from the job boundary.
type RecommendationGenerator interface {
	GenerateFromDiagnostic(ctx context.Context, resultID string) ([]*domain.Recommendation, error)
}

// RecommendationHandler runs the engine for the job's diagnostic result.
// Reruns are safe: the engine upserts by (user, topic, result).
func RecommendationHandler(engine RecommendationGenerator) HandlerFunc {
	return func(ctx context.Context, job *domain.RecommendationJob) error {
		_, err := engine.GenerateFromDiagnostic(ctx, job.EntityID)
		return err
	}
}
