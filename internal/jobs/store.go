package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// RetryPolicy bounds how often a failing job is retried and how long it
// waits between attempts.
type RetryPolicy struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, RetryDelay: 30 * time.Second}
}

// JobRepo is the outbox table behind recommendation generation. Claiming is
// a compare-and-swap on the status column, so concurrent workers never run
// the same job twice at once; delivery is still at-least-once and handlers
// must be idempotent.
type JobRepo interface {
	// Enqueue inserts a queued job unless one is already queued or
	// running for the same entity. Returns the job row either way.
	Enqueue(ctx context.Context, jobType, entityID string) (*domain.RecommendationJob, error)
	// ClaimNext transitions the oldest runnable queued job to running
	// and returns it; (nil, nil) when nothing is runnable.
	ClaimNext(ctx context.Context, policy RetryPolicy) (*domain.RecommendationJob, error)
	MarkSucceeded(ctx context.Context, id string) error
	// MarkFailed records the error; jobs with attempts left are
	// re-queued after the policy delay, otherwise parked as failed.
	MarkFailed(ctx context.Context, job *domain.RecommendationJob, cause error, policy RetryPolicy) error
	Get(ctx context.Context, id string) (*domain.RecommendationJob, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{db: db, log: baseLog.With("repo", "JobRepo")}
}

func (r *jobRepo) Enqueue(ctx context.Context, jobType, entityID string) (*domain.RecommendationJob, error) {
	if jobType == "" || entityID == "" {
		return nil, fmt.Errorf("enqueue: job type and entity id required")
	}

	// an open job for the same entity makes a second enqueue a no-op
	var existing domain.RecommendationJob
	err := r.db.WithContext(ctx).
		Where("job_type = ? AND entity_id = ? AND status IN ?",
			jobType, entityID, []string{domain.JobStatusQueued, domain.JobStatusRunning}).
		Order("created_at ASC").
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("enqueue %s/%s: %w", jobType, entityID, err)
	}

	now := time.Now().UTC()
	job := &domain.RecommendationJob{
		JobType:   jobType,
		EntityID:  entityID,
		Status:    domain.JobStatusQueued,
		RunAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.ID = uuid.NewString()
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("enqueue %s/%s: %w", jobType, entityID, err)
	}
	r.log.Debug("job enqueued", "job_id", job.ID, "job_type", jobType, "entity_id", entityID)
	return job, nil
}

func (r *jobRepo) ClaimNext(ctx context.Context, policy RetryPolicy) (*domain.RecommendationJob, error) {
	now := time.Now().UTC()

	// pick-then-CAS instead of SKIP LOCKED so the claim also works on the
	// sqlite test backend; losing the swap just means another worker won
	var candidate domain.RecommendationJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND attempts < ? AND run_at <= ?",
			domain.JobStatusQueued, policy.MaxAttempts, now).
		Order("run_at ASC, id ASC").
		First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next: %w", err)
	}

	res := r.db.WithContext(ctx).
		Model(&domain.RecommendationJob{}).
		Where("id = ? AND status = ?", candidate.ID, domain.JobStatusQueued).
		Updates(map[string]any{
			"status":     domain.JobStatusRunning,
			"attempts":   gorm.Expr("attempts + 1"),
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("claim next: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// someone else swapped it first
		return nil, nil
	}

	var claimed domain.RecommendationJob
	if err := r.db.WithContext(ctx).First(&claimed, "id = ?", candidate.ID).Error; err != nil {
		return nil, fmt.Errorf("claim next: reload: %w", err)
	}
	return &claimed, nil
}

func (r *jobRepo) MarkSucceeded(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&domain.RecommendationJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      domain.JobStatusSucceeded,
			"last_error":  "",
			"finished_at": now,
			"updated_at":  now,
		}).Error
	if err != nil {
		return fmt.Errorf("mark succeeded %s: %w", id, err)
	}
	return nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, job *domain.RecommendationJob, cause error, policy RetryPolicy) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"last_error": cause.Error(),
		"updated_at": now,
	}
	if job.Attempts < policy.MaxAttempts {
		updates["status"] = domain.JobStatusQueued
		updates["run_at"] = now.Add(policy.RetryDelay)
	} else {
		updates["status"] = domain.JobStatusFailed
		updates["finished_at"] = now
	}

	err := r.db.WithContext(ctx).
		Model(&domain.RecommendationJob{}).
		Where("id = ?", job.ID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", job.ID, err)
	}
	r.log.Warn("job failed",
		"job_id", job.ID, "attempts", job.Attempts, "max_attempts", policy.MaxAttempts, "error", cause)
	return nil
}

func (r *jobRepo) Get(ctx context.Context, id string) (*domain.RecommendationJob, error) {
	var job domain.RecommendationJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}
