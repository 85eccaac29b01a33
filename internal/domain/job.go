package domain

import "time"

const JobTypeRecommendationGenerate = "recommendation_generate"

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// RecommendationJob is one outbox row: a request to run the recommendation
// engine for a diagnostic result, processed at-least-once by the worker.
// Not lifecycle-tracked; finished rows are purged by retention, not
// soft-deleted.
type RecommendationJob struct {
	Keyed
	JobType    string     `gorm:"column:job_type;not null;index" json:"job_type"`
	EntityID   string     `gorm:"column:entity_id;not null;index" json:"entity_id"`
	Status     string     `gorm:"column:status;not null;index" json:"status"`
	Attempts   int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError  string     `gorm:"column:last_error" json:"last_error,omitempty"`
	RunAt      time.Time  `gorm:"column:run_at;index" json:"run_at"`
	StartedAt  *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (RecommendationJob) TableName() string { return "recommendation_jobs" }
