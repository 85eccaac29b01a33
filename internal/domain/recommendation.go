package domain

import "gorm.io/datatypes"

// Recommendation is one remediation suggestion for one weak topic, produced
// from a diagnostic result (or the activity-based fallback recommender).
// The (user_id, recommended_topic, diagnostic_result_id) unique index backs
// idempotent regeneration: re-running the engine for the same result upserts
// instead of duplicating.
type Recommendation struct {
	Tracked
	UserID             string                      `gorm:"column:user_id;not null;index;uniqueIndex:idx_recommendation_dedup" json:"user_id" validate:"required"`
	SubjectID          string                      `gorm:"column:subject_id;index" json:"subject_id,omitempty"`
	RecommendedTopic   string                      `gorm:"column:recommended_topic;not null;uniqueIndex:idx_recommendation_dedup" json:"recommended_topic"`
	RecommendedModules datatypes.JSONSlice[string] `gorm:"column:recommended_modules" json:"recommended_modules"`
	RecommendedQuizzes datatypes.JSONSlice[string] `gorm:"column:recommended_quizzes" json:"recommended_quizzes"`
	BloomFocus         BloomLevel                  `gorm:"column:bloom_focus" json:"bloom_focus,omitempty" validate:"omitempty,oneof=remembering understanding applying analyzing evaluating creating"`
	Priority           string                      `gorm:"column:priority" json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	Reason             string                      `gorm:"column:reason" json:"reason,omitempty"`
	DiagnosticResultID string                      `gorm:"column:diagnostic_result_id;index;uniqueIndex:idx_recommendation_dedup" json:"diagnostic_result_id,omitempty"`
	Confidence         float64                     `gorm:"column:confidence" json:"confidence" validate:"gte=0,lte=1"`
}

func (Recommendation) TableName() string { return "recommendations" }
