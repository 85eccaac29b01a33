package domain

import "time"

// Activity is one raw telemetry record for a student: a finished quiz,
// module read, assessment attempt, and so on.
type Activity struct {
	Tracked
	UserID         string     `gorm:"column:user_id;not null;index" json:"user_id" validate:"required"`
	SubjectID      string     `gorm:"column:subject_id;index" json:"subject_id,omitempty"`
	ActivityType   string     `gorm:"column:activity_type" json:"activity_type,omitempty"`
	ActivityRef    string     `gorm:"column:activity_ref" json:"activity_ref,omitempty"`
	BloomLevel     BloomLevel `gorm:"column:bloom_level" json:"bloom_level,omitempty" validate:"omitempty,oneof=remembering understanding applying analyzing evaluating creating"`
	Score          float64    `gorm:"column:score" json:"score" validate:"gte=0,lte=100"`
	CompletionRate float64    `gorm:"column:completion_rate" json:"completion_rate" validate:"gte=0,lte=1"`
	Duration       int        `gorm:"column:duration" json:"duration" validate:"gte=0"`
	Timestamp      time.Time  `gorm:"column:timestamp;index" json:"timestamp"`
}

func (Activity) TableName() string { return "activities" }
