package domain

import "gorm.io/datatypes"

// TopicPerformance is one TOS topic's breakdown inside a diagnostic result.
type TopicPerformance struct {
	TopicTitle      string             `json:"topic_title" validate:"required"`
	TotalQuestions  int                `json:"total_questions" validate:"gte=0"`
	CorrectAnswers  int                `json:"correct_answers" validate:"gte=0,ltefield=TotalQuestions"`
	ScorePercentage float64            `json:"score_percentage" validate:"gte=0,lte=100"`
	BloomBreakdown  map[string]float64 `json:"bloom_breakdown" validate:"dive,keys,oneof=remembering understanding applying analyzing evaluating creating,endkeys,gte=0,lte=100"`
}

// DiagnosticResult is the scored outcome of one student's diagnostic test,
// broken down per TOS topic and per Bloom level.
type DiagnosticResult struct {
	Tracked
	UserID           string                                  `gorm:"column:user_id;not null;index" json:"user_id" validate:"required"`
	SubjectID        string                                  `gorm:"column:subject_id;index" json:"subject_id,omitempty"`
	OverallScore     float64                                 `gorm:"column:overall_score" json:"overall_score" validate:"gte=0,lte=100"`
	PassingStatus    string                                  `gorm:"column:passing_status" json:"passing_status,omitempty" validate:"omitempty,oneof=passed failed pending"`
	TopicPerformance datatypes.JSONType[[]TopicPerformance] `gorm:"column:topic_performance" json:"topic_performance"`
}

func (DiagnosticResult) TableName() string { return "diagnostic_results" }

// Topics returns the decoded topic_performance entries.
func (d *DiagnosticResult) Topics() []TopicPerformance {
	return d.TopicPerformance.Data()
}
