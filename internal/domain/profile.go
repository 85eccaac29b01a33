package domain

import "gorm.io/datatypes"

// UserProfile is the per-user profile shared by students, faculty and
// admins. The id is the identity platform's UID; FCMToken is an opaque
// pass-through owned by the messaging platform.
type UserProfile struct {
	Tracked
	Email              string                                 `gorm:"column:email;not null;index" json:"email" validate:"required"`
	FirstName          string                                 `gorm:"column:first_name" json:"first_name,omitempty"`
	MiddleName         string                                 `gorm:"column:middle_name" json:"middle_name,omitempty"`
	LastName           string                                 `gorm:"column:last_name" json:"last_name,omitempty"`
	Nickname           string                                 `gorm:"column:nickname" json:"nickname,omitempty"`
	RoleID             string                                 `gorm:"column:role_id;index" json:"role_id,omitempty"`
	FCMToken           string                                 `gorm:"column:fcm_token" json:"fcm_token,omitempty"`
	PreAssessmentScore *float64                               `gorm:"column:pre_assessment_score" json:"pre_assessment_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	AIConfidence       *float64                               `gorm:"column:ai_confidence" json:"ai_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	CurrentModule      string                                 `gorm:"column:current_module" json:"current_module,omitempty"`
	Progress           datatypes.JSONType[map[string]float64] `gorm:"column:progress" json:"progress"`
}

func (UserProfile) TableName() string { return "user_profiles" }
