package domain

import "gorm.io/datatypes"

// Module is a piece of remedial learning content (reading, video, ...).
// MaterialURL is an opaque pass-through populated by the storage platform.
type Module struct {
	Tracked
	SubjectID     string     `gorm:"column:subject_id;index" json:"subject_id,omitempty"`
	Title         string     `gorm:"column:title" json:"title,omitempty"`
	Purpose       string     `gorm:"column:purpose" json:"purpose,omitempty"`
	BloomLevel    BloomLevel `gorm:"column:bloom_level" json:"bloom_level,omitempty" validate:"omitempty,oneof=remembering understanding applying analyzing evaluating creating"`
	MaterialType  string     `gorm:"column:material_type" json:"material_type,omitempty"`
	MaterialURL   string     `gorm:"column:material_url" json:"material_url,omitempty"`
	EstimatedTime int        `gorm:"column:estimated_time" json:"estimated_time,omitempty"`
}

func (Module) TableName() string { return "modules" }

// Quiz is a standalone practice question tagged with a topic and level.
type Quiz struct {
	Tracked
	SubjectID  string                      `gorm:"column:subject_id;index" json:"subject_id,omitempty"`
	TopicTitle string                      `gorm:"column:topic_title" json:"topic_title,omitempty"`
	BloomLevel BloomLevel                  `gorm:"column:bloom_level" json:"bloom_level,omitempty" validate:"omitempty,oneof=remembering understanding applying analyzing evaluating creating"`
	Question   string                      `gorm:"column:question" json:"question,omitempty"`
	Options    datatypes.JSONSlice[string] `gorm:"column:options" json:"options,omitempty"`
	Answer     string                      `gorm:"column:answer" json:"answer,omitempty"`
}

func (Quiz) TableName() string { return "quizzes" }

// Subject is a course subject. It deliberately does not track lifecycle
// fields: deleting a subject is a hard delete.
type Subject struct {
	Keyed
	SubjectName string `gorm:"column:subject_name;not null" json:"subject_name" validate:"required"`
	PQFLevel    int    `gorm:"column:pqf_level" json:"pqf_level,omitempty"`
	ActiveTOSID string `gorm:"column:active_tos_id" json:"active_tos_id,omitempty"`
}

func (Subject) TableName() string { return "subjects" }

// TOSSubContent is a sub-outcome inside a TOS content section, with its
// Bloom-level item distribution.
type TOSSubContent struct {
	Purpose        string         `json:"purpose,omitempty"`
	BloomsTaxonomy map[string]int `json:"blooms_taxonomy,omitempty" validate:"dive,keys,oneof=remembering understanding applying analyzing evaluating creating,endkeys,gt=0"`
}

// TOSContentSection is one weighted topic in a Table of Specifications.
type TOSContentSection struct {
	Title       string          `json:"title,omitempty"`
	SubContent  []TOSSubContent `json:"sub_content,omitempty"`
	NoItems     int             `json:"no_items,omitempty"`
	WeightTotal float64         `json:"weight_total,omitempty" validate:"gte=0,lte=1"`
}

// TOS is a Table of Specifications: a weighted outline of topics and their
// Bloom-level item distribution for a subject's assessments.
type TOS struct {
	Tracked
	SubjectName            string                                   `gorm:"column:subject_name" json:"subject_name,omitempty"`
	PQFLevel               int                                      `gorm:"column:pqf_level" json:"pqf_level,omitempty"`
	DifficultyDistribution datatypes.JSONType[map[string]float64]   `gorm:"column:difficulty_distribution" json:"difficulty_distribution"`
	Content                datatypes.JSONType[[]TOSContentSection] `gorm:"column:content" json:"content"`
	TotalItems             int                                      `gorm:"column:total_items" json:"total_items,omitempty"`
}

func (TOS) TableName() string { return "tos" }
