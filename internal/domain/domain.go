package domain

import "time"

// BloomLevel is one of the six canonical cognitive-skill tiers used to tag
// both content and question difficulty.
type BloomLevel string

const (
	BloomRemembering   BloomLevel = "remembering"
	BloomUnderstanding BloomLevel = "understanding"
	BloomApplying      BloomLevel = "applying"
	BloomAnalyzing     BloomLevel = "analyzing"
	BloomEvaluating    BloomLevel = "evaluating"
	BloomCreating      BloomLevel = "creating"
)

// BloomLevels lists the canonical levels in taxonomy order.
var BloomLevels = []BloomLevel{
	BloomRemembering,
	BloomUnderstanding,
	BloomApplying,
	BloomAnalyzing,
	BloomEvaluating,
	BloomCreating,
}

func ValidBloomLevel(s string) bool {
	for _, l := range BloomLevels {
		if string(l) == s {
			return true
		}
	}
	return false
}

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	PassingStatusPassed  = "passed"
	PassingStatusFailed  = "failed"
	PassingStatusPending = "pending"
)

// Entity is the minimal contract every stored record satisfies.
type Entity interface {
	GetID() string
	SetID(id string)
}

// Lifecycle marks entity kinds that carry timestamp/soft-delete fields.
// The store checks for it once at construction; kinds that do not implement
// it are hard-deleted.
type Lifecycle interface {
	Entity
	MarkCreated(at time.Time)
	MarkUpdated(at time.Time)
	MarkDeleted(at time.Time)
	ClearDeleted(at time.Time)
	IsDeleted() bool
}

// Keyed is the embedded base for kinds without lifecycle tracking.
type Keyed struct {
	ID string `gorm:"column:id;primaryKey;size:64" json:"id"`
}

func (k *Keyed) GetID() string   { return k.ID }
func (k *Keyed) SetID(id string) { k.ID = id }

// Tracked is the embedded base for lifecycle-tracked kinds.
// Invariant: Deleted == true implies DeletedAt is set.
type Tracked struct {
	Keyed
	CreatedAt time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
	Deleted   bool       `gorm:"column:deleted;not null;default:false;index" json:"deleted"`
}

func (t *Tracked) MarkCreated(at time.Time) {
	t.CreatedAt = at
	t.Deleted = false
	t.DeletedAt = nil
}

func (t *Tracked) MarkUpdated(at time.Time) {
	t.UpdatedAt = &at
}

func (t *Tracked) MarkDeleted(at time.Time) {
	t.Deleted = true
	t.DeletedAt = &at
}

func (t *Tracked) ClearDeleted(at time.Time) {
	t.Deleted = false
	t.DeletedAt = nil
	t.UpdatedAt = &at
}

func (t *Tracked) IsDeleted() bool { return t.Deleted }
