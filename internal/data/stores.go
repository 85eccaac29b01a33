package data

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/avilacode/bloomtrack-backend/internal/data/store"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// Stores is the full set of per-collection repositories. One generic store
// per entity kind, each bound to its collection name and validator.
type Stores struct {
	Activities        *store.Store[domain.Activity]
	DiagnosticResults *store.Store[domain.DiagnosticResult]
	Recommendations   *store.Store[domain.Recommendation]
	Modules           *store.Store[domain.Module]
	Quizzes           *store.Store[domain.Quiz]
	Subjects          *store.Store[domain.Subject]
	TOS               *store.Store[domain.TOS]
	Profiles          *store.Store[domain.UserProfile]
}

func NewStores(db *gorm.DB, baseLog *logger.Logger) Stores {
	return Stores{
		Activities: store.New[domain.Activity](db, baseLog, store.Descriptor{
			Collection: "activities",
		}),
		DiagnosticResults: store.New[domain.DiagnosticResult](db, baseLog, store.Descriptor{
			Collection: "diagnostic_results",
			Validate:   DiagnosticResultValidator,
		}),
		Recommendations: store.New[domain.Recommendation](db, baseLog, store.Descriptor{
			Collection: "recommendations",
		}),
		Modules: store.New[domain.Module](db, baseLog, store.Descriptor{
			Collection: "modules",
		}),
		Quizzes: store.New[domain.Quiz](db, baseLog, store.Descriptor{
			Collection: "quizzes",
		}),
		Subjects: store.New[domain.Subject](db, baseLog, store.Descriptor{
			Collection: "subjects",
		}),
		TOS: store.New[domain.TOS](db, baseLog, store.Descriptor{
			Collection: "tos",
		}),
		Profiles: store.New[domain.UserProfile](db, baseLog, store.Descriptor{
			Collection: "user_profiles",
		}),
	}
}

// DiagnosticResultValidator runs the tag pass, then validates each decoded
// topic_performance entry. The JSON column is opaque to struct tags, so the
// entries need their own pass.
func DiagnosticResultValidator(record any) error {
	if err := store.StructValidator(record); err != nil {
		return err
	}
	result, ok := record.(*domain.DiagnosticResult)
	if !ok {
		return nil
	}
	for i, tp := range result.Topics() {
		if err := store.StructValidator(&tp); err != nil {
			return fmt.Errorf("topic_performance[%d]: %w", i, err)
		}
	}
	return nil
}

// Models lists every persisted entity kind for migration.
func Models() []any {
	return []any{
		&domain.UserProfile{},
		&domain.Subject{},
		&domain.TOS{},
		&domain.Module{},
		&domain.Quiz{},
		&domain.Activity{},
		&domain.DiagnosticResult{},
		&domain.Recommendation{},
		&domain.RecommendationJob{},
	}
}
