package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// ActivitySource yields a student's full non-deleted activity history.
type ActivitySource interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.Activity, error)
}

const (
	fallbackConfidence = 0.85
	// NeedThreshold: a module is only recommended when the blended gap
	// score clears it.
	NeedThreshold = 0.2

	needHighCut   = 0.5
	needMediumCut = 0.35

	defaultFallbackMax = 3
)

// Fallback recommends modules from a student's activity history alone, for
// students who have not taken a diagnostic test yet. Need per module blends
// the score gap and the completion gap at the module's bloom level.
type Fallback struct {
	activities ActivitySource
	catalog    ContentCatalog
	sink       RecommendationSink
	log        *logger.Logger
}

func NewFallback(activities ActivitySource, catalog ContentCatalog, sink RecommendationSink, baseLog *logger.Logger) *Fallback {
	return &Fallback{
		activities: activities,
		catalog:    catalog,
		sink:       sink,
		log:        baseLog.With("service", "FallbackRecommender"),
	}
}

type levelStats struct {
	scoreSum      float64
	completionSum float64
	count         int
}

type scoredModule struct {
	module *domain.Module
	need   float64
	stats  levelStats
}

// PickForStudent emits up to max recommendations (default 3) for the
// student's weakest bloom levels. A student with no activity history gets
// none.
func (f *Fallback) PickForStudent(ctx context.Context, studentID string, max int) ([]*domain.Recommendation, error) {
	if max <= 0 {
		max = defaultFallbackMax
	}

	acts, err := f.activities.ListByUser(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("fallback recommendations %s: %w", studentID, err)
	}
	if len(acts) == 0 {
		return nil, nil
	}

	// the subject of the most recent activity bounds the candidate pool
	subjectID := acts[0].SubjectID
	latest := acts[0].Timestamp
	byLevel := map[domain.BloomLevel]*levelStats{}
	for _, act := range acts {
		if act.Timestamp.After(latest) {
			subjectID = act.SubjectID
			latest = act.Timestamp
		}
		if act.BloomLevel == "" {
			continue
		}
		st, ok := byLevel[act.BloomLevel]
		if !ok {
			st = &levelStats{}
			byLevel[act.BloomLevel] = st
		}
		st.scoreSum += act.Score
		st.completionSum += act.CompletionRate
		st.count++
	}

	modules, err := f.catalog.ModulesForSubject(ctx, subjectID, 100)
	if err != nil {
		return nil, fmt.Errorf("fallback recommendations %s: load modules: %w", studentID, err)
	}

	var candidates []scoredModule
	for _, mod := range modules {
		st, ok := byLevel[mod.BloomLevel]
		if !ok || st.count == 0 {
			continue
		}
		avgScore := st.scoreSum / float64(st.count)
		avgCompletion := st.completionSum / float64(st.count)
		need := 0.7*((100-avgScore)/100) + 0.3*(1-avgCompletion)
		if need <= NeedThreshold {
			continue
		}
		candidates = append(candidates, scoredModule{module: mod, need: need, stats: *st})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].need != candidates[j].need {
			return candidates[i].need > candidates[j].need
		}
		return candidates[i].module.Title < candidates[j].module.Title
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	var out []*domain.Recommendation
	for _, c := range candidates {
		avgScore := c.stats.scoreSum / float64(c.stats.count)
		avgCompletion := c.stats.completionSum / float64(c.stats.count)
		rec := &domain.Recommendation{
			UserID:             studentID,
			SubjectID:          subjectID,
			RecommendedTopic:   c.module.Title,
			RecommendedModules: []string{c.module.ID},
			BloomFocus:         c.module.BloomLevel,
			Priority:           priorityForNeed(c.need),
			Reason: fmt.Sprintf(
				"Low performance in '%s' activities. Avg score: %.1f, Avg completion: %.2f",
				c.module.BloomLevel, avgScore, avgCompletion,
			),
			Confidence: fallbackConfidence,
		}
		stored, err := f.sink.Upsert(ctx, rec)
		if err != nil {
			f.log.Error("failed to persist fallback recommendation",
				"student_id", studentID, "module_id", c.module.ID, "error", err)
			continue
		}
		out = append(out, stored)
	}

	return out, nil
}

func priorityForNeed(need float64) string {
	switch {
	case need >= needHighCut:
		return domain.PriorityHigh
	case need >= needMediumCut:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
