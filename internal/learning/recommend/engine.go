package recommend

import (
	"context"
	"fmt"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// DiagnosticSource loads a diagnostic result by id. A missing (or
// soft-deleted) result reads as (nil, nil).
type DiagnosticSource interface {
	Get(ctx context.Context, id string) (*domain.DiagnosticResult, error)
}

// ContentCatalog lists candidate remedial content for a subject.
type ContentCatalog interface {
	ModulesForSubject(ctx context.Context, subjectID string, limit int) ([]*domain.Module, error)
	QuizzesForSubject(ctx context.Context, subjectID string, limit int) ([]*domain.Quiz, error)
}

// RecommendationSink persists recommendations idempotently: re-running
// generation for the same (user, topic, result) replaces the earlier row.
type RecommendationSink interface {
	Upsert(ctx context.Context, rec *domain.Recommendation) (*domain.Recommendation, error)
}

// Config holds the engine's tuning knobs.
type Config struct {
	// WeakTopicThreshold: topics scoring at or above it are skipped.
	WeakTopicThreshold float64
	// Priority cuts over the weakest bloom level's score: < HighCut is
	// high, < MediumCut is medium, else low.
	HighCut   float64
	MediumCut float64

	MaxModules   int
	MaxQuizzes   int
	CatalogLimit int
	Confidence   float64
}

func DefaultConfig() Config {
	return Config{
		WeakTopicThreshold: 75.0,
		HighCut:            50.0,
		MediumCut:          65.0,
		MaxModules:         3,
		MaxQuizzes:         3,
		CatalogLimit:       100,
		Confidence:         0.90,
	}
}

// Engine turns a diagnostic result's weak topics into persisted
// recommendations.
type Engine struct {
	diagnostics DiagnosticSource
	catalog     ContentCatalog
	sink        RecommendationSink
	matcher     ContentMatcher
	cfg         Config
	log         *logger.Logger
}

func NewEngine(diagnostics DiagnosticSource, catalog ContentCatalog, sink RecommendationSink, matcher ContentMatcher, cfg Config, baseLog *logger.Logger) *Engine {
	if matcher == nil {
		matcher = NewKeywordMatcher()
	}
	return &Engine{
		diagnostics: diagnostics,
		catalog:     catalog,
		sink:        sink,
		matcher:     matcher,
		cfg:         cfg,
		log:         baseLog.With("service", "RecommendationEngine"),
	}
}

// GenerateFromDiagnostic produces one recommendation per weak topic
// (score_percentage below the threshold) in the result. A missing result is
// a no-op. A topic that fails to persist is logged and skipped; the
// remaining topics still go through.
func (e *Engine) GenerateFromDiagnostic(ctx context.Context, resultID string) ([]*domain.Recommendation, error) {
	result, err := e.diagnostics.Get(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("generate recommendations %s: %w", resultID, err)
	}
	if result == nil {
		e.log.Warn("diagnostic result not found, skipping generation", "result_id", resultID)
		return nil, nil
	}

	var (
		out     []*domain.Recommendation
		modules []*domain.Module
		quizzes []*domain.Quiz
		loaded  bool
	)
	for _, topic := range result.Topics() {
		if topic.ScorePercentage >= e.cfg.WeakTopicThreshold {
			continue
		}
		weakLevel, weakScore, ok := weakestBloom(topic.BloomBreakdown)
		if !ok {
			e.log.Warn("topic has no bloom breakdown, skipping",
				"result_id", resultID, "topic", topic.TopicTitle)
			continue
		}

		// the catalog is fetched once, lazily: a fully passing result
		// never touches it
		if !loaded {
			modules, err = e.catalog.ModulesForSubject(ctx, result.SubjectID, e.cfg.CatalogLimit)
			if err != nil {
				return nil, fmt.Errorf("generate recommendations %s: load modules: %w", resultID, err)
			}
			quizzes, err = e.catalog.QuizzesForSubject(ctx, result.SubjectID, e.cfg.CatalogLimit)
			if err != nil {
				return nil, fmt.Errorf("generate recommendations %s: load quizzes: %w", resultID, err)
			}
			loaded = true
		}

		rec := &domain.Recommendation{
			UserID:             result.UserID,
			SubjectID:          result.SubjectID,
			RecommendedTopic:   topic.TopicTitle,
			RecommendedModules: e.matcher.MatchModules(topic.TopicTitle, weakLevel, modules, e.cfg.MaxModules),
			RecommendedQuizzes: e.matcher.MatchQuizzes(topic.TopicTitle, weakLevel, quizzes, e.cfg.MaxQuizzes),
			BloomFocus:         weakLevel,
			Priority:           e.priorityFor(weakScore),
			Reason: fmt.Sprintf(
				"Diagnostic test shows low performance in '%s' (%.1f%%). Weakest cognitive level: '%s' (%.1f%%).",
				topic.TopicTitle, topic.ScorePercentage, weakLevel, weakScore,
			),
			DiagnosticResultID: result.ID,
			Confidence:         e.cfg.Confidence,
		}

		stored, err := e.sink.Upsert(ctx, rec)
		if err != nil {
			e.log.Error("failed to persist recommendation, continuing with next topic",
				"result_id", resultID, "topic", topic.TopicTitle, "error", err)
			continue
		}
		out = append(out, stored)
	}

	e.log.Info("recommendation generation finished",
		"result_id", resultID, "user_id", result.UserID, "generated", len(out))
	return out, nil
}

func (e *Engine) priorityFor(score float64) string {
	switch {
	case score < e.cfg.HighCut:
		return domain.PriorityHigh
	case score < e.cfg.MediumCut:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// weakestBloom picks the breakdown entry with the lowest score. Ties break
// on the level name so the pick is deterministic across map iterations.
func weakestBloom(breakdown map[string]float64) (domain.BloomLevel, float64, bool) {
	var (
		bestLevel string
		bestScore float64
		found     bool
	)
	for level, score := range breakdown {
		if !found || score < bestScore || (score == bestScore && level < bestLevel) {
			bestLevel, bestScore, found = level, score, true
		}
	}
	return domain.BloomLevel(bestLevel), bestScore, found
}
