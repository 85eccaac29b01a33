package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// PassingThreshold is the hard average-score cut for classifying a student
// as passing in cohort summaries.
const PassingThreshold = 75.0

// StrengthThreshold and WeaknessThreshold classify a student's per-level
// averages into strengths and weaknesses on the summary.
const (
	StrengthThreshold = 80.0
	WeaknessThreshold = 70.0
)

const defaultCohortConcurrency = 8

// ActivitySource yields a student's full non-deleted activity history.
type ActivitySource interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.Activity, error)
}

// ProfileSource resolves the active student profiles for a role.
type ProfileSource interface {
	StudentsByRole(ctx context.Context, roleID string) ([]*domain.UserProfile, error)
}

// StudentSummary is the rollup of one student's activity history.
type StudentSummary struct {
	StudentID         string             `json:"student_id"`
	AverageScore      float64            `json:"average_score"`
	AverageCompletion float64            `json:"average_completion"`
	TotalActivities   int                `json:"total_activities"`
	TimeSpentSeconds  int                `json:"time_spent_seconds"`
	ScoreByBloomLevel map[string]float64 `json:"score_by_bloom_level"`
	Strengths         []string           `json:"strengths"`
	Weaknesses        []string           `json:"weaknesses"`
}

// StudentPrediction is one cohort row: a student and their pass prediction.
type StudentPrediction struct {
	StudentID       string  `json:"student_id"`
	AverageScore    float64 `json:"average_score"`
	PredictedToPass bool    `json:"predicted_to_pass"`
}

// CohortSummary is the pass/fail rollup across every student with a role.
type CohortSummary struct {
	TotalStudents int                 `json:"total_students"`
	PassCount     int                 `json:"pass_count"`
	FailCount     int                 `json:"fail_count"`
	PassRate      float64             `json:"pass_rate"`
	PerStudent    []StudentPrediction `json:"per_student"`
}

// Aggregator computes student and cohort performance summaries. Summaries
// are full re-scans of the activity history on every call; there is no
// caching layer.
type Aggregator struct {
	activities  ActivitySource
	profiles    ProfileSource
	log         *logger.Logger
	concurrency int
}

func New(activities ActivitySource, profiles ProfileSource, baseLog *logger.Logger) *Aggregator {
	return &Aggregator{
		activities:  activities,
		profiles:    profiles,
		log:         baseLog.With("service", "Aggregator"),
		concurrency: defaultCohortConcurrency,
	}
}

// ComputeStudentSummary scans a student's non-deleted activities and rolls
// them up. A student with no activities gets a zeroed summary, not an error.
func (a *Aggregator) ComputeStudentSummary(ctx context.Context, studentID string) (*StudentSummary, error) {
	acts, err := a.activities.ListByUser(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student summary %s: %w", studentID, err)
	}

	summary := &StudentSummary{
		StudentID:         studentID,
		ScoreByBloomLevel: map[string]float64{},
		Strengths:         []string{},
		Weaknesses:        []string{},
	}
	if len(acts) == 0 {
		return summary, nil
	}

	var scoreSum, completionSum float64
	levelSums := map[string]float64{}
	levelCounts := map[string]int{}
	for _, act := range acts {
		scoreSum += act.Score
		completionSum += act.CompletionRate
		summary.TimeSpentSeconds += act.Duration
		if act.BloomLevel != "" {
			levelSums[string(act.BloomLevel)] += act.Score
			levelCounts[string(act.BloomLevel)]++
		}
	}

	n := float64(len(acts))
	summary.TotalActivities = len(acts)
	summary.AverageScore = round2(scoreSum / n)
	summary.AverageCompletion = round2(completionSum / n)

	// walk levels in taxonomy order so strengths/weaknesses come out stable
	for _, level := range domain.BloomLevels {
		count, ok := levelCounts[string(level)]
		if !ok {
			continue
		}
		avg := round2(levelSums[string(level)] / float64(count))
		summary.ScoreByBloomLevel[string(level)] = avg
		switch {
		case avg >= StrengthThreshold:
			summary.Strengths = append(summary.Strengths, string(level))
		case avg < WeaknessThreshold:
			summary.Weaknesses = append(summary.Weaknesses, string(level))
		}
	}

	return summary, nil
}

// ComputeCohortSummary fans per-student summaries out over the students
// holding roleID and classifies each against the passing threshold.
func (a *Aggregator) ComputeCohortSummary(ctx context.Context, roleID string) (*CohortSummary, error) {
	students, err := a.profiles.StudentsByRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("cohort summary role=%s: %w", roleID, err)
	}

	cohort := &CohortSummary{PerStudent: []StudentPrediction{}}
	if len(students) == 0 {
		return cohort, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, student := range students {
		student := student
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			summary, err := a.ComputeStudentSummary(gctx, student.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			cohort.PerStudent = append(cohort.PerStudent, StudentPrediction{
				StudentID:       student.ID,
				AverageScore:    summary.AverageScore,
				PredictedToPass: summary.AverageScore >= PassingThreshold,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cohort summary role=%s: %w", roleID, err)
	}

	sort.Slice(cohort.PerStudent, func(i, j int) bool {
		return cohort.PerStudent[i].StudentID < cohort.PerStudent[j].StudentID
	})

	cohort.TotalStudents = len(cohort.PerStudent)
	for _, row := range cohort.PerStudent {
		if row.PredictedToPass {
			cohort.PassCount++
		}
	}
	cohort.FailCount = cohort.TotalStudents - cohort.PassCount
	cohort.PassRate = round2(float64(cohort.PassCount) / float64(cohort.TotalStudents) * 100)

	a.log.Debug("computed cohort summary",
		"role_id", roleID,
		"total", cohort.TotalStudents,
		"pass_rate", cohort.PassRate,
	)
	return cohort, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
