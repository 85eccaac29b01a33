package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
)

func SeedActivity(tb testing.TB, db *gorm.DB, userID string, level domain.BloomLevel, score, completion float64, durationSec int) *domain.Activity {
	tb.Helper()
	a := &domain.Activity{
		UserID:         userID,
		SubjectID:      "subj-1",
		ActivityType:   "quiz",
		BloomLevel:     level,
		Score:          score,
		CompletionRate: completion,
		Duration:       durationSec,
		Timestamp:      time.Now().UTC(),
	}
	a.ID = uuid.NewString()
	a.MarkCreated(time.Now().UTC())
	if err := db.Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}

func SeedProfile(tb testing.TB, db *gorm.DB, email, roleID string) *domain.UserProfile {
	tb.Helper()
	p := &domain.UserProfile{
		Email:  email,
		RoleID: roleID,
	}
	p.ID = uuid.NewString()
	p.MarkCreated(time.Now().UTC())
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedModule(tb testing.TB, db *gorm.DB, subjectID, title string, level domain.BloomLevel) *domain.Module {
	tb.Helper()
	m := &domain.Module{
		SubjectID:  subjectID,
		Title:      title,
		BloomLevel: level,
	}
	m.ID = uuid.NewString()
	m.MarkCreated(time.Now().UTC())
	if err := db.Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedQuiz(tb testing.TB, db *gorm.DB, subjectID, topicTitle string, level domain.BloomLevel) *domain.Quiz {
	tb.Helper()
	q := &domain.Quiz{
		SubjectID:  subjectID,
		TopicTitle: topicTitle,
		BloomLevel: level,
	}
	q.ID = uuid.NewString()
	q.MarkCreated(time.Now().UTC())
	if err := db.Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}

func SeedDiagnosticResult(tb testing.TB, db *gorm.DB, userID, subjectID string, overall float64, topics []domain.TopicPerformance) *domain.DiagnosticResult {
	tb.Helper()
	d := &domain.DiagnosticResult{
		UserID:           userID,
		SubjectID:        subjectID,
		OverallScore:     overall,
		PassingStatus:    domain.PassingStatusPending,
		TopicPerformance: datatypes.NewJSONType(topics),
	}
	d.ID = uuid.NewString()
	d.MarkCreated(time.Now().UTC())
	if err := db.Create(d).Error; err != nil {
		tb.Fatalf("seed diagnostic result: %v", err)
	}
	return d
}
