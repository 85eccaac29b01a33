package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avilacode/bloomtrack-backend/internal/data"
	"github.com/avilacode/bloomtrack-backend/internal/data/testutil"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/jobs"
	"github.com/avilacode/bloomtrack-backend/internal/learning/recommend"
)

func newRepo(t *testing.T) (jobs.JobRepo, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	return jobs.NewJobRepo(db, testutil.Logger(t)), context.Background()
}

func TestEnqueueDedup(t *testing.T) {
	repo, ctx := newRepo(t)

	first, err := repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, "result-1")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	second, err := repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, "result-1")
	if err != nil {
		t.Fatalf("Enqueue(dup): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected open-job dedup, got two jobs %s and %s", first.ID, second.ID)
	}

	other, err := repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, "result-2")
	if err != nil {
		t.Fatalf("Enqueue(other): %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("different entities must get different jobs")
	}

	// a finished job no longer blocks re-enqueueing
	claimed, err := repo.ClaimNext(ctx, jobs.DefaultRetryPolicy())
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext: %v %v", claimed, err)
	}
	if err := repo.MarkSucceeded(ctx, claimed.ID); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}
	requeued, err := repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, claimed.EntityID)
	if err != nil {
		t.Fatalf("Enqueue(after success): %v", err)
	}
	if requeued.ID == claimed.ID {
		t.Fatal("expected a fresh job after the previous one finished")
	}
}

func TestClaimNextCAS(t *testing.T) {
	repo, ctx := newRepo(t)

	job, err := repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, "result-1")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	policy := jobs.DefaultRetryPolicy()
	first, err := repo.ClaimNext(ctx, policy)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if first == nil || first.ID != job.ID {
		t.Fatalf("expected to claim %s, got %+v", job.ID, first)
	}
	if first.Status != domain.JobStatusRunning || first.Attempts != 1 {
		t.Fatalf("claim must mark running with one attempt, got %+v", first)
	}

	// only one of two claimants wins
	second, err := repo.ClaimNext(ctx, policy)
	if err != nil {
		t.Fatalf("ClaimNext(second): %v", err)
	}
	if second != nil {
		t.Fatalf("a running job must not be claimable, got %+v", second)
	}
}

func TestMarkFailedRequeuesUntilExhausted(t *testing.T) {
	repo, ctx := newRepo(t)
	policy := jobs.RetryPolicy{MaxAttempts: 2, RetryDelay: 0}

	if _, err := repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, "result-1"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	first, err := repo.ClaimNext(ctx, policy)
	if err != nil || first == nil {
		t.Fatalf("ClaimNext: %v %v", first, err)
	}
	if err := repo.MarkFailed(ctx, first, errors.New("boom"), policy); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	requeued, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if requeued.Status != domain.JobStatusQueued {
		t.Fatalf("expected re-queue with attempts left, got %q", requeued.Status)
	}
	if requeued.LastError != "boom" {
		t.Fatalf("expected last_error recorded, got %q", requeued.LastError)
	}

	second, err := repo.ClaimNext(ctx, policy)
	if err != nil || second == nil {
		t.Fatalf("ClaimNext(retry): %v %v", second, err)
	}
	if second.Attempts != 2 {
		t.Fatalf("expected second attempt, got %d", second.Attempts)
	}
	if err := repo.MarkFailed(ctx, second, errors.New("boom again"), policy); err != nil {
		t.Fatalf("MarkFailed(final): %v", err)
	}

	parked, err := repo.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if parked.Status != domain.JobStatusFailed {
		t.Fatalf("expected terminal failure after max attempts, got %q", parked.Status)
	}
	if parked.FinishedAt == nil {
		t.Fatal("expected finished_at on terminal failure")
	}

	// exhausted jobs never come back
	none, err := repo.ClaimNext(ctx, policy)
	if err != nil {
		t.Fatalf("ClaimNext(exhausted): %v", err)
	}
	if none != nil {
		t.Fatalf("expected nothing runnable, got %+v", none)
	}
}

func TestClaimRespectsRunAt(t *testing.T) {
	repo, ctx := newRepo(t)
	policy := jobs.RetryPolicy{MaxAttempts: 3, RetryDelay: time.Hour}

	if _, err := repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, "result-1"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := repo.ClaimNext(ctx, policy)
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext: %v %v", claimed, err)
	}
	if err := repo.MarkFailed(ctx, claimed, errors.New("transient"), policy); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	// the retry is an hour out, nothing is runnable now
	early, err := repo.ClaimNext(ctx, policy)
	if err != nil {
		t.Fatalf("ClaimNext(early): %v", err)
	}
	if early != nil {
		t.Fatalf("expected delayed retry to be unclaimable, got %+v", early)
	}
}

func TestWorkerRunsRecommendationJob(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	stores := data.NewStores(db, log)
	repo := jobs.NewJobRepo(db, log)
	engine := recommend.NewEngine(
		data.NewDiagnosticReader(stores.DiagnosticResults),
		data.NewCatalog(stores.Modules, stores.Quizzes),
		data.NewRecommendationRepo(db, log),
		nil,
		recommend.DefaultConfig(),
		log,
	)
	ctx := context.Background()

	result := testutil.SeedDiagnosticResult(t, db, "u1", "subj-1", 40, []domain.TopicPerformance{
		{TopicTitle: "Fractions", TotalQuestions: 10, CorrectAnswers: 4, ScorePercentage: 40,
			BloomBreakdown: map[string]float64{"applying": 30}},
	})

	worker := jobs.NewWorker(repo, nil, log)
	worker.Register(domain.JobTypeRecommendationGenerate, jobs.RecommendationHandler(engine))

	enq := jobs.NewEnqueuer(repo, nil, log)
	job, err := enq.EnqueueRecommendation(ctx, result.ID)
	if err != nil {
		t.Fatalf("EnqueueRecommendation: %v", err)
	}

	claimed, err := repo.ClaimNext(ctx, jobs.DefaultRetryPolicy())
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext: %v %v", claimed, err)
	}
	worker.RunOne(ctx, claimed)

	done, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if done.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected succeeded, got %q (last_error=%q)", done.Status, done.LastError)
	}

	var count int64
	if err := db.Model(&domain.Recommendation{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 persisted recommendation, got %d", count)
	}
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	repo, ctx := newRepo(t)
	log := testutil.Logger(t)

	worker := jobs.NewWorker(repo, nil, log)
	worker.Register("explode", func(context.Context, *domain.RecommendationJob) error {
		panic("handler bug")
	})

	if _, err := repo.Enqueue(ctx, "explode", "entity-1"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := repo.ClaimNext(ctx, jobs.DefaultRetryPolicy())
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext: %v %v", claimed, err)
	}
	worker.RunOne(ctx, claimed)

	after, err := repo.Get(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.Status != domain.JobStatusQueued {
		t.Fatalf("expected panic to re-queue the job, got %q", after.Status)
	}
	if after.LastError == "" {
		t.Fatal("expected the panic recorded in last_error")
	}
}
