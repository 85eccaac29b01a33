package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// HandlerFunc processes one claimed job. Handlers run at-least-once and
// must be idempotent.
type HandlerFunc func(ctx context.Context, job *domain.RecommendationJob) error

// Worker drains the outbox: a poll ticker guarantees delivery, the wake bus
// shortens the queue-to-run latency. A claimed job always runs to
// completion; cancellation only stops new claims.
type Worker struct {
	repo     JobRepo
	bus      WakeBus
	handlers map[string]HandlerFunc
	policy   RetryPolicy
	tick     time.Duration
	log      *logger.Logger
}

func NewWorker(repo JobRepo, bus WakeBus, baseLog *logger.Logger) *Worker {
	if bus == nil {
		bus = NewNoopWakeBus()
	}
	return &Worker{
		repo:     repo,
		bus:      bus,
		handlers: map[string]HandlerFunc{},
		policy:   DefaultRetryPolicy(),
		tick:     time.Second,
		log:      baseLog.With("component", "JobWorker"),
	}
}

func (w *Worker) Register(jobType string, h HandlerFunc) {
	w.handlers[jobType] = h
}

// SetTick adjusts the poll interval. Call before Start.
func (w *Worker) SetTick(d time.Duration) {
	if d > 0 {
		w.tick = d
	}
}

func (w *Worker) Start(ctx context.Context) {
	wake, err := w.bus.Subscribe(ctx)
	if err != nil {
		w.log.Warn("wake bus unavailable, polling only", "error", err)
		wake = nil
	}

	go func() {
		ticker := time.NewTicker(w.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-wake:
			}
			w.drain(ctx)
		}
	}()
}

// drain claims and runs jobs until the queue has nothing runnable.
func (w *Worker) drain(ctx context.Context) {
	for {
		job, err := w.repo.ClaimNext(ctx, w.policy)
		if err != nil {
			w.log.Warn("claim failed", "error", err)
			return
		}
		if job == nil {
			return
		}
		w.RunOne(ctx, job)
	}
}

// RunOne executes a claimed job and records the outcome. Handler panics are
// recovered into failures so one bad job cannot take the worker down.
func (w *Worker) RunOne(ctx context.Context, job *domain.RecommendationJob) {
	h, ok := w.handlers[job.JobType]
	if !ok {
		w.log.Warn("no handler for job type", "job_type", job.JobType, "job_id", job.ID)
		_ = w.repo.MarkFailed(ctx, job, fmt.Errorf("no handler for job type %q", job.JobType), w.policy)
		return
	}

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
				runErr = fmt.Errorf("panic: %v", r)
			}
		}()
		runErr = h(ctx, job)
	}()

	if runErr != nil {
		if err := w.repo.MarkFailed(ctx, job, runErr, w.policy); err != nil {
			w.log.Error("failed to record job failure", "job_id", job.ID, "error", err)
		}
		return
	}
	if err := w.repo.MarkSucceeded(ctx, job.ID); err != nil {
		w.log.Error("failed to record job success", "job_id", job.ID, "error", err)
	}
}

// Enqueuer pairs the outbox insert with the wake signal. The signal is
// best-effort; a dropped publish only delays pickup to the next tick.
type Enqueuer struct {
	repo JobRepo
	bus  WakeBus
	log  *logger.Logger
}

func NewEnqueuer(repo JobRepo, bus WakeBus, baseLog *logger.Logger) *Enqueuer {
	if bus == nil {
		bus = NewNoopWakeBus()
	}
	return &Enqueuer{repo: repo, bus: bus, log: baseLog.With("component", "JobEnqueuer")}
}

func (e *Enqueuer) EnqueueRecommendation(ctx context.Context, diagnosticResultID string) (*domain.RecommendationJob, error) {
	job, err := e.repo.Enqueue(ctx, domain.JobTypeRecommendationGenerate, diagnosticResultID)
	if err != nil {
		return nil, err
	}
	if err := e.bus.Publish(ctx, job.ID); err != nil {
		e.log.Warn("wake publish failed, worker will poll", "job_id", job.ID, "error", err)
	}
	return job, nil
}
