package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/avilacode/bloomtrack-backend/internal/data"
	"github.com/avilacode/bloomtrack-backend/internal/data/testutil"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/handlers"
	"github.com/avilacode/bloomtrack-backend/internal/jobs"
	"github.com/avilacode/bloomtrack-backend/internal/learning/aggregate"
	"github.com/avilacode/bloomtrack-backend/internal/learning/recommend"
	"github.com/avilacode/bloomtrack-backend/internal/middleware"
	"github.com/avilacode/bloomtrack-backend/internal/server"
)

const testSecret = "router-test-secret"

type routerEnv struct {
	router  *gin.Engine
	stores  data.Stores
	jobRepo jobs.JobRepo
	worker  *jobs.Worker
}

func newRouterEnv(t *testing.T) routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	stores := data.NewStores(db, log)

	jobRepo := jobs.NewJobRepo(db, log)
	enqueuer := jobs.NewEnqueuer(jobRepo, nil, log)
	engine := recommend.NewEngine(
		data.NewDiagnosticReader(stores.DiagnosticResults),
		data.NewCatalog(stores.Modules, stores.Quizzes),
		data.NewRecommendationRepo(db, log),
		nil,
		recommend.DefaultConfig(),
		log,
	)
	worker := jobs.NewWorker(jobRepo, nil, log)
	worker.Register(domain.JobTypeRecommendationGenerate, jobs.RecommendationHandler(engine))

	aggregator := aggregate.New(
		data.NewActivityReader(stores.Activities),
		data.NewProfileReader(stores.Profiles),
		log,
	)

	enqueue := func(ctx context.Context, resultID string) error {
		_, err := enqueuer.EnqueueRecommendation(ctx, resultID)
		return err
	}

	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.NewAuthMiddleware(log, testSecret),

		Diagnostic:     handlers.NewDiagnosticHandler(log, stores.DiagnosticResults, enqueue),
		Recommendation: handlers.NewRecommendationHandler(log, stores.Recommendations),
		Analytics:      handlers.NewAnalyticsHandler(log, aggregator),
		Activity:       handlers.NewActivityHandler(log, stores.Activities),
		Content:        handlers.NewContentHandler(log, stores.Modules, stores.Quizzes, stores.Subjects),
		Admin:          handlers.NewAdminHandler(log, stores),
	})
	return routerEnv{router: router, stores: stores, jobRepo: jobRepo, worker: worker}
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheckIsPublic(t *testing.T) {
	env := newRouterEnv(t)
	rec := doJSON(t, env.router, http.MethodGet, "/healthcheck", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIRejectsAnonymous(t *testing.T) {
	env := newRouterEnv(t)
	rec := doJSON(t, env.router, http.MethodGet, "/api/recommendations", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	bad := signToken(t, "u1", "student") + "tampered"
	rec = doJSON(t, env.router, http.MethodGet, "/api/recommendations", bad, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestDiagnosticSubmitFlow(t *testing.T) {
	env := newRouterEnv(t)
	token := signToken(t, "u1", "student")
	ctx := context.Background()

	body := `{
		"user_id": "u1",
		"subject_id": "subj-1",
		"overall_score": 48,
		"topic_performance": [
			{"topic_title": "Fractions", "total_questions": 10, "correct_answers": 4,
			 "score_percentage": 40, "bloom_breakdown": {"applying": 30}}
		]
	}`
	rec := doJSON(t, env.router, http.MethodPost, "/api/diagnostics/results", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var stored domain.DiagnosticResult
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected stored result to carry an id")
	}
	if stored.PassingStatus != domain.PassingStatusFailed {
		t.Fatalf("score 48 must read failed, got %q", stored.PassingStatus)
	}

	// submission returns before generation: no recommendations yet
	rec = doJSON(t, env.router, http.MethodGet, "/api/recommendations?diagnostic_result_id="+stored.ID, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page struct {
		Items      []json.RawMessage `json:"items"`
		NextCursor string            `json:"next_cursor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no recommendations before the worker runs, got %d", len(page.Items))
	}

	// drain the queued job like the worker loop would
	job, err := env.jobRepo.ClaimNext(ctx, jobs.DefaultRetryPolicy())
	if err != nil || job == nil {
		t.Fatalf("expected a queued job: %v %v", job, err)
	}
	if job.EntityID != stored.ID {
		t.Fatalf("job bound to wrong result: %q", job.EntityID)
	}
	env.worker.RunOne(ctx, job)

	rec = doJSON(t, env.router, http.MethodGet, "/api/recommendations?diagnostic_result_id="+stored.ID, token, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 recommendation after the worker ran, got %d", len(page.Items))
	}

	// the stored result reads back
	rec = doJSON(t, env.router, http.MethodGet, "/api/diagnostics/results/"+stored.ID, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminPurgeRequiresRole(t *testing.T) {
	env := newRouterEnv(t)

	student := signToken(t, "u1", "student")
	rec := doJSON(t, env.router, http.MethodDelete, "/api/admin/activities/purge?field=user_id&op===&value=u1", student, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := env.stores.Activities.Create(ctx, &domain.Activity{UserID: "u1", Score: 10, CompletionRate: 1}, ""); err != nil {
			t.Fatalf("seed activity: %v", err)
		}
	}

	admin := signToken(t, "boss", "admin")
	rec = doJSON(t, env.router, http.MethodDelete, "/api/admin/activities/purge?field=user_id&op===&value=u1", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Purged int `json:"purged"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Purged != 3 {
		t.Fatalf("expected 3 purged, got %d", out.Purged)
	}

	rec = doJSON(t, env.router, http.MethodDelete, "/api/admin/nope/purge?field=user_id&op===&value=u1", admin, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown collection, got %d", rec.Code)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	env := newRouterEnv(t)
	token := signToken(t, "faculty-1", "faculty")
	ctx := context.Background()

	profile, err := env.stores.Profiles.Create(ctx, &domain.UserProfile{Email: "a@school.edu", RoleID: "student"}, "")
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if _, err := env.stores.Activities.Create(ctx, &domain.Activity{UserID: profile.ID, Score: 80, CompletionRate: 1, BloomLevel: domain.BloomApplying}, ""); err != nil {
		t.Fatalf("seed activity: %v", err)
	}

	rec := doJSON(t, env.router, http.MethodGet, "/api/analytics/students/"+profile.ID, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary aggregate.StudentSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.AverageScore != 80 || summary.TotalActivities != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rec = doJSON(t, env.router, http.MethodGet, "/api/analytics/cohort?role=student", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cohort aggregate.CohortSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &cohort); err != nil {
		t.Fatalf("decode cohort: %v", err)
	}
	if cohort.TotalStudents != 1 || cohort.PassCount != 1 {
		t.Fatalf("unexpected cohort: %+v", cohort)
	}

	rec = doJSON(t, env.router, http.MethodGet, "/api/analytics/cohort", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without role, got %d", rec.Code)
	}
}
