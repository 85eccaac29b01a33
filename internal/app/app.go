package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avilacode/bloomtrack-backend/internal/data"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
	"github.com/avilacode/bloomtrack-backend/internal/handlers"
	"github.com/avilacode/bloomtrack-backend/internal/jobs"
	"github.com/avilacode/bloomtrack-backend/internal/learning/aggregate"
	"github.com/avilacode/bloomtrack-backend/internal/learning/recommend"
	"github.com/avilacode/bloomtrack-backend/internal/middleware"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
	"github.com/avilacode/bloomtrack-backend/internal/server"
)

// App wires stores, engines, the job worker and the router together.
type App struct {
	Config Config
	Log    *logger.Logger
	Stores data.Stores
	Worker *jobs.Worker
	Router *gin.Engine

	bus jobs.WakeBus
}

func New(cfg Config, log *logger.Logger, gormDB *gorm.DB) *App {
	stores := data.NewStores(gormDB, log)

	// wake bus is optional: without redis the worker just polls
	bus, err := jobs.NewRedisWakeBus(log)
	if err != nil {
		log.Warn("redis wake bus unavailable, worker will poll", "error", err)
		bus = jobs.NewNoopWakeBus()
	}

	jobRepo := jobs.NewJobRepo(gormDB, log)
	enqueuer := jobs.NewEnqueuer(jobRepo, bus, log)

	engine := recommend.NewEngine(
		data.NewDiagnosticReader(stores.DiagnosticResults),
		data.NewCatalog(stores.Modules, stores.Quizzes),
		data.NewRecommendationRepo(gormDB, log),
		nil,
		recommend.DefaultConfig(),
		log,
	)

	worker := jobs.NewWorker(jobRepo, bus, log)
	worker.SetTick(cfg.WorkerTick)
	worker.Register(domain.JobTypeRecommendationGenerate, jobs.RecommendationHandler(engine))

	aggregator := aggregate.New(
		data.NewActivityReader(stores.Activities),
		data.NewProfileReader(stores.Profiles),
		log,
	)

	authMW := middleware.NewAuthMiddleware(log, cfg.JWTSecret)

	enqueue := func(ctx context.Context, resultID string) error {
		_, err := enqueuer.EnqueueRecommendation(ctx, resultID)
		return err
	}

	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: authMW,
		AdminRole:      cfg.AdminRole,
		AllowOrigins:   cfg.AllowOrigins,
		ServiceName:    "bloomtrack",

		Diagnostic:     handlers.NewDiagnosticHandler(log, stores.DiagnosticResults, enqueue),
		Recommendation: handlers.NewRecommendationHandler(log, stores.Recommendations),
		Analytics:      handlers.NewAnalyticsHandler(log, aggregator),
		Activity:       handlers.NewActivityHandler(log, stores.Activities),
		Content:        handlers.NewContentHandler(log, stores.Modules, stores.Quizzes, stores.Subjects),
		Admin:          handlers.NewAdminHandler(log, stores),
	})

	return &App{
		Config: cfg,
		Log:    log,
		Stores: stores,
		Worker: worker,
		Router: router,
		bus:    bus,
	}
}

// Start launches the background worker. The HTTP server is run by the
// caller via Router.
func (a *App) Start(ctx context.Context) {
	a.Worker.Start(ctx)
}

func (a *App) Close() {
	if a.bus != nil {
		_ = a.bus.Close()
	}
}
