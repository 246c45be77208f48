package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/analytics"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/cinezone/cinezone-ai-service/internal/recommender"
	"github.com/cinezone/cinezone-ai-service/internal/scheduler"
	appvalidator "github.com/cinezone/cinezone-ai-service/internal/validator"
	"github.com/cinezone/cinezone-ai-service/internal/vcs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

var (
	version = vcs.Version()
)

// SchedulerService is the scheduling pipeline as the HTTP layer consumes it.
type SchedulerService interface {
	OptimizeSchedule(
		ctx context.Context,
		movies []domain.Movie,
		existingShows []domain.ExistingShow,
		roomIDs []int,
		dateRange domain.DateRange,
		cons domain.Constraints,
	) (scheduler.Schedule, error)
	TrainDemandModel(ctx context.Context, bookings []domain.Booking, moviesByID map[int]domain.Movie) (scheduler.TrainingResult, error)
	PredictSingleDemand(movie domain.Movie, showsAt time.Time, roomID int) scheduler.Prediction
	ModelInfo() scheduler.ModelInfo
}

// RecommenderService produces movie recommendations.
type RecommenderService interface {
	Recommend(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error)
}

// AnalyticsService aggregates booking history into revenue insights.
type AnalyticsService interface {
	AnalyzePatterns(bookings []domain.Booking) analytics.Analysis
}

type application struct {
	config    config
	logger    *slog.Logger
	validator *validator.Validate
	redis     redis.UniversalClient

	scheduler   SchedulerService
	recommender RecommenderService
	analyzer    AnalyticsService

	metrics metrics
}

type config struct {
	port             int
	env              string
	artifactPath     string
	otelCollectorUrl string
	solver           struct {
		kind   string
		budget time.Duration
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
		cacheTTL     time.Duration
	}
}

func Run() error {
	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.artifactPath, "model-artifact", "models/demand_model.json", "Demand model artifact path")
	flag.StringVar(&cfg.solver.kind, "solver", "exact", "Schedule solver (exact|greedy)")
	flag.DurationVar(&cfg.solver.budget, "solver-budget", scheduler.DefaultSolveBudget, "Exact solver time budget")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL (empty disables the recommendation cache)")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")
	flag.DurationVar(&cfg.redis.cacheTTL, "redis-cache-ttl", 5*time.Minute, "Recommendation cache TTL")

	flag.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	validator := appvalidator.NewValidator()

	fx := scheduler.NewFeatureExtractor()
	model := scheduler.NewDemandModel(fx, cfg.artifactPath, logger)
	if err := model.LoadArtifact(); err != nil {
		logger.Warn("could not load demand model artifact, starting untrained", "path", cfg.artifactPath, "error", err)
	}

	var selector scheduler.Selector
	switch cfg.solver.kind {
	case "greedy":
		selector = &scheduler.GreedySelector{}
	default:
		selector = scheduler.NewExactSelector(cfg.solver.budget)
	}

	var redisClient redis.UniversalClient
	if cfg.redis.url != "" {
		client, err := newRedisClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
	}

	app := &application{
		config:      cfg,
		logger:      logger,
		validator:   validator,
		redis:       redisClient,
		scheduler:   scheduler.NewOptimizer(fx, model, selector, logger),
		recommender: recommender.NewHybridRecommender(),
		analyzer:    analytics.NewRevenueAnalyzer(),
	}

	shutdownTelemetry, err := app.initTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.run()
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func (app *application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(app.recoverPanic)

	r.Get("/health", app.GetHealth)
	r.Post("/optimize-schedule", app.OptimizeScheduleHandler)
	r.Post("/train-model", app.TrainModelHandler)
	r.Get("/model-info", app.GetModelInfoHandler)
	r.Post("/predict-demand", app.PredictDemandHandler)
	r.Post("/analyze-revenue", app.AnalyzeRevenueHandler)
	r.Post("/recommendations", app.RecommendationsHandler)

	return r
}
