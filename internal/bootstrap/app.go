package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"compliance-backend/internal/alerts"
	"compliance-backend/internal/analyzers"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/findings"
	"compliance-backend/internal/llm"
	openaiclient "compliance-backend/internal/llm/openai"
	"compliance-backend/internal/orchestrator"
	"compliance-backend/internal/patterns"
	"compliance-backend/internal/queue"
	"compliance-backend/internal/scores"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/server"
	"compliance-backend/internal/shared/storage/db"
	"compliance-backend/internal/shared/telemetry"
)

// App holds the wired dependency graph shared by the API server, the
// worker, and tests.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	FindingsRepo findings.Repo
	PatternStore patterns.Store
	ScoresRepo   scores.Repo

	DocumentsService *documents.Service
	FindingsService  *findings.Service
	AlertsService    *alerts.Service
	Analysis         *orchestrator.Service
	Learner          *patterns.Learner
	Queue            queue.Client

	// LLM may be swapped before Build wires the registry, letting tests
	// inject a fake client.
	LLM llm.Client
}

// Option tweaks the app before services are wired.
type Option func(*App)

// WithLLM overrides the LLM client.
func WithLLM(client llm.Client) Option {
	return func(app *App) { app.LLM = client }
}

// Build prepares the dependency graph and the router.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	app := &App{Config: cfg}
	for _, opt := range opts {
		opt(app)
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if app.LLM == nil {
		client, err := buildLLM(cfg)
		if err != nil {
			return nil, err
		}
		app.LLM = client
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg, app.Learner)
	if err != nil {
		return nil, err
	}
	app.Queue = queueClient
	app.FindingsService.Queue = queueClient

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: documents.NewHandler(app.DocumentsService),
		FindingHandler:  findings.NewHandler(app.FindingsService),
		PatternHandler:  patterns.NewHandler(app.PatternStore),
		ScoreHandler:    scores.NewHandler(app.ScoresRepo),
		AlertHandler:    alerts.NewHandler(app.AlertsService),
		AnalysisHandler: orchestrator.NewHandler(app.Analysis),
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_unavailable", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openaiclient.NewClient(
			cfg.LLM.APIKey,
			cfg.LLM.Model,
			cfg.LLM.Temperature,
			cfg.LLM.MaxTokens,
			cfg.LLM.Timeout,
		)
	default:
		return llm.PlaceholderClient{}, nil
	}
}

// buildQueue picks the queue backend. The in-process backend dispatches
// straight into the learner.
func buildQueue(ctx context.Context, cfg config.Config, learner *patterns.Learner) (queue.Client, error) {
	if cfg.Queue.Backend == "sqs" {
		return queue.NewSQSClient(ctx, cfg.Queue.SQSQueueURL, cfg.Queue.SQSRegion)
	}
	return queue.NewMemoryClient(func(ctx context.Context, msg queue.Message) error {
		return learner.Process(ctx, msg.FindingID)
	}), nil
}

func buildServices(app *App) error {
	var (
		docRepo      documents.Repo
		findingRepo  findings.Repo
		patternStore patterns.Store
		scoreRepo    scores.Repo
		alertRepo    alerts.Repo
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		findingRepo = &findings.PGRepo{DB: app.DB}
		patternStore = &patterns.PGStore{DB: app.DB}
		scoreRepo = &scores.PGRepo{DB: app.DB}
		alertRepo = &alerts.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		findingRepo = findings.NewMemoryRepo()
		patternStore = patterns.NewMemoryStore()
		scoreRepo = scores.NewMemoryRepo()
		alertRepo = alerts.NewMemoryRepo()
	}

	cfg := app.Config
	app.FindingsRepo = findingRepo
	app.PatternStore = patternStore
	app.ScoresRepo = scoreRepo

	app.DocumentsService = &documents.Service{Repo: docRepo}
	app.FindingsService = &findings.Service{Repo: findingRepo}
	app.AlertsService = alerts.NewService(alertRepo)
	app.Learner = patterns.NewLearner(findingRepo, patternStore)

	matcher := patterns.NewMatcher(
		patternStore,
		cfg.Patterns.MinConfidence,
		cfg.Patterns.MinSamples,
		cfg.Patterns.MaxMatched,
	)

	app.Analysis = &orchestrator.Service{
		Documents:       app.DocumentsService,
		Findings:        app.FindingsService,
		Scores:          scoreRepo,
		Alerts:          app.AlertsService,
		Matcher:         matcher,
		Registry:        analyzers.DefaultRegistry(app.LLM, cfg.Analysis.MaxDocumentChars),
		Events:          orchestrator.LoggingSink{},
		AnalyzerTimeout: cfg.Analysis.AnalyzerTimeout,
		MaxParallel:     cfg.Analysis.MaxParallel,
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
