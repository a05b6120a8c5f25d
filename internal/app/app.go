package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"licitradar/internal/config"
	"licitradar/internal/domain"
	"licitradar/internal/infrastructure/browser"
	"licitradar/internal/infrastructure/discovery"
	"licitradar/internal/infrastructure/llm"
	"licitradar/internal/infrastructure/scheduler"
	"licitradar/internal/infrastructure/storage"
	"licitradar/internal/infrastructure/telegram"
	"licitradar/internal/infrastructure/web"
	"licitradar/internal/logging"
	"licitradar/internal/ports"
	"licitradar/internal/usecase"
)

// Application wires configuration to adapters and use cases.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	repo     *storage.SQLiteRepository
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. The Gemini analyst and the
// Telegram notifier are optional at wiring time; a pipeline run without the
// analyst fails fast with a clear error.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	source := discovery.NewClient(cfg.Discovery.BaseURL, cfg.Discovery.Ticket, nil,
		baseLogger.With("component", "discovery"))
	extractor := browser.NewExtractor(cfg.Browser, baseLogger.With("component", "browser"))

	var analyst ports.Analyst
	if cfg.Gemini.APIKey != "" {
		analyst, err = llm.NewGeminiAnalyst(ctx, cfg.Gemini, baseLogger.With("component", "llm"))
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("build analyst: %w", err)
		}
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	// The portal publishes by local date; "today" is resolved in the
	// configured timezone, not the host's.
	location := cfg.Scheduler.Location()
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Repo:      repo,
		Profiles:  repo,
		Extractor: extractor,
		Analyst:   analyst,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "pipeline"),
		Quota:     cfg.Pipeline.Quota,
		ItemDelay: cfg.Pipeline.ItemDelay(),
		Now:       func() time.Time { return time.Now().In(location) },
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		repo:     repo,
		pipeline: pipeline,
	}, nil
}

// RunOnce executes a single pipeline cycle.
func (a *Application) RunOnce(ctx context.Context) error {
	summary, err := a.pipeline.RunCycle(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("run finished",
		"discovered", summary.Discovered,
		"registered", summary.Registered,
		"analyzed", summary.Analyzed,
		"skipped", summary.Skipped)
	return nil
}

// Serve starts the review dashboard until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	server := web.NewServer(a.repo, a.repo, a.pipeline, a.logger.With("component", "web"))
	return server.Run(ctx, a.cfg.Web.Addr)
}

// SaveProfile stores the singleton strategic profile.
func (a *Application) SaveProfile(ctx context.Context, profile domain.Profile) error {
	return a.repo.SaveProfile(ctx, profile)
}

// Profile loads the singleton strategic profile.
func (a *Application) Profile(ctx context.Context) (domain.Profile, error) {
	return a.repo.Profile(ctx)
}

// Cron runs the pipeline on the configured interval until ctx is cancelled.
func (a *Application) Cron(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval())
	recurring := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	if err := recurring.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return recurring.Stop(context.Background())
}

// Close releases the repository handle.
func (a *Application) Close() error {
	return a.repo.Close()
}
