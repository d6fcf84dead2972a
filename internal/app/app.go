package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PinCurator/internal/api"
	"PinCurator/internal/config"
	"PinCurator/internal/feed"
	"PinCurator/internal/infrastructure/enrich"
	"PinCurator/internal/infrastructure/imagehost"
	"PinCurator/internal/infrastructure/images"
	"PinCurator/internal/infrastructure/llm"
	"PinCurator/internal/infrastructure/loader"
	"PinCurator/internal/infrastructure/pinterest"
	"PinCurator/internal/infrastructure/storage"
	"PinCurator/internal/logging"
	"PinCurator/internal/ports"
	"PinCurator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	router *gin.Engine
	close  func() error
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	ledger := storage.NewSQLiteLedger(db)
	if err := ledger.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := feed.NewRegistry()
	registry.Register(loader.NewCSVSource(nil))
	registry.Register(loader.NewHTMLCatalogSource(nil))
	source := loader.NewConfigSource(registry, cfg.Feeds, baseLogger.With("component", "source"))

	var model ports.DescriptionGenerator
	if cfg.OpenAI.APIKey != "" {
		model = llm.NewOpenAIGenerator(cfg.OpenAI)
	}

	enricher := enrich.NewEnricher(enrich.EnricherDeps{
		Model:    model,
		Template: enrich.NewTemplateGenerator(nil),
		Composer: enrich.NewComposer(cfg.Content.Hashtags, cfg.Content.Disclaimer, nil),
		Images:   images.NewFormatter(nil, cfg.Images.WorkDir, cfg.Images.MaxWidth, cfg.Images.MaxHeight, cfg.Images.Quality),
		Logger:   baseLogger.With("component", "enricher"),
	})

	publisher, err := buildPublisher(ctx, cfg, baseLogger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Ledger:    ledger,
		Enricher:  enricher,
		Publisher: publisher,
		Logger:    baseLogger.With("component", "pipeline"),
		MaxPerRun: cfg.Behavior.MaxPerRun,
	})

	server := api.NewServer(pipeline, baseLogger.With("component", "api"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		router: server.Router(),
		close:  db.Close,
	}, nil
}

// Run serves the review API until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: a.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("review api listening", "addr", a.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve review api: %w", err)
	}
	return nil
}

// Close releases the ledger database.
func (a *Application) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func buildPublisher(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (ports.Publisher, error) {
	switch cfg.Publisher.Mode {
	case "hosted":
		host, err := imagehost.NewS3Host(ctx, cfg.Publisher.S3)
		if err != nil {
			return nil, fmt.Errorf("build image host: %w", err)
		}
		client := pinterest.NewClient(cfg.Publisher.Endpoint, cfg.Publisher.AccessToken)
		return pinterest.NewHostedPublisher(client, host,
			cfg.Publisher.BoardID, cfg.Publisher.AccessToken,
			baseLogger.With("component", "publisher")), nil
	case "", "simulated":
		return pinterest.NewSimulatedPublisher(
			cfg.Publisher.BoardID, cfg.Publisher.AccessToken,
			baseLogger.With("component", "publisher")), nil
	default:
		return nil, fmt.Errorf("unknown publisher mode %q", cfg.Publisher.Mode)
	}
}
