package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pipewise/sqlforge/pkg/catalog"
	"github.com/pipewise/sqlforge/pkg/config"
	"github.com/pipewise/sqlforge/pkg/handlers"
	"github.com/pipewise/sqlforge/pkg/llm"
	"github.com/pipewise/sqlforge/pkg/logging"
	"github.com/pipewise/sqlforge/pkg/middleware"
	"github.com/pipewise/sqlforge/pkg/pipeline"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("default_dialect", cfg.DefaultDialect),
		zap.String("catalog_source", cfg.Catalog.Source))

	cat, err := loadCatalog(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load schema catalog", zap.String("error", logging.Error(err)))
	}
	logger.Info("Schema catalog loaded", zap.Int("tables", len(cat.Tables())))

	generators := buildGenerators(cfg, logger)

	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{
		MaxConcurrent: cfg.Workers.MaxConcurrent,
		ItemTimeout:   time.Duration(cfg.Workers.TimeoutSeconds) * time.Second,
	}, logger)
	selector := pipeline.NewCandidateSelector(cat, pool, cfg.Selector, logger)

	// The first configured generator doubles as the regeneration backend.
	var regenerator llm.Generator
	if len(generators) > 0 {
		regenerator = generators[0]
	}
	orchestrator := pipeline.NewOrchestrator(cat, cfg.Pipeline, selector, regenerator, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewEnhanceHandler(orchestrator, generators, cfg.Dialect(), logger).RegisterRoutes(mux)
	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting sqlforge",
		zap.String("addr", addr),
		zap.String("version", cfg.Version),
		zap.Int("generators", len(generators)))

	if cfg.TLSCertPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func loadCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.SchemaCatalog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Catalog.Source {
	case "postgres":
		logger.Info("Introspecting postgres catalog",
			zap.String("conn", logging.ConnString(cfg.Catalog.ConnString)))
		return catalog.LoadPostgres(ctx, cfg.Catalog.ConnString)
	case "mssql":
		logger.Info("Introspecting mssql catalog",
			zap.String("conn", logging.ConnString(cfg.Catalog.ConnString)))
		return catalog.LoadMSSQL(ctx, cfg.Catalog.ConnString)
	default:
		logger.Info("Loading file catalog", zap.String("path", cfg.Catalog.Path))
		return catalog.LoadFile(cfg.Catalog.Path)
	}
}

func buildGenerators(cfg *config.Config, logger *zap.Logger) []llm.Generator {
	var generators []llm.Generator

	if cfg.OpenAI.Enabled {
		gen, err := llm.NewOpenAIGenerator(&llm.OpenAIConfig{
			Endpoint:    cfg.OpenAI.Endpoint,
			Model:       cfg.OpenAI.Model,
			APIKey:      cfg.OpenAI.APIKey,
			Temperature: cfg.OpenAI.Temperature,
		}, logger)
		if err != nil {
			logger.Warn("Skipping OpenAI generator", zap.Error(err))
		} else {
			generators = append(generators, gen)
		}
	}

	if cfg.Anthropic.Enabled {
		gen, err := llm.NewAnthropicGenerator(&llm.AnthropicConfig{
			Model:     cfg.Anthropic.Model,
			APIKey:    cfg.Anthropic.APIKey,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}, logger)
		if err != nil {
			logger.Warn("Skipping Anthropic generator", zap.Error(err))
		} else {
			generators = append(generators, gen)
		}
	}

	return generators
}
