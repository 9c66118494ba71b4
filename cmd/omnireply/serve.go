package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/omnireplyhq/omnireply/internal/config"
	"github.com/omnireplyhq/omnireply/internal/db"
	"github.com/omnireplyhq/omnireply/internal/edgecase"
	"github.com/omnireplyhq/omnireply/internal/generation"
	"github.com/omnireplyhq/omnireply/internal/handlers"
	"github.com/omnireplyhq/omnireply/internal/knowledge"
	"github.com/omnireplyhq/omnireply/internal/logger"
	"github.com/omnireplyhq/omnireply/internal/memory"
	"github.com/omnireplyhq/omnireply/internal/pipeline"
	"github.com/omnireplyhq/omnireply/internal/rules"
	"github.com/omnireplyhq/omnireply/internal/server"
)

func runServe() {
	fx.New(
		fx.Provide(
			loadConfig,
			provideLogger,
			provideDBConn,
			provideKnowledgeStore,
			provideKnowledgeRetriever,
			provideRuleLoader,
			provideMemoryStore,
			provideEdgeFilter,
			provideGenerationEngine,
			provideOrchestrator,
			handlers.NewPingHandler,
			provideMessageHandler,
			provideTelegramHandler,
			provideServer,
		),
		fx.Invoke(
			runMigrations,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideKnowledgeStore(conn *pgxpool.Pool) *knowledge.Store {
	return knowledge.NewStore(conn)
}

func provideKnowledgeRetriever(log *slog.Logger, store *knowledge.Store, cfg config.Config) *knowledge.Retriever {
	return knowledge.NewRetriever(log, store, cfg.Pipeline.KnowledgeScanLimit, cfg.Pipeline.KnowledgeMatchLimit)
}

func provideRuleLoader(log *slog.Logger, conn *pgxpool.Pool, cfg config.Config) *rules.Loader {
	return rules.NewLoader(log, conn, cfg.Pipeline.RuleLimit)
}

func provideMemoryStore(log *slog.Logger, conn *pgxpool.Pool) *memory.Store {
	return memory.NewStore(log, conn)
}

func provideEdgeFilter(log *slog.Logger, cfg config.Config) *edgecase.Filter {
	return edgecase.NewFilter(log, cfg.Pipeline.SpamMessagesPerMinute, cfg.Pipeline.SpamBurst, cfg.Pipeline.MaxMessageLength)
}

func provideGenerationEngine(log *slog.Logger, cfg config.Config) *generation.Engine {
	return generation.NewEngine(log, cfg.OpenAI)
}

func provideOrchestrator(log *slog.Logger, filter *edgecase.Filter, retriever *knowledge.Retriever, ruleLoader *rules.Loader, memories *memory.Store, engine *generation.Engine) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(log, filter, retriever, ruleLoader, memories, engine)
}

func provideMessageHandler(log *slog.Logger, orchestrator *pipeline.Orchestrator) *handlers.MessageHandler {
	return handlers.NewMessageHandler(log, orchestrator)
}

func provideTelegramHandler(log *slog.Logger, orchestrator *pipeline.Orchestrator) *handlers.TelegramHandler {
	return handlers.NewTelegramHandler(log, orchestrator)
}

func provideServer(log *slog.Logger, cfg config.Config, pingHandler *handlers.PingHandler, messageHandler *handlers.MessageHandler, telegramHandler *handlers.TelegramHandler) *server.Server {
	return server.NewServer(log, cfg.Server.Addr, cfg.Auth.JWTSecret, pingHandler, messageHandler, telegramHandler)
}

func runMigrations(cfg config.Config, log *slog.Logger) error {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema up to date")
	return nil
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
