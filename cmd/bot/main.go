package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"healthtrack-bot/internal/bot"
	"healthtrack-bot/internal/config"
	"healthtrack-bot/internal/core"
	"healthtrack-bot/internal/db"
	"healthtrack-bot/internal/ingest"
	"healthtrack-bot/internal/llm"

	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Open and verify the database connection.
	dbConn, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(pingCtx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	repo := db.NewRepository(dbConn)

	// Wire the core services.
	quiz := core.NewQuestionnaire()
	sessions := core.NewSessionManager(quiz, repo, logger)
	inference := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	analysis := core.NewAnalysisService(repo, inference, logger)
	// No OCR backend is wired yet; image and PDF uploads get a polite
	// extraction-failed notice until one is configured.
	normalizer := ingest.New(nil)
	dispatcher := core.NewDispatcher(sessions, analysis, repo, normalizer, logger)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("failed to authorize bot", zap.Error(err))
	}
	api.Debug = cfg.Telegram.Debug

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.New(api, dispatcher, cfg.Telegram.PollTimeout, logger)
	if err := b.Run(ctx); err != nil {
		logger.Fatal("bot terminated", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
