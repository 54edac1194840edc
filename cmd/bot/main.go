package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/YakushevDanila/tanuki-bot3/config"
	"github.com/YakushevDanila/tanuki-bot3/internal/api/handler"
	"github.com/YakushevDanila/tanuki-bot3/internal/api/router"
	"github.com/YakushevDanila/tanuki-bot3/internal/bot"
	"github.com/YakushevDanila/tanuki-bot3/internal/notify"
	"github.com/YakushevDanila/tanuki-bot3/internal/scheduler"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage/sheets"
	sqlitestore "github.com/YakushevDanila/tanuki-bot3/internal/storage/sqlite"
	"github.com/YakushevDanila/tanuki-bot3/pkg/database"
	applogger "github.com/YakushevDanila/tanuki-bot3/pkg/logger"
	"github.com/YakushevDanila/tanuki-bot3/pkg/redis"
)

func main() {
	// Local development secrets; absence is fine.
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Type),
	)

	store, stats, storageName, db := buildStore(cfg, logger)

	// Conversation sessions: Redis when configured, in-memory otherwise.
	var sessions bot.Sessions
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory sessions", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		sessions = bot.NewRedisSessions(rdb, cfg.Bot.SessionTTL)
	} else {
		sessions = bot.NewMemorySessions(cfg.Bot.SessionTTL)
	}

	var sender notify.Sender
	if cfg.Bot.OutboundURL != "" {
		sender = notify.NewWebhook(cfg.Bot.OutboundURL, logger)
	} else {
		logger.Warn("bot.outbound_url not set; replies are only returned in webhook responses")
		sender = &notify.Discard{Logger: logger}
	}

	dispatcher := bot.New(store, stats, sessions, storageName, logger)

	if cfg.Reminder.Enabled && cfg.Bot.OwnerChatID != 0 {
		sched, err := scheduler.New(&cfg.Reminder, store, sender, cfg.Bot.OwnerChatID, logger)
		if err != nil {
			logger.Fatal("initializing reminder scheduler", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	} else {
		logger.Info("reminders disabled")
	}

	updates := handler.NewUpdateHandler(dispatcher, sender, cfg.Bot.ChunkDelay, logger)
	engine := router.Setup(updates, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}

// buildStore selects the shift store backend. A Google Sheets
// initialization failure falls back to SQLite so the bot stays usable
// offline. The returned stats provider is nil for the remote backend.
func buildStore(cfg *config.Config, logger *zap.Logger) (storage.ShiftStore, storage.StatsProvider, string, *gorm.DB) {
	if cfg.Storage.Type == config.StorageSheets {
		store, err := buildSheetsStore(cfg, logger)
		if err == nil {
			logger.Info("using Google Sheets storage")
			return store, nil, "Google Sheets", nil
		}
		logger.Warn("Google Sheets unavailable, falling back to SQLite", zap.Error(err))
	}

	db, err := database.New(&cfg.Storage.SQLite, logger)
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("unwrapping sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("running migrations", zap.Error(err))
	}

	store := sqlitestore.New(db, logger)
	logger.Info("using SQLite storage")
	return store, store, "SQLite", db
}

func buildSheetsStore(cfg *config.Config, logger *zap.Logger) (*sheets.Store, error) {
	creds := []byte(cfg.Storage.Sheets.Credentials)
	if len(creds) == 0 && cfg.Storage.Sheets.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.Storage.Sheets.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		creds = data
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("no Google credentials configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := sheets.NewClient(ctx, creds, cfg.Storage.Sheets.SpreadsheetID)
	if err != nil {
		return nil, err
	}

	store := sheets.New(client, cfg.Storage.Sheets.Worksheet, logger)
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
