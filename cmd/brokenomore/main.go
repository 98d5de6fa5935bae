package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adityakumar003/BrokeNoMore/internal/assistant"
	"github.com/adityakumar003/BrokeNoMore/internal/config"
	apphttp "github.com/adityakumar003/BrokeNoMore/internal/http"
	"github.com/adityakumar003/BrokeNoMore/internal/ledger"
	applog "github.com/adityakumar003/BrokeNoMore/internal/log"
	"github.com/adityakumar003/BrokeNoMore/internal/session"
	"github.com/adityakumar003/BrokeNoMore/internal/storage"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "brokenomore"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open record store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sessions := session.NewManager(cfg.SessionTTL)
	svc := ledger.NewService(repo, sessions)

	var advisor apphttp.Answerer
	if cfg.AssistantEnabled() {
		gen, err := assistant.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Failed to initialize assistant, continuing without it", "error", err)
		} else {
			advisor = assistant.NewAdvisor(svc, gen, cfg.AssistantTimeout)
			logger.Info("Assistant enabled", "model", cfg.GeminiModel)
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, assistant disabled; ledger features remain available")
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, advisor)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 2 * cfg.AssistantTimeout
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
