package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"bot-listas/internal/auth"
	"bot-listas/internal/cache"
	"bot-listas/internal/config"
	"bot-listas/internal/convo"
	"bot-listas/internal/list"
	"bot-listas/internal/metrics"
	"bot-listas/internal/nlu"
	"bot-listas/internal/repo"
	"bot-listas/internal/wa"
	"bot-listas/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed loading config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(cfg.MetricsNamespace, registry)

	if cfg.DeepSeekAPIKey == "" {
		logger.Warn("DEEPSEEK_API_KEY not set, running on heuristics only")
	}
	client := nlu.NewClient(nlu.Config{
		BaseURL: cfg.DeepSeekBaseURL,
		APIKey:  cfg.DeepSeekAPIKey,
		Model:   cfg.DeepSeekModel,
		Timeout: cfg.DeepSeekTimeout,
	}, logger, m)
	extractor := nlu.NewExtractor(client, logger)

	var repository *repo.Repository
	if cfg.DatabaseURL != "" {
		repository, err = repo.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed connecting to database", "error", err)
			os.Exit(1)
		}
		defer repository.Close()
	} else {
		logger.Info("DATABASE_URL not set, audit trail disabled")
	}

	var redis *cache.Redis
	if cfg.RedisAddr != "" {
		redis, err = cache.New(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			os.Exit(1)
		}
		defer redis.Close()
	} else {
		logger.Info("REDIS_ADDR not set, AI rate limiting disabled")
	}

	gateway, err := wa.New(ctx, cfg.WhatsAppStorePath, cfg.WhatsAppLogLevel, logger)
	if err != nil {
		logger.Error("failed initialising whatsapp gateway", "error", err)
		os.Exit(1)
	}

	authSet := auth.NewSet()
	detector := convo.NewDomainDetector(extractor, m, logger)
	store := list.NewStore(detector, logger)

	engine := convo.New(store, authSet, extractor, gateway, repository, redis, m, logger, convo.Config{
		AIGroupBudget:  cfg.AIGroupBudget,
		AIBudgetWindow: cfg.AIBudgetWindow,
	})
	gateway.SetHandler(engine)

	server := web.New(cfg.HTTPListenAddr, authSet, registry, logger)
	go server.Start()

	if err := gateway.Connect(ctx); err != nil {
		logger.Error("failed connecting to whatsapp", "error", err)
		os.Exit(1)
	}
	logger.Info("bot started", "env", cfg.AppEnv)

	<-ctx.Done()
	logger.Info("shutting down")

	gateway.Disconnect()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
