package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	LogLevel          string
	HTTPListenAddr    string
	DatabaseURL       string
	WhatsAppStorePath string
	WhatsAppLogLevel  string
	DeepSeekAPIKey    string
	DeepSeekBaseURL   string
	DeepSeekModel     string
	DeepSeekTimeout   time.Duration
	MetricsNamespace  string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisTLS          bool
	AIGroupBudget     int64
	AIBudgetWindow    time.Duration
}

// Load returns configuration populated from environment variables with fallbacks.
// DATABASE_URL and REDIS_ADDR are optional: without them the audit trail and
// the classifier rate limiter are disabled. DEEPSEEK_API_KEY is optional too;
// without it every extraction runs on the heuristic path.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            getenvDefault("APP_ENV", "development"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		HTTPListenAddr:    getenvDefault("HTTP_LISTEN_ADDR", ":8080"),
		DatabaseURL:       trimmedEnv("DATABASE_URL"),
		WhatsAppStorePath: getenvDefault("WHATSAPP_STORE_PATH", "data/wa-store.db"),
		WhatsAppLogLevel:  getenvDefault("WHATSAPP_LOG_LEVEL", "INFO"),
		DeepSeekAPIKey:    trimmedEnv("DEEPSEEK_API_KEY"),
		DeepSeekBaseURL:   strings.TrimRight(getenvDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com"), "/"),
		DeepSeekModel:     getenvDefault("DEEPSEEK_MODEL", "deepseek-chat"),
		MetricsNamespace:  getenvDefault("METRICS_NAMESPACE", "bot_listas"),
		RedisAddr:         trimmedEnv("REDIS_ADDR"),
		RedisPassword:     trimmedEnv("REDIS_PASSWORD"),
	}

	timeoutStr := getenvDefault("DEEPSEEK_TIMEOUT", "10s")
	dur, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DEEPSEEK_TIMEOUT duration: %w", err)
	}
	cfg.DeepSeekTimeout = dur

	windowStr := getenvDefault("AI_BUDGET_WINDOW", "10m")
	if cfg.AIBudgetWindow, err = time.ParseDuration(windowStr); err != nil {
		return nil, fmt.Errorf("invalid AI_BUDGET_WINDOW duration: %w", err)
	}

	budgetStr := getenvDefault("AI_GROUP_BUDGET", "30")
	budget, err := strconv.ParseInt(budgetStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AI_GROUP_BUDGET value: %w", err)
	}
	if budget < 1 {
		return nil, fmt.Errorf("AI_GROUP_BUDGET must be at least 1")
	}
	cfg.AIGroupBudget = budget

	if redisDBStr := getenvDefault("REDIS_DB", "0"); redisDBStr != "" {
		db, convErr := strconv.Atoi(redisDBStr)
		if convErr != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value: %w", convErr)
		}
		cfg.RedisDB = db
	}
	cfg.RedisTLS = strings.EqualFold(getenvDefault("REDIS_TLS", "false"), "true")

	if cfg.WhatsAppStorePath == "" {
		return nil, fmt.Errorf("WHATSAPP_STORE_PATH cannot be empty")
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func trimmedEnv(key string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return ""
}
