package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	OutputDir      string
	RequestTimeout time.Duration
	ContentTimeout time.Duration
	HNConcurrency  int

	XCookiesFile  string
	XAccountsFile string
	XRequestDelay time.Duration

	WeChatConfigFile string

	DBPath     string
	RedisURL   string
	RedisQueue string

	TaxonomyFile string
	MinRelevance float64
	PoolSize     int
	PublishCount int

	ScheduleCron      string
	DiscordWebhookURL string
	GeminiAPIKey      string
	GeminiModel       string

	LogLevel  string
	LogFormat string
}

const (
	defaultOutputDir      = "output"
	defaultRequestTimeout = 10 * time.Second
	defaultContentTimeout = 15 * time.Second
	defaultHNConcurrency  = 10
	defaultXCookiesFile   = "config/browser_cookies.json"
	defaultXAccountsFile  = "config/x_accounts.json"
	defaultXRequestDelay  = 2 * time.Second
	defaultWeChatConfig   = "config/wechat_accounts.json"
	defaultRedisQueue     = "newsletter:raw_items"
	defaultMinRelevance   = 0.2
	defaultPoolSize       = 25
	defaultPublishCount   = 8
	defaultCron           = "0 7 * * *" // 07:00 every day
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
)

// Load builds a Config from environment variables with sane defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		OutputDir:         getenvDefault("OUTPUT_DIR", defaultOutputDir),
		RequestTimeout:    parseDurationDefault("REQUEST_TIMEOUT", defaultRequestTimeout),
		ContentTimeout:    parseDurationDefault("CONTENT_TIMEOUT", defaultContentTimeout),
		HNConcurrency:     parseIntDefault("HN_CONCURRENCY", defaultHNConcurrency),
		XCookiesFile:      getenvDefault("X_COOKIES_FILE", defaultXCookiesFile),
		XAccountsFile:     getenvDefault("X_ACCOUNTS_FILE", defaultXAccountsFile),
		XRequestDelay:     parseDurationDefault("X_REQUEST_DELAY", defaultXRequestDelay),
		WeChatConfigFile:  getenvDefault("WECHAT_CONFIG_FILE", defaultWeChatConfig),
		DBPath:            os.Getenv("DB_PATH"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RedisQueue:        getenvDefault("REDIS_QUEUE", defaultRedisQueue),
		TaxonomyFile:      os.Getenv("TAXONOMY_FILE"),
		MinRelevance:      parseFloatDefault("MIN_RELEVANCE", defaultMinRelevance),
		PoolSize:          parseIntDefault("POOL_SIZE", defaultPoolSize),
		PublishCount:      parseIntDefault("PUBLISH_COUNT", defaultPublishCount),
		ScheduleCron:      getenvDefault("SCHEDULE_CRON", defaultCron),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenvDefault("GEMINI_MODEL", defaultGeminiModel),
		LogLevel:          getenvDefault("LOG_LEVEL", defaultLogLevel),
		LogFormat:         getenvDefault("LOG_FORMAT", defaultLogFormat),
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ContentTimeout <= 0 {
		cfg.ContentTimeout = defaultContentTimeout
	}
	if cfg.HNConcurrency <= 0 {
		cfg.HNConcurrency = defaultHNConcurrency
	}
	if cfg.XRequestDelay < 0 {
		cfg.XRequestDelay = defaultXRequestDelay
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that cannot produce a sensible run.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	if c.MinRelevance < 0 || c.MinRelevance > 1 {
		return fmt.Errorf("MIN_RELEVANCE must be between 0 and 1, got %v", c.MinRelevance)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("POOL_SIZE must be positive, got %d", c.PoolSize)
	}
	if c.PublishCount <= 0 {
		return fmt.Errorf("PUBLISH_COUNT must be positive, got %d", c.PublishCount)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseIntDefault(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func parseFloatDefault(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func parseDurationDefault(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
