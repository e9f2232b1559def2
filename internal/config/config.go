package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPort     string `mapstructure:"DB_PORT"`

	// GeminiAPIKey authenticates calls to the Gemini API. Empty disables
	// the AI endpoints (they respond 503).
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// ReposDir is the parent directory for per-repository git working
	// directories owned by the sync worker.
	ReposDir     string        `mapstructure:"REPOS_DIR"`
	SyncInterval time.Duration `mapstructure:"SYNC_INTERVAL"`

	ProgressCacheTTL time.Duration `mapstructure:"PROGRESS_CACHE_TTL"`

	// AIRateLimit is the sustained requests-per-second budget for the
	// /api endpoints per client IP; AIRateBurst is the bucket size.
	AIRateLimit float64 `mapstructure:"AI_RATE_LIMIT"`
	AIRateBurst int     `mapstructure:"AI_RATE_BURST"`
}

// LoadConfig reads configuration from the environment and an optional .env
// file.
func LoadConfig() (*Config, error) {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_USER", "postgres")
	// Secrets default to empty so AutomaticEnv can see the keys; viper
	// only reads env vars for keys it already knows about.
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "primeta")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("REPOS_DIR", "./repos")
	viper.SetDefault("SYNC_INTERVAL", "1h")
	viper.SetDefault("PROGRESS_CACHE_TTL", "5m")
	viper.SetDefault("AI_RATE_LIMIT", 1.0)
	viper.SetDefault("AI_RATE_BURST", 10)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.SyncInterval <= 0 {
		return nil, errors.New("SYNC_INTERVAL must be a positive duration")
	}
	if cfg.ProgressCacheTTL <= 0 {
		return nil, errors.New("PROGRESS_CACHE_TTL must be a positive duration")
	}

	return &cfg, nil
}
