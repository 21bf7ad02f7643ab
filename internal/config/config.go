package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Queue    QueueConfig    `yaml:"queue" mapstructure:"queue"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Guess    GuessConfig    `yaml:"guess" mapstructure:"guess"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Industry IndustryConfig `yaml:"industry" mapstructure:"industry"`
	Mail     MailConfig     `yaml:"mail" mapstructure:"mail"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// QueueConfig configures the in-process job queue.
type QueueConfig struct {
	Workers         int    `yaml:"workers" mapstructure:"workers"`
	DefaultAttempts int    `yaml:"default_attempts" mapstructure:"default_attempts"`
	BackoffType     string `yaml:"backoff_type" mapstructure:"backoff_type"`
	BackoffDelayMs  int    `yaml:"backoff_delay_ms" mapstructure:"backoff_delay_ms"`
}

// SearchConfig configures outbound search-engine scraping.
type SearchConfig struct {
	DuckDuckGoBaseURL string  `yaml:"duckduckgo_base_url" mapstructure:"duckduckgo_base_url"`
	GoogleBaseURL     string  `yaml:"google_base_url" mapstructure:"google_base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries           int     `yaml:"retries" mapstructure:"retries"`
	RatePerSec        float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	MaxResults        int     `yaml:"max_results" mapstructure:"max_results"`
}

// RegistryConfig configures the business-registry lookup.
type RegistryConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GuessConfig configures the domain-pattern guesser.
type GuessConfig struct {
	BudgetSecs       int `yaml:"budget_secs" mapstructure:"budget_secs"`
	ProbeTimeoutSecs int `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
}

// ScrapeConfig configures the website scraper.
type ScrapeConfig struct {
	TimeoutSecs  int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyBytes int `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// IndustryConfig configures industry inference.
type IndustryConfig struct {
	TaxonomyPath string `yaml:"taxonomy_path" mapstructure:"taxonomy_path"`
}

// MailConfig holds SMTP settings for the email job handler.
type MailConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "enrich.db")
	v.SetDefault("queue.workers", 1)
	v.SetDefault("queue.default_attempts", 3)
	v.SetDefault("queue.backoff_type", "fixed")
	v.SetDefault("queue.backoff_delay_ms", 5000)
	v.SetDefault("search.duckduckgo_base_url", "https://duckduckgo.com")
	v.SetDefault("search.google_base_url", "https://www.google.com")
	v.SetDefault("search.timeout_secs", 10)
	v.SetDefault("search.retries", 1)
	v.SetDefault("search.rate_per_sec", 1.0)
	v.SetDefault("search.burst", 2)
	v.SetDefault("search.max_results", 5)
	v.SetDefault("registry.base_url", "https://api.opencorporates.com")
	v.SetDefault("registry.timeout_secs", 10)
	v.SetDefault("guess.budget_secs", 25)
	v.SetDefault("guess.probe_timeout_secs", 5)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.max_body_bytes", 512*1024)
	v.SetDefault("mail.port", 587)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
