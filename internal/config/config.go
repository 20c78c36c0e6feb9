// Package config loads application configuration from a yaml file plus
// PROSPECT_* environment variables and initializes the global zap logger.
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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Relevance RelevanceConfig `yaml:"relevance" mapstructure:"relevance"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Dedupe    DedupeConfig    `yaml:"dedupe" mapstructure:"dedupe"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for the relevance classifier.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// RelevanceConfig configures retry behavior for the relevance classifier.
// Zero values fall back to the resilience package defaults.
type RelevanceConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// PipelineConfig configures the reconciliation pipeline: worker parallelism
// for the per-record stages plus the armed filter stages. Filter stages left
// at their zero value stay inactive and show up in the report as skipped.
type PipelineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`

	RequireEmail          bool     `yaml:"require_email" mapstructure:"require_email"`
	PhoneCountries        []string `yaml:"phone_countries" mapstructure:"phone_countries"`
	ExcludeTitles         bool     `yaml:"exclude_titles" mapstructure:"exclude_titles"`
	IncludeIndustries     []string `yaml:"include_industries" mapstructure:"include_industries"`
	ExcludeIndustries     []string `yaml:"exclude_industries" mapstructure:"exclude_industries"`
	Countries             []string `yaml:"countries" mapstructure:"countries"`
	ExcludeForeignDomains bool     `yaml:"exclude_foreign_domains" mapstructure:"exclude_foreign_domains"`
	RequireWebsite        bool     `yaml:"require_website" mapstructure:"require_website"`
	CheckPhoneConsistency bool     `yaml:"check_phone_consistency" mapstructure:"check_phone_consistency"`
}

// FetchConfig configures raw batch retrieval over http(s) and ftp.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	FTPUser     string `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword string `yaml:"ftp_password" mapstructure:"ftp_password"`
}

// DedupeConfig configures cross-campaign deduplication.
type DedupeConfig struct {
	// AgainstHistory dedupes every reconciled batch against the client's
	// stored campaign history by default; reconcile --against-history
	// overrides it per run.
	AgainstHistory bool `yaml:"against_history" mapstructure:"against_history"`
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
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.requests_per_second", 2.0)
	v.SetDefault("relevance.max_attempts", 3)
	v.SetDefault("relevance.initial_backoff_ms", 500)
	v.SetDefault("relevance.max_backoff_ms", 30000)
	v.SetDefault("relevance.multiplier", 2.0)
	v.SetDefault("relevance.jitter_fraction", 0.25)
	v.SetDefault("pipeline.workers", 8)
	v.SetDefault("pipeline.exclude_titles", true)
	v.SetDefault("fetch.user_agent", "prospect-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)

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
