// Package config loads application configuration from file and
// environment and initializes the global logger.
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
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Retailers RetailersConfig `yaml:"retailers" mapstructure:"retailers"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SerperConfig holds Serper API settings. An empty key disables the
// shopping adapter, which makes every search return empty results.
type SerperConfig struct {
	Key      string   `yaml:"key" mapstructure:"key"`
	BaseURLs []string `yaml:"base_urls" mapstructure:"base_urls"`
}

// TavilyConfig holds Tavily API settings (alternate search engine).
type TavilyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for explanations.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RetailersConfig points at an optional allowlist override file.
type RetailersConfig struct {
	AllowlistPath string `yaml:"allowlist_path" mapstructure:"allowlist_path"`
}

// SearchConfig holds the waterfall tunables.
type SearchConfig struct {
	TargetPerItem      int `yaml:"target_per_item" mapstructure:"target_per_item"`
	ShoppingNum        int `yaml:"shopping_num" mapstructure:"shopping_num"`
	ExpandedNum        int `yaml:"expanded_num" mapstructure:"expanded_num"`
	AlternateNum       int `yaml:"alternate_num" mapstructure:"alternate_num"`
	OrganicNum         int `yaml:"organic_num" mapstructure:"organic_num"`
	MaxConcurrentItems int `yaml:"max_concurrent_items" mapstructure:"max_concurrent_items"`
}

// EnrichConfig bounds the enrichment and link-check worker pools.
type EnrichConfig struct {
	Workers          int `yaml:"workers" mapstructure:"workers"`
	LinkCheckWorkers int `yaml:"link_check_workers" mapstructure:"link_check_workers"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("serper.base_urls", []string{"https://google.serper.dev", "https://serper.dev"})
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("search.target_per_item", 5)
	v.SetDefault("search.shopping_num", 20)
	v.SetDefault("search.expanded_num", 25)
	v.SetDefault("search.alternate_num", 10)
	v.SetDefault("search.organic_num", 10)
	v.SetDefault("search.max_concurrent_items", 3)
	v.SetDefault("enrich.workers", 5)
	v.SetDefault("enrich.link_check_workers", 6)

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
