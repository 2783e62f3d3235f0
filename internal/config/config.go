package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Close   CloseConfig   `yaml:"close" mapstructure:"close"`
	Zoom    ZoomConfig    `yaml:"zoom" mapstructure:"zoom"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CloseConfig holds Close CRM API settings.
type CloseConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// RateLimitRPS throttles outbound API calls.
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	// MutationDelayMS is the minimum pause between dependent calls in a
	// lead upsert or saved-search rebuild.
	MutationDelayMS int `yaml:"mutation_delay_ms" mapstructure:"mutation_delay_ms"`
	// SearchPageSize is the page size for lead search pagination.
	SearchPageSize int `yaml:"search_page_size" mapstructure:"search_page_size"`
}

// MutationDelay returns the inter-call delay as a duration.
func (c CloseConfig) MutationDelay() time.Duration {
	return time.Duration(c.MutationDelayMS) * time.Millisecond
}

// ZoomConfig holds Zoom Server-to-Server OAuth credentials.
type ZoomConfig struct {
	AccountID    string `yaml:"account_id" mapstructure:"account_id"`
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	OAuthURL     string `yaml:"oauth_url" mapstructure:"oauth_url"`
}

// ScoringConfig holds the webinar watch-time thresholds.
type ScoringConfig struct {
	// PitchMinute is the minute mark at which the pitch completes; watching
	// past it makes a lead a full watch.
	PitchMinute int `yaml:"pitch_minute" mapstructure:"pitch_minute"`
	// SetterMinMinutes is the minimum watch time for a partial watcher to be
	// worth a setter call.
	SetterMinMinutes int `yaml:"setter_min_minutes" mapstructure:"setter_min_minutes"`
}

// ServerConfig configures the webhook server.
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
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("close.base_url", "https://api.close.com/api/v1")
	v.SetDefault("close.rate_limit_rps", 5.0)
	v.SetDefault("close.mutation_delay_ms", 200)
	v.SetDefault("close.search_page_size", 100)
	v.SetDefault("zoom.base_url", "https://api.zoom.us/v2")
	v.SetDefault("zoom.oauth_url", "https://zoom.us/oauth/token")
	v.SetDefault("scoring.pitch_minute", 75)
	v.SetDefault("scoring.setter_min_minutes", 30)
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

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the threshold ordering the classifier depends on.
func (s ScoringConfig) Validate() error {
	if s.SetterMinMinutes <= 0 {
		return eris.Errorf("config: setter_min_minutes must be positive, got %d", s.SetterMinMinutes)
	}
	if s.PitchMinute <= s.SetterMinMinutes {
		return eris.Errorf("config: pitch_minute (%d) must exceed setter_min_minutes (%d)",
			s.PitchMinute, s.SetterMinMinutes)
	}
	return nil
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
