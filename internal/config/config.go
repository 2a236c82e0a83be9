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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Socrata SocrataConfig `yaml:"socrata" mapstructure:"socrata"`
	Webdir  WebdirConfig  `yaml:"webdir" mapstructure:"webdir"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend. Driver selects
// sqlite, postgres, or memory; Path applies to sqlite and DatabaseURL
// to postgres.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int    `yaml:"min_conns" mapstructure:"min_conns"`
}

// SocrataConfig holds Washington State open-data API settings. The
// app token is optional; anonymous requests get a lower rate limit.
type SocrataConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Dataset    string  `yaml:"dataset" mapstructure:"dataset"`
	AppToken   string  `yaml:"app_token" mapstructure:"app_token"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// WebdirConfig holds settings for the chamber-of-commerce style web
// directory source.
type WebdirConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// EnrichConfig configures the enrichment refresh job. Source names
// the registered adapter the refresher pulls from.
type EnrichConfig struct {
	Source         string `yaml:"source" mapstructure:"source"`
	BatchSize      int    `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
	BatchDelaySecs int    `yaml:"batch_delay_secs" mapstructure:"batch_delay_secs"`
	DefaultLimit   int    `yaml:"default_limit" mapstructure:"default_limit"`
	DefaultZip     string `yaml:"default_zip" mapstructure:"default_zip"`
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
	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "directory.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("socrata.base_url", "https://data.wa.gov")
	v.SetDefault("socrata.dataset", "7xux-kdpf")
	v.SetDefault("socrata.rate_per_sec", 5)
	v.SetDefault("enrich.source", "socrata")
	v.SetDefault("enrich.batch_size", 10)
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.batch_delay_secs", 1)
	v.SetDefault("enrich.default_limit", 25)
	v.SetDefault("enrich.default_zip", "98855")
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

// Validate checks that the configuration is usable for the given mode
// ("enrich", "serve", or "store"). All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "memory":
	default:
		problems = append(problems, "store.driver must be sqlite, postgres, or memory")
	}

	switch mode {
	case "store":
	case "enrich":
		if c.Enrich.Source == "" {
			problems = append(problems, "enrich.source is required")
		}
		if c.Socrata.Dataset == "" {
			problems = append(problems, "socrata.dataset is required")
		}
		if c.Enrich.Concurrency < 1 || c.Enrich.Concurrency > 50 {
			problems = append(problems, "enrich.concurrency must be between 1 and 50")
		}
		if c.Enrich.BatchSize < 1 {
			problems = append(problems, "enrich.batch_size must be >= 1")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		problems = append(problems, "unknown mode: "+mode)
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
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
