// Package config provides configuration management for the pubmed CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// PUBMED_SEARCH_CONCURRENCY.
const EnvPrefix = "PUBMED"

// Config holds all configuration for the pubmed CLI.
type Config struct {
	// NCBI contains E-utilities transport settings.
	NCBI NCBIConfig `mapstructure:"ncbi"`
	// Search contains query defaults.
	Search SearchConfig `mapstructure:"search"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
}

// NCBIConfig holds E-utilities transport settings.
type NCBIConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// APIKey is read from the environment only.
	APIKey           string        `mapstructure:"-"`
	Tool             string        `mapstructure:"tool" validate:"required"`
	Email            string        `mapstructure:"email" validate:"omitempty,email"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes" validate:"gt=0"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	Database    string `mapstructure:"database" validate:"required"`
	ReturnMax   int    `mapstructure:"return_max" validate:"gte=0,lte=10000"`
	ReturnStart int    `mapstructure:"return_start" validate:"gte=0"`
	// Concurrency bounds parallel per-PMID fetches. NCBI allows 3 rps
	// without a key and 10 with one.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=10"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error disabled off"`
	Format string `mapstructure:"format" validate:"oneof=json console pretty"`
	Output string `mapstructure:"output" validate:"oneof=stdout stderr"`
}

// Load reads configuration from, in increasing precedence: defaults,
// pubmed.yaml in the working directory or $HOME/.config/pubmed, and
// PUBMED_* environment variables. A .env file in the working directory
// is loaded into the environment first without overriding variables
// that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pubmed")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pubmed"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadSecrets populates the API key from the environment. PUBMED_NCBI_API_KEY
// wins over the NCBI_API_KEY variable NCBI documents.
func loadSecrets(cfg *Config) {
	cfg.NCBI.APIKey = os.Getenv(EnvPrefix + "_NCBI_API_KEY")
	if cfg.NCBI.APIKey == "" {
		cfg.NCBI.APIKey = os.Getenv("NCBI_API_KEY")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ncbi.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("ncbi.tool", "pubmed-go")
	v.SetDefault("ncbi.email", "")
	v.SetDefault("ncbi.timeout", "10s")
	v.SetDefault("ncbi.connect_timeout", "10s")
	v.SetDefault("ncbi.max_response_bytes", 50*1024*1024)

	v.SetDefault("search.database", "PubMed")
	v.SetDefault("search.return_max", 10)
	v.SetDefault("search.return_start", 0)
	v.SetDefault("search.concurrency", 1)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
