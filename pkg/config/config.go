package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/pipewise/sqlforge/pkg/models"
	"github.com/pipewise/sqlforge/pkg/pipeline"
)

// Config holds all configuration for sqlforge.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, database passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                     // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// DefaultDialect is the target dialect used when a request does not
	// name one.
	DefaultDialect string `yaml:"default_dialect" env:"DEFAULT_DIALECT" env-default:"db2"`

	// Pipeline tuning (deltas, retry budget, row cap)
	Pipeline pipeline.Config `yaml:"pipeline"`

	// Selector holds the candidate scoring weights for parallel mode.
	Selector pipeline.SelectorWeights `yaml:"selector"`

	// Workers bounds concurrent generation calls.
	Workers WorkersConfig `yaml:"workers"`

	// Catalog describes where the schema catalog is loaded from.
	Catalog CatalogConfig `yaml:"catalog"`

	// Generator endpoints
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// WorkersConfig bounds the generation worker pool.
type WorkersConfig struct {
	MaxConcurrent  int `yaml:"max_concurrent" env:"WORKERS_MAX_CONCURRENT" env-default:"4"`
	TimeoutSeconds int `yaml:"timeout_seconds" env:"WORKERS_TIMEOUT_SECONDS" env-default:"60"`
}

// CatalogConfig holds schema catalog loading configuration.
// Source selects the loader: "file" reads a YAML catalog, "postgres" and
// "mssql" introspect a live database's information schema.
type CatalogConfig struct {
	Source string `yaml:"source" env:"CATALOG_SOURCE" env-default:"file"`
	Path   string `yaml:"path" env:"CATALOG_PATH" env-default:"catalog.yaml"`

	// ConnString is the database connection string for the postgres and
	// mssql sources.
	ConnString string `yaml:"-" env:"CATALOG_CONN_STRING"` // Secret - not in YAML
}

// OpenAIConfig holds the OpenAI-compatible generator endpoint.
type OpenAIConfig struct {
	Enabled     bool    `yaml:"enabled" env:"OPENAI_ENABLED" env-default:"false"`
	Endpoint    string  `yaml:"endpoint" env:"OPENAI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model       string  `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o"`
	Temperature float64 `yaml:"temperature" env:"OPENAI_TEMPERATURE" env-default:"0"`
	APIKey      string  `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
}

// AnthropicConfig holds the Anthropic generator endpoint.
type AnthropicConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ANTHROPIC_ENABLED" env-default:"false"`
	Model     string `yaml:"model" env:"ANTHROPIC_MODEL" env-default:"claude-sonnet-4-5-20250929"`
	MaxTokens int    `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"2000"`
	APIKey    string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Secrets (OPENAI_API_KEY, ANTHROPIC_API_KEY, CATALOG_CONN_STRING) must come
// from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	if !models.IsValidDialect(models.Dialect(c.DefaultDialect)) {
		return fmt.Errorf("unsupported default_dialect %q", c.DefaultDialect)
	}

	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file source")
		}
	case "postgres", "mssql":
		if c.Catalog.ConnString == "" {
			return fmt.Errorf("CATALOG_CONN_STRING is required for the %s source", c.Catalog.Source)
		}
	default:
		return fmt.Errorf("unsupported catalog.source %q", c.Catalog.Source)
	}

	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" && c.OpenAI.Endpoint == "https://api.openai.com/v1" {
		return fmt.Errorf("OPENAI_API_KEY is required when the OpenAI generator targets the hosted endpoint")
	}
	if c.Anthropic.Enabled && c.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when the Anthropic generator is enabled")
	}

	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// Dialect returns the default target dialect.
func (c *Config) Dialect() models.Dialect {
	return models.Dialect(c.DefaultDialect)
}
