// Package config loads pipellm settings from defaults, an optional YAML
// file, an optional .env file and the environment. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pipellm/internal/httpclient"
	"pipellm/internal/logging"
	"pipellm/internal/providers"
)

// Defaults
const (
	DefaultModel     = "gpt-4o"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = logging.FormatPretty
	DefaultTimeout   = httpclient.DefaultTimeout
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Config holds the application configuration
type Config struct {
	Model     string                    `yaml:"model"`
	Schema    string                    `yaml:"schema"`
	Endpoint  string                    `yaml:"endpoint"`
	Pass      string                    `yaml:"pass"`
	System    []string                  `yaml:"system"`
	MaxTokens int                       `yaml:"max_tokens"`
	Timeout   Duration                  `yaml:"timeout"`
	Logging   LogConfig                 `yaml:"logging"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProviderConfig holds per-schema credentials
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Duration is a time.Duration that also accepts a bare number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, ok := httpclient.ParseDuration(value.Value)
	if !ok {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(parsed)
	return nil
}

// providerEnv maps a schema to the environment variables carrying its
// credentials.
var providerEnv = map[string]struct{ apiKey, baseURL string }{
	providers.SchemaOpenAI:    {"OPENAI_API_KEY", "OPENAI_BASE_URL"},
	providers.SchemaAnthropic: {"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL"},
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DotEnvFile, err)
	}

	cfg := buildDefaultConfig()
	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Model:   DefaultModel,
		Timeout: Duration(DefaultTimeout),
		Logging: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Providers: make(map[string]ProviderConfig),
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("PIPELLM_MODEL", &cfg.Model)
	setString("PIPELLM_SCHEMA", &cfg.Schema)
	setString("PIPELLM_ENDPOINT", &cfg.Endpoint)
	setString("PIPELLM_PASS", &cfg.Pass)
	setString("PIPELLM_LOG_LEVEL", &cfg.Logging.Level)
	setString("PIPELLM_LOG_FORMAT", &cfg.Logging.Format)

	if v := os.Getenv("PIPELLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PIPELLM_MAX_TOKENS %q: %w", v, err)
		}
		cfg.MaxTokens = n
	}
	if v := os.Getenv(httpclient.TimeoutEnv); v != "" {
		d, ok := httpclient.ParseDuration(v)
		if !ok {
			return fmt.Errorf("invalid %s %q", httpclient.TimeoutEnv, v)
		}
		cfg.Timeout = Duration(d)
	}

	for schema, env := range providerEnv {
		p := cfg.Providers[schema]
		setString(env.apiKey, &p.APIKey)
		setString(env.baseURL, &p.BaseURL)
		if p != (ProviderConfig{}) {
			cfg.Providers[schema] = p
		}
	}
	return nil
}

// envPattern matches ${VAR} and ${VAR:-default}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} with the variable's value and ${VAR:-default}
// with the value or, when unset or empty, the default. Unresolved
// references without a default are left as written.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		if v := os.Getenv(groups[1]); v != "" {
			return v
		}
		if groups[2] != "" {
			return groups[3]
		}
		return match
	})
}

// Validate rejects settings no invocation could run with.
func (c *Config) Validate() error {
	switch c.Schema {
	case "", providers.SchemaOpenAI, providers.SchemaAnthropic, providers.SchemaBedrock:
	default:
		return fmt.Errorf("unknown schema %q", c.Schema)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", time.Duration(c.Timeout))
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// APIKeyFor returns the credential configured for schema.
func (c *Config) APIKeyFor(schema string) string {
	return c.Providers[schema].APIKey
}

// EndpointFor returns the endpoint for schema: the explicit endpoint when
// set, otherwise the schema's base URL. Empty means the provider default.
func (c *Config) EndpointFor(schema string) string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return c.Providers[schema].BaseURL
}
