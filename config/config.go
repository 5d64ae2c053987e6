package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/taostats-mcp/observe"
	"github.com/jonwraymond/taostats-mcp/request"
	"github.com/jonwraymond/taostats-mcp/router"
	"github.com/jonwraymond/taostats-mcp/secret"
)

// ServiceName identifies the bridge in telemetry.
const ServiceName = "taostats-mcp"

// Config is the complete bridge configuration.
type Config struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	DtaoBaseURL string `mapstructure:"dtao_base_url"`

	// MinuteLimit caps upstream calls per sliding minute. Zero disables it.
	MinuteLimit int  `mapstructure:"minute_limit"`
	Coalesce    bool `mapstructure:"coalesce"`

	// AdminAddr serves health and metrics. Empty disables the admin server.
	AdminAddr string `mapstructure:"admin_addr"`

	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// HTTPConfig holds the upstream call budgets.
type HTTPConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	PoolTimeout    time.Duration `mapstructure:"pool_timeout"`
	MaxConns       int           `mapstructure:"max_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// TelemetryConfig selects the tracing and metrics exporters.
type TelemetryConfig struct {
	TracingExporter string  `mapstructure:"tracing_exporter"`
	MetricsExporter string  `mapstructure:"metrics_exporter"`
	SamplePct       float64 `mapstructure:"sample_pct"`
}

// SecretsConfig configures the file and age secret providers.
type SecretsConfig struct {
	FileDir         string `mapstructure:"file_dir"`
	AgeVaultFile    string `mapstructure:"age_vault_file"`
	AgeIdentity     string `mapstructure:"age_identity"`
	AgeIdentityFile string `mapstructure:"age_identity_file"`
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"api_key":                    "TAOSTATS_API_KEY",
	"base_url":                   "TAOSTATS_BASE_URL",
	"dtao_base_url":              "TAOSTATS_DTAO_BASE_URL",
	"minute_limit":               "TAO_STAT_MINUTE_LIMIT",
	"coalesce":                   "TAOSTATS_COALESCE",
	"admin_addr":                 "TAOSTATS_ADMIN_ADDR",
	"log.level":                  "TAOSTATS_LOG_LEVEL",
	"log.console":                "TAOSTATS_LOG_CONSOLE",
	"telemetry.tracing_exporter": "TAOSTATS_TRACING_EXPORTER",
	"telemetry.metrics_exporter": "TAOSTATS_METRICS_EXPORTER",
	"telemetry.sample_pct":       "TAOSTATS_TRACE_SAMPLE_PCT",
	"secrets.file_dir":           "TAOSTATS_SECRETS_DIR",
	"secrets.age_vault_file":     "TAOSTATS_AGE_VAULT",
	"secrets.age_identity":       "TAOSTATS_AGE_IDENTITY",
	"secrets.age_identity_file":  "TAOSTATS_AGE_IDENTITY_FILE",
}

func setDefaults(v *viper.Viper) {
	d := request.DefaultConfig()
	v.SetDefault("base_url", router.DefaultBaseURL)
	v.SetDefault("dtao_base_url", router.DefaultDtaoBaseURL)
	v.SetDefault("minute_limit", 0)
	v.SetDefault("coalesce", false)
	v.SetDefault("admin_addr", "")
	v.SetDefault("http.connect_timeout", d.ConnectTimeout)
	v.SetDefault("http.read_timeout", d.ReadTimeout)
	v.SetDefault("http.write_timeout", d.WriteTimeout)
	v.SetDefault("http.pool_timeout", d.PoolTimeout)
	v.SetDefault("http.max_conns", d.MaxConns)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("telemetry.tracing_exporter", "none")
	v.SetDefault("telemetry.metrics_exporter", "none")
	v.SetDefault("telemetry.sample_pct", 1.0)
}

// New returns a viper instance with defaults and environment bindings.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

// Load reads the optional YAML file at path into v, decodes the result and
// resolves the API key. The returned Config is validated.
func Load(ctx context.Context, v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	resolver, err := cfg.SecretResolver()
	if err != nil {
		return nil, err
	}
	defer resolver.Close()

	key, err := resolver.ResolveValue(ctx, strings.TrimSpace(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("config: resolve api key: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(key)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SecretResolver builds a strict resolver with the env and file providers,
// plus the age provider when a vault is configured.
func (c *Config) SecretResolver() (*secret.Resolver, error) {
	reg := secret.NewDefaultRegistry()
	providers := []secret.Provider{}

	for _, name := range []string{"env", "file"} {
		p, err := reg.Create(name, map[string]any{"dir": c.Secrets.FileDir})
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		providers = append(providers, p)
	}

	if c.Secrets.AgeVaultFile != "" {
		p, err := reg.Create("age", map[string]any{
			"vault_file":    c.Secrets.AgeVaultFile,
			"identity":      c.Secrets.AgeIdentity,
			"identity_file": c.Secrets.AgeIdentityFile,
		})
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		providers = append(providers, p)
	}

	return secret.NewResolver(true, providers...), nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	for name, raw := range map[string]string{"base_url": c.BaseURL, "dtao_base_url": c.DtaoBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s=%q", ErrInvalidURL, name, raw)
		}
	}

	if c.MinuteLimit < 0 {
		return fmt.Errorf("%w: minute_limit=%d", ErrInvalidLimit, c.MinuteLimit)
	}
	if c.HTTP.MaxConns <= 0 {
		return fmt.Errorf("%w: http.max_conns=%d", ErrInvalidLimit, c.HTTP.MaxConns)
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"http.connect_timeout", c.HTTP.ConnectTimeout},
		{"http.read_timeout", c.HTTP.ReadTimeout},
		{"http.write_timeout", c.HTTP.WriteTimeout},
		{"http.pool_timeout", c.HTTP.PoolTimeout},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("%w: %s=%s", ErrInvalidTimeout, t.name, t.d)
		}
	}

	obs := c.Observe("")
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Router returns the endpoint router configuration.
func (c *Config) Router() router.Config {
	return router.Config{
		BaseURL:     c.BaseURL,
		DtaoBaseURL: c.DtaoBaseURL,
		APIKey:      c.APIKey,
	}
}

// Request returns the executor configuration.
func (c *Config) Request() request.Config {
	cfg := request.DefaultConfig()
	cfg.ConnectTimeout = c.HTTP.ConnectTimeout
	cfg.ReadTimeout = c.HTTP.ReadTimeout
	cfg.WriteTimeout = c.HTTP.WriteTimeout
	cfg.PoolTimeout = c.HTTP.PoolTimeout
	cfg.MaxConns = c.HTTP.MaxConns
	cfg.MinuteLimit = c.MinuteLimit
	return cfg
}

// Observe returns the telemetry configuration. An exporter of "none"
// disables that signal.
func (c *Config) Observe(version string) observe.Config {
	return observe.Config{
		ServiceName: ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.TracingExporter != "" && c.Telemetry.TracingExporter != "none",
			Exporter:  c.Telemetry.TracingExporter,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.MetricsExporter != "" && c.Telemetry.MetricsExporter != "none",
			Exporter: c.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
			Console: c.Log.Console,
		},
	}
}
