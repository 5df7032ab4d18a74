package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultUpstreamURL = "https://corgi-api.zeabur.app/api"
	DefaultAPIKey      = "demo-key-12345"
	DefaultProviderID  = "test_provider"
)

// ConfigFileEnv names an optional YAML file read by Load. Environment
// variables still take precedence over it.
const ConfigFileEnv = "FRAUD_CONSOLE_CONFIG"

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Session  SessionConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// UpstreamConfig describes the remote fraud service every page talks to.
type UpstreamConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	ProviderID    string
	MaxUploadSize int64
}

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableCSRF      bool
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// newViper maps every setting to an environment variable by upper-casing
// its key and replacing dots with underscores: server.read_timeout is read
// from SERVER_READ_TIMEOUT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8084)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("fraud_api.base_url", DefaultUpstreamURL)
	v.SetDefault("fraud_api.key", DefaultAPIKey)
	v.SetDefault("fraud_api.timeout", 10*time.Second)
	v.SetDefault("fraud_api.provider_id", DefaultProviderID)
	v.SetDefault("fraud_api.max_upload_bytes", 32<<20)

	v.SetDefault("session.cookie_name", "fraud_console_session")
	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.cookie_secure", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("security.csrf_enabled", true)
	v.SetDefault("security.rate_limit_enabled", true)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 10)
	v.SetDefault("security.allowed_origins", []string{"http://localhost:8084"})
	v.SetDefault("security.trusted_proxies", []string{"127.0.0.1"})
	return v
}

func Load() (*Config, error) {
	v := newViper()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	d := durations{v: v}
	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ReadTimeout:     d.get("server.read_timeout"),
			WriteTimeout:    d.get("server.write_timeout"),
			IdleTimeout:     d.get("server.idle_timeout"),
			ShutdownTimeout: d.get("server.shutdown_timeout"),
		},
		Session: SessionConfig{
			CookieName: v.GetString("session.cookie_name"),
			TTL:        d.get("session.ttl"),
			Secure:     v.GetBool("session.cookie_secure"),
		},
		Logger: LoggerConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Security: SecurityConfig{
			EnableCSRF:      v.GetBool("security.csrf_enabled"),
			EnableRateLimit: v.GetBool("security.rate_limit_enabled"),
			RateLimitRPS:    v.GetInt("security.rate_limit_rps"),
			RateLimitBurst:  v.GetInt("security.rate_limit_burst"),
			AllowedOrigins:  stringSlice(v, "security.allowed_origins"),
			TrustedProxies:  stringSlice(v, "security.trusted_proxies"),
		},
	}
	if d.err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", d.err)
	}

	upstream, err := upstreamFrom(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Upstream = upstream

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultUpstream returns the compiled-in upstream settings, overridden by
// FRAUD_API_* environment variables when present.
func DefaultUpstream() (UpstreamConfig, error) {
	return upstreamFrom(newViper())
}

func upstreamFrom(v *viper.Viper) (UpstreamConfig, error) {
	timeout, err := Duration(v, "fraud_api.timeout")
	if err != nil {
		return UpstreamConfig{}, err
	}
	return UpstreamConfig{
		BaseURL:       v.GetString("fraud_api.base_url"),
		APIKey:        v.GetString("fraud_api.key"),
		Timeout:       timeout,
		ProviderID:    v.GetString("fraud_api.provider_id"),
		MaxUploadSize: v.GetInt64("fraud_api.max_upload_bytes"),
	}, nil
}

// Duration reads key with time.ParseDuration. A bare number such as 10000
// has no unit and is rejected rather than read as nanoseconds.
func Duration(v *viper.Viper, key string) (time.Duration, error) {
	switch raw := v.Get(key).(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return raw, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("%s: duration %v is missing a unit such as s or ms", key, raw)
	}
}

// durations keeps the first parse error across a run of Duration calls.
type durations struct {
	v   *viper.Viper
	err error
}

func (d *durations) get(key string) time.Duration {
	value, err := Duration(d.v, key)
	if err != nil && d.err == nil {
		d.err = err
	}
	return value
}

// stringSlice reads a list given either as a YAML sequence or as one
// comma-separated string, the form it takes in the environment.
func stringSlice(v *viper.Viper, key string) []string {
	raw, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringSlice(key)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if err := c.Upstream.Validate(); err != nil {
		return err
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name cannot be empty")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

// Validate checks the upstream settings on their own so the CLI can reuse it.
func (u UpstreamConfig) Validate() error {
	if u.BaseURL == "" {
		return fmt.Errorf("upstream base URL cannot be empty")
	}

	parsed, err := url.Parse(u.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("upstream base URL %q must be absolute", u.BaseURL)
	}

	if u.APIKey == "" {
		return fmt.Errorf("upstream API key cannot be empty")
	}

	if u.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}

	if u.ProviderID == "" {
		return fmt.Errorf("upstream provider id cannot be empty")
	}

	if u.MaxUploadSize <= 0 {
		return fmt.Errorf("upstream max upload size must be positive")
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
