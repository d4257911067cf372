package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigurationError reports a missing or invalid configuration field,
// detected at setup time rather than per request.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// AuthConfig holds the OAuth client-credentials settings.
type AuthConfig struct {
	BaseURL      string   `yaml:"baseUrl"`
	TokenPath    string   `yaml:"tokenPath"`
	ClientID     string   `yaml:"clientId"`
	ClientSecret string   `yaml:"clientSecret"`
	GrantType    string   `yaml:"grantType"`
	Scopes       []string `yaml:"scopes"`
	BypassCache  bool     `yaml:"bypassCache"`
}

// Config is the configuration surface consumed by the framework. The
// consuming packages read named fields only and make no assumption
// about where the values came from.
type Config struct {
	Auth AuthConfig `yaml:"auth"`

	APIBaseURL string `yaml:"apiBaseUrl"`

	// Timeouts in milliseconds, mirroring the config file format.
	RequestTimeoutMs    int `yaml:"timeout"`
	ConnectionTimeoutMs int `yaml:"connectionTimeout"`

	ValidateSSL *bool  `yaml:"validateSSL"`
	LogLevel    string `yaml:"logLevel"`
}

// ConfigFilenames contains the config file names searched in order.
var ConfigFilenames = []string{
	"apicheck.yaml",
	"apicheck.yml",
	".apicheckrc.yaml",
}

// Load builds the configuration from defaults, the config file at
// path (or the first file found in the working directory when path is
// empty), and environment variable overrides. A .env file is loaded
// into the environment first when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = findConfigFile(".")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ConfigurationError{Field: path, Reason: err.Error()}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func findConfigFile(dir string) string {
	for _, name := range ConfigFilenames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyEnv overlays APICHECK_* environment variables onto the config.
func (c *Config) applyEnv() {
	setString(&c.Auth.BaseURL, "APICHECK_AUTH_BASE_URL")
	setString(&c.Auth.TokenPath, "APICHECK_AUTH_TOKEN_PATH")
	setString(&c.Auth.ClientID, "APICHECK_CLIENT_ID")
	setString(&c.Auth.ClientSecret, "APICHECK_CLIENT_SECRET")
	setString(&c.Auth.GrantType, "APICHECK_GRANT_TYPE")
	setString(&c.APIBaseURL, "APICHECK_API_BASE_URL")
	setString(&c.LogLevel, "APICHECK_LOG_LEVEL")

	if v := os.Getenv("APICHECK_SCOPES"); v != "" {
		c.Auth.Scopes = splitScopes(v)
	}
	if v := os.Getenv("APICHECK_BYPASS_TOKEN_CACHE"); v != "" {
		c.Auth.BypassCache, _ = strconv.ParseBool(v)
	}
	setInt(&c.RequestTimeoutMs, "APICHECK_TIMEOUT_MS")
	setInt(&c.ConnectionTimeoutMs, "APICHECK_CONNECTION_TIMEOUT_MS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitScopes(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the fields required for authenticated requests
// are present and well-formed.
func (c *Config) Validate() error {
	if c.Auth.ClientID == "" {
		return &ConfigurationError{Field: "auth.clientId", Reason: "client ID is required"}
	}
	if c.Auth.ClientSecret == "" {
		return &ConfigurationError{Field: "auth.clientSecret", Reason: "client secret is required"}
	}
	if c.Auth.BaseURL == "" {
		return &ConfigurationError{Field: "auth.baseUrl", Reason: "token endpoint base URL is required"}
	}
	if !strings.HasPrefix(c.Auth.BaseURL, "http://") && !strings.HasPrefix(c.Auth.BaseURL, "https://") {
		return &ConfigurationError{Field: "auth.baseUrl", Reason: "must be an http(s) URL"}
	}
	if c.RequestTimeoutMs <= 0 {
		return &ConfigurationError{Field: "timeout", Reason: "request timeout must be positive"}
	}
	if c.ConnectionTimeoutMs <= 0 {
		return &ConfigurationError{Field: "connectionTimeout", Reason: "connection timeout must be positive"}
	}
	return nil
}

// TokenURL joins the auth base URL and token endpoint path.
func (c *Config) TokenURL() string {
	return strings.TrimSuffix(c.Auth.BaseURL, "/") + c.Auth.TokenPath
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// ConnectionTimeout returns the connection timeout as a duration.
func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutMs) * time.Millisecond
}

// GetValidateSSL returns the SSL validation setting, defaulting to true.
func (c *Config) GetValidateSSL() bool {
	if c.ValidateSSL == nil {
		return true
	}
	return *c.ValidateSSL
}
