package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const (
	xdgAppName = "engagements"
	configFile = "config.json"

	DefaultTimeout  = 30 * time.Second
	DefaultLogLevel = "info"
)

// Auth modes understood by pkg/auth.
const (
	AuthNone              = "none"
	AuthToken             = "token"
	AuthOAuth             = "oauth"
	AuthClientCredentials = "client_credentials"
	AuthGoogle            = "google"
)

// Policies for project records missing required fields.
const (
	InvalidReject = "reject"
	InvalidSkip   = "skip"
)

// Auth holds the credentials used to reach the projects endpoint.
type Auth struct {
	Mode            string   `json:"mode"                       env:"ENGAGEMENTS_AUTH_MODE"`
	Token           string   `json:"token,omitempty"            env:"ENGAGEMENTS_TOKEN"`
	ClientID        string   `json:"client_id,omitempty"        env:"ENGAGEMENTS_CLIENT_ID"`
	ClientSecret    string   `json:"client_secret,omitempty"    env:"ENGAGEMENTS_CLIENT_SECRET"`
	AuthURL         string   `json:"auth_url,omitempty"         env:"ENGAGEMENTS_AUTH_URL"`
	TokenURL        string   `json:"token_url,omitempty"        env:"ENGAGEMENTS_TOKEN_URL"`
	Scopes          []string `json:"scopes,omitempty"           env:"ENGAGEMENTS_SCOPES"           envSeparator:","`
	Audience        string   `json:"audience,omitempty"         env:"ENGAGEMENTS_AUDIENCE"`
	CredentialsFile string   `json:"credentials_file,omitempty" env:"ENGAGEMENTS_CREDENTIALS_FILE"`
}

type Config struct {
	Endpoint       string        `json:"endpoint"                  env:"ENGAGEMENTS_ENDPOINT"`
	Auth           Auth          `json:"auth"`
	InvalidRecords string        `json:"invalid_records,omitempty" env:"ENGAGEMENTS_INVALID_RECORDS"`
	LogLevel       string        `json:"log_level,omitempty"       env:"ENGAGEMENTS_LOG_LEVEL"`
	Timeout        time.Duration `json:"timeout,omitempty"         env:"ENGAGEMENTS_TIMEOUT"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Auth:           Auth{Mode: AuthNone},
		InvalidRecords: InvalidReject,
		LogLevel:       DefaultLogLevel,
		Timeout:        DefaultTimeout,
	}
}

// GetXdgHome returns the directory holding the config and token files.
func GetXdgHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetXdgHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file, applies ENGAGEMENTS_* environment overrides
// and fills defaults. A missing file is not an error.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the config at path without environment overrides.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthNone
	}
	if c.InvalidRecords == "" {
		c.InvalidRecords = InvalidReject
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate rejects unknown auth modes and record policies.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthNone, AuthToken, AuthOAuth, AuthClientCredentials, AuthGoogle:
	default:
		return errors.Errorf("unknown auth mode '%s'", c.Auth.Mode)
	}
	switch c.InvalidRecords {
	case InvalidReject, InvalidSkip:
	default:
		return errors.Errorf("unknown invalid_records policy '%s'", c.InvalidRecords)
	}
	return nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "failed to open config file for writing")
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
