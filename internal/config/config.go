// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept in the file; the token goes to the OS
// keychain. Environment variables (optionally read from a .env file) override
// the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"jifa/cli/internal/xdg"
)

// Environment variables recognised by Load.
const (
	EnvServer          = "JIFA_SERVER"
	EnvAPIPrefix       = "JIFA_API_PREFIX"
	EnvLogLevel        = "JIFA_LOG_LEVEL"
	EnvVerbose         = "JIFA_VERBOSE"
	EnvRetryMax        = "JIFA_RETRY_MAX"
	EnvRetryDelay      = "JIFA_RETRY_DELAY"
	EnvKeyringPassword = "JIFA_KEYRING_PASSWORD"
)

// Defaults mirror a stock Jifa server started on localhost.
const (
	DefaultServerURL  = "http://localhost:8102"
	DefaultAPIPrefix  = "/jifa-api"
	DefaultLogLevel   = "info"
	DefaultRetryMax   = 60
	DefaultRetryDelay = 2 * time.Second
)

// Config holds non-sensitive CLI settings.
type Config struct {
	ServerURL string      `json:"server_url"`
	APIPrefix string      `json:"api_prefix"`
	LogLevel  string      `json:"log_level"`
	Retry     RetryConfig `json:"retry"`
	Endpoints Endpoints   `json:"endpoints"`

	// KeyringPassword unlocks the encrypted file keyring on systems without
	// a native credential store. Never written to disk.
	KeyringPassword string `json:"-"`
}

// RetryConfig controls the worker-not-ready retry policy.
type RetryConfig struct {
	Max     int `json:"max"`
	DelayMS int `json:"delay_ms"`
}

// Delay returns the constant delay between retries.
func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelayMS) * time.Millisecond
}

// Endpoints contains REST API paths relative to APIPrefix.
type Endpoints struct {
	Handshake string `json:"handshake"` // e.g., "/handshake"
	Login     string `json:"login"`     // e.g., "/auth/login"
	Signup    string `json:"signup"`    // e.g., "/auth/signup"
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL: DefaultServerURL,
		APIPrefix: DefaultAPIPrefix,
		LogLevel:  DefaultLogLevel,
		Retry: RetryConfig{
			Max:     DefaultRetryMax,
			DelayMS: int(DefaultRetryDelay / time.Millisecond),
		},
		Endpoints: Endpoints{
			Handshake: "/handshake",
			Login:     "/auth/login",
			Signup:    "/auth/signup",
		},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; a missing file yields defaults. Values from the
// environment, including a .env file in the working directory, win over the
// file.
func Load() (Config, error) {
	c := Default()
	p, err := Path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
		c.fillDefaults()
	}

	if err := loadDotEnv(".env"); err != nil {
		return c, err
	}
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// APIBaseURL joins the server URL and API prefix without duplicate slashes.
func (c Config) APIBaseURL() string {
	return strings.TrimRight(c.ServerURL, "/") + "/" + strings.Trim(c.APIPrefix, "/")
}

// Verbose reports whether debug logging was requested.
func (c Config) Verbose() bool {
	return strings.EqualFold(c.LogLevel, "debug") || strings.EqualFold(c.LogLevel, "trace")
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.ServerURL == "" {
		c.ServerURL = d.ServerURL
	}
	if c.APIPrefix == "" {
		c.APIPrefix = d.APIPrefix
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Retry.Max == 0 && c.Retry.DelayMS == 0 {
		c.Retry = d.Retry
	}
	if c.Endpoints.Handshake == "" {
		c.Endpoints.Handshake = d.Endpoints.Handshake
	}
	if c.Endpoints.Login == "" {
		c.Endpoints.Login = d.Endpoints.Login
	}
	if c.Endpoints.Signup == "" {
		c.Endpoints.Signup = d.Endpoints.Signup
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvServer); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvAPIPrefix); v != "" {
		c.APIPrefix = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if os.Getenv(EnvVerbose) == "1" {
		c.LogLevel = "debug"
	}
	if v := os.Getenv(EnvRetryMax); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: invalid retry count %q", EnvRetryMax, v)
		}
		c.Retry.Max = n
	}
	if v := os.Getenv(EnvRetryDelay); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("%s: invalid duration %q", EnvRetryDelay, v)
		}
		c.Retry.DelayMS = int(d / time.Millisecond)
	}
	c.KeyringPassword = os.Getenv(EnvKeyringPassword)
	return nil
}

// loadDotEnv populates unset environment variables from path, if it exists.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
