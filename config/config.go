// ABOUTME: Process configuration for the connections service
// ABOUTME: Loads .env files, applies environment overrides, and fills XDG defaults

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName is used for the XDG data directory.
	AppName = "connections"

	// DefaultPort matches the port the service has always listened on.
	DefaultPort = 3000

	// DefaultTokenPath is where the authorized credential is written.
	DefaultTokenPath = "token.json"

	// DefaultCredentialsPath is the application registration file downloaded from Google Cloud Console.
	DefaultCredentialsPath = "credentials.json"

	// DefaultLogLevel is used when LOG_LEVEL is unset.
	DefaultLogLevel = "info"
)

// Config holds everything fixed at startup.
type Config struct {
	Port int

	// OAuth client used by the browser login routes
	ClientID     string
	ClientSecret string
	RedirectURL  string

	TokenPath       string
	CredentialsPath string
	DBPath          string
	LogLevel        string
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{
		Port:            DefaultPort,
		TokenPath:       DefaultTokenPath,
		CredentialsPath: DefaultCredentialsPath,
		DBPath:          DefaultDBPath(),
		LogLevel:        DefaultLogLevel,
	}
	cfg.RedirectURL = defaultRedirectURL(cfg.Port)
	return cfg
}

// DefaultDBPath returns the XDG-compliant path for the fetch ledger.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, "connections.db")
}

func defaultRedirectURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/auth/google/callback", port)
}

// Load reads envFile (if it exists) into the environment and builds a Config from it.
// An empty envFile means ".env" in the working directory.
// Environment variables:
// - PORT
// - GOOGLE_CLIENT_ID
// - GOOGLE_CLIENT_SECRET
// - GOOGLE_REDIRECT_URI
// - TOKEN_PATH
// - CREDENTIALS_PATH
// - CONNECTIONS_DB_PATH
// - LOG_LEVEL.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg := DefaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 {
			return fmt.Errorf("invalid PORT %q", port)
		}
		cfg.Port = p
		cfg.RedirectURL = defaultRedirectURL(p)
	}

	cfg.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")

	if redirect := os.Getenv("GOOGLE_REDIRECT_URI"); redirect != "" {
		cfg.RedirectURL = redirect
	}
	if path := os.Getenv("TOKEN_PATH"); path != "" {
		cfg.TokenPath = path
	}
	if path := os.Getenv("CREDENTIALS_PATH"); path != "" {
		cfg.CredentialsPath = path
	}
	if path := os.Getenv("CONNECTIONS_DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return nil
}

// ValidateWeb reports whether the browser login routes can be served.
func (c *Config) ValidateWeb() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}
	return nil
}
