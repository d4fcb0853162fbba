// Package config reads application configuration from environment variables.
package config

import (
	"errors"
	"os"
)

// Sentinel errors.
var (
	// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")

	// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")
)

// DefaultAddr is the listen address used when TUNELOG_ADDR is not set.
const DefaultAddr = "127.0.0.1:8080"

// Config holds everything the application needs at startup.
type Config struct {
	Addr         string
	ClientID     string
	ClientSecret string
	DatabaseURL  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	clientID := os.Getenv("SPOTIFY_ID")
	clientSecret := os.Getenv("SPOTIFY_SECRET")

	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	addr := os.Getenv("TUNELOG_ADDR")
	if addr == "" {
		addr = DefaultAddr
	}

	return &Config{
		Addr:         addr,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		DatabaseURL:  databaseURL,
	}, nil
}
