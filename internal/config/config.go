package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the binaries read from the environment.
type Config struct {
	Server ServerConfig
	Client ClientConfig
	Auth   AuthConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Client: client, Auth: loadAuthConfig()}, nil
}

// ServerConfig describes the practice server's listen address.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ClientConfig describes how the trainer console reaches the backend.
type ClientConfig struct {
	BackendURL string
	Timeout    time.Duration
	StateFile  string
	LogFile    string
}

func loadClientConfig() (ClientConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("REPCOACH_HTTP_TIMEOUT"); err != nil {
		return ClientConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ClientConfig{}, fmt.Errorf("REPCOACH_HTTP_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return ClientConfig{
		BackendURL: strings.TrimRight(getEnvOrDefault("REPCOACH_BACKEND_URL", "http://localhost:8080"), "/"),
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
		StateFile:  getEnvOrDefault("REPCOACH_STATE_FILE", defaultStateFile()),
		LogFile:    getEnvOrDefault("REPCOACH_LOG_FILE", filepath.Join("logs", "repcoach.log")),
	}, nil
}

// AuthConfig overrides the placeholder credentials. Empty values fall back
// to the built-in defaults; this is a convenience gate, not real auth.
type AuthConfig struct {
	Username string
	Password string
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Username: strings.TrimSpace(os.Getenv("REPCOACH_USERNAME")),
		Password: strings.TrimSpace(os.Getenv("REPCOACH_PASSWORD")),
	}
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repcoach-state.json"
	}
	return filepath.Join(home, ".repcoach", "state.json")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
