// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode determines whether the binaries talk to the in-memory stub backend
// or to the real onboarding REST API.
type Mode string

const (
	ModeStub       Mode = "stub"
	ModeProduction Mode = "production"
)

// Config holds all application configuration.
type Config struct {
	Mode       Mode
	BackendURL string

	// API server settings.
	APIPort      string
	CORSOrigins  []string
	AdvisorHosts []string
	OIDCIssuer   string
	OIDCAudience string
	SessionTTL   time.Duration

	// Submission and flow budgets, per session and window.
	SubmitBudget int
	BudgetWindow time.Duration

	LogLevel    string
	OTelEnabled bool

	// Worker and Temporal settings.
	WorkerQueues      string
	TemporalHostPort  string
	TemporalNamespace string
}

// OIDCEnabled reports whether advisor routes require a bearer token.
func (c Config) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}

// IsAdvisorHost reports whether requests for host run in advisor mode.
// The port, if any, is ignored.
func (c Config) IsAdvisorHost(host string) bool {
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	for _, h := range c.AdvisorHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// LoadFromEnv reads configuration from environment variables with sensible defaults.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Mode:              Mode(envOr("COMUNEROS_MODE", "stub")),
		BackendURL:        strings.TrimRight(os.Getenv("COMUNEROS_BACKEND_URL"), "/"),
		APIPort:           envOr("COMUNEROS_API_PORT", "8080"),
		CORSOrigins:       parseCORSOrigins(os.Getenv("COMUNEROS_CORS_ORIGINS")),
		AdvisorHosts:      parseList(os.Getenv("COMUNEROS_ADVISOR_HOSTS")),
		OIDCIssuer:        os.Getenv("COMUNEROS_OIDC_ISSUER"),
		OIDCAudience:      os.Getenv("COMUNEROS_OIDC_AUDIENCE"),
		LogLevel:          envOr("COMUNEROS_LOG_LEVEL", "info"),
		WorkerQueues:      os.Getenv("COMUNEROS_WORKER_QUEUES"),
		TemporalHostPort:  envOr("TEMPORAL_HOSTPORT", "localhost:7233"),
		TemporalNamespace: envOr("TEMPORAL_NAMESPACE", "default"),
	}

	if cfg.Mode != ModeStub && cfg.Mode != ModeProduction {
		return Config{}, fmt.Errorf("config: invalid COMUNEROS_MODE %q (must be stub or production)", cfg.Mode)
	}

	var err error
	if cfg.OTelEnabled, err = envBool("COMUNEROS_OTEL_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = envDuration("COMUNEROS_SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.BudgetWindow, err = envDuration("COMUNEROS_BUDGET_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SubmitBudget, err = envInt("COMUNEROS_SUBMIT_BUDGET", 5); err != nil {
		return Config{}, err
	}

	if cfg.Mode == ModeProduction && cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("config: COMUNEROS_BACKEND_URL required in production mode")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q (must be a positive integer)", key, v)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config: invalid %s %q (must be a duration like 30m)", key, v)
	}
	return d, nil
}

func parseList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseCORSOrigins(raw string) []string {
	origins := parseList(raw)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
