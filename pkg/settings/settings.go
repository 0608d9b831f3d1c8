package settings

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// ErrMissingAPIKey is the fatal startup condition for a missing provider
// credential. It is checked before any stream opens, never per request.
var ErrMissingAPIKey = errors.New("no provider API key configured")

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 8192
)

// Settings is the process-wide provider configuration, loaded once at
// startup and read-only afterwards.
type Settings struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int

	// AllowLocalNetworks relaxes outbound URL checks for self-hosted
	// provider proxies and tests.
	AllowLocalNetworks bool
}

// NewFromEnv loads settings from the environment. A missing API key is a
// configuration error the caller should treat as fatal.
func NewFromEnv() (*Settings, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	maxTokens := DefaultMaxTokens
	if raw := os.Getenv("FLOWSMITH_MAX_TOKENS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrap(err, "invalid FLOWSMITH_MAX_TOKENS")
		}
		maxTokens = parsed
	}

	return &Settings{
		APIKey:             apiKey,
		BaseURL:            getEnv("FLOWSMITH_BASE_URL", DefaultBaseURL),
		Model:              getEnv("FLOWSMITH_MODEL", DefaultModel),
		MaxTokens:          maxTokens,
		AllowLocalNetworks: os.Getenv("FLOWSMITH_ALLOW_LOCAL_NETWORKS") == "true",
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
