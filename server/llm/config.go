package llm

import (
	"errors"
	"os"
	"strings"
)

// ErrMissingAPIKey means oracle mode was requested without a usable credential.
var ErrMissingAPIKey = errors.New("API key missing: set OPENAI_API_KEY or OPENROUTER_API_KEY")

type providerKind int

const (
	providerOpenAI providerKind = iota
	providerOpenRouter
)

// Config describes how to reach an OpenAI-compatible chat endpoint.
type Config struct {
	Kind         providerKind
	APIKey       string
	BaseURL      string
	HeaderName   string
	HeaderPrefix string
	Organization string
	ExtraHeaders map[string]string
	TimeoutSec   int
}

// ConfigFromEnv resolves provider, base URL and credential from the
// environment. model is only used to detect "openrouter/" prefixed names.
func ConfigFromEnv(model string) (Config, error) {
	cfg := Config{ExtraHeaders: map[string]string{}}

	if preferOpenRouterEnv() {
		cfg.Kind = providerOpenRouter
	} else {
		cfg.Kind = providerOpenAI
	}
	if provider, ok := detectProviderFromModel(model); ok {
		cfg.Kind = provider
	}

	manualOverride := false
	if override := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))); override != "" {
		switch override {
		case "openrouter":
			cfg.Kind = providerOpenRouter
			manualOverride = true
		case "openai":
			cfg.Kind = providerOpenAI
			manualOverride = true
		}
	}

	base := firstNonEmpty(
		os.Getenv("OPENAI_API_BASE"),
		os.Getenv("OPENAI_BASE_URL"),
		os.Getenv("OPENROUTER_API_BASE"),
		os.Getenv("OPENROUTER_BASE_URL"),
	)
	if base == "" {
		if cfg.Kind == providerOpenRouter {
			base = "https://openrouter.ai/api/v1"
		} else {
			base = "https://api.openai.com/v1"
		}
	}
	cfg.BaseURL = strings.TrimRight(base, "/")
	if !manualOverride && strings.Contains(strings.ToLower(cfg.BaseURL), "openrouter") {
		cfg.Kind = providerOpenRouter
	}

	openAIKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	openRouterKey := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	switch cfg.Kind {
	case providerOpenRouter:
		cfg.APIKey = firstNonEmpty(openRouterKey, openAIKey)
	default:
		cfg.APIKey = firstNonEmpty(openAIKey, openRouterKey)
	}
	if cfg.APIKey == "" {
		return Config{}, ErrMissingAPIKey
	}

	cfg.HeaderName = firstNonEmpty(os.Getenv("OPENAI_API_KEY_HEADER"), os.Getenv("OPENROUTER_API_KEY_HEADER"))
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Authorization"
	}
	prefix := os.Getenv("OPENAI_API_KEY_PREFIX")
	if prefix == "" {
		prefix = os.Getenv("OPENROUTER_API_KEY_PREFIX")
	}
	if cfg.HeaderName == "Authorization" && strings.TrimSpace(prefix) == "" {
		prefix = "Bearer "
	}
	cfg.HeaderPrefix = prefix
	cfg.Organization = strings.TrimSpace(os.Getenv("OPENAI_ORG"))

	if cfg.Kind == providerOpenRouter {
		if v := strings.TrimSpace(os.Getenv("OPENROUTER_SITE_URL")); v != "" {
			cfg.ExtraHeaders["HTTP-Referer"] = v
			cfg.ExtraHeaders["Referer"] = v
		}
		if v := strings.TrimSpace(os.Getenv("OPENROUTER_TITLE")); v != "" {
			cfg.ExtraHeaders["X-Title"] = v
		}
	}
	return cfg, nil
}

// LoadAPIKeyFromSecret fills OPENAI_API_KEY from OPENAI_API_KEY_FILE or a
// well-known secrets path when the variable is unset.
func LoadAPIKeyFromSecret() {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return
	}
	var candidates []string
	if p := os.Getenv("OPENAI_API_KEY_FILE"); strings.TrimSpace(p) != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates,
		"./secrets/openai_api_key.txt",
		"./openai_api_key.txt",
		"/run/secrets/openai_api_key",
	)
	for _, path := range candidates {
		if b, err := os.ReadFile(path); err == nil {
			key := strings.TrimSpace(string(b))
			if key != "" {
				os.Setenv("OPENAI_API_KEY", key)
				return
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func preferOpenRouterEnv() bool {
	if strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")) != "" && strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) == "" {
		return true
	}
	if strings.TrimSpace(os.Getenv("OPENROUTER_API_BASE")) != "" || strings.TrimSpace(os.Getenv("OPENROUTER_BASE_URL")) != "" {
		return true
	}
	for _, k := range []string{"OPENAI_API_BASE", "OPENAI_BASE_URL"} {
		if base := strings.TrimSpace(os.Getenv(k)); base != "" && strings.Contains(strings.ToLower(base), "openrouter") {
			return true
		}
	}
	return false
}

func detectProviderFromModel(model string) (providerKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(model))
	if normalized == "" {
		return providerOpenAI, false
	}
	if strings.Contains(normalized, "openrouter/") {
		return providerOpenRouter, true
	}
	return providerOpenAI, false
}
