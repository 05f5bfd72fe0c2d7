package llm

import (
	"errors"
	"os"
	"strings"
)

const (
	openRouterBase = "https://openrouter.ai/api/v1"
	openAIBase     = "https://api.openai.com/v1"

	defaultSiteURL = "http://localhost:5175"
	defaultTitle   = "LLM Wordle Arena"
)

var (
	ErrMissingKey   = errors.New("API key missing: set OPENROUTER_API_KEY or OPENAI_API_KEY")
	ErrMissingModel = errors.New("model missing: pass a model or set OPENROUTER_MODEL")
)

type apiConfig struct {
	Model        string
	APIKey       string
	BaseURL      string
	HeaderName   string
	HeaderPrefix string
	ExtraHeaders map[string]string
}

// resolveAPIConfig reads provider settings from the environment. Model ids
// are OpenRouter slugs, so OpenRouter is the default provider unless an
// OpenAI base URL is configured explicitly.
func resolveAPIConfig(model string) (apiConfig, error) {
	cfg := apiConfig{
		Model:        strings.TrimSpace(model),
		ExtraHeaders: map[string]string{},
	}
	if cfg.Model == "" {
		cfg.Model = firstNonEmpty(os.Getenv("OPENROUTER_MODEL"), os.Getenv("OPENAI_MODEL"))
	}
	if cfg.Model == "" {
		return apiConfig{}, ErrMissingModel
	}

	base := firstNonEmpty(
		os.Getenv("OPENROUTER_API_BASE"),
		os.Getenv("OPENROUTER_BASE_URL"),
		os.Getenv("OPENAI_API_BASE"),
		os.Getenv("OPENAI_BASE_URL"),
	)
	if base == "" {
		base = openRouterBase
	}
	cfg.BaseURL = strings.TrimRight(base, "/")
	openRouter := cfg.BaseURL != openAIBase

	if openRouter {
		cfg.APIKey = firstNonEmpty(os.Getenv("OPENROUTER_API_KEY"), os.Getenv("OPENAI_API_KEY"))
	} else {
		cfg.APIKey = firstNonEmpty(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENROUTER_API_KEY"))
	}
	if cfg.APIKey == "" {
		return apiConfig{}, ErrMissingKey
	}

	cfg.HeaderName = firstNonEmpty(os.Getenv("OPENROUTER_API_KEY_HEADER"), "Authorization")
	cfg.HeaderPrefix = os.Getenv("OPENROUTER_API_KEY_PREFIX")
	if cfg.HeaderName == "Authorization" && strings.TrimSpace(cfg.HeaderPrefix) == "" {
		cfg.HeaderPrefix = "Bearer "
	}

	if openRouter {
		cfg.ExtraHeaders["HTTP-Referer"] = firstNonEmpty(os.Getenv("OPENROUTER_SITE_URL"), defaultSiteURL)
		cfg.ExtraHeaders["X-Title"] = firstNonEmpty(os.Getenv("OPENROUTER_TITLE"), defaultTitle)
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
