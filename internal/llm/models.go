package llm

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ModelConfig holds per-model request knobs.
type ModelConfig struct {
	MaxTokens       int
	Temperature     float64
	Cost            string
	ReasoningEffort string
}

const (
	defaultMaxTokens   = 50
	defaultTemperature = 0.1
)

// Model presets selectable by name from the arena CLI and API.
var Presets = map[string][]string{
	"default": {
		"anthropic/claude-3.5-sonnet",
		"openai/gpt-4o",
		"openai/gpt-4o-mini",
		"meta-llama/llama-3.1-70b-instruct",
		"google/gemini-pro-1.5",
		"mistralai/mistral-7b-instruct",
	},
	"premium": {
		"anthropic/claude-sonnet-4",
		"anthropic/claude-opus-4.1",
		"openai/gpt-5-chat",
		"moonshotai/kimi-k2",
		"openai/gpt-4o-2024-11-20",
		"anthropic/claude-3.5-sonnet-20241022",
		"anthropic/claude-3.5-sonnet",
		"google/gemini-pro-1.5",
		"openai/gpt-4o",
	},
	"cutting-edge": {
		"google/gemini-2.5-flash",
		"x-ai/grok-4",
		"openai/gpt-5-high",
		"anthropic/claude-opus-4",
		"google/gemini-2.0-pro",
		"meta-llama/llama-3.3-70b-instruct",
		"deepseek/deepseek-r1",
		"openai/o3-mini",
	},
	"budget": {
		"openai/gpt-4o-mini",
		"anthropic/claude-3-haiku",
		"meta-llama/llama-3.1-8b-instruct",
		"mistralai/mistral-7b-instruct",
		"google/gemma-2-9b-it",
	},
}

var modelConfigs = map[string]ModelConfig{
	"anthropic/claude-3.5-sonnet":       {Cost: "high"},
	"openai/gpt-4o":                     {Cost: "high"},
	"openai/gpt-4o-mini":                {Cost: "low"},
	"meta-llama/llama-3.1-70b-instruct": {Cost: "medium"},
	"google/gemini-pro-1.5":             {Cost: "medium"},
	"mistralai/mistral-7b-instruct":     {Cost: "low"},
	"openai/chatgpt-4o-latest":          {Cost: "premium"},
	"x-ai/grok-4":                       {Cost: "premium"},
	"openai/gpt-5-chat":                 {Cost: "premium", ReasoningEffort: "high"},
	"anthropic/claude-opus-4":           {Cost: "premium"},
	"google/gemini-2.0-pro":             {Cost: "premium"},
	"meta-llama/llama-3.3-70b-instruct": {Cost: "medium"},
	"deepseek/deepseek-r1":              {Cost: "medium"},
	"openai/o3-mini":                    {Cost: "premium"},
	"google/gemini-2.5-flash":           {Cost: "premium"},
}

// ConfigFor returns the knobs for model, falling back to defaults for
// anything unknown.
func ConfigFor(model string) ModelConfig {
	c := modelConfigs[model]
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	return c
}

// ResolveModels expands arg into a model list. arg is either a preset name
// or a comma separated list of model ids. An empty arg uses "default".
func ResolveModels(arg string) []string {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		arg = "default"
	}
	if p, ok := Presets[arg]; ok {
		return slices.Clone(p)
	}
	return lo.Compact(lo.Map(strings.Split(arg, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
