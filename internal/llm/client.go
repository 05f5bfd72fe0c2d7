// Package llm asks a chat-completions endpoint for the next Wordle guess.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

// Client calls an OpenRouter-compatible API. The zero value is not usable;
// construct with NewClient.
type Client struct {
	http *http.Client
}

// NewClient returns a client whose requests are capped at timeout. The
// caller's context may cut them shorter.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []chatMessage  `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	Reasoning   map[string]any `json:"reasoning,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest asks model for its next guess given its own history. It returns
// a normalized 5-letter uppercase word; admissibility is the caller's
// concern.
func (c *Client) Suggest(ctx context.Context, model string, pc game.PromptContext) (string, error) {
	cfg, err := resolveAPIConfig(model)
	if err != nil {
		return "", err
	}
	mc := ConfigFor(cfg.Model)

	payload := chatRequest{
		Model:       cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(pc)}},
		MaxTokens:   mc.MaxTokens,
		Temperature: mc.Temperature,
	}
	if mc.ReasoningEffort != "" {
		payload.Reasoning = map[string]any{"effort": mc.ReasoningEffort}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(cfg.HeaderName, cfg.HeaderPrefix+cfg.APIKey)
	for k, v := range cfg.ExtraHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("model", cfg.Model).Msg("suggest request failed")
		return "", err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	body := buf.Bytes()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("llm http %d: %s", resp.StatusCode, truncate(string(body), 800))
		log.Warn().Err(err).Str("model", cfg.Model).Msg("suggest rejected")
		return "", err
	}

	var cc chatResponse
	if err := json.Unmarshal(body, &cc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices returned")
	}

	word, err := ParseGuess(cc.Choices[0].Message.Content)
	log.Debug().Str("model", cfg.Model).Dur("took", time.Since(start)).
		Str("word", word).Err(err).Msg("suggest reply")
	return word, err
}
