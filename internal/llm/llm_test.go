package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

func TestBuildPromptEmptyHistory(t *testing.T) {
	p := BuildPrompt(game.PromptContext{GuessesRemaining: 6})
	if strings.Contains(p, "Previous guesses") {
		t.Fatal("empty history should not render a guesses section")
	}
	if !strings.Contains(p, "You have 6 guesses remaining.") {
		t.Fatalf("missing remaining line:\n%s", p)
	}
	if !strings.HasSuffix(p, "Just the word.") {
		t.Fatalf("prompt should end with the reply instruction:\n%s", p)
	}
}

func TestBuildPromptRendersOwnGuesses(t *testing.T) {
	pc := game.PromptContext{
		PriorGuesses: []game.Guess{
			{Word: "LOLLY", Feedback: game.Evaluate("ALLOY", "LOLLY")},
			{Word: "ALLOT", Feedback: game.Evaluate("ALLOY", "ALLOT")},
		},
		GuessesRemaining: 4,
	}
	p := BuildPrompt(pc)
	for _, want := range []string{
		"Previous guesses and feedback:\n1. LOLLY\n",
		"   Correct: L@2 Y@4\n",
		"   Wrong position: L@0 O@1\n",
		"   Not in word: L@3\n",
		"2. ALLOT\n   Correct: A@0 L@1 L@2 O@3\n   Not in word: T@4\n",
		"You have 4 guesses remaining.",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestParseGuess(t *testing.T) {
	ok := map[string]string{
		"CRANE":      "CRANE",
		"  crane\n":  "CRANE",
		"**CRANE**.": "CRANE",
		"c-r-a-n-e":  "CRANE",
	}
	for in, want := range ok {
		got, err := ParseGuess(in)
		if err != nil || got != want {
			t.Errorf("ParseGuess(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "my guess is CRANE", "CRANES", "CR4NE", "???"} {
		if _, err := ParseGuess(in); !errors.Is(err, ErrMalformedReply) {
			t.Errorf("ParseGuess(%q) err = %v, want ErrMalformedReply", in, err)
		}
	}
}

func TestConfigForDefaults(t *testing.T) {
	c := ConfigFor("unknown/model")
	if c.MaxTokens != 50 || c.Temperature != 0.1 {
		t.Fatalf("defaults = %+v", c)
	}
	if ConfigFor("openai/gpt-5-chat").ReasoningEffort != "high" {
		t.Fatal("gpt-5-chat should request high reasoning effort")
	}
}

func TestResolveAPIConfigOpenRouterDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_BASE", "")
	t.Setenv("OPENAI_API_BASE", "")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := resolveAPIConfig("openai/gpt-4o")
	if err != nil {
		t.Fatalf("resolveAPIConfig returned error: %v", err)
	}
	if cfg.BaseURL != openRouterBase || cfg.APIKey != "or-key" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.HeaderName != "Authorization" || cfg.HeaderPrefix != "Bearer " {
		t.Fatalf("unexpected auth header %q %q", cfg.HeaderName, cfg.HeaderPrefix)
	}
	if got := cfg.ExtraHeaders["X-Title"]; got != "LLM Wordle Arena" {
		t.Fatalf("unexpected X-Title: %q", got)
	}
}

func TestResolveAPIConfigMissingKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := resolveAPIConfig("openai/gpt-4o"); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("err = %v, want ErrMissingKey", err)
	}
}

func TestSuggestRoundTrip(t *testing.T) {
	var got chatRequest
	var auth, title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth, title = r.Header.Get("Authorization"), r.Header.Get("X-Title")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" slate \n"}}]}`))
	}))
	defer srv.Close()

	t.Setenv("OPENROUTER_API_BASE", srv.URL)
	t.Setenv("OPENROUTER_API_KEY", "k")
	t.Setenv("OPENROUTER_TITLE", "")

	word, err := NewClient(time.Second).Suggest(context.Background(), "openai/gpt-5-chat", game.PromptContext{GuessesRemaining: 6})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if word != "SLATE" {
		t.Fatalf("word = %q, want SLATE", word)
	}
	if auth != "Bearer k" || title != "LLM Wordle Arena" {
		t.Fatalf("headers: auth=%q title=%q", auth, title)
	}
	if got.Model != "openai/gpt-5-chat" || got.MaxTokens != 50 || got.Temperature != 0.1 {
		t.Fatalf("request = %+v", got)
	}
	if got.Reasoning["effort"] != "high" {
		t.Fatalf("reasoning = %v", got.Reasoning)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestSuggestErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"http error", http.StatusTooManyRequests, `{"error":"slow down"}`, nil},
		{"chatty reply", http.StatusOK, `{"choices":[{"message":{"content":"I think CRANE"}}]}`, ErrMalformedReply},
		{"bad json", http.StatusOK, `not json`, ErrMalformedReply},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				_, _ = w.Write([]byte(c.body))
			}))
			defer srv.Close()
			t.Setenv("OPENROUTER_API_BASE", srv.URL)
			t.Setenv("OPENROUTER_API_KEY", "k")

			_, err := NewClient(time.Second).Suggest(context.Background(), "x/y", game.PromptContext{})
			if err == nil {
				t.Fatal("expected error")
			}
			if c.want != nil && !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestResolveModels(t *testing.T) {
	if got := ResolveModels("budget"); len(got) != len(Presets["budget"]) {
		t.Fatalf("preset = %v", got)
	}
	if got := ResolveModels(""); len(got) != len(Presets["default"]) {
		t.Fatalf("empty = %v", got)
	}
	got := ResolveModels(" a/b , ,c/d ")
	if len(got) != 2 || got[0] != "a/b" || got[1] != "c/d" {
		t.Fatalf("list = %v", got)
	}
}
