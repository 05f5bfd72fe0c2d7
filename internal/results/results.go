// Package results persists finished sessions and arena games and answers
// the read queries built on them (history, leaderboard).
//
// Writes are best effort: callers log failures and carry on.
package results

import (
	"context"
	"time"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

// Sink receives each finished session once.
type Sink interface {
	Persist(ctx context.Context, snap store.Snapshot) error
}

// ArenaRecorder receives each solo arena game.
type ArenaRecorder interface {
	RecordArenaGame(ctx context.Context, g ArenaGame) error
}

// Backend is a store that does both.
type Backend interface {
	Sink
	ArenaRecorder
}

// ArenaGame is one model playing one solo round. Error is set when the
// game was cut short by a failed or invalid reply.
type ArenaGame struct {
	RunID      string       `json:"runId"`
	Model      string       `json:"model"`
	Round      int          `json:"round"`
	TargetWord string       `json:"targetWord"`
	Won        bool         `json:"won"`
	Guesses    int          `json:"guessCount"`
	Error      string       `json:"error,omitempty"`
	History    []game.Guess `json:"guesses"`
	PlayedAt   time.Time    `json:"playedAt"`
}

// SessionSummary is one row of session history.
type SessionSummary struct {
	SessionID  string    `json:"id"`
	Kind       string    `json:"kind"`
	Model      string    `json:"model,omitempty"`
	PlayerA    string    `json:"playerA"`
	PlayerB    string    `json:"playerB"`
	WinnerID   string    `json:"winnerId,omitempty"`
	TargetWord string    `json:"targetWord"`
	GuessesA   int       `json:"guessesA"`
	GuessesB   int       `json:"guessesB"`
	CreatedAt  time.Time `json:"createdAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func summarize(s store.Snapshot) SessionSummary {
	sum := SessionSummary{
		SessionID:  s.ID,
		Kind:       string(s.Kind),
		Model:      s.Model,
		PlayerA:    s.Players[store.SlotA].ID,
		PlayerB:    s.Players[store.SlotB].ID,
		WinnerID:   s.WinnerID,
		TargetWord: s.TargetWord,
		GuessesA:   len(s.Players[store.SlotA].Guesses),
		GuessesB:   len(s.Players[store.SlotB].Guesses),
		CreatedAt:  s.CreatedAt,
	}
	if s.FinishedAt != nil {
		sum.FinishedAt = *s.FinishedAt
	}
	return sum
}
