// internal/store/types.go
//
// Session records as seen by callers. Everything here is a copy; the
// live records stay inside the store.

package store

import (
	"errors"
	"time"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrNotAParticipant  = errors.New("not a participant in this session")
	ErrInvalidSlot      = errors.New("invalid slot")
	ErrMissingTwoPlayer = errors.New("a session needs two participants")
)

// Kind distinguishes the two session flavours.
type Kind string

const (
	KindVersusModel Kind = "pvp" // human vs automated participant
	KindHeadToHead  Kind = "h2h" // human vs human
)

// Slot indices.
const (
	SlotA = 0
	SlotB = 1
)

// Participant fills one slot.
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Automated bool   `json:"automated,omitempty"`
}

// Entry is one line of a slot's history. Either Word+Feedback are set, or
// Error is (a turn that produced no usable guess). Late entries arrived
// after the session had already been finalized.
type Entry struct {
	Word     string         `json:"word,omitempty"`
	Feedback *game.Feedback `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
	Late     bool           `json:"late,omitempty"`
	At       time.Time      `json:"timestamp"`
}

// CreateParams describes a new session. An empty Target is sampled from
// the lexicon; both slots share it.
type CreateParams struct {
	Kind         Kind
	Participants [2]Participant
	Target       string
	Model        string
}

// SlotView is the read-only view of one slot.
type SlotView struct {
	Participant
	Guesses   []Entry `json:"guesses"`
	Remaining int     `json:"guessesRemaining"`
}

// Snapshot is a point-in-time copy of a session. TargetWord is empty until
// the session is over.
type Snapshot struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"kind"`
	Model      string      `json:"model,omitempty"`
	Players    [2]SlotView `json:"players"`
	Over       bool        `json:"over"`
	WinnerID   string      `json:"winnerId,omitempty"`
	TargetWord string      `json:"targetWord,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
	Version    uint64      `json:"version"`
}

// SlotOf returns the slot index held by participantID, or -1.
func (s Snapshot) SlotOf(participantID string) int {
	for i, p := range s.Players {
		if p.ID == participantID {
			return i
		}
	}
	return -1
}

// Draw reports whether the session ended without a winner.
func (s Snapshot) Draw() bool { return s.Over && s.WinnerID == "" }

// GuessOutcome describes one committed entry and the session state right
// after it.
type GuessOutcome struct {
	Slot        int       `json:"slot"`
	Entry       Entry     `json:"entry"`
	GuessNumber int       `json:"guessNumber"`
	Remaining   int       `json:"guessesRemaining"`
	Over        bool      `json:"over"`
	WinnerID    string    `json:"winnerId,omitempty"`
	TargetWord  string    `json:"targetWord,omitempty"`
	Finalized   bool      `json:"-"` // this commit ended the session
	Snapshot    *Snapshot `json:"-"` // set when Finalized
}

// Turn is what the orchestrator needs to prompt an automated slot.
type Turn struct {
	Context game.PromptContext
	// Open is false once the session is over or the slot is exhausted.
	Open bool
}

// Evicted identifies a session removed by Sweep.
type Evicted struct {
	ID           string
	Participants []string
}
