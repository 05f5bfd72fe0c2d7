// internal/game/types.go
//
// Core type definitions for the Wordle game engine.
// Defines:
//   - LetterMark / Feedback: the three-bucket evaluation of a guess.
//   - Mark: per-position view of the same feedback (hit/present/miss).
//   - Guess, Outcome, State: history entries and results.

package game

// MaxGuesses is the number of guesses a single participant gets.
const MaxGuesses = 6

// LetterMark is one letter of a guess together with its position (0-based).
type LetterMark struct {
	Position int    `json:"position"`
	Letter   string `json:"letter"`
}

// Feedback buckets every letter of a guess. Within each bucket entries are
// ordered by position.
type Feedback struct {
	Correct       []LetterMark `json:"correct"`
	WrongPosition []LetterMark `json:"wrong_position"`
	NotInWord     []LetterMark `json:"not_in_word"`
}

// Mark represents the evaluation result for a single position.
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)

// Marks flattens the feedback into one Mark per position.
func (f Feedback) Marks() []Mark {
	n := len(f.Correct) + len(f.WrongPosition) + len(f.NotInWord)
	out := make([]Mark, n)
	for _, m := range f.Correct {
		out[m.Position] = MarkHit
	}
	for _, m := range f.WrongPosition {
		out[m.Position] = MarkPresent
	}
	for _, m := range f.NotInWord {
		out[m.Position] = MarkMiss
	}
	return out
}

// Solved reports whether every letter is in the correct position.
func (f Feedback) Solved() bool {
	return len(f.Correct) > 0 && len(f.WrongPosition) == 0 && len(f.NotInWord) == 0
}

// Guess is one accepted history entry.
type Guess struct {
	Word     string   `json:"word"`
	Feedback Feedback `json:"result"`
}

// Outcome is returned for every accepted guess. TargetWord is empty unless
// the game ended with this guess.
type Outcome struct {
	Word        string   `json:"word"`
	Feedback    Feedback `json:"result"`
	GameOver    bool     `json:"gameOver"`
	Won         bool     `json:"won"`
	GuessNumber int      `json:"guessNumber"`
	TargetWord  string   `json:"targetWord,omitempty"`
}

// State is a read-only view of an engine. TargetWord is empty while the
// game is still active.
type State struct {
	Guesses          []Guess `json:"guesses"`
	GameOver         bool    `json:"gameOver"`
	Won              bool    `json:"won"`
	TargetWord       string  `json:"targetWord,omitempty"`
	GuessesRemaining int     `json:"guessesRemaining"`
}

// PromptContext is what an automated participant is told before it
// guesses: its own accepted guesses and how many turns it has left.
type PromptContext struct {
	PriorGuesses     []Guess `json:"priorGuesses"`
	GuessesRemaining int     `json:"guessesRemaining"`
}
