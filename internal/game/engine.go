// internal/game/engine.go
//
// Core game engine for one participant's guess sequence.
// Responsibilities:
//   - Own an immutable target word (sampled from the lexicon unless given).
//   - Validate guesses (not over, length, lexicon admissibility).
//   - Score guesses with the two-pass consume algorithm.
//   - Track state transitions: active → won | lost. Both are terminal.
//
// An Engine is not safe for concurrent use; owners serialize access.

package game

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

// Validation errors. None of them mutate engine state.
var (
	ErrAlreadyOver   = errors.New("game is already over")
	ErrWrongLength   = errors.New("word must be 5 letters long")
	ErrNotAdmissible = errors.New("not a valid word")
)

// Lexicon is the part of words.Lexicon the engine depends on.
type Lexicon interface {
	IsAdmissibleGuess(word string) bool
	SampleTargetWord() string
}

// Engine holds the state of a single game.
type Engine struct {
	lex        Lexicon
	target     string
	guesses    []Guess
	maxGuesses int
	over       bool
	won        bool
}

// New constructs an engine. If target is empty, one is sampled from lex.
func New(lex Lexicon, target string) *Engine {
	t := strings.ToUpper(strings.TrimSpace(target))
	if t == "" {
		t = lex.SampleTargetWord()
	}
	return &Engine{
		lex:        lex,
		target:     t,
		guesses:    []Guess{},
		maxGuesses: MaxGuesses,
	}
}

// Submit validates, scores and records a guess.
//
// State transitions:
//   - guess equals the target → over, won.
//   - otherwise, history reaches MaxGuesses → over, lost.
func (e *Engine) Submit(word string) (Outcome, error) {
	if e.over {
		return Outcome{}, ErrAlreadyOver
	}
	w, err := e.Validate(word)
	if err != nil {
		return Outcome{}, err
	}

	fb := Evaluate(e.target, w)
	e.guesses = append(e.guesses, Guess{Word: w, Feedback: fb})

	if w == e.target {
		e.over, e.won = true, true
	} else if len(e.guesses) >= e.maxGuesses {
		e.over = true
	}

	out := Outcome{
		Word:        w,
		Feedback:    fb,
		GameOver:    e.over,
		Won:         e.won,
		GuessNumber: len(e.guesses),
	}
	if e.over {
		out.TargetWord = e.target
	}
	return out, nil
}

// Validate normalizes word and checks length and admissibility without
// touching engine state. It does not check whether the game is over.
func (e *Engine) Validate(word string) (string, error) {
	w := strings.ToUpper(strings.TrimSpace(word))
	if utf8.RuneCountInString(w) != words.WordLength {
		return "", ErrWrongLength
	}
	if !e.lex.IsAdmissibleGuess(w) {
		return "", ErrNotAdmissible
	}
	return w, nil
}

// Evaluate scores word against the engine's target without recording it.
// The word must already be normalized.
func (e *Engine) Evaluate(word string) Feedback { return Evaluate(e.target, word) }

// Target returns the target word. Callers that expose state to players
// must use State, which hides it until the game ends.
func (e *Engine) Target() string { return e.target }

func (e *Engine) Over() bool { return e.over }
func (e *Engine) Won() bool  { return e.won }

// Remaining reports how many guesses are left.
func (e *Engine) Remaining() int { return e.maxGuesses - len(e.guesses) }

// State returns a copy of the engine's state.
func (e *Engine) State() State {
	s := State{
		Guesses:          append([]Guess(nil), e.guesses...),
		GameOver:         e.over,
		Won:              e.won,
		GuessesRemaining: e.Remaining(),
	}
	if e.over {
		s.TargetWord = e.target
	}
	return s
}

// consumed marks a letter that can no longer match.
const consumed = 0

// Evaluate implements the two-pass scoring algorithm.
//
// Pass 1:
//   - Exact matches are Correct; both the target and guess letters are consumed.
//
// Pass 2, left to right over the guess:
//   - An unconsumed guess letter found among the unconsumed target letters is
//     WrongPosition and consumes the first such target letter.
//   - Anything else is NotInWord.
//
// A repeated letter is therefore never credited more often than it occurs
// in the target. Both words must be the same length.
func Evaluate(target, guess string) Feedback {
	fb := Feedback{
		Correct:       []LetterMark{},
		WrongPosition: []LetterMark{},
		NotInWord:     []LetterMark{},
	}
	n := len(guess)
	if len(target) != n {
		return fb
	}
	t := []byte(target)
	g := []byte(guess)

	for i := 0; i < n; i++ {
		if g[i] == t[i] {
			fb.Correct = append(fb.Correct, LetterMark{Position: i, Letter: string(guess[i])})
			t[i], g[i] = consumed, consumed
		}
	}

	for i := 0; i < n; i++ {
		if g[i] == consumed {
			continue
		}
		mark := LetterMark{Position: i, Letter: string(g[i])}
		j := bytes.IndexByte(t, g[i])
		if j < 0 {
			fb.NotInWord = append(fb.NotInWord, mark)
			continue
		}
		fb.WrongPosition = append(fb.WrongPosition, mark)
		t[j] = consumed
	}
	return fb
}
