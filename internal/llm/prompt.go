package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

// ErrMalformedReply wraps every reply that is not exactly one 5-letter word.
var ErrMalformedReply = errors.New("malformed model reply")

const promptRules = `You are playing Wordle. The goal is to guess a 5-letter word in 6 tries or fewer.

Rules:
- Each guess must be exactly 5 letters
- After each guess, you'll get feedback with three categories:
  * 'correct' = letters in the right position
  * 'wrong_position' = letters in the word but wrong position
  * 'not_in_word' = letters not in the target word
- Use this feedback to make better guesses

`

// BuildPrompt renders the user message for one turn. It only ever sees the
// participant's own history.
func BuildPrompt(pc game.PromptContext) string {
	var b strings.Builder
	b.WriteString(promptRules)

	if len(pc.PriorGuesses) > 0 {
		b.WriteString("Previous guesses and feedback:\n")
		for i, g := range pc.PriorGuesses {
			fmt.Fprintf(&b, "%d. %s\n", i+1, g.Word)
			writeBucket(&b, "Correct", g.Feedback.Correct)
			writeBucket(&b, "Wrong position", g.Feedback.WrongPosition)
			writeBucket(&b, "Not in word", g.Feedback.NotInWord)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "You have %d guesses remaining.\n\n", pc.GuessesRemaining)
	b.WriteString("CRITICAL: Respond with ONLY a single 5-letter word in uppercase. No explanations, no punctuation, no extra text. Just the word.")
	return b.String()
}

func writeBucket(b *strings.Builder, label string, marks []game.LetterMark) {
	if len(marks) == 0 {
		return
	}
	parts := lo.Map(marks, func(m game.LetterMark, _ int) string {
		return fmt.Sprintf("%s@%d", m.Letter, m.Position)
	})
	fmt.Fprintf(b, "   %s: %s\n", label, strings.Join(parts, " "))
}

// ParseGuess extracts the guess from a raw reply. The reply must be a
// single whitespace-separated token; non-letters are stripped and exactly
// five letters must remain.
func ParseGuess(content string) (string, error) {
	fields := strings.Fields(content)
	if len(fields) != 1 {
		return "", fmt.Errorf("%w: expected exactly 1 word, got %d: %q", ErrMalformedReply, len(fields), truncate(content, 80))
	}
	word := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, strings.ToUpper(fields[0]))
	if len(word) != words.WordLength {
		return "", fmt.Errorf("%w: word must be exactly 5 letters, got %q", ErrMalformedReply, word)
	}
	return word, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
