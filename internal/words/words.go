// internal/words/words.go
//
// Lexicon for the arena: a soft admissibility gate for guesses plus a
// smaller answer pool that targets are sampled from.
//
// Word Lists:
//   - "answers": the answer pool (common, recognizable words).
//   - "allowed": the curated admissible set (always includes answers).
//
// Load behavior:
//   1. If WORDS_ANSWERS_FILE and WORDS_ALLOWED_FILE are both set,
//      load answers from the first and the curated set from the second.
//   2. If only WORDS_ALLOWED_FILE is set, the answer pool is the first
//      DefaultPoolSize words of that file.
//   3. Otherwise use the embedded lists from the assets package.
//
// Guesses come from language models as well as people, so the default
// policy admits anything that merely looks like a word. A strict policy
// is available for deployments that want dictionary gating.

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/arena-server/assets"
)

// WordLength is the fixed length of every guess and target.
const WordLength = 5

// DefaultPoolSize caps the answer pool when it is derived from the
// curated list.
const DefaultPoolSize = 500

// Policy names accepted by Options.Policy.
const (
	PolicyHeuristic = "heuristic"
	PolicyStrict    = "strict"
)

// ErrEmptyPool is returned when no answer words could be loaded.
var ErrEmptyPool = errors.New("words: answer pool is empty")

// Options controls where lists come from and which policy gates guesses.
type Options struct {
	AnswersFile string
	AllowedFile string
	Policy      string
}

// Lexicon answers "may this be guessed?" and "what should the target be?".
type Lexicon struct {
	policy  AdmissibilityPolicy
	answers []string
	allowed map[string]struct{}
}

// New builds a Lexicon from in-memory lists. Answers are always added to
// the curated set.
func New(answers, allowed []string, policyName string) (*Lexicon, error) {
	ans := normalize(answers)
	if len(ans) == 0 {
		return nil, ErrEmptyPool
	}
	set := toSet(ans)
	for _, w := range normalize(allowed) {
		set[w] = struct{}{}
	}

	var p AdmissibilityPolicy
	switch strings.ToLower(strings.TrimSpace(policyName)) {
	case "", PolicyHeuristic:
		p = HeuristicPolicy{Curated: set}
	case PolicyStrict:
		p = StrictPolicy{Curated: set}
	default:
		return nil, fmt.Errorf("words: unknown policy %q", policyName)
	}
	return &Lexicon{policy: p, answers: ans, allowed: set}, nil
}

// Load reads the lists described by opts, falling back to the embedded
// defaults.
func Load(opts Options) (*Lexicon, error) {
	var ansList, allowList []string
	var err error

	switch {
	case opts.AnswersFile != "" && opts.AllowedFile != "":
		if ansList, err = readWordFile(opts.AnswersFile); err != nil {
			return nil, err
		}
		if allowList, err = readWordFile(opts.AllowedFile); err != nil {
			return nil, err
		}

	case opts.AllowedFile != "":
		if allowList, err = readWordFile(opts.AllowedFile); err != nil {
			return nil, err
		}
		ansList = lo.Slice(normalize(allowList), 0, DefaultPoolSize)

	default:
		if ansList, err = assets.AnswersList(); err != nil {
			return nil, err
		}
		if allowList, err = assets.AllowedList(); err != nil {
			return nil, err
		}
	}
	return New(ansList, allowList, opts.Policy)
}

// WithPolicy returns a copy of the lexicon gated by p instead.
func (l *Lexicon) WithPolicy(p AdmissibilityPolicy) *Lexicon {
	cp := *l
	cp.policy = p
	return &cp
}

// IsAdmissibleGuess reports whether word may be submitted as a guess.
func (l *Lexicon) IsAdmissibleGuess(word string) bool {
	w := strings.ToUpper(strings.TrimSpace(word))
	if len(w) != WordLength || !isAlpha(w) {
		return false
	}
	return l.policy.Admissible(w)
}

// IsCurated reports whether word is in the curated list, regardless of policy.
func (l *Lexicon) IsCurated(word string) bool {
	_, ok := l.allowed[strings.ToUpper(word)]
	return ok
}

// SampleTargetWord returns a uniformly random word from the answer pool.
func (l *Lexicon) SampleTargetWord() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.answers))))
	if err != nil {
		return l.answers[0]
	}
	return l.answers[n.Int64()]
}

// Answers returns the answer pool. Callers must not mutate it.
func (l *Lexicon) Answers() []string { return l.answers }

// Stats returns counts of loaded words: (answers, curated).
func (l *Lexicon) Stats() (answersCount int, allowedCount int) {
	return len(l.answers), len(l.allowed)
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return assets.ReadWords(f)
}

// normalize uppercases, drops anything that is not 5 letters and removes
// duplicates while keeping first-seen order.
func normalize(list []string) []string {
	out := lo.FilterMap(list, func(s string, _ int) (string, bool) {
		w := strings.ToUpper(strings.TrimSpace(s))
		return w, len(w) == WordLength && isAlpha(w)
	})
	return lo.Uniq(out)
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
