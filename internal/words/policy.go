package words

import "strings"

// AdmissibilityPolicy decides whether a normalized (uppercase, 5 letter,
// alphabetic) word may be guessed.
type AdmissibilityPolicy interface {
	Admissible(word string) bool
}

// StrictPolicy admits only curated words.
type StrictPolicy struct {
	Curated map[string]struct{}
}

func (p StrictPolicy) Admissible(word string) bool {
	_, ok := p.Curated[word]
	return ok
}

// HeuristicPolicy admits curated words, and otherwise anything that does
// not match one of a few implausible letter patterns.
type HeuristicPolicy struct {
	Curated map[string]struct{}
}

func (p HeuristicPolicy) Admissible(word string) bool {
	if _, ok := p.Curated[word]; ok {
		return true
	}
	return !implausible(word)
}

const vowels = "AEIOU"

// implausible rejects:
//   - a leading run of three or more X/Z letters
//   - a run of three or more Q/W letters anywhere
//   - words with no vowel (Y does not count)
//   - words made only of vowels
func implausible(w string) bool {
	if leadingRun(w, "XZ") >= 3 {
		return true
	}
	if longestRun(w, "QW") >= 3 {
		return true
	}
	n := 0
	for i := 0; i < len(w); i++ {
		if strings.IndexByte(vowels, w[i]) >= 0 {
			n++
		}
	}
	return n == 0 || n == len(w)
}

func leadingRun(w, set string) int {
	n := 0
	for n < len(w) && strings.IndexByte(set, w[n]) >= 0 {
		n++
	}
	return n
}

func longestRun(w, set string) int {
	best, cur := 0, 0
	for i := 0; i < len(w); i++ {
		if strings.IndexByte(set, w[i]) >= 0 {
			cur++
			if cur > best {
				best = cur
			}
			continue
		}
		cur = 0
	}
	return best
}
