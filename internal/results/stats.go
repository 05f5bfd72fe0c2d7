package results

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

// ModelStats aggregates a model's arena games. WinRate is a percentage of
// games that finished without error; AverageGuesses only counts wins.
type ModelStats struct {
	Model             string      `json:"model"`
	Games             int         `json:"games"`
	Wins              int         `json:"wins"`
	Losses            int         `json:"losses"`
	Errors            int         `json:"errors"`
	WinRate           float64     `json:"winRate"`
	AverageGuesses    float64     `json:"averageGuesses"`
	GuessDistribution map[int]int `json:"guessDistribution"`
}

// Tally computes stats for every model in games, in first-seen order.
func Tally(games []ArenaGame) []ModelStats {
	byModel := lo.GroupBy(games, func(g ArenaGame) string { return g.Model })
	order := lo.Uniq(lo.Map(games, func(g ArenaGame, _ int) string { return g.Model }))
	return lo.Map(order, func(m string, _ int) ModelStats { return tallyModel(m, byModel[m]) })
}

func tallyModel(model string, games []ArenaGame) ModelStats {
	st := ModelStats{Model: model, Games: len(games), GuessDistribution: map[int]int{}}
	for i := 1; i <= game.MaxGuesses; i++ {
		st.GuessDistribution[i] = 0
	}
	guessSum := 0
	for _, g := range games {
		switch {
		case g.Error != "":
			st.Errors++
		case g.Won:
			st.Wins++
			guessSum += g.Guesses
			st.GuessDistribution[g.Guesses]++
		default:
			st.Losses++
		}
	}
	if valid := st.Wins + st.Losses; valid > 0 {
		st.WinRate = float64(st.Wins) / float64(valid) * 100
	}
	if st.Wins > 0 {
		st.AverageGuesses = float64(guessSum) / float64(st.Wins)
	}
	return st
}

// Rank orders stats best first: by win rate when two models differ by
// more than one point, otherwise by fewer average guesses.
func Rank(stats []ModelStats) []ModelStats {
	out := slices.Clone(stats)
	slices.SortStableFunc(out, func(a, b ModelStats) int {
		if math.Abs(a.WinRate-b.WinRate) > 1 {
			if a.WinRate > b.WinRate {
				return -1
			}
			return 1
		}
		switch {
		case a.AverageGuesses < b.AverageGuesses:
			return -1
		case a.AverageGuesses > b.AverageGuesses:
			return 1
		}
		return 0
	})
	return out
}
