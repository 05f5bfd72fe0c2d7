package results

import (
	"math"
	"testing"
)

func TestTally(t *testing.T) {
	games := []ArenaGame{
		{Model: "a", Won: true, Guesses: 3},
		{Model: "a", Won: true, Guesses: 4},
		{Model: "a", Won: false, Guesses: 6},
		{Model: "a", Error: "API Error: 502"},
		{Model: "b", Won: false, Guesses: 6},
	}
	stats := Tally(games)
	if len(stats) != 2 || stats[0].Model != "a" || stats[1].Model != "b" {
		t.Fatalf("models = %+v", stats)
	}
	a := stats[0]
	if a.Games != 4 || a.Wins != 2 || a.Losses != 1 || a.Errors != 1 {
		t.Fatalf("counts = %+v", a)
	}
	// Errors are excluded from the win rate.
	if math.Abs(a.WinRate-200.0/3) > 1e-9 {
		t.Fatalf("WinRate = %v", a.WinRate)
	}
	if a.AverageGuesses != 3.5 {
		t.Fatalf("AverageGuesses = %v", a.AverageGuesses)
	}
	if a.GuessDistribution[3] != 1 || a.GuessDistribution[4] != 1 || len(a.GuessDistribution) != 6 {
		t.Fatalf("distribution = %v", a.GuessDistribution)
	}
	if b := stats[1]; b.WinRate != 0 || b.AverageGuesses != 0 {
		t.Fatalf("b = %+v", b)
	}
}

func TestRank(t *testing.T) {
	in := []ModelStats{
		{Model: "slow", WinRate: 80, AverageGuesses: 4.5},
		{Model: "best", WinRate: 90, AverageGuesses: 4.0},
		{Model: "fast", WinRate: 80.5, AverageGuesses: 3.9},
		{Model: "worst", WinRate: 10, AverageGuesses: 2},
	}
	got := Rank(in)
	want := []string{"best", "fast", "slow", "worst"}
	for i, w := range want {
		if got[i].Model != w {
			t.Fatalf("rank %d = %s, want %s (%+v)", i, got[i].Model, w, got)
		}
	}
	if in[0].Model != "slow" {
		t.Fatal("Rank must not reorder its input")
	}
}
