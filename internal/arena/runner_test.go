package arena

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/results"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

func testLexicon(t *testing.T) *words.Lexicon {
	t.Helper()
	lex, err := words.New([]string{"crane", "alloy", "slate"}, []string{"zebra"}, words.PolicyHeuristic)
	if err != nil {
		t.Fatalf("words.New: %v", err)
	}
	return lex
}

// scripted replies per model; a reply of "!" fails the call.
type scripted struct {
	mu      sync.Mutex
	replies map[string][]string
	calls   map[string]int
	seen    []game.PromptContext
	block   chan struct{}
}

func (s *scripted) Suggest(ctx context.Context, model string, pc game.PromptContext) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.seen = append(s.seen, pc)
	list := s.replies[model]
	i := s.calls[model]
	s.calls[model]++
	if len(list) == 0 {
		return "ZEBRA", nil
	}
	r := list[i%len(list)]
	if r == "!" {
		return "", errors.New("upstream 500")
	}
	return r, nil
}

type memRecorder struct {
	mu    sync.Mutex
	games []results.ArenaGame
}

func (m *memRecorder) RecordArenaGame(ctx context.Context, g results.ArenaGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games = append(m.games, g)
	return nil
}

func TestTargetIndexDeterministic(t *testing.T) {
	a := TargetIndex("salt", "2025-01-01", 3, 100)
	b := TargetIndex("salt", "2025-01-01", 3, 100)
	if a != b || a < 0 || a >= 100 {
		t.Fatalf("index %d / %d not stable or out of range", a, b)
	}
	if TargetIndex("salt", "x", 1, 0) != 0 {
		t.Fatal("empty pool should map to 0")
	}
	if got := Schedule("salt", "k", []string{"CRANE"}, 4); strings.Join(got, ",") != "CRANE,CRANE,CRANE,CRANE" {
		t.Fatalf("schedule = %v", got)
	}
}

func TestRunPlaysSameTargetsForEveryModel(t *testing.T) {
	lex := testLexicon(t)
	sg := &scripted{replies: map[string][]string{"m/solver": {"CRANE", "ALLOY", "SLATE"}}}
	rec := &memRecorder{}
	r := NewRunner(lex, sg, rec)

	rep, err := r.Run(context.Background(), Config{
		Models: []string{"m/solver", "m/loser"},
		Rounds: 3,
		Salt:   "s",
		RunKey: "fixed",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Games) != 6 || len(rec.games) != 6 {
		t.Fatalf("games = %d, recorded = %d; want 6", len(rep.Games), len(rec.games))
	}
	for i := 0; i < 3; i++ {
		if rep.Games[i].TargetWord != rep.Games[i+3].TargetWord {
			t.Fatalf("round %d targets differ: %s vs %s", i+1, rep.Games[i].TargetWord, rep.Games[i+3].TargetWord)
		}
		if rep.Games[i].Round != i+1 || rep.Games[i].RunID != rep.RunID {
			t.Fatalf("game %d labelled %+v", i, rep.Games[i])
		}
	}

	loser := rep.Games[3]
	if loser.Won || loser.Guesses != game.MaxGuesses || loser.Error != "" {
		t.Fatalf("loser game = %+v", loser)
	}
	if len(rep.Rankings) != 2 || rep.Rankings[1].Model != "m/loser" || rep.Rankings[1].WinRate != 0 {
		t.Fatalf("rankings = %+v", rep.Rankings)
	}

	p := r.Progress()
	if p.Running || p.Completed != 6 || p.Total != 6 {
		t.Fatalf("progress = %+v", p)
	}
	if r.Last() != rep {
		t.Fatal("Last should return the finished report")
	}
}

func TestPromptOnlyCarriesOwnHistory(t *testing.T) {
	lex := testLexicon(t)
	sg := &scripted{}
	r := NewRunner(lex, sg, nil)
	if _, err := r.Run(context.Background(), Config{Models: []string{"m"}, Rounds: 1, RunKey: "k"}); err != nil {
		t.Fatal(err)
	}
	if len(sg.seen) != game.MaxGuesses {
		t.Fatalf("calls = %d", len(sg.seen))
	}
	for i, pc := range sg.seen {
		if len(pc.PriorGuesses) != i || pc.GuessesRemaining != game.MaxGuesses-i {
			t.Fatalf("call %d context = %+v", i, pc)
		}
	}
}

func TestFailuresEndTheGame(t *testing.T) {
	lex := testLexicon(t)
	sg := &scripted{replies: map[string][]string{
		"m/api":     {"ZEBRA", "!"},
		"m/invalid": {"QQQQQ"},
	}}
	r := NewRunner(lex, sg, nil)
	rep, err := r.Run(context.Background(), Config{Models: []string{"m/api", "m/invalid"}, Rounds: 1, RunKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	api, invalid := rep.Games[0], rep.Games[1]
	if !strings.HasPrefix(api.Error, "API Error: ") || api.Guesses != 1 {
		t.Fatalf("api game = %+v", api)
	}
	if invalid.Error == "" || invalid.Guesses != 0 {
		t.Fatalf("invalid game = %+v", invalid)
	}
	if rep.Stats[0].Errors != 1 || rep.Stats[1].Errors != 1 {
		t.Fatalf("stats = %+v", rep.Stats)
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	lex := testLexicon(t)
	sg := &scripted{block: make(chan struct{})}
	r := NewRunner(lex, sg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := r.Start(ctx, Config{Models: []string{"m"}, Rounds: 1}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Start(ctx, Config{Models: []string{"m"}, Rounds: 1}); !errors.Is(err, ErrRunning) {
		t.Fatalf("err = %v, want ErrRunning", err)
	}
	if p := r.Progress(); !p.Running || p.Total != 1 {
		t.Fatalf("progress = %+v", p)
	}
	close(sg.block)

	deadline := time.Now().Add(2 * time.Second)
	for r.Progress().Running {
		if time.Now().After(deadline) {
			t.Fatal("run did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := r.Start(ctx, Config{}); !errors.Is(err, ErrNoModels) {
		t.Fatalf("err = %v, want ErrNoModels", err)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	rep := &Report{RunID: "r1", StartedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	path, err := WriteReport(dir, rep)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "wordle-arena-results-2025-03-01T10-00-00") {
		t.Fatalf("path = %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(b), `"runId": "r1"`) {
		t.Fatalf("contents = %s, err = %v", b, err)
	}
}
