package results

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "arena.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func finished(id, winner string, at time.Time) store.Snapshot {
	fin := at.Add(time.Minute)
	return store.Snapshot{
		ID:    id,
		Kind:  store.KindVersusModel,
		Model: "openai/gpt-4o",
		Players: [2]store.SlotView{
			{Participant: store.Participant{ID: "user-1", Name: "alice"}, Guesses: []store.Entry{{Word: "CRANE"}}},
			{Participant: store.Participant{ID: "model:openai/gpt-4o", Automated: true}},
		},
		Over:       true,
		WinnerID:   winner,
		TargetWord: "CRANE",
		CreatedAt:  at,
		FinishedAt: &fin,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("recorded migrations = %d, want 3", n)
	}
}

func TestPersistAndHistory(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s := NewSQLite(db)

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := s.Persist(ctx, finished("1", "user-1", base)); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := s.Persist(ctx, finished("2", "", base.Add(time.Hour))); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	// Duplicate writes are ignored.
	if err := s.Persist(ctx, finished("1", "user-1", base)); err != nil {
		t.Fatalf("duplicate Persist: %v", err)
	}

	hist, err := s.History(ctx, "", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 || hist[0].SessionID != "2" || hist[1].SessionID != "1" {
		t.Fatalf("history = %+v, want newest first", hist)
	}
	if hist[1].WinnerID != "user-1" || hist[1].TargetWord != "CRANE" || hist[1].GuessesA != 1 {
		t.Fatalf("row = %+v", hist[1])
	}
	if !hist[1].CreatedAt.Equal(base) {
		t.Fatalf("CreatedAt = %v, want %v", hist[1].CreatedAt, base)
	}

	mine, err := s.History(ctx, "someone-else", 10)
	if err != nil || len(mine) != 0 {
		t.Fatalf("filtered history = %+v, %v", mine, err)
	}

	open := finished("3", "", base)
	open.Over = false
	if err := s.Persist(ctx, open); err == nil {
		t.Fatal("persisting an unfinished session should fail")
	}
}

func TestPersistBumpsAccountStats(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if _, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('user-1','alice','x','2025-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	s := NewSQLite(db)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, winner := range []string{"user-1", "user-1", ""} {
		if err := s.Persist(ctx, finished(string(rune('a'+i)), winner, base)); err != nil {
			t.Fatal(err)
		}
	}
	var played, wins, streak int
	if err := db.QueryRow(`SELECT games_played, wins, streak FROM users WHERE id='user-1'`).Scan(&played, &wins, &streak); err != nil {
		t.Fatal(err)
	}
	if played != 3 || wins != 2 || streak != 0 {
		t.Fatalf("stats = %d/%d/%d, want 3/2/0", played, wins, streak)
	}
}

func TestArenaGamesAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	s := NewSQLite(openTestDB(t))

	hist := []game.Guess{{Word: "CRANE", Feedback: game.Evaluate("CRANE", "CRANE")}}
	games := []ArenaGame{
		{RunID: "r1", Model: "m/slow", Round: 1, TargetWord: "CRANE", Won: true, Guesses: 5},
		{RunID: "r1", Model: "m/fast", Round: 1, TargetWord: "CRANE", Won: true, Guesses: 1, History: hist},
		{RunID: "r2", Model: "m/slow", Round: 1, TargetWord: "SLATE", Error: "API Error: timeout"},
	}
	for _, g := range games {
		if err := s.RecordArenaGame(ctx, g); err != nil {
			t.Fatalf("RecordArenaGame: %v", err)
		}
	}

	r1, err := s.ArenaGames(ctx, "r1")
	if err != nil {
		t.Fatalf("ArenaGames: %v", err)
	}
	if len(r1) != 2 || !r1[1].Won || len(r1[1].History) != 1 || !r1[1].History[0].Feedback.Solved() {
		t.Fatalf("r1 = %+v", r1)
	}
	if r1[0].PlayedAt.IsZero() {
		t.Fatal("PlayedAt should default to now")
	}

	lb, err := s.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(lb) != 2 || lb[0].Model != "m/fast" || lb[1].Errors != 1 {
		t.Fatalf("leaderboard = %+v", lb)
	}
}
