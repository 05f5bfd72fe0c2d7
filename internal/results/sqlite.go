// internal/results/sqlite.go
//
// SQLite persistence for the arena.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Storing finished sessions and arena games; bumping account stats.
//   - History and leaderboard queries.

package results

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// OpenSQLite opens (and creates if missing) a SQLite database file. The
// parent directory is created for relative paths like ./data/arena.db.
func OpenSQLite(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded migrations in lexical order, each in its
// own transaction, skipping those already recorded in _migrations.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// SQLite is the primary results backend.
type SQLite struct{ db *sql.DB }

func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

// Persist stores a finished session. Persisting the same session twice is
// a no-op. Account stats are bumped for participants with an account.
func (s *SQLite) Persist(ctx context.Context, snap store.Snapshot) error {
	if !snap.Over {
		return fmt.Errorf("persist session %s: not finished", snap.ID)
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	sum := summarize(snap)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO sessions
            (session_id, kind, model, player_a, player_b, winner_id, target,
             guesses_a, guesses_b, created_at, finished_at, payload)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		sum.SessionID, sum.Kind, sum.Model, sum.PlayerA, sum.PlayerB, sum.WinnerID, sum.TargetWord,
		sum.GuessesA, sum.GuessesB, formatTime(sum.CreatedAt), formatTime(sum.FinishedAt), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}

	for _, p := range snap.Players {
		if p.Automated {
			continue
		}
		if err := bumpStats(ctx, tx, p.ID, snap.WinnerID == p.ID); err != nil {
			log.Warn().Err(err).Str("user", p.ID).Msg("bump stats")
		}
	}
	return tx.Commit()
}

// bumpStats increments games played and updates wins and streak. Ids
// without an account match no row.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	win := 0
	if won {
		win = 1
	}
	_, err := tx.ExecContext(ctx, `
        UPDATE users
           SET games_played = games_played + 1,
               wins = wins + ?,
               streak = CASE WHEN ? = 1 THEN streak + 1 ELSE 0 END
         WHERE id = ?`, win, win, userID)
	return err
}

// RecordArenaGame stores one solo arena game.
func (s *SQLite) RecordArenaGame(ctx context.Context, g ArenaGame) error {
	hist, err := json.Marshal(g.History)
	if err != nil {
		return err
	}
	if g.PlayedAt.IsZero() {
		g.PlayedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO arena_games (run_id, model, round, target, won, guesses, error, history, played_at)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		g.RunID, g.Model, g.Round, g.TargetWord, g.Won, g.Guesses, g.Error, string(hist), formatTime(g.PlayedAt),
	)
	return err
}

// History lists finished sessions, newest first. A non-empty participant
// restricts the list to sessions they played in.
func (s *SQLite) History(ctx context.Context, participant string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT session_id, kind, model, player_a, player_b, winner_id, target,
                 guesses_a, guesses_b, created_at, finished_at
            FROM sessions`
	args := []any{}
	if participant != "" {
		q += ` WHERE player_a = ? OR player_b = ?`
		args = append(args, participant, participant)
	}
	q += ` ORDER BY finished_at DESC, row_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SessionSummary, 0, limit)
	for rows.Next() {
		var r SessionSummary
		var created, finished string
		if err := rows.Scan(&r.SessionID, &r.Kind, &r.Model, &r.PlayerA, &r.PlayerB, &r.WinnerID,
			&r.TargetWord, &r.GuessesA, &r.GuessesB, &created, &finished); err != nil {
			return nil, err
		}
		r.CreatedAt, r.FinishedAt = parseTime(created), parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ArenaGames returns stored arena games in insertion order. An empty
// runID returns every game.
func (s *SQLite) ArenaGames(ctx context.Context, runID string) ([]ArenaGame, error) {
	q := `SELECT run_id, model, round, target, won, guesses, error, history, played_at FROM arena_games`
	args := []any{}
	if runID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	q += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArenaGame
	for rows.Next() {
		var g ArenaGame
		var hist, played string
		if err := rows.Scan(&g.RunID, &g.Model, &g.Round, &g.TargetWord, &g.Won, &g.Guesses, &g.Error, &hist, &played); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(hist), &g.History); err != nil {
			log.Warn().Err(err).Str("run", g.RunID).Msg("decode arena history")
		}
		g.PlayedAt = parseTime(played)
		out = append(out, g)
	}
	return out, rows.Err()
}

// Leaderboard ranks every model that has played in the arena.
func (s *SQLite) Leaderboard(ctx context.Context) ([]ModelStats, error) {
	games, err := s.ArenaGames(ctx, "")
	if err != nil {
		return nil, err
	}
	return Rank(Tally(games)), nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
