package results

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

//go:embed schema_pg.sql
var pgSchema string

// Postgres mirrors results into a shared database so several arena
// servers can feed one leaderboard.
type Postgres struct{ *pgxpool.Pool }

// OpenPostgres connects and pings.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{p}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (pg *Postgres) Migrate(ctx context.Context) error {
	_, err := pg.Exec(ctx, pgSchema)
	return err
}

func (pg *Postgres) Close() { pg.Pool.Close() }

func (pg *Postgres) Persist(ctx context.Context, snap store.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	sum := summarize(snap)
	_, err = pg.Exec(ctx, `
        INSERT INTO arena_sessions
            (session_id, kind, model, player_a, player_b, winner_id, target,
             guesses_a, guesses_b, created_at, finished_at, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (session_id, created_at) DO NOTHING`,
		sum.SessionID, sum.Kind, sum.Model, sum.PlayerA, sum.PlayerB, sum.WinnerID, sum.TargetWord,
		sum.GuessesA, sum.GuessesB, sum.CreatedAt, sum.FinishedAt, payload,
	)
	return err
}

func (pg *Postgres) RecordArenaGame(ctx context.Context, g ArenaGame) error {
	hist, err := json.Marshal(g.History)
	if err != nil {
		return err
	}
	if g.PlayedAt.IsZero() {
		g.PlayedAt = time.Now().UTC()
	}
	_, err = pg.Exec(ctx, `
        INSERT INTO arena_games (run_id, model, round, target, won, guesses, error, history, played_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		g.RunID, g.Model, g.Round, g.TargetWord, g.Won, g.Guesses, g.Error, hist, g.PlayedAt,
	)
	return err
}
