// db.go
//
// Storage wiring for the arena server.
// Responsibilities:
//   - Opening the SQLite database (accounts, session history, arena games)
//     and applying its embedded migrations.
//   - Optionally mirroring results into Postgres when RESULTS_PG_URL is set.
//
// SQLite is required; a Postgres failure at startup is logged and the
// server runs without the mirror.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/config"
	"github.com/robalobadob/wordle/apps/arena-server/internal/results"
)

// storage bundles the opened backends.
type storage struct {
	db      *sql.DB
	sqlite  *results.SQLite
	pg      *results.Postgres
	backend results.Backend // every write target
}

// openStorage opens SQLite (and Postgres if configured) and migrates both.
func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	db, err := results.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
	}
	if err := results.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	st := &storage{db: db, sqlite: results.NewSQLite(db)}
	st.backend = st.sqlite

	if cfg.ResultsPGURL == "" {
		return st, nil
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pg, err := results.OpenPostgres(pctx, cfg.ResultsPGURL)
	if err != nil {
		log.Warn().Err(err).Msg("postgres mirror disabled")
		return st, nil
	}
	if err := pg.Migrate(pctx); err != nil {
		log.Warn().Err(err).Msg("postgres migrate failed; mirror disabled")
		pg.Close()
		return st, nil
	}
	st.pg = pg
	st.backend = results.Fanout{st.sqlite, pg}
	log.Info().Msg("postgres results mirror enabled")
	return st, nil
}

func (s *storage) Close() {
	if s.pg != nil {
		s.pg.Close()
	}
	if err := s.db.Close(); err != nil {
		log.Warn().Err(err).Msg("close sqlite")
	}
}
