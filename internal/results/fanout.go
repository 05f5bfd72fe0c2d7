package results

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

// Fanout writes to every backend in order. A failing backend does not stop
// the others; the joined error is returned for the caller to log.
type Fanout []Backend

func (f Fanout) Persist(ctx context.Context, snap store.Snapshot) error {
	var errs []error
	for _, b := range f {
		if err := b.Persist(ctx, snap); err != nil {
			log.Warn().Err(err).Str("session", snap.ID).Msgf("persist via %T", b)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) RecordArenaGame(ctx context.Context, g ArenaGame) error {
	var errs []error
	for _, b := range f {
		if err := b.RecordArenaGame(ctx, g); err != nil {
			log.Warn().Err(err).Str("model", g.Model).Msgf("record arena game via %T", b)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
