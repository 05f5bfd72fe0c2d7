package results

import (
	"context"
	"errors"
	"testing"

	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

type countingBackend struct {
	sessions, games int
	err             error
}

func (c *countingBackend) Persist(context.Context, store.Snapshot) error {
	c.sessions++
	return c.err
}

func (c *countingBackend) RecordArenaGame(context.Context, ArenaGame) error {
	c.games++
	return c.err
}

func TestFanoutWritesEveryBackend(t *testing.T) {
	boom := errors.New("boom")
	bad, good := &countingBackend{err: boom}, &countingBackend{}
	f := Fanout{bad, good}

	if err := f.Persist(context.Background(), store.Snapshot{ID: "1"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err := f.RecordArenaGame(context.Background(), ArenaGame{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if good.sessions != 1 || good.games != 1 {
		t.Fatalf("a failing backend stopped the fanout: %+v", good)
	}
	if err := (Fanout{good}).Persist(context.Background(), store.Snapshot{}); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}
