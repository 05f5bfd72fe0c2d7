package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMatchmaker(t *testing.T) (*Matchmaker, store.Store, *clock) {
	t.Helper()
	lex, err := words.New([]string{"crane"}, nil, words.PolicyHeuristic)
	if err != nil {
		t.Fatalf("words.New: %v", err)
	}
	st := store.NewMemoryStore(lex)
	c := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := New(st, 0)
	m.now = c.now
	return m, st, c
}

func mustJoin(t *testing.T, m *Matchmaker, id string) Result {
	t.Helper()
	r, err := m.Join(context.Background(), id, "name-"+id)
	if err != nil {
		t.Fatalf("Join(%s): %v", id, err)
	}
	return r
}

func TestJoinIsFIFO(t *testing.T) {
	m, st, _ := newTestMatchmaker(t)

	r1 := mustJoin(t, m, "p1")
	if r1.Matched() || r1.Position != 1 || r1.QueueSize != 1 {
		t.Fatalf("p1 = %+v, want waiting at 1", r1)
	}

	r2 := mustJoin(t, m, "p2")
	if !r2.Matched() || r2.SessionID == "" {
		t.Fatalf("p2 = %+v, want matched", r2)
	}
	snap, err := st.Get(context.Background(), r2.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Kind != store.KindHeadToHead || snap.Players[store.SlotA].ID != "p1" || snap.Players[store.SlotB].ID != "p2" {
		t.Fatalf("session players = %+v", snap.Players)
	}

	r3 := mustJoin(t, m, "p3")
	if r3.Matched() || r3.Position != 1 {
		t.Fatalf("p3 = %+v, want waiting at 1", r3)
	}

	// p1 polling finds the session p2 created.
	p, err := m.Poll(context.Background(), "p1")
	if err != nil || !p.Matched() || p.SessionID != r2.SessionID {
		t.Fatalf("Poll(p1) = %+v, %v", p, err)
	}
}

func TestNoSelfMatch(t *testing.T) {
	m, _, _ := newTestMatchmaker(t)
	mustJoin(t, m, "solo")
	r := mustJoin(t, m, "solo")
	if r.Matched() || r.Position != 1 || r.QueueSize != 1 {
		t.Fatalf("rejoin = %+v, want single waiting entry", r)
	}
}

func TestJoinReconnectsToActiveSession(t *testing.T) {
	m, _, _ := newTestMatchmaker(t)
	mustJoin(t, m, "a")
	first := mustJoin(t, m, "b")

	again := mustJoin(t, m, "a")
	if !again.Matched() || again.SessionID != first.SessionID {
		t.Fatalf("reconnect = %+v, want session %s", again, first.SessionID)
	}
}

func TestJoinAfterFinishedSessionRequeues(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestMatchmaker(t)
	mustJoin(t, m, "a")
	r := mustJoin(t, m, "b")
	if _, err := st.RecordGuess(ctx, r.SessionID, "a", "crane"); err != nil {
		t.Fatalf("RecordGuess: %v", err)
	}

	again := mustJoin(t, m, "a")
	if again.Matched() || again.Position != 1 {
		t.Fatalf("join after finished session = %+v, want waiting", again)
	}
}

func TestStaleEntriesArePruned(t *testing.T) {
	m, _, c := newTestMatchmaker(t)
	mustJoin(t, m, "old")

	c.advance(DefaultTTL)
	if r, _ := m.QueueStatus(context.Background(), "old"); r.Position != 1 {
		t.Fatalf("entry at exactly TTL pruned: %+v", r)
	}

	c.advance(time.Second)
	r := mustJoin(t, m, "new")
	if r.Matched() || r.Position != 1 || r.QueueSize != 1 {
		t.Fatalf("new = %+v, stale entry should not be matched", r)
	}
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestMatchmaker(t)
	mustJoin(t, m, "x")
	if err := m.Leave(ctx, "x"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if r, _ := m.QueueStatus(ctx, "x"); r.Position != 0 || r.QueueSize != 0 {
		t.Fatalf("after leave = %+v", r)
	}

	mustJoin(t, m, "y")
	r := mustJoin(t, m, "z")
	if err := m.Leave(ctx, "y"); err != nil {
		t.Fatal(err)
	}
	if p, _ := m.Poll(ctx, "y"); p.Matched() {
		t.Fatalf("binding survived leave: %+v", p)
	}
	if snap, err := st.Get(ctx, r.SessionID); err != nil || snap.Over {
		t.Fatalf("leave must not end the session: %+v, %v", snap, err)
	}

	if err := m.Leave(ctx, ""); !errors.Is(err, ErrMissingParticipant) {
		t.Fatalf("err = %v, want ErrMissingParticipant", err)
	}
}

func TestUnbindOnlyMatchingSession(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMatchmaker(t)
	mustJoin(t, m, "a")
	r := mustJoin(t, m, "b")

	m.Unbind("other", "a", "b")
	if p, _ := m.Poll(ctx, "a"); !p.Matched() {
		t.Fatal("Unbind with a different session id cleared the binding")
	}
	m.Unbind(r.SessionID, "a", "b")
	if p, _ := m.Poll(ctx, "b"); p.Matched() {
		t.Fatal("binding survived Unbind")
	}
}
