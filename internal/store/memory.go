// internal/store/memory.go
//
// In-memory session store.
//
// Characteristics:
//   - Sessions keyed by a monotonically assigned id ("1", "2", ...).
//   - Each slot owns a game.Engine built on the shared target.
//   - All mutations run under one mutex, so the first matching commit wins
//     and a finalized session can never be reopened.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

// Store defines the session registry used by the matchmaker, the turn
// orchestrator and the HTTP layer.
type Store interface {
	// Create registers a new session and returns its initial snapshot.
	Create(ctx context.Context, p CreateParams) (Snapshot, error)

	// Get returns a snapshot of the session.
	Get(ctx context.Context, id string) (Snapshot, error)

	// RecordGuess submits a word on behalf of a human participant.
	// Validation failures are returned and leave the session untouched.
	RecordGuess(ctx context.Context, id, participantID, word string) (GuessOutcome, error)

	// RecordAutomated commits the result of an automated turn for slot.
	// A non-nil suggestErr, or a word that fails validation, is recorded
	// as an error entry. After finalization the entry is still recorded
	// (marked late) but cannot change the result.
	RecordAutomated(ctx context.Context, id string, slot int, word string, suggestErr error) (GuessOutcome, error)

	// Turn returns the prompt context for slot: its own guesses only.
	Turn(ctx context.Context, id string, slot int) (Turn, error)

	// Watch returns a channel that receives a signal after every change.
	// Signals coalesce; call cancel to stop watching.
	Watch(ctx context.Context, id string) (<-chan struct{}, func(), error)

	// Sweep drops finished sessions that ended before cutoff.
	Sweep(ctx context.Context, cutoff time.Time) []Evicted

	// Len reports how many sessions are held.
	Len() int
}

type slot struct {
	p       Participant
	engine  *game.Engine
	entries []Entry
}

func (s *slot) exhausted() bool {
	return len(s.entries) >= game.MaxGuesses || s.engine.Over()
}

func (s *slot) remaining() int {
	return max(game.MaxGuesses-len(s.entries), 0)
}

type record struct {
	id         string
	kind       Kind
	model      string
	target     string
	slots      [2]*slot
	over       bool
	winnerID   string
	createdAt  time.Time
	finishedAt time.Time
	version    uint64
	watchers   map[int]chan struct{}
	nextWatch  int
}

// memory is the map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	lex      game.Lexicon
	sessions map[string]*record
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore constructs an empty store. Ids start at 1.
func NewMemoryStore(lex game.Lexicon) Store {
	return &memory{
		lex:      lex,
		sessions: make(map[string]*record),
		nextID:   1,
		now:      time.Now,
	}
}

func (m *memory) Create(ctx context.Context, p CreateParams) (Snapshot, error) {
	if p.Participants[SlotA].ID == "" || p.Participants[SlotB].ID == "" {
		return Snapshot{}, ErrMissingTwoPlayer
	}
	target := strings.ToUpper(strings.TrimSpace(p.Target))
	if target == "" {
		target = m.lex.SampleTargetWord()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := strconv.FormatInt(m.nextID, 10)
	m.nextID++
	rec := &record{
		id:        id,
		kind:      p.Kind,
		model:     p.Model,
		target:    target,
		createdAt: m.now().UTC(),
		watchers:  make(map[int]chan struct{}),
	}
	for i, part := range p.Participants {
		rec.slots[i] = &slot{p: part, engine: game.New(m.lex, target), entries: []Entry{}}
	}
	m.sessions[id] = rec

	log.Info().Str("session", id).Str("kind", string(p.Kind)).
		Str("a", p.Participants[SlotA].ID).Str("b", p.Participants[SlotB].ID).
		Msg("session created")
	return rec.snapshot(), nil
}

func (m *memory) Get(ctx context.Context, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return rec.snapshot(), nil
}

func (m *memory) RecordGuess(ctx context.Context, id, participantID, word string) (GuessOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[id]
	if !ok {
		return GuessOutcome{}, ErrNotFound
	}
	idx := rec.slotOf(participantID)
	if idx < 0 {
		return GuessOutcome{}, ErrNotAParticipant
	}
	s := rec.slots[idx]
	if rec.over || s.exhausted() {
		return GuessOutcome{}, game.ErrAlreadyOver
	}

	out, err := s.engine.Submit(word)
	if err != nil {
		return GuessOutcome{}, err
	}
	fb := out.Feedback
	entry := Entry{Word: out.Word, Feedback: &fb, At: m.now().UTC()}
	s.entries = append(s.entries, entry)

	return m.commit(rec, idx, entry, out.Won), nil
}

func (m *memory) RecordAutomated(ctx context.Context, id string, idx int, word string, suggestErr error) (GuessOutcome, error) {
	if idx != SlotA && idx != SlotB {
		return GuessOutcome{}, ErrInvalidSlot
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[id]
	if !ok {
		return GuessOutcome{}, ErrNotFound
	}
	s := rec.slots[idx]
	late := rec.over
	entry := Entry{At: m.now().UTC(), Late: late}
	won := false

	switch {
	case suggestErr != nil:
		entry.Error = suggestErr.Error()
	case s.exhausted():
		entry.Word = strings.ToUpper(strings.TrimSpace(word))
		entry.Error = "no guesses remaining"
	default:
		out, err := s.engine.Submit(word)
		if err != nil {
			entry.Word = strings.ToUpper(strings.TrimSpace(word))
			entry.Error = err.Error()
			break
		}
		fb := out.Feedback
		entry.Word, entry.Feedback = out.Word, &fb
		won = out.Won
	}
	s.entries = append(s.entries, entry)

	if late {
		log.Debug().Str("session", id).Int("slot", idx).Msg("late automated entry recorded")
	}
	return m.commit(rec, idx, entry, won), nil
}

// commit settles session-level termination after an entry was appended,
// bumps the version and wakes watchers. Must be called with m.mu held.
func (m *memory) commit(rec *record, idx int, entry Entry, won bool) GuessOutcome {
	s := rec.slots[idx]
	finalized := false
	if !rec.over {
		switch {
		case won:
			rec.over, rec.winnerID = true, s.p.ID
		case rec.slots[SlotA].exhausted() && rec.slots[SlotB].exhausted():
			rec.over = true
		}
		if rec.over {
			finalized = true
			rec.finishedAt = m.now().UTC()
			log.Info().Str("session", rec.id).Str("winner", rec.winnerID).Msg("session finalized")
		}
	}
	rec.version++
	rec.notify()

	out := GuessOutcome{
		Slot:        idx,
		Entry:       entry,
		GuessNumber: len(s.entries),
		Remaining:   s.remaining(),
		Over:        rec.over,
		WinnerID:    rec.winnerID,
		Finalized:   finalized,
	}
	if rec.over {
		out.TargetWord = rec.target
	}
	if finalized {
		snap := rec.snapshot()
		out.Snapshot = &snap
	}
	return out
}

func (m *memory) Turn(ctx context.Context, id string, idx int) (Turn, error) {
	if idx != SlotA && idx != SlotB {
		return Turn{}, ErrInvalidSlot
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return Turn{}, ErrNotFound
	}
	s := rec.slots[idx]
	own := lo.FilterMap(s.entries, func(e Entry, _ int) (game.Guess, bool) {
		if e.Feedback == nil || e.Error != "" {
			return game.Guess{}, false
		}
		return game.Guess{Word: e.Word, Feedback: *e.Feedback}, true
	})
	return Turn{
		Context: game.PromptContext{PriorGuesses: own, GuessesRemaining: s.remaining()},
		Open:    !rec.over && !s.exhausted(),
	}, nil
}

func (m *memory) Watch(ctx context.Context, id string) (<-chan struct{}, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	key := rec.nextWatch
	rec.nextWatch++
	ch := make(chan struct{}, 1)
	rec.watchers[key] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(rec.watchers, key)
			m.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) []Evicted {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Evicted
	for id, rec := range m.sessions {
		if !rec.over || !rec.finishedAt.Before(cutoff) {
			continue
		}
		out = append(out, Evicted{
			ID: id,
			Participants: lo.FilterMap(rec.slots[:], func(s *slot, _ int) (string, bool) {
				return s.p.ID, !s.p.Automated
			}),
		})
		delete(m.sessions, id)
	}
	if len(out) > 0 {
		log.Info().Int("count", len(out)).Msg("swept finished sessions")
	}
	return out
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (r *record) slotOf(participantID string) int {
	for i, s := range r.slots {
		if s.p.ID == participantID && !s.p.Automated {
			return i
		}
	}
	return -1
}

// notify wakes every watcher without blocking.
func (r *record) notify() {
	for _, ch := range r.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (r *record) snapshot() Snapshot {
	snap := Snapshot{
		ID:        r.id,
		Kind:      r.kind,
		Model:     r.model,
		Over:      r.over,
		WinnerID:  r.winnerID,
		CreatedAt: r.createdAt,
		Version:   r.version,
	}
	for i, s := range r.slots {
		snap.Players[i] = SlotView{
			Participant: s.p,
			Guesses:     append([]Entry(nil), s.entries...),
			Remaining:   s.remaining(),
		}
	}
	if r.over {
		snap.TargetWord = r.target
		fin := r.finishedAt
		snap.FinishedAt = &fin
	}
	return snap
}
