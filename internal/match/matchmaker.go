// internal/match/matchmaker.go
//
// FIFO matchmaking for head-to-head play.
//
// Two waiting participants become a shared session with one fresh target.
// Queue entries expire after a TTL. A participant index maps each player to
// the session they are bound to so clients can reconnect or poll without
// re-queueing.
//
// Every public method runs under a single mutex; the queue and the index
// are never observed half-updated.

package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

// DefaultTTL is how long a queue entry stays eligible.
const DefaultTTL = 10 * time.Minute

var ErrMissingParticipant = errors.New("participant id is required")

// Sessions is the slice of the session store the matchmaker needs.
type Sessions interface {
	Create(ctx context.Context, p store.CreateParams) (store.Snapshot, error)
	Get(ctx context.Context, id string) (store.Snapshot, error)
}

// Status values reported to callers.
const (
	StatusMatched = "matched"
	StatusWaiting = "waiting"
)

// Result is returned by Join and Poll. Position is 1-based and only set
// while waiting.
type Result struct {
	Status    string `json:"status"`
	SessionID string `json:"gameId,omitempty"`
	Position  int    `json:"position,omitempty"`
	QueueSize int    `json:"queueSize"`
}

// Matched reports whether the caller is bound to a session.
func (r Result) Matched() bool { return r.Status == StatusMatched }

type entry struct {
	id       string
	name     string
	joinedAt time.Time
}

// Matchmaker pairs waiting participants in arrival order.
type Matchmaker struct {
	mu       sync.Mutex
	sessions Sessions
	ttl      time.Duration
	now      func() time.Time

	queue    []entry
	bindings map[string]string
}

// New returns an empty matchmaker. A non-positive ttl uses DefaultTTL.
func New(sessions Sessions, ttl time.Duration) *Matchmaker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Matchmaker{
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		bindings: make(map[string]string),
	}
}

// Join enqueues the participant or pairs them with the oldest other
// waiting participant.
func (m *Matchmaker) Join(ctx context.Context, participantID, name string) (Result, error) {
	if participantID == "" {
		return Result{}, ErrMissingParticipant
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune()

	// Idempotent reconnect.
	if sid, ok := m.bindings[participantID]; ok {
		snap, err := m.sessions.Get(ctx, sid)
		if err == nil && !snap.Over {
			return Result{Status: StatusMatched, SessionID: sid, QueueSize: len(m.queue)}, nil
		}
		delete(m.bindings, participantID)
	}

	if opp, ok := lo.Find(m.queue, func(e entry) bool { return e.id != participantID }); ok {
		snap, err := m.sessions.Create(ctx, store.CreateParams{
			Kind: store.KindHeadToHead,
			Participants: [2]store.Participant{
				{ID: opp.id, Name: opp.name},
				{ID: participantID, Name: name},
			},
		})
		if err != nil {
			return Result{}, err
		}
		// Pop the opponent and any stale entry of the caller.
		m.queue = lo.Reject(m.queue, func(e entry, _ int) bool {
			return e.id == opp.id || e.id == participantID
		})
		m.bindings[opp.id] = snap.ID
		m.bindings[participantID] = snap.ID

		log.Info().Str("session", snap.ID).Str("a", opp.id).Str("b", participantID).Msg("match made")
		return Result{Status: StatusMatched, SessionID: snap.ID, QueueSize: len(m.queue)}, nil
	}

	pos := m.position(participantID)
	if pos == 0 {
		m.queue = append(m.queue, entry{id: participantID, name: name, joinedAt: m.now()})
		pos = len(m.queue)
		log.Debug().Str("player", participantID).Int("position", pos).Msg("queued")
	}
	return Result{Status: StatusWaiting, Position: pos, QueueSize: len(m.queue)}, nil
}

// Poll reports whether the participant has been bound to a session. It
// never queues or pairs.
func (m *Matchmaker) Poll(ctx context.Context, participantID string) (Result, error) {
	if participantID == "" {
		return Result{}, ErrMissingParticipant
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune()

	if sid, ok := m.bindings[participantID]; ok {
		if _, err := m.sessions.Get(ctx, sid); err == nil {
			return Result{Status: StatusMatched, SessionID: sid, QueueSize: len(m.queue)}, nil
		}
		delete(m.bindings, participantID)
	}
	return Result{Status: StatusWaiting, Position: m.position(participantID), QueueSize: len(m.queue)}, nil
}

// QueueStatus reports the participant's queue position (0 when absent).
func (m *Matchmaker) QueueStatus(ctx context.Context, participantID string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune()
	return Result{Status: StatusWaiting, Position: m.position(participantID), QueueSize: len(m.queue)}, nil
}

// Leave drops the participant from the queue and clears their binding.
// A session in progress keeps running.
func (m *Matchmaker) Leave(ctx context.Context, participantID string) error {
	if participantID == "" {
		return ErrMissingParticipant
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = lo.Reject(m.queue, func(e entry, _ int) bool { return e.id == participantID })
	delete(m.bindings, participantID)
	return nil
}

// Unbind clears bindings that point at sessionID, for the given
// participants. Used when sessions end or are evicted.
func (m *Matchmaker) Unbind(sessionID string, participantIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range participantIDs {
		if m.bindings[id] == sessionID {
			delete(m.bindings, id)
		}
	}
}

// prune drops entries older than the TTL. Caller holds the lock.
func (m *Matchmaker) prune() {
	cutoff := m.now().Add(-m.ttl)
	before := len(m.queue)
	m.queue = lo.Filter(m.queue, func(e entry, _ int) bool { return !e.joinedAt.Before(cutoff) })
	if n := before - len(m.queue); n > 0 {
		log.Debug().Int("count", n).Msg("pruned stale queue entries")
	}
}

// position returns the 1-based queue position, or 0.
func (m *Matchmaker) position(participantID string) int {
	_, idx, ok := lo.FindIndexOf(m.queue, func(e entry) bool { return e.id == participantID })
	if !ok {
		return 0
	}
	return idx + 1
}
