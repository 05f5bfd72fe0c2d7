// internal/orchestrator/orchestrator.go
//
// Turn orchestration for human vs model sessions.
//
// Each session gets one worker goroutine. Every accepted human guess drops
// a token on the worker's channel; the worker answers with exactly one
// automated turn per token, so no two automated turns for a session ever
// overlap. Human requests never wait on the worker.
//
// Automated results go through store.RecordAutomated, which owns the
// finalization latch. Whichever commit ends a session hands the final
// snapshot to the results sink in the background.

package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

// Suggester produces an automated participant's next guess from its own
// history only.
type Suggester interface {
	Suggest(ctx context.Context, model string, pc game.PromptContext) (string, error)
}

// Sink receives every finished session exactly once.
type Sink interface {
	Persist(ctx context.Context, snap store.Snapshot) error
}

// Options tune the automated side.
type Options struct {
	// Timeout bounds a single suggestion call.
	Timeout time.Duration
	// RPS and Burst shape calls to the suggester across all sessions.
	// RPS <= 0 disables pacing.
	RPS   float64
	Burst int
	// PersistTimeout bounds a single sink write.
	PersistTimeout time.Duration
}

// DefaultOptions mirrors the server's config defaults.
func DefaultOptions() Options {
	return Options{Timeout: 45 * time.Second, RPS: 10, Burst: 1, PersistTimeout: 10 * time.Second}
}

type worker struct {
	sessionID string
	model     string
	slot      int
	tokens    chan struct{}
}

// Orchestrator wires the session store to a suggester and a results sink.
type Orchestrator struct {
	store   store.Store
	suggest Suggester
	sink    Sink
	opts    Options
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	workers map[string]*worker
}

// New builds an orchestrator. sink may be nil.
func New(st store.Store, sg Suggester, sink Sink, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultOptions().PersistTimeout
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.RPS), max(opts.Burst, 1))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:   st,
		suggest: sg,
		sink:    sink,
		opts:    opts,
		limiter: lim,
		ctx:     ctx,
		cancel:  cancel,
		workers: make(map[string]*worker),
	}
}

// Limiter exposes the shared pacing limiter so batch runs can share it.
func (o *Orchestrator) Limiter() *rate.Limiter { return o.limiter }

// Start creates a human vs model session and its worker. An empty target
// is sampled.
func (o *Orchestrator) Start(ctx context.Context, human store.Participant, model, target string) (store.Snapshot, error) {
	snap, err := o.store.Create(ctx, store.CreateParams{
		Kind:  store.KindVersusModel,
		Model: model,
		Participants: [2]store.Participant{
			human,
			{ID: "model:" + model, Name: model, Automated: true},
		},
		Target: target,
	})
	if err != nil {
		return store.Snapshot{}, err
	}

	w := &worker{
		sessionID: snap.ID,
		model:     model,
		slot:      store.SlotB,
		tokens:    make(chan struct{}, game.MaxGuesses),
	}
	o.mu.Lock()
	o.workers[snap.ID] = w
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(w)
	return snap, nil
}

// SubmitHuman records a human guess. In a session with an automated
// opponent it also schedules the opponent's reply; the reply is skipped
// if this guess ended the session. It returns as soon as the human's
// guess is committed.
func (o *Orchestrator) SubmitHuman(ctx context.Context, sessionID, participantID, word string) (store.GuessOutcome, error) {
	out, err := o.store.RecordGuess(ctx, sessionID, participantID, word)
	if err != nil {
		return out, err
	}
	if out.Finalized {
		o.finalize(out.Snapshot)
	}

	// A token after finalization only wakes the worker so it can exit.
	o.mu.Lock()
	w := o.workers[sessionID]
	o.mu.Unlock()
	if w != nil {
		select {
		case w.tokens <- struct{}{}:
		default:
			log.Warn().Str("session", sessionID).Msg("automated turn queue full")
		}
	}
	return out, nil
}

// Wait blocks until every worker and pending sink write has finished.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// Close stops all workers and waits for them. In-flight suggestion calls
// are cancelled.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// Active reports how many sessions still have a worker.
func (o *Orchestrator) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.workers)
}

func (o *Orchestrator) run(w *worker) {
	defer o.wg.Done()
	defer func() {
		o.mu.Lock()
		delete(o.workers, w.sessionID)
		o.mu.Unlock()
	}()

	for {
		select {
		case <-w.tokens:
		case <-o.ctx.Done():
			return
		}

		for {
			if !o.takeTurn(w) {
				return
			}
			// Once the human has nothing left to play, the model keeps
			// going on its own until the session ends.
			snap, err := o.store.Get(o.ctx, w.sessionID)
			if err != nil || snap.Over {
				return
			}
			if snap.Players[store.SlotA].Remaining > 0 {
				break
			}
		}
	}
}

// takeTurn plays one automated turn. It reports whether the slot can
// still play.
func (o *Orchestrator) takeTurn(w *worker) bool {
	turn, err := o.store.Turn(o.ctx, w.sessionID, w.slot)
	if err != nil || !turn.Open {
		return false
	}
	if err := o.limiter.Wait(o.ctx); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(o.ctx, o.opts.Timeout)
	word, serr := o.safeSuggest(ctx, w.model, turn.Context)
	cancel()
	if serr != nil {
		log.Warn().Err(serr).Str("session", w.sessionID).Str("model", w.model).Msg("automated turn failed")
	}

	out, err := o.store.RecordAutomated(o.ctx, w.sessionID, w.slot, word, serr)
	if err != nil {
		log.Error().Err(err).Str("session", w.sessionID).Msg("record automated turn")
		return false
	}
	if out.Finalized {
		o.finalize(out.Snapshot)
	}
	return !out.Over && out.Remaining > 0
}

// safeSuggest turns a panic in the suggester into an ordinary error.
func (o *Orchestrator) safeSuggest(ctx context.Context, model string, pc game.PromptContext) (word string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("model", model).Msg("suggester panicked")
			word, err = "", fmt.Errorf("internal error: %v", r)
		}
	}()
	return o.suggest.Suggest(ctx, model, pc)
}

// finalize hands the final snapshot to the sink without blocking the
// caller. Failures are logged and dropped.
func (o *Orchestrator) finalize(snap *store.Snapshot) {
	if snap == nil || o.sink == nil {
		return
	}
	s := *snap
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.opts.PersistTimeout)
		defer cancel()
		if err := o.sink.Persist(ctx, s); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("persist session failed")
			return
		}
		log.Debug().Str("session", s.ID).Msg("session persisted")
	}()
}
