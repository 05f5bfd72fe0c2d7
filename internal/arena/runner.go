// internal/arena/runner.go
//
// Batch self-play: every model plays the same scheduled targets, one solo
// game per round. Turns are paced through a shared limiter. Each game is
// recorded through the results backend as it finishes.

package arena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/results"
)

var (
	ErrRunning  = errors.New("an arena run is already in progress")
	ErrNoModels = errors.New("no models to run")
)

// Suggester produces a model's next guess from its own history.
type Suggester interface {
	Suggest(ctx context.Context, model string, pc game.PromptContext) (string, error)
}

// Lexicon is what the runner needs from words.Lexicon.
type Lexicon interface {
	game.Lexicon
	Answers() []string
}

// Config describes one run.
type Config struct {
	Models  []string
	Rounds  int
	Salt    string
	RunKey  string        // schedule key; defaults to today's date
	Pacing  time.Duration // delay between turns
	Timeout time.Duration // per suggestion call
}

// Report is the outcome of a run.
type Report struct {
	RunID      string               `json:"runId"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt"`
	Targets    []string             `json:"targets"`
	Stats      []results.ModelStats `json:"stats"`
	Rankings   []results.ModelStats `json:"rankings"`
	Games      []results.ArenaGame  `json:"games"`
}

// Progress is a live view of the current or last run.
type Progress struct {
	Running      bool      `json:"running"`
	RunID        string    `json:"runId,omitempty"`
	Total        int       `json:"total"`
	Completed    int       `json:"completed"`
	CurrentModel string    `json:"currentModel,omitempty"`
	StartedAt    time.Time `json:"startedAt,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Runner plays arena runs. One run at a time.
type Runner struct {
	lex     Lexicon
	suggest Suggester
	rec     results.ArenaRecorder

	mu       sync.Mutex
	progress Progress
	last     *Report
}

// NewRunner builds a runner. rec may be nil.
func NewRunner(lex Lexicon, sg Suggester, rec results.ArenaRecorder) *Runner {
	return &Runner{lex: lex, suggest: sg, rec: rec}
}

// Progress returns a copy of the current progress.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Last returns the most recent finished report, if any.
func (r *Runner) Last() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Start launches a run in the background. It fails fast if one is
// already running.
func (r *Runner) Start(ctx context.Context, cfg Config) (string, error) {
	id, err := r.begin(cfg)
	if err != nil {
		return "", err
	}
	go func() {
		if _, err := r.run(ctx, id, cfg); err != nil {
			log.Warn().Err(err).Str("run", id).Msg("arena run ended early")
		}
	}()
	return id, nil
}

// Run plays a run to completion and returns its report.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	id, err := r.begin(cfg)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, id, cfg)
}

func (r *Runner) begin(cfg Config) (string, error) {
	if len(cfg.Models) == 0 {
		return "", ErrNoModels
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress.Running {
		return "", ErrRunning
	}
	id := uuid.NewString()
	r.progress = Progress{
		Running:   true,
		RunID:     id,
		Total:     len(cfg.Models) * max(cfg.Rounds, 1),
		StartedAt: time.Now().UTC(),
	}
	return id, nil
}

func (r *Runner) run(ctx context.Context, id string, cfg Config) (rep *Report, err error) {
	defer func() {
		r.mu.Lock()
		r.progress.Running = false
		r.progress.CurrentModel = ""
		if err != nil {
			r.progress.Error = err.Error()
		}
		if rep != nil {
			r.last = rep
		}
		r.mu.Unlock()
	}()

	if cfg.Rounds <= 0 {
		cfg.Rounds = 1
	}
	if cfg.RunKey == "" {
		cfg.RunKey = DateKey(time.Now())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.Pacing > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.Pacing), 1)
	}

	answers := r.lex.Answers()
	if len(answers) == 0 {
		return nil, errors.New("empty answer pool")
	}
	rep = &Report{
		RunID:     id,
		StartedAt: time.Now().UTC(),
		Targets:   Schedule(cfg.Salt, cfg.RunKey, answers, cfg.Rounds),
	}
	log.Info().Str("run", id).Int("models", len(cfg.Models)).Int("rounds", cfg.Rounds).Msg("arena run started")

	for _, model := range cfg.Models {
		r.mu.Lock()
		r.progress.CurrentModel = model
		r.mu.Unlock()

		for round, target := range rep.Targets {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			g := r.playGame(ctx, lim, cfg.Timeout, model, target)
			g.RunID, g.Round = id, round+1
			rep.Games = append(rep.Games, g)

			if r.rec != nil {
				if err := r.rec.RecordArenaGame(ctx, g); err != nil {
					log.Warn().Err(err).Str("run", id).Str("model", model).Msg("record arena game")
				}
			}
			r.mu.Lock()
			r.progress.Completed++
			r.mu.Unlock()
		}

		st, _ := lo.Find(results.Tally(rep.Games), func(s results.ModelStats) bool { return s.Model == model })
		log.Info().Str("model", model).Float64("winRate", st.WinRate).
			Float64("avgGuesses", st.AverageGuesses).Int("errors", st.Errors).Msg("model finished")
	}

	rep.Stats = results.Tally(rep.Games)
	rep.Rankings = results.Rank(rep.Stats)
	rep.FinishedAt = time.Now().UTC()
	return rep, nil
}

// playGame plays one solo game. The first failed call or rejected guess
// ends the game with an error.
func (r *Runner) playGame(ctx context.Context, lim *rate.Limiter, timeout time.Duration, model, target string) (g results.ArenaGame) {
	e := game.New(r.lex, target)
	g = results.ArenaGame{Model: model, TargetWord: e.Target()}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("model", model).Msg("arena game panicked")
			g.Error = fmt.Sprintf("Game Error: %v", rec)
		}
		g.History = e.State().Guesses
		g.Guesses = len(g.History)
		g.PlayedAt = time.Now().UTC()
	}()

	for !e.Over() {
		if err := lim.Wait(ctx); err != nil {
			g.Error = "API Error: " + err.Error()
			return g
		}
		st := e.State()
		cctx, cancel := context.WithTimeout(ctx, timeout)
		word, err := r.suggest.Suggest(cctx, model, game.PromptContext{
			PriorGuesses:     st.Guesses,
			GuessesRemaining: st.GuessesRemaining,
		})
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("model", model).Int("attempt", len(st.Guesses)+1).Msg("arena suggest failed")
			g.Error = "API Error: " + err.Error()
			return g
		}
		out, err := e.Submit(word)
		if err != nil {
			log.Warn().Err(err).Str("model", model).Str("guess", word).Msg("arena guess rejected")
			g.Error = err.Error()
			return g
		}
		if out.GameOver {
			g.Won = out.Won
		}
	}
	return g
}
