package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/arena"
	"github.com/robalobadob/wordle/apps/arena-server/internal/config"
	"github.com/robalobadob/wordle/apps/arena-server/internal/httpserver"
	"github.com/robalobadob/wordle/apps/arena-server/internal/llm"
	"github.com/robalobadob/wordle/apps/arena-server/internal/match"
	"github.com/robalobadob/wordle/apps/arena-server/internal/orchestrator"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	lex, err := words.Load(words.Options{
		AnswersFile: cfg.WordsAnswersFile,
		AllowedFile: cfg.WordsAllowedFile,
		Policy:      cfg.WordsPolicy,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stg, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer stg.Close()

	client := llm.NewClient(cfg.SuggestTimeout)
	mem := store.NewMemoryStore(lex)
	mm := match.New(mem, cfg.QueueTTL)
	orch := orchestrator.New(mem, client, stg.backend, orchestrator.Options{
		Timeout: cfg.SuggestTimeout,
		RPS:     cfg.SuggestRPS,
		Burst:   cfg.SuggestBurst,
	})

	srv := httpserver.New(httpserver.Deps{
		Config:  cfg,
		Lexicon: lex,
		Store:   mem,
		Match:   mm,
		Orch:    orch,
		Arena:   arena.NewRunner(lex, client, stg.backend),
		DB:      stg.db,
		Results: stg.sqlite,
	})

	if cfg.SessionRetention > 0 {
		go sweep(ctx, mem, mm, cfg.SessionRetention, cfg.SweepInterval)
	}

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		a, g := lex.Stats()
		log.Info().Str("port", cfg.Port).Int("answers", a).Int("allowed", g).Msg("starting arena-server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	orch.Close()
}

// sweep evicts finished sessions older than retention and clears their
// matchmaking bindings.
func sweep(ctx context.Context, st store.Store, mm *match.Matchmaker, retention, every time.Duration) {
	if every <= 0 {
		every = retention
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			for _, ev := range st.Sweep(ctx, now.Add(-retention)) {
				mm.Unbind(ev.ID, ev.Participants...)
			}
		}
	}
}
