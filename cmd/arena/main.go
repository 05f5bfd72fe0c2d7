// cmd/arena: batch self-play from the command line.
//
// Usage:
//
//	arena [-models default|premium|a/b,c/d] [-rounds 20] [-out ./results] [-record]
//
// Every model plays the same scheduled targets. The report is printed as a
// ranking and written as JSON under -out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/arena"
	"github.com/robalobadob/wordle/apps/arena-server/internal/config"
	"github.com/robalobadob/wordle/apps/arena-server/internal/llm"
	"github.com/robalobadob/wordle/apps/arena-server/internal/results"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	models := flag.String("models", "default", "preset name or comma separated model ids")
	rounds := flag.Int("rounds", cfg.ArenaRounds, "games per model")
	out := flag.String("out", cfg.ResultsDir, "directory for the JSON report")
	record := flag.Bool("record", false, "also record games in the sqlite database")
	runKey := flag.String("key", "", "schedule key (default: today's date)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
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

	var rec results.ArenaRecorder
	if *record {
		db, err := results.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open db")
		}
		defer db.Close()
		if err := results.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		rec = results.NewSQLite(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	list := llm.ResolveModels(*models)
	runner := arena.NewRunner(lex, llm.NewClient(cfg.SuggestTimeout), rec)
	rep, err := runner.Run(ctx, arena.Config{
		Models:  list,
		Rounds:  *rounds,
		Salt:    cfg.ArenaSalt,
		RunKey:  *runKey,
		Pacing:  cfg.ArenaPacing,
		Timeout: cfg.SuggestTimeout,
	})
	if err != nil && rep == nil {
		log.Fatal().Err(err).Msg("arena run failed")
	}
	if err != nil {
		log.Warn().Err(err).Msg("arena run interrupted; writing partial report")
		rep.Stats = results.Tally(rep.Games)
		rep.Rankings = results.Rank(rep.Stats)
		rep.FinishedAt = time.Now().UTC()
	}

	fmt.Println()
	fmt.Println("Rank  Model                                     Win%   Avg   Err")
	for i, s := range rep.Rankings {
		fmt.Printf("%4d  %-40s %5.1f  %4.2f  %3d\n", i+1, s.Model, s.WinRate, s.AverageGuesses, s.Errors)
	}

	path, err := arena.WriteReport(*out, rep)
	if err != nil {
		log.Fatal().Err(err).Msg("write report")
	}
	log.Info().Str("file", path).Msg("report saved")
}
