// internal/httpserver/routes_arena.go
//
// Model-vs-target arena:
//   - POST /api/arena/start → start a background run (409 while one runs)
//   - GET  /api/progress    → live progress of the current or last run
//   - GET  /api/leaderboard → ranked per-model stats from stored games

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/wordle/apps/arena-server/internal/arena"
	"github.com/robalobadob/wordle/apps/arena-server/internal/llm"
	"github.com/robalobadob/wordle/apps/arena-server/internal/results"
)

func (s *Server) mountArena(r chi.Router) {
	r.Post("/api/arena/start", s.handleArenaStart)
	r.Get("/api/progress", s.handleProgress)
	r.Get("/api/leaderboard", s.handleLeaderboard)
}

type arenaStartReq struct {
	Models []string `json:"models"`
	Preset string   `json:"preset"`
	Rounds int      `json:"rounds"`
}

func (s *Server) handleArenaStart(w http.ResponseWriter, r *http.Request) {
	var req arenaStartReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	models := req.Models
	if len(models) == 0 {
		models = s.Config.ArenaModels
	}
	if len(models) == 0 || req.Preset != "" {
		models = llm.ResolveModels(req.Preset)
	}
	rounds := req.Rounds
	if rounds <= 0 {
		rounds = s.Config.ArenaRounds
	}

	// The run outlives this request.
	id, err := s.Arena.Start(context.WithoutCancel(r.Context()), arena.Config{
		Models:  models,
		Rounds:  rounds,
		Salt:    s.Config.ArenaSalt,
		Pacing:  s.Config.ArenaPacing,
		Timeout: s.Config.SuggestTimeout,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"runId": id, "models": models, "rounds": rounds})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.Arena.Progress())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	var rankings []results.ModelStats
	switch {
	case s.Results != nil:
		list, err := s.Results.Leaderboard(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		rankings = list
	case s.Arena.Last() != nil:
		rankings = s.Arena.Last().Rankings
	}
	if len(rankings) == 0 {
		http.Error(w, `{"error":"No results available"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"rankings":    rankings,
		"generatedAt": time.Now().UTC(),
	})
}
