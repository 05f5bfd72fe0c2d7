// internal/httpserver/routes_pvp.go
//
// Human vs model sessions:
//   - POST /api/pvp/start      → create a session and its model worker
//   - GET  /api/pvp/state/{id} → both histories, target once over
//   - POST /api/pvp/guess/{id} → human guess; the model answers in the background
//   - GET  /api/pvp/games      → finished sessions, newest first
//
// The guess response never waits for the model. Its reply shows up on a
// later state poll (or on the websocket stream).

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/wordle/apps/arena-server/internal/results"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

func (s *Server) mountPvP(r chi.Router) {
	r.Route("/api/pvp", func(r chi.Router) {
		r.Post("/start", s.handlePvPStart)
		r.Get("/state/{id}", s.handlePvPState)
		r.Post("/guess/{id}", s.handlePvPGuess)
		r.Get("/games", s.handlePvPGames)
	})
}

type pvpStartReq struct {
	Model      string `json:"model"`
	TargetWord string `json:"targetWord"` // optional fixed target (testing)
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
}

type pvpStartRes struct {
	ID               string    `json:"id"`
	Model            string    `json:"model"`
	PlayerID         string    `json:"playerId"`
	GuessesRemaining int       `json:"guessesRemaining"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (s *Server) handlePvPStart(w http.ResponseWriter, r *http.Request) {
	var req pvpStartReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.Config.DefaultModel
	}
	human := s.participant(w, r, req.PlayerID, req.Name)

	snap, err := s.Orch.Start(r.Context(), human, model, req.TargetWord)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(pvpStartRes{
		ID:               snap.ID,
		Model:            snap.Model,
		PlayerID:         human.ID,
		GuessesRemaining: snap.Players[store.SlotA].Remaining,
		CreatedAt:        snap.CreatedAt,
	})
}

// pvpState is the human vs model view of a snapshot.
type pvpState struct {
	ID                  string        `json:"id"`
	Model               string        `json:"model"`
	PlayerID            string        `json:"playerId"`
	CreatedAt           time.Time     `json:"createdAt"`
	HumanGuesses        []store.Entry `json:"humanGuesses"`
	LLMGuesses          []store.Entry `json:"llmGuesses"`
	Over                bool          `json:"over"`
	WonBy               string        `json:"wonBy,omitempty"` // human | llm | none
	GuessesRemaining    int           `json:"guessesRemaining"`
	LLMGuessesRemaining int           `json:"llmGuessesRemaining"`
	TargetWord          string        `json:"targetWord,omitempty"`
	Version             uint64        `json:"version"`
}

func wonBy(snap store.Snapshot) string {
	switch {
	case !snap.Over:
		return ""
	case snap.Draw():
		return "none"
	case snap.WinnerID == snap.Players[store.SlotA].ID:
		return "human"
	default:
		return "llm"
	}
}

func toPvPState(snap store.Snapshot) pvpState {
	a, b := snap.Players[store.SlotA], snap.Players[store.SlotB]
	return pvpState{
		ID:                  snap.ID,
		Model:               snap.Model,
		PlayerID:            a.ID,
		CreatedAt:           snap.CreatedAt,
		HumanGuesses:        a.Guesses,
		LLMGuesses:          b.Guesses,
		Over:                snap.Over,
		WonBy:               wonBy(snap),
		GuessesRemaining:    a.Remaining,
		LLMGuessesRemaining: b.Remaining,
		TargetWord:          snap.TargetWord,
		Version:             snap.Version,
	}
}

// session loads id and checks it is of kind k.
func (s *Server) session(ctx context.Context, id string, k store.Kind) (store.Snapshot, error) {
	snap, err := s.Store.Get(ctx, id)
	if err != nil {
		return snap, err
	}
	if snap.Kind != k {
		return store.Snapshot{}, store.ErrNotFound
	}
	return snap, nil
}

func (s *Server) handlePvPState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session(r.Context(), chi.URLParam(r, "id"), store.KindVersusModel)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(toPvPState(snap))
}

type guessReq struct {
	Word     string `json:"word"`
	PlayerID string `json:"playerId"`
}

type pvpGuessRes struct {
	Human store.GuessOutcome `json:"human"`
	LLM   *store.Entry       `json:"llm"` // always null; the model answers asynchronously
	Over  bool               `json:"over"`
	WonBy string             `json:"wonBy,omitempty"`
}

func (s *Server) handlePvPGuess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req guessReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Word) == "" {
		writeError(w, errMissingField)
		return
	}
	if _, err := s.session(r.Context(), id, store.KindVersusModel); err != nil {
		writeError(w, err)
		return
	}
	me := s.participant(w, r, req.PlayerID, "")

	out, err := s.Orch.SubmitHuman(r.Context(), id, me.ID, req.Word)
	if err != nil {
		writeError(w, err)
		return
	}
	res := pvpGuessRes{Human: out, Over: out.Over}
	if out.Over {
		if snap, err := s.Store.Get(r.Context(), id); err == nil {
			res.WonBy = wonBy(snap)
		}
	}
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handlePvPGames(w http.ResponseWriter, r *http.Request) {
	games := []results.SessionSummary{}
	if s.Results != nil {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := s.Results.History(r.Context(), r.URL.Query().Get("playerId"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		games = list
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"games": games})
}
