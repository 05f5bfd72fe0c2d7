// internal/httpserver/routes_h2h.go
//
// Head-to-head matchmaking and play:
//   - POST /api/h2h/join                → queue or pair (idempotent)
//   - GET  /api/h2h/match-for/{playerId} → poll for a pairing
//   - GET  /api/h2h/queue?playerId=      → queue position
//   - POST /api/h2h/leave               → leave queue, drop binding
//   - GET  /api/h2h/state/{id}          → both sides, target once over
//   - POST /api/h2h/guess/{id}          → guess for the caller's slot

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/match"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

func (s *Server) mountH2H(r chi.Router) {
	r.Route("/api/h2h", func(r chi.Router) {
		r.Post("/join", s.handleH2HJoin)
		r.Get("/match-for/{playerId}", s.handleH2HPoll)
		r.Get("/queue", s.handleH2HQueue)
		r.Post("/leave", s.handleH2HLeave)
		r.Get("/state/{id}", s.handleH2HState)
		r.Post("/guess/{id}", s.handleH2HGuess)
	})
}

type joinReq struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	PlayerName string `json:"playerName"`
}

func (j joinReq) name() string {
	if j.Name != "" {
		return j.Name
	}
	return j.PlayerName
}

// joinRes carries the session id under both gameId and matchId.
type joinRes struct {
	Status    string `json:"status"`
	GameID    string `json:"gameId,omitempty"`
	MatchID   string `json:"matchId,omitempty"`
	PlayerID  string `json:"playerId"`
	Position  int    `json:"position,omitempty"`
	QueueSize int    `json:"queueSize"`
}

func toJoinRes(res match.Result, pid string) joinRes {
	return joinRes{
		Status:    res.Status,
		GameID:    res.SessionID,
		MatchID:   res.SessionID,
		PlayerID:  pid,
		Position:  res.Position,
		QueueSize: res.QueueSize,
	}
}

// h2hState keys both slots by side ("a", "b").
type h2hState struct {
	ID         string                       `json:"id"`
	Players    map[string]store.Participant `json:"players"`
	Guesses    map[string][]store.Entry     `json:"guesses"`
	Remaining  map[string]int               `json:"guessesRemaining"`
	Over       bool                         `json:"over"`
	WinnerID   string                       `json:"winnerId,omitempty"`
	TargetWord string                       `json:"targetWord,omitempty"`
	CreatedAt  time.Time                    `json:"createdAt"`
	FinishedAt *time.Time                   `json:"finishedAt,omitempty"`
	Version    uint64                       `json:"version"`
}

func toH2HState(snap store.Snapshot) h2hState {
	a, b := snap.Players[store.SlotA], snap.Players[store.SlotB]
	return h2hState{
		ID:         snap.ID,
		Players:    map[string]store.Participant{"a": a.Participant, "b": b.Participant},
		Guesses:    map[string][]store.Entry{"a": a.Guesses, "b": b.Guesses},
		Remaining:  map[string]int{"a": a.Remaining, "b": b.Remaining},
		Over:       snap.Over,
		WinnerID:   snap.WinnerID,
		TargetWord: snap.TargetWord,
		CreatedAt:  snap.CreatedAt,
		FinishedAt: snap.FinishedAt,
		Version:    snap.Version,
	}
}

func (s *Server) handleH2HJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	me := s.participant(w, r, req.PlayerID, req.name())
	res, err := s.Match.Join(r.Context(), me.ID, me.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(toJoinRes(res, me.ID))
}

func (s *Server) handleH2HPoll(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "playerId")
	res, err := s.Match.Poll(r.Context(), pid)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(toJoinRes(res, pid))
}

func (s *Server) handleH2HQueue(w http.ResponseWriter, r *http.Request) {
	pid := strings.TrimSpace(r.URL.Query().Get("playerId"))
	if pid == "" {
		pid = s.participant(w, r, "", "").ID
	}
	res, err := s.Match.QueueStatus(r.Context(), pid)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queued":    res.Position > 0,
		"position":  res.Position,
		"queueSize": res.QueueSize,
	})
}

func (s *Server) handleH2HLeave(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	me := s.participant(w, r, req.PlayerID, "")
	if err := s.Match.Leave(r.Context(), me.ID); err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleH2HState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session(r.Context(), chi.URLParam(r, "id"), store.KindHeadToHead)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(toH2HState(snap))
}

func (s *Server) handleH2HGuess(w http.ResponseWriter, r *http.Request) {
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
	snap, err := s.session(r.Context(), id, store.KindHeadToHead)
	if err != nil {
		writeError(w, err)
		return
	}
	me := s.participant(w, r, req.PlayerID, "")

	out, err := s.Orch.SubmitHuman(r.Context(), id, me.ID, req.Word)
	if err != nil {
		writeError(w, err)
		return
	}
	if out.Finalized {
		s.Match.Unbind(id, snap.Players[store.SlotA].ID, snap.Players[store.SlotB].ID)
		log.Debug().Str("session", id).Msg("head-to-head bindings cleared")
	}
	_ = json.NewEncoder(w).Encode(out)
}
