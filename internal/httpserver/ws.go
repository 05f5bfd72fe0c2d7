// internal/httpserver/ws.go
//
// GET /api/sessions/{id}/ws streams the session snapshot as JSON: once on
// connect and again after every change. The stream closes after the final
// snapshot is sent. Incoming messages are ignored.

package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == s.Config.ClientOrigin || !s.Config.Production
		},
	}
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	changes, stop, err := s.Store.Watch(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer stop()

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	// Reader: only to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	var sent uint64
	first := true
	for {
		snap, err := s.Store.Get(ctx, id)
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session gone"), time.Now().Add(wsWriteWait))
			return
		}
		if first || snap.Version != sent {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
			first, sent = false, snap.Version
		}
		if snap.Over {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session over"), time.Now().Add(wsWriteWait))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-changes:
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
