/*
Package api
File: handlers.go
Description:
    HTTP handlers for the REST API. Handlers never touch a game directly:
    they look the session up in the manager and send it a request, which
    the session's runner answers between frames.

    Key Responsibilities:
    - Input validation (is the JSON valid? does the session exist?)
    - Mapping runner errors to status codes
    - JSON responses through writeJSON / writeError
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/protocol"
	"github.com/everforgeworks/pizza-copter/internal/session"
)

// requestTimeout bounds how long a handler waits on a session runner.
const requestTimeout = 5 * time.Second

// Handler carries the dependencies shared by every endpoint.
type Handler struct {
	Sessions *session.Manager
	Configs  session.ConfigSource
	Lobby    *Hub
}

// Response DTOs.

type TuningResponse struct {
	Tuning game.Tuning    `json:"tuning"`
	Map    game.MapConfig `json:"map"`
}

type AcceptResponse struct {
	Accepted bool `json:"accepted"`
}

type PauseResponse struct {
	Paused  bool `json:"paused"`
	Changed bool `json:"changed"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeRunnerError maps a failed runner request to a status code.
func writeRunnerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrStopped):
		writeError(w, r, http.StatusGone, "session has ended")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, r, http.StatusServiceUnavailable, "session did not respond")
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

// runner resolves the {id} URL parameter, writing a 404 when it is unknown.
func (h *Handler) runner(w http.ResponseWriter, r *http.Request) (*session.Runner, bool) {
	sr, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sr, true
}

// decodeOptional decodes a JSON body into v; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v any) (bool, error) {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	return err == nil, err
}

// Health provides a minimal liveness check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.Sessions.Len(),
	})
}

// Catalog returns the orders new sessions will be offered.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Configs.Current().Catalog())
}

func (h *Handler) Tuning(w http.ResponseWriter, r *http.Request) {
	cfg := h.Configs.Current()
	writeJSON(w, r, http.StatusOK, TuningResponse{Tuning: cfg.Tuning, Map: cfg.Map})
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Sessions.List())
}

// CreateSession starts a new game from the current configuration.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sr, err := h.Sessions.Create()
	if err != nil {
		log.Printf("create session failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "could not create session")
		return
	}
	h.Lobby.Publish(protocol.Lobby{Sessions: h.Sessions.List()})
	writeJSON(w, r, http.StatusCreated, sr.Info())
}

// GetSession returns the full status: HUD snapshot plus map markers.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.runner(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	st, err := sr.Status(ctx)
	if err != nil {
		writeRunnerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

// DeleteSession ends the game as lost and closes its sockets.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	h.Lobby.Publish(protocol.Lobby{Sessions: h.Sessions.List()})
	w.WriteHeader(http.StatusNoContent)
}

// Tap attempts a pickup or delivery where the helicopter is. The optional
// body {lat, lng} names the tapped point, which must fall in the same zone;
// without it the tap lands on the helicopter.
func (h *Handler) Tap(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.runner(w, r)
	if !ok {
		return
	}
	var at game.Coordinate
	found, err := decodeOptional(r, &at)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid tap body")
		return
	}
	var target *game.Coordinate
	if found {
		target = &at
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := sr.Tap(ctx, target)
	if err != nil {
		writeRunnerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, protocol.TapResult{Result: res})
}

// Accept answers the ringing phone.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.runner(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	accepted, err := sr.Accept(ctx)
	if err != nil {
		writeRunnerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, AcceptResponse{Accepted: accepted})
}

// Pause freezes or resumes the helicopter. Body: {"paused": bool}.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.runner(w, r)
	if !ok {
		return
	}
	var req protocol.Pause
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid pause body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	changed, err := sr.SetPaused(ctx, req.Paused)
	if err != nil {
		writeRunnerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, PauseResponse{Paused: req.Paused, Changed: changed})
}
