package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/deadtown/internal/sessions"
	"github.com/jwebster45206/deadtown/internal/storage"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/inventory"
	"github.com/jwebster45206/deadtown/pkg/scenario"
)

const maxBodyBytes = 1 << 16

type ErrorResponse struct {
	Error string `json:"error"`
}

// ScenarioSource looks up scenario files by name.
type ScenarioSource interface {
	GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error)
}

type CreateGameRequest struct {
	Scenario string `json:"scenario,omitempty"` // file name; empty uses the default scenario
}

type ChooseRequest struct {
	ActionID string `json:"actionId"`
}

// GameResponse is a session snapshot plus whether it came from a live game.
type GameResponse struct {
	game.Snapshot
	Live bool `json:"live"`
}

type GamesHandler struct {
	manager   *sessions.Manager
	scenarios ScenarioSource
	fallback  *scenario.Scenario
	ws        http.Handler
	logger    *slog.Logger
}

func NewGamesHandler(manager *sessions.Manager, scenarios ScenarioSource, fallback *scenario.Scenario, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		manager:   manager,
		scenarios: scenarios,
		fallback:  fallback,
		logger:    logger,
	}
}

// WithWebSocket mounts h at /v1/games/{id}/ws.
// Returns the GamesHandler for method chaining
func (h *GamesHandler) WithWebSocket(ws http.Handler) *GamesHandler {
	h.ws = ws
	return h
}

// ServeHTTP routes game requests
// Routes:
// POST   /v1/games                      - Create and start a game
// GET    /v1/games/{id}                 - Read the game snapshot
// DELETE /v1/games/{id}                 - End a game
// POST   /v1/games/{id}/tick            - Advance one tick {dx, dy, interact}
// POST   /v1/games/{id}/choose          - Relay a dialog choice {actionId}
// POST   /v1/games/{id}/inventory/{i}   - Inspect an inventory slot
// GET    /v1/games/{id}/ws              - WebSocket event relay
func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	gameID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleRead(w, r, gameID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameID)
	case len(parts) == 2 && parts[1] == "tick" && r.Method == http.MethodPost:
		h.handleTick(w, r, gameID)
	case len(parts) == 2 && parts[1] == "choose" && r.Method == http.MethodPost:
		h.handleChoose(w, r, gameID)
	case len(parts) == 3 && parts[1] == "inventory" && r.Method == http.MethodPost:
		h.handleInspect(w, r, gameID, parts[2])
	case len(parts) == 2 && parts[1] == "ws" && h.ws != nil:
		h.ws.ServeHTTP(w, r)
	default:
		h.writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *GamesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	sc := h.fallback
	if req.Scenario != "" {
		loaded, err := h.scenarios.GetScenario(r.Context(), req.Scenario)
		if err != nil {
			if errors.Is(err, storage.ErrScenarioNotFound) {
				h.writeError(w, http.StatusNotFound, "Scenario not found")
				return
			}
			h.logger.Error("Failed to load scenario", "scenario", req.Scenario, "error", err)
			h.writeError(w, http.StatusUnprocessableEntity, "Scenario could not be loaded")
			return
		}
		sc = loaded
	}

	snap, err := h.manager.Create(r.Context(), sc)
	if err != nil {
		h.logger.Error("Failed to create game", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create game")
		return
	}

	h.logger.Info("Game created", "game_id", snap.ID, "scenario", snap.Scenario)
	h.writeJSON(w, http.StatusCreated, GameResponse{Snapshot: snap, Live: true})
}

func (h *GamesHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	snap, live, err := h.manager.Snapshot(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, GameResponse{Snapshot: snap, Live: live})
}

func (h *GamesHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.manager.Remove(r.Context(), id); err != nil {
		h.writeManagerError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GamesHandler) handleTick(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var in game.Input
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	snap, err := h.manager.Do(r.Context(), id, func(s *game.Session) error {
		return s.Tick(in)
	})
	if err != nil {
		h.writeManagerError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, GameResponse{Snapshot: snap, Live: true})
}

func (h *GamesHandler) handleChoose(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChooseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.ActionID == "" {
		h.writeError(w, http.StatusBadRequest, "Request body must contain an actionId")
		return
	}

	snap, err := h.manager.Do(r.Context(), id, func(s *game.Session) error {
		s.Choose(req.ActionID)
		return nil
	})
	if err != nil {
		h.writeManagerError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, GameResponse{Snapshot: snap, Live: true})
}

func (h *GamesHandler) handleInspect(w http.ResponseWriter, r *http.Request, id uuid.UUID, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Inventory index must be an integer")
		return
	}

	snap, err := h.manager.Do(r.Context(), id, func(s *game.Session) error {
		return s.InspectItem(index)
	})
	if err != nil {
		h.writeManagerError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, GameResponse{Snapshot: snap, Live: true})
}

func (h *GamesHandler) writeManagerError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Game not found")
	case errors.Is(err, inventory.ErrIndexOutOfRange):
		h.writeError(w, http.StatusBadRequest, "Inventory index out of range")
	default:
		h.logger.Error("Game request failed", "game_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *GamesHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *GamesHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}
