package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/deadtown/internal/storage"
)

// ScenarioCatalog lists and loads scenario files.
type ScenarioCatalog interface {
	ScenarioSource
	ListScenarios(ctx context.Context) (map[string]string, error)
}

type ScenarioHandler struct {
	log     *slog.Logger
	catalog ScenarioCatalog
}

func NewScenarioHandler(log *slog.Logger, catalog ScenarioCatalog) *ScenarioHandler {
	return &ScenarioHandler{
		log:     log,
		catalog: catalog,
	}
}

// ServeHTTP handles
// GET /v1/scenarios             - map of scenario name to file name
// GET /v1/scenarios/{filename}  - a single decoded scenario
func (h *ScenarioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenarios"), "/"))
	if filename == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, filename)
}

func (h *ScenarioHandler) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.ListScenarios(r.Context())
	if err != nil {
		h.log.Error("Failed to list scenarios", "error", err)
		http.Error(w, "Failed to list scenarios", http.StatusInternalServerError)
		return
	}
	h.write(w, names)
}

func (h *ScenarioHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	sc, err := h.catalog.GetScenario(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrScenarioNotFound) {
			http.Error(w, "Scenario not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to get scenario", "error", err, "filename", filename)
		http.Error(w, "Failed to retrieve scenario", http.StatusInternalServerError)
		return
	}
	h.write(w, sc)
}

func (h *ScenarioHandler) write(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("Failed to marshal scenario response", "error", err)
		http.Error(w, "Failed to process scenario", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
