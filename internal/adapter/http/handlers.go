package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/savegress/hl7forge/internal/mllp"
	"github.com/savegress/hl7forge/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Handlers implements the HTTP surface against a message store.
type Handlers struct {
	store    *store.Store
	stats    *mllp.Stats
	mllpPort int
}

// NewHandlers builds Handlers reading from st, reporting stats from
// mllpStats, and advertising mllpPort on /api/stats.
func NewHandlers(st *store.Store, mllpStats *mllp.Stats, mllpPort int) *Handlers {
	return &Handlers{store: st, stats: mllpStats, mllpPort: mllpPort}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "hl7forge",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ListMessages returns message summaries, newest first, honoring ?offset=
// and ?limit= (capped at maxListLimit).
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := clampLimit(queryInt(r, "limit", defaultListLimit))

	respond(w, http.StatusOK, h.store.List(offset, limit))
}

// GetMessage returns the full message for the {id} path parameter.
func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	msg := h.store.GetByID(id)
	if msg == nil {
		respondError(w, http.StatusNotFound, "message not found")
		return
	}
	respond(w, http.StatusOK, msg)
}

// SearchMessages returns summaries matching ?q=, honoring ?limit=.
func (h *Handlers) SearchMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing required query parameter q")
		return
	}
	limit := clampLimit(queryInt(r, "limit", defaultListLimit))

	respond(w, http.StatusOK, h.store.Search(query, limit))
}

// GetStats reports the store count alongside the connection handler's
// running counters.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()
	respond(w, http.StatusOK, map[string]interface{}{
		"total_messages":     h.store.Count(),
		"received":           snap.Received,
		"parsed_ok":          snap.ParsedOK,
		"parse_errors":       snap.ParseErrors,
		"active_connections": snap.ActiveConnections,
		"mllp_port":          h.mllpPort,
	})
}

// ClearMessages empties the store.
func (h *Handlers) ClearMessages(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	respond(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
