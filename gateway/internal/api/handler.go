package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/meshgate/meshgate/gateway/internal/ingest"
	"github.com/meshgate/meshgate/gateway/internal/ledger"
	"github.com/meshgate/meshgate/gateway/internal/state"
	"github.com/meshgate/meshgate/pkg/types"
)

// maxReadingBytes bounds a POSTed reading body.
const maxReadingBytes = 4096

// Handler is the HTTP handler for all /api/v1/* endpoints. It reads machine
// state and alerts from the gateway's registries and accepts readings over
// HTTP as an alternative to the mesh transport.
type Handler struct {
	table  *state.Table
	ledger *ledger.Ledger
	pipe   *ingest.Pipeline
	mux    *http.ServeMux
}

// New creates a Handler wired to the given registries and registers all routes.
func New(table *state.Table, led *ledger.Ledger, pipe *ingest.Pipeline) http.Handler {
	h := &Handler{table: table, ledger: led, pipe: pipe, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/machines", h.listMachines)
	h.mux.HandleFunc("/api/v1/machines/", h.getMachine) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("/api/v1/readings", h.postReading)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — machine counts per status tier.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	machines := h.table.All()
	resp := HealthResponse{
		MachineCount: len(machines),
		AlertCount:   h.ledger.Len(),
	}
	for _, m := range machines {
		switch m.Status {
		case types.StatusOK:
			resp.OKCount++
		case types.StatusWarning:
			resp.WarningCount++
		case types.StatusCritical:
			resp.CriticalCount++
		case types.StatusOffline:
			resp.OfflineCount++
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// listMachines returns GET /api/v1/machines — all machines, sorted by id.
func (h *Handler) listMachines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.table.All())
}

// getMachine returns GET /api/v1/machines/{id} — a single machine.
func (h *Handler) getMachine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/machines/")
	if id == "" {
		// Redirect bare /api/v1/machines/ to the list handler.
		h.listMachines(w, r)
		return
	}

	m, ok := h.table.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "machine not found")
		return
	}
	jsonResp(w, http.StatusOK, m)
}

// alerts returns GET /api/v1/alerts — the ledger contents, newest first.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.ledger.All())
}

// snapshot returns GET /api/v1/snapshot — the same full-state document the
// WebSocket hub sends on connect.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.pipe.Snapshot(types.MessageSnapshot))
}

// postReading accepts POST /api/v1/readings — one raw reading, same schema as
// the mesh payload. Accepted readings return 202; rejected ones 400.
func (h *Handler) postReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxReadingBytes))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	if err := h.pipe.HandleRaw(body, types.ChannelHTTP); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResp(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, map[string]string{"error": msg})
}
