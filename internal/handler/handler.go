// Package handler exposes the harness loop over a small HTTP surface for
// manual exploration outside the CLI's own run loop: POST /run triggers an
// ad-hoc batch of iterations (and is what cmd/democlient posts the
// simulation config to), POST /simulate/batch runs a named count and
// returns a summary instead of the raw per-iteration trace, and GET /report
// returns the aggregate metrics accumulated so far.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nimbuslab/routing-lab/internal/harness"
)

// Handler holds the HTTP handler's dependencies: a single shared harness
// loop guarded by a mutex, since the sampler's rng, the policy's bandit
// state, and the recorder's count tree are all single-writer and must not
// be driven by two concurrent requests at once.
type Handler struct {
	mu     sync.Mutex
	loop   *harness.Loop
	logger *slog.Logger
}

// New creates a Handler wrapping loop.
func New(loop *harness.Loop, logger *slog.Logger) *Handler {
	return &Handler{loop: loop, logger: logger}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /run", h.Run)
	mux.HandleFunc("POST /simulate/batch", h.SimulateBatch)
	mux.HandleFunc("GET /report", h.GetReport)
}

// runRequest is decoded leniently: cmd/democlient posts the raw input.json
// document verbatim (it has no "iterations" field), which simply falls
// back to defaultIterations since encoding/json ignores unknown keys.
type runRequest struct {
	Iterations int `json:"iterations"`
}

const defaultIterations = 100

// Run handles POST /run: executes a batch of iterations against the
// server's already-loaded config and policy, returning the per-iteration
// trace plus the updated aggregate report.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	n := req.Iterations
	if n <= 0 {
		n = defaultIterations
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	results, err := h.loop.Run(r.Context(), n)
	if err != nil {
		h.logger.Error("run_failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"report":  h.loop.Report(),
	})
}

// batchRequest is the request body for POST /simulate/batch.
type batchRequest struct {
	Count int `json:"count"`
}

// SimulateBatch handles POST /simulate/batch: runs count iterations and
// returns a compact summary (approvals, skips, total) instead of the full
// per-iteration trace.
func (h *Handler) SimulateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Count <= 0 || req.Count > 100000 {
		writeError(w, http.StatusBadRequest, "count must be between 1 and 100000")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	results, err := h.loop.Run(r.Context(), req.Count)
	if err != nil {
		h.logger.Error("simulate_batch_failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summarizeBatch(results))
}

// GetReport handles GET /report: returns the current aggregate report
// without advancing the loop.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.loop.Report())
}

func summarizeBatch(results []harness.IterationResult) map[string]any {
	approved, failed, skipped := 0, 0, 0
	for _, res := range results {
		switch {
		case res.Skipped:
			skipped++
		case res.Outcome.IsSuccess():
			approved++
		default:
			failed++
		}
	}
	return map[string]any{
		"total":    len(results),
		"approved": approved,
		"failed":   failed,
		"skipped":  skipped,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
