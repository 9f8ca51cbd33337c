// Package server exposes scenario runs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/dshills/suggestcheck/internal/registry"
	"github.com/dshills/suggestcheck/internal/runner"
)

// ScenarioRunner runs scenarios by id.
type ScenarioRunner interface {
	Run(ctx context.Context, id string) (*runner.Result, error)
	RunAll(ctx context.Context, ids []string) runner.Batch
}

// Handler serves the run endpoints for the scenarios of one registry.
type Handler struct {
	runner   ScenarioRunner
	registry *registry.Registry
	logger   *log.Logger
	mux      *http.ServeMux
}

// NewHandler builds the endpoint mux. A nil logger discards output.
func NewHandler(r ScenarioRunner, reg *registry.Registry, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	h := &Handler{runner: r, registry: reg, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /run_test", h.runTest)
	h.mux.HandleFunc("POST /run_all", h.runAll)
	h.mux.HandleFunc("GET /scenarios", h.scenarios)
	h.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "OK")
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type runTestRequest struct {
	TC string `json:"tc"`
}

type runTestResponse struct {
	TC     string         `json:"tc"`
	Result *runner.Result `json:"result"`
}

type errorResponse struct {
	Error string   `json:"error"`
	Valid []string `json:"valid,omitempty"`
}

func (h *Handler) runTest(w http.ResponseWriter, r *http.Request) {
	var req runTestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	id := strings.TrimSpace(req.TC)
	if !h.registry.Has(id) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("unknown tc %q", id),
			Valid: h.registry.IDs(),
		})
		return
	}

	res, err := h.runner.Run(r.Context(), id)
	if err != nil {
		h.logger.Printf("run_test %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runTestResponse{TC: id, Result: res})
}

func (h *Handler) runAll(w http.ResponseWriter, r *http.Request) {
	batch := h.runner.RunAll(r.Context(), h.registry.IDs())
	sum := runner.Summarize(batch)
	h.logger.Printf("run_all: %s (%d passed, %d failed, %d errored)", sum.Status, sum.Passed, sum.Failed, sum.Errored)
	writeJSON(w, http.StatusOK, batch)
}

type scenarioInfo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Rules       int    `json:"rules"`
}

func (h *Handler) scenarios(w http.ResponseWriter, _ *http.Request) {
	ids := h.registry.IDs()
	out := make([]scenarioInfo, 0, len(ids))
	for _, id := range ids {
		sc, _ := h.registry.Scenario(id)
		out = append(out, scenarioInfo{ID: id, Description: sc.Description, Rules: len(h.registry.Rules(id))})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
