// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Dependencies is the read-only persistence view the handlers serve from.
// The full repository store satisfies it.
type Dependencies interface {
	ResultsDependencies
	LedgerDependencies
}

// Server wires HTTP routes for the results API and the ops endpoints.
type Server struct {
	healthHandler  *HealthHandler
	resultsHandler *ResultsHandler
	ledgerHandler  *LedgerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		resultsHandler: NewResultsHandler(deps),
		ledgerHandler:  NewLedgerHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/shows/", MetricsMiddleware(s.resultsHandler.HandleShowResults, "show_results"))
	mux.HandleFunc("/horses/", MetricsMiddleware(s.resultsHandler.HandleHorseResults, "horse_results"))
	mux.HandleFunc("/owners/", MetricsMiddleware(s.ledgerHandler.HandleOwnerLedger, "owner_ledger"))
}

// pathParam extracts the id segment from "/{prefix}{id}/{leaf}" paths.
func pathParam(path, prefix, leaf string) (string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	id, tail, found := strings.Cut(rest, "/")
	if !found || id == "" || tail != leaf {
		return "", false
	}
	return id, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
