// Package api exposes the service's HTTP status surface: health, config
// entries with their resolved settings, and per-simulator runtime status.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"presencesim/internal/entry"
	"presencesim/internal/plugin"
	"presencesim/internal/plugins/presence"

	"go.uber.org/zap"
)

// Server provides the HTTP API for the presence simulator service
type Server struct {
	entries *entry.Store
	sims    plugin.StatusProvider
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates an API server. sims may be nil when the presence plugin
// is not running.
func NewServer(entries *entry.Store, sims plugin.StatusProvider, logger *zap.Logger, port int) *Server {
	s := &Server{
		entries: entries,
		sims:    sims,
		logger:  logger.Named("api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleSitemap)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/entries", s.handleEntries)
	mux.HandleFunc("/api/simulations", s.handleSimulations)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// EntryResponse is one config entry with its resolved settings
type EntryResponse struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Settings map[string]interface{} `json:"settings,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// handleEntries returns all config entries with their settings resolved
// against the presence schema
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	schema := presence.Schema()
	entries := s.entries.All()
	response := make([]EntryResponse, 0, len(entries))

	for _, e := range entries {
		er := EntryResponse{ID: e.ID, Title: e.Title}

		resolved, err := e.Resolve(schema)
		if err != nil {
			er.Error = err.Error()
		} else {
			er.Settings = resolved
		}
		response = append(response, er)
	}

	s.writeJSON(w, response)
}

// handleSimulations returns the runtime status of every simulator
func (s *Server) handleSimulations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.sims == nil {
		s.writeJSON(w, []interface{}{})
		return
	}

	s.writeJSON(w, s.sims.Status())
}

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, map[string]string{"status": "ok"})
}

// handleSitemap lists the available endpoints in plain text
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Presence Simulator API\n")
	fmt.Fprintf(w, "======================\n\n")
	fmt.Fprintf(w, "  GET  /health            Health check\n")
	fmt.Fprintf(w, "  GET  /api/entries       Config entries with resolved settings\n")
	fmt.Fprintf(w, "  GET  /api/simulations   Per-entry simulation status and replay log\n")
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP API server", zap.String("addr", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
