package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/muurk/canfix/internal/version"
	"go.uber.org/zap"
)

// Status is the body of GET /status
type Status struct {
	Version string   `json:"version"`
	Path    string   `json:"path"`
	Members int      `json:"members"`
	Bridges []string `json:"bridges,omitempty"`
	Uptime  string   `json:"uptime"`
}

// Status returns the current gateway status
func (s *Server) Status() Status {
	s.mu.Lock()
	bridges := append([]string(nil), s.bridges...)
	started := s.started
	s.mu.Unlock()

	var uptime time.Duration
	if !started.IsZero() {
		uptime = time.Since(started).Truncate(time.Second)
	}
	return Status{
		Version: version.Get().Short(),
		Path:    s.config.Path,
		Members: s.hub.Members(),
		Bridges: bridges,
		Uptime:  uptime.String(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
		s.logger.Warn("Failed to write status", zap.Error(err))
	}
}
