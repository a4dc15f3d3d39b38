package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// healthHandler reports gateway health: session state and the state of the
// circuit to the backend.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.Store.Snapshot()

	response := map[string]any{
		"status":  "healthy",
		"service": "resumekit",
		"version": s.Version,
		"session": map[string]any{
			"authenticated": snap.Authenticated(),
			"loading":       snap.Loading,
		},
		"circuit_breaker": s.AuthClient.BreakerStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if !s.AuthClient.BreakerHealthy() {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statsHandler provides gateway statistics including rate limiting info
// and the active route classification.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "resumekit",
		"version": s.Version,
		"backend": s.AuthClient.BaseURL().String(),
		"routes": map[string]any{
			"public":     s.Table.PublicRoutes(),
			"login_path": s.Table.LoginPath(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
