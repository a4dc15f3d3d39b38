package server

import (
	"context"
	"net/http"
	"time"

	"resumekit/internal/guard"
	"resumekit/internal/observability"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// How long a request may wait for the session state to settle before the
// guard decides with whatever state is current.
const settleTimeout = 5 * time.Second

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(m *observability.Manager) *http.ServeMux {
	mux := http.NewServeMux()
	metrics := m.GetMetrics()

	mux.HandleFunc("/gateway/health", s.healthHandler)
	mux.HandleFunc("/gateway/stats", s.statsHandler)
	mux.HandleFunc("/",
		s.requestIDMiddleware(
			s.rateLimitMiddleware(metrics)(
				s.guardMiddleware(metrics)(s.createProxyHandler(metrics)),
			),
		),
	)

	return mux
}

// requestIDMiddleware tags every request with an ID for log correlation.
func (s *Server) requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)

		next(w, r)
	}
}

// guardMiddleware evaluates the route guard on every request. The guard is
// re-run per navigation, so session transitions (logout, expiry discovered
// by a fetch) take effect on the next request. While the session is still
// loading the decision is deferred until the state settles.
func (s *Server) guardMiddleware(metrics *observability.Metrics) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			snap := s.Store.Snapshot()
			if snap.Loading {
				metrics.RecordGuardDecision(r.Context(), "defer")
				ctx, cancel := context.WithTimeout(r.Context(), settleTimeout)
				snap = s.Store.Settled(ctx)
				cancel()
			}

			decision := guard.Evaluate(r.URL.Path, snap, s.Table)
			if !decision.Allowed() {
				metrics.RecordGuardDecision(r.Context(), "redirect")
				s.Logger.Debug("Navigation blocked",
					"path", r.URL.Path,
					"redirect_to", decision.RedirectTo,
					"request_id", r.Header.Get(requestIDHeader))
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
				return
			}

			metrics.RecordGuardDecision(r.Context(), "allow")
			next(w, r)
		}
	}
}
