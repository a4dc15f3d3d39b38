package server

import (
	"net/http"
	"net/http/httputil"

	"resumekit/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// createProxyHandler builds the reverse proxy that forwards allowed
// requests to the backend. The session cookie from the auth client's jar is
// attached to every forwarded request, so the backend sees the gateway as
// the authenticated client it logged in as.
func (s *Server) createProxyHandler(metrics *observability.Metrics) http.HandlerFunc {
	target := s.AuthClient.BaseURL()
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
		for _, cookie := range s.AuthClient.SessionCookies() {
			req.AddCookie(cookie)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.Logger.LogError(err, "Proxy request failed",
			"path", r.URL.Path,
			"request_id", r.Header.Get(requestIDHeader))
		writeErrorResponse(w, "Bad gateway", "backend unreachable", http.StatusBadGateway)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordProxiedRequest(r.Context())
		proxy.ServeHTTP(w, r)
	}
}
