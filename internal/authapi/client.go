package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"resumekit/internal/config"
	"resumekit/internal/errors"
	"resumekit/internal/identity"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client talks to the resume platform's auth endpoints. Paths and methods
// mirror the backend contract:
//
//	GET  /api/auth/user      current identity, non-2xx when no session
//	POST /api/auth/login     {email, password}
//	POST /api/auth/register  registration payload
//	POST /api/auth/logout    empty body
//
// The session cookie issued by the backend lives in the client's cookie jar,
// so every request carries credentials the way a browser would.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *Breaker
	logger  *errors.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorBody struct {
	Message string `json:"message"`
}

// NewClient creates a client for the configured backend.
func NewClient(cfg *config.BackendConfig, logger *errors.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid backend base URL: %s", cfg.BaseURL), err)
	}

	jar, err := newCookieJar(cfg.CookieJarFile, base, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: NewBreaker(&cfg.CircuitBreaker, logger),
		logger:  logger,
	}, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

// SessionCookies returns the cookies the jar currently holds for the
// backend. The gateway uses this to attach the session to proxied requests.
func (c *Client) SessionCookies() []*http.Cookie {
	if c.http.Jar == nil {
		return nil
	}
	return c.http.Jar.Cookies(c.baseURL)
}

// BreakerStats returns circuit breaker statistics for the stats endpoint.
func (c *Client) BreakerStats() map[string]any {
	return c.breaker.GetStats()
}

// BreakerHealthy reports whether the circuit to the backend is closed.
func (c *Client) BreakerHealthy() bool {
	return c.breaker.IsHealthy()
}

// CurrentUser asks the backend for the identity behind the current session.
func (c *Client) CurrentUser(ctx context.Context) (*identity.User, error) {
	return c.breaker.Execute(func() (*identity.User, error) {
		var user identity.User
		if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, &user, errors.ErrCodeSessionRejected); err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// Login exchanges credentials for a session. The backend sets the session
// cookie on success, and the jar retains it for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*identity.User, error) {
	return c.breaker.Execute(func() (*identity.User, error) {
		var user identity.User
		body := loginRequest{Email: email, Password: password}
		if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &user, errors.ErrCodeInvalidCredentials); err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// Register creates an account and returns the created identity. It does not
// establish a session; the session store follows up with Login.
func (c *Client) Register(ctx context.Context, draft identity.RegistrationDraft) (*identity.User, error) {
	return c.breaker.Execute(func() (*identity.User, error) {
		var user identity.User
		if err := c.do(ctx, http.MethodPost, "/api/auth/register", draft, &user, errors.ErrCodeRegistrationFailed); err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// Logout asks the backend to end the session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (*identity.User, error) {
		return nil, c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, errors.ErrCodeLogoutRejected)
	})
	return err
}

// do performs a request against the backend and folds the outcome into the
// session error taxonomy: transport failures, non-success responses and
// backend-reported validation messages all come back as AppError values.
func (c *Client) do(ctx context.Context, method, path string, body, out any, failCode string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternalError(errors.ErrCodeBadResponseBody, "failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeBadResponseBody, "failed to build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewTransportError(errors.ErrCodeBackendUnreachable, "backend unreachable", err).
			WithContext("endpoint", path)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Debug("Failed to close response body", "endpoint", path, "error", err.Error())
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransportError(errors.ErrCodeBackendUnreachable, "failed to read response body", err).
			WithContext("endpoint", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(path, failCode, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.NewResponseError(errors.ErrCodeBadResponseBody, "backend returned malformed identity JSON", err).
				WithContext("endpoint", path)
		}
	}

	return nil
}

// responseError maps a non-success backend response to an AppError. A 4xx
// with a backend-provided message surfaces as a validation error carrying
// that message; everything else is a plain response error.
func (c *Client) responseError(path, failCode string, status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	if body.Message != "" && status >= 400 && status < 500 {
		return errors.NewValidationError(failCode, body.Message, nil).
			WithContext("endpoint", path).
			WithContext("status", status)
	}

	message := body.Message
	if message == "" {
		message = fmt.Sprintf("backend returned %s", http.StatusText(status))
	}
	return errors.NewResponseError(failCode, message, nil).
		WithContext("endpoint", path).
		WithContext("status", status)
}
