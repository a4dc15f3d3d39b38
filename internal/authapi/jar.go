package authapi

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"

	"resumekit/internal/errors"
)

// newCookieJar builds the client's cookie jar. With a path configured the
// jar mirrors the backend's cookies to disk, so one-shot CLI invocations
// keep their session the way a browser keeps its cookie store. An empty
// path means a plain in-memory jar.
func newCookieJar(path string, base *url.URL, logger *errors.Logger) (http.CookieJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeCookieJar, "failed to create cookie jar", err)
	}

	if path == "" {
		return inner, nil
	}

	pj := &persistentJar{
		jar:    inner,
		path:   path,
		base:   base,
		logger: logger,
	}
	pj.load()
	return pj, nil
}

// persistentJar wraps a cookiejar.Jar and writes the backend's cookies to a
// file after every change. Only name/value pairs are stored; restored
// cookies behave as session cookies and the backend re-validates them on
// the next request anyway.
type persistentJar struct {
	mu     sync.Mutex
	jar    http.CookieJar
	path   string
	base   *url.URL
	logger *errors.Logger
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (p *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.jar.SetCookies(u, cookies)
	if u.Host == p.base.Host {
		p.save()
	}
}

func (p *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jar.Cookies(u)
}

// save writes the backend's cookies to disk. Failures are logged, never
// surfaced: losing persistence degrades to an in-memory session.
func (p *persistentJar) save() {
	current := p.jar.Cookies(p.base)
	stored := make([]storedCookie, 0, len(current))
	for _, c := range current {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("Failed to encode cookie jar", "error", err.Error())
		}
		return
	}

	if err := os.WriteFile(p.path, payload, 0o600); err != nil && p.logger != nil {
		p.logger.Warn("Failed to persist cookie jar", "file", p.path, "error", err.Error())
	}
}

// load restores previously persisted cookies. A missing or unreadable file
// just means starting without a session.
func (p *persistentJar) load() {
	payload, err := os.ReadFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) && p.logger != nil {
			p.logger.Warn("Failed to read cookie jar", "file", p.path, "error", err.Error())
		}
		return
	}

	var stored []storedCookie
	if err := json.Unmarshal(payload, &stored); err != nil {
		if p.logger != nil {
			p.logger.Warn("Ignoring corrupt cookie jar", "file", p.path, "error", err.Error())
		}
		return
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	p.jar.SetCookies(p.base, cookies)
}
