package guard

import (
	"path"
	"strings"
	"sync"

	"resumekit/internal/session"
)

// RouteClass is the classification of a path.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteProtected
)

func (c RouteClass) String() string {
	if c == RoutePublic {
		return "public"
	}
	return "protected"
}

// Table classifies paths as public or protected and names the login entry
// point. Classification is total (every string gets a class) and static: it
// never depends on session state. The public set can be swapped atomically
// with Replace for hot reload, but stays fixed between swaps.
type Table struct {
	mu        sync.RWMutex
	public    map[string]bool
	loginPath string
}

// NewTable builds a route table. The login path is always public; a login
// entry point behind the guard would redirect to itself.
func NewTable(publicPaths []string, loginPath string) *Table {
	t := &Table{
		public:    make(map[string]bool, len(publicPaths)+1),
		loginPath: NormalizePath(loginPath),
	}
	t.Replace(publicPaths)
	return t
}

// DefaultTable returns the platform's standard classification: home, login
// and register are public, everything else is protected.
func DefaultTable() *Table {
	return NewTable([]string{"/", "/auth/login", "/auth/register"}, "/auth/login")
}

// Replace swaps the public route set. The login path stays public.
func (t *Table) Replace(publicPaths []string) {
	public := make(map[string]bool, len(publicPaths)+1)
	for _, p := range publicPaths {
		public[NormalizePath(p)] = true
	}
	public[t.loginPath] = true

	t.mu.Lock()
	t.public = public
	t.mu.Unlock()
}

// Classify returns the class of a path.
func (t *Table) Classify(p string) RouteClass {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.public[NormalizePath(p)] {
		return RoutePublic
	}
	return RouteProtected
}

// LoginPath returns the redirect target for blocked navigations.
func (t *Table) LoginPath() string {
	return t.loginPath
}

// PublicRoutes returns the current public set, for display and stats.
func (t *Table) PublicRoutes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	routes := make([]string, 0, len(t.public))
	for p := range t.public {
		routes = append(routes, p)
	}
	return routes
}

// NormalizePath reduces a raw path to its canonical classification key:
// query and fragment stripped, leading slash enforced, dot segments and
// trailing slashes cleaned.
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Decision is the outcome of a guard evaluation. An empty RedirectTo means
// the navigation is allowed.
type Decision struct {
	RedirectTo string
}

// Allowed reports whether the navigation may proceed.
func (d Decision) Allowed() bool {
	return d.RedirectTo == ""
}

// Evaluate is the gate checked on every navigation. It is pure: it reads
// the snapshot, never mutates session state, and identical inputs always
// produce the identical decision. The caller performs the actual redirect.
//
// While the session is still loading no redirect is issued: neither
// allowing nor blocking is correct yet, so the decision is deferred and the
// caller re-evaluates once loading completes.
func Evaluate(currentPath string, snap session.Snapshot, table *Table) Decision {
	if snap.Loading {
		return Decision{}
	}
	if snap.Authenticated() {
		return Decision{}
	}
	if table.Classify(currentPath) == RoutePublic {
		return Decision{}
	}
	return Decision{RedirectTo: table.LoginPath()}
}
