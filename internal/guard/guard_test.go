package guard

import (
	"testing"

	"resumekit/internal/identity"
	"resumekit/internal/session"
)

func snapshot(user *identity.User, loading bool) session.Snapshot {
	return session.Snapshot{User: user, Loading: loading}
}

func testUser() *identity.User {
	return &identity.User{ID: 42, Username: "jriver", Email: "j.river@example.com"}
}

func TestEvaluateWhileLoading(t *testing.T) {
	table := DefaultTable()

	// While the session status is unknown, no path is redirected, public
	// or protected alike.
	paths := []string{"/", "/auth/login", "/dashboard", "/resumes/7/edit"}
	for _, p := range paths {
		decision := Evaluate(p, snapshot(nil, true), table)
		if !decision.Allowed() {
			t.Errorf("Expected %q to be deferred while loading, got redirect to %q", p, decision.RedirectTo)
		}
	}
}

func TestEvaluateAuthenticated(t *testing.T) {
	table := DefaultTable()

	// An authenticated user can go anywhere, including auth pages.
	paths := []string{"/", "/auth/login", "/auth/register", "/dashboard", "/settings/billing"}
	for _, p := range paths {
		decision := Evaluate(p, snapshot(testUser(), false), table)
		if !decision.Allowed() {
			t.Errorf("Expected %q to be allowed when authenticated, got redirect to %q", p, decision.RedirectTo)
		}
	}
}

func TestEvaluateUnauthenticated(t *testing.T) {
	table := DefaultTable()

	t.Run("PublicRoutesAllowed", func(t *testing.T) {
		for _, p := range []string{"/", "/auth/login", "/auth/register"} {
			decision := Evaluate(p, snapshot(nil, false), table)
			if !decision.Allowed() {
				t.Errorf("Expected public route %q to be allowed, got redirect to %q", p, decision.RedirectTo)
			}
		}
	})

	t.Run("ProtectedRoutesRedirected", func(t *testing.T) {
		for _, p := range []string{"/dashboard", "/resumes", "/resumes/7/edit", "/settings"} {
			decision := Evaluate(p, snapshot(nil, false), table)
			if decision.Allowed() {
				t.Errorf("Expected protected route %q to be redirected", p)
			}
			if decision.RedirectTo != "/auth/login" {
				t.Errorf("Expected redirect to /auth/login for %q, got %q", p, decision.RedirectTo)
			}
		}
	})
}

func TestEvaluateIsTotal(t *testing.T) {
	table := DefaultTable()

	// Unusual inputs still produce a decision, never a panic.
	inputs := []string{"", "no-leading-slash", "/a/../b", "/dashboard?tab=1", "/x#y", "//double", "/./"}
	for _, p := range inputs {
		_ = Evaluate(p, snapshot(nil, false), table)
		_ = Evaluate(p, snapshot(testUser(), false), table)
		_ = Evaluate(p, snapshot(nil, true), table)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Root", "/", "/"},
		{"Empty", "", "/"},
		{"NoLeadingSlash", "dashboard", "/dashboard"},
		{"TrailingSlash", "/dashboard/", "/dashboard"},
		{"QueryStripped", "/dashboard?tab=1", "/dashboard"},
		{"FragmentStripped", "/dashboard#section", "/dashboard"},
		{"DotSegments", "/a/../b", "/b"},
		{"DoubleSlash", "//auth//login", "/auth/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.input); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTableClassify(t *testing.T) {
	table := NewTable([]string{"/", "/pricing"}, "/auth/login")

	if table.Classify("/pricing") != RoutePublic {
		t.Error("Expected /pricing to be public")
	}
	if table.Classify("/dashboard") != RouteProtected {
		t.Error("Expected /dashboard to be protected")
	}
	// The login path is always public even when the list omits it, otherwise
	// a redirect there would loop forever.
	if table.Classify("/auth/login") != RoutePublic {
		t.Error("Expected login path to be implicitly public")
	}
}

func TestTableReplace(t *testing.T) {
	table := NewTable([]string{"/", "/auth/login"}, "/auth/login")

	if table.Classify("/pricing") != RouteProtected {
		t.Fatal("Expected /pricing to start protected")
	}

	table.Replace([]string{"/", "/pricing"})

	if table.Classify("/pricing") != RoutePublic {
		t.Error("Expected /pricing to be public after replace")
	}
	if table.Classify("/auth/login") != RoutePublic {
		t.Error("Expected login path to stay public after replace")
	}
}

func TestDecisionRedirectTargetIsPublic(t *testing.T) {
	table := DefaultTable()

	// A redirect target must itself be allowed, or blocked navigation would
	// bounce between redirects.
	decision := Evaluate("/dashboard", snapshot(nil, false), table)
	if decision.Allowed() {
		t.Fatal("Expected /dashboard to be redirected when unauthenticated")
	}

	followUp := Evaluate(decision.RedirectTo, snapshot(nil, false), table)
	if !followUp.Allowed() {
		t.Errorf("Redirect target %q is itself redirected to %q", decision.RedirectTo, followUp.RedirectTo)
	}
}
