package guard

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRoutesFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "routes.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write routes file: %v", err)
	}
	return path
}

func TestParseRoutesFile(t *testing.T) {
	t.Run("SkipsCommentsAndBlanks", func(t *testing.T) {
		path := writeRoutesFile(t, t.TempDir(), `# public routes
/

/auth/login
  /auth/register
# trailing comment
`)

		routes, err := ParseRoutesFile(path)
		if err != nil {
			t.Fatalf("ParseRoutesFile failed: %v", err)
		}

		want := []string{"/", "/auth/login", "/auth/register"}
		if len(routes) != len(want) {
			t.Fatalf("Expected %d routes, got %d: %v", len(want), len(routes), routes)
		}
		for i, r := range want {
			if routes[i] != r {
				t.Errorf("Route %d: expected %q, got %q", i, r, routes[i])
			}
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ParseRoutesFile(filepath.Join(t.TempDir(), "nope.txt"))
		if err == nil {
			t.Error("Expected error for missing routes file")
		}
	})
}

func TestWatcherStartLoadsRoutes(t *testing.T) {
	path := writeRoutesFile(t, t.TempDir(), "/\n/pricing\n")
	table := NewTable(nil, "/auth/login")

	w := NewWatcher(path, table, 10*time.Millisecond, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()

	if table.Classify("/pricing") != RoutePublic {
		t.Error("Expected /pricing to be public after initial load")
	}
	if table.Classify("/dashboard") != RouteProtected {
		t.Error("Expected /dashboard to stay protected")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeRoutesFile(t, dir, "/\n")
	table := NewTable(nil, "/auth/login")

	w := NewWatcher(path, table, 10*time.Millisecond, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()

	if table.Classify("/pricing") != RouteProtected {
		t.Fatal("Expected /pricing to start protected")
	}

	writeRoutesFile(t, dir, "/\n/pricing\n")

	// Debounce delay plus fsnotify delivery; poll instead of one long sleep.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if table.Classify("/pricing") == RoutePublic {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("Expected /pricing to become public after routes file change")
}

func TestWatcherStartTwice(t *testing.T) {
	path := writeRoutesFile(t, t.TempDir(), "/\n")
	w := NewWatcher(path, NewTable(nil, "/auth/login"), 10*time.Millisecond, nil)

	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err == nil {
		t.Error("Expected error when starting an already running watcher")
	}
}

func TestWatcherStartMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope.txt"), NewTable(nil, "/auth/login"), 0, nil)
	if err := w.Start(); err == nil {
		t.Error("Expected error when routes file does not exist")
		w.Stop()
	}
}
