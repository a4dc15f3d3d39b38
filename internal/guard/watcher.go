package guard

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"resumekit/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Table's public route set when the routes file changes,
// so gateway deployments can adjust the allow-list without a restart. The
// file format is one path per line; blank lines and #-comments are ignored.
type Watcher struct {
	mu sync.Mutex

	routesFile    string
	table         *Table
	debounceDelay time.Duration
	debounceTimer *time.Timer

	fsWatcher *fsnotify.Watcher
	stopChan  chan struct{}
	logger    *errors.Logger

	running bool
}

// NewWatcher creates a routes file watcher bound to a table.
func NewWatcher(routesFile string, table *Table, debounceDelay time.Duration, logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	return &Watcher{
		routesFile:    routesFile,
		table:         table,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		logger:        logger,
	}
}

// Start loads the routes file once and begins watching it for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("routes watcher is already running")
	}

	if err := w.reload(); err != nil {
		return err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory rather than the file: editors and config
	// managers replace files with rename+create, which drops a watch on
	// the file itself.
	dir := filepath.Dir(w.routesFile)
	if err := fsWatcher.Add(dir); err != nil {
		if closeErr := fsWatcher.Close(); closeErr != nil && w.logger != nil {
			w.logger.Warn("Failed to close file watcher", "error", closeErr.Error())
		}
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.fsWatcher = fsWatcher
	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Watching routes file for changes",
			"file", w.routesFile,
			"debounce_delay", w.debounceDelay.String())
	}
	return nil
}

// Stop ends the watch loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopChan)
	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil && w.logger != nil {
			w.logger.Warn("Failed to close file watcher", "error", err.Error())
		}
	}
	w.running = false
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.routesFile) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("Routes file watcher error", "error", err.Error())
			}
		case <-w.stopChan:
			return
		}
	}
}

// scheduleReload debounces bursts of file events into a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		if err := w.reload(); err != nil && w.logger != nil {
			w.logger.LogError(err, "Failed to reload routes file", "file", w.routesFile)
		}
	})
}

// reload parses the routes file and swaps the table's public set.
func (w *Watcher) reload() error {
	routes, err := ParseRoutesFile(w.routesFile)
	if err != nil {
		return err
	}

	w.table.Replace(routes)
	if w.logger != nil {
		w.logger.Info("Public routes reloaded",
			"file", w.routesFile,
			"route_count", len(routes))
	}
	return nil
}

// ParseRoutesFile reads a routes file: one path per line, blank lines and
// #-comments ignored.
func ParseRoutesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open routes file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var routes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		routes = append(routes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	return routes, nil
}
