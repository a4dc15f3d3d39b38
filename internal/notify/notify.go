package notify

import (
	"fmt"
	"io"
	"sync"

	"resumekit/internal/errors"
)

// Notifier receives the user-visible outcome of session operations. Every
// user-initiated operation (login, register, logout) produces exactly one
// Success or Failure call; passive session discovery produces none.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// LogNotifier emits notifications through the structured logger.
type LogNotifier struct {
	logger *errors.Logger
}

// NewLogNotifier creates a notifier backed by the application logger.
func NewLogNotifier(logger *errors.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info("Notification", "kind", "success", "message", message)
}

func (n *LogNotifier) Failure(message string) {
	n.logger.Warn("Notification", "kind", "failure", "message", message)
}

// ConsoleNotifier writes notifications to the given streams, for interactive
// command-line use. Successes go to out, failures to errOut.
type ConsoleNotifier struct {
	out    io.Writer
	errOut io.Writer
}

// NewConsoleNotifier creates a notifier for interactive use.
func NewConsoleNotifier(out, errOut io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, errOut: errOut}
}

func (n *ConsoleNotifier) Success(message string) {
	fmt.Fprintln(n.out, message)
}

func (n *ConsoleNotifier) Failure(message string) {
	fmt.Fprintln(n.errOut, message)
}

// Event is a recorded notification.
type Event struct {
	Kind    string // "success" or "failure"
	Message string
}

// Recorder captures notifications for inspection in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Success(message string) {
	r.record("success", message)
}

func (r *Recorder) Failure(message string) {
	r.record("failure", message)
}

func (r *Recorder) record(kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Message: message})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset clears recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
