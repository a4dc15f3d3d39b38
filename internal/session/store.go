package session

import (
	"context"
	"sync"

	"resumekit/internal/errors"
	"resumekit/internal/identity"
	"resumekit/internal/notify"
)

// Backend is the slice of the auth API the store needs. *authapi.Client
// satisfies it; tests substitute a fake.
type Backend interface {
	CurrentUser(ctx context.Context) (*identity.User, error)
	Login(ctx context.Context, email, password string) (*identity.User, error)
	Register(ctx context.Context, draft identity.RegistrationDraft) (*identity.User, error)
	Logout(ctx context.Context) error
}

// Snapshot is a read-only view of the session state. The user record is a
// clone, so holders can never alias the store's writable state.
type Snapshot struct {
	User    *identity.User
	Loading bool
}

// Authenticated reports whether a user is signed in. It is derived from the
// user record, never stored, so it cannot drift out of sync.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Store owns the process-wide session state: who is signed in and whether a
// session-affecting operation is in flight. It is the only writer; every
// other component observes through snapshots.
//
// Overlapping operations are fenced: each operation takes a sequence number
// when it starts, and a completion only writes state if no newer operation
// has started since. A login racing a slow startup fetch can therefore not
// have its result clobbered by the stale fetch resolving late. Notifications
// are not fenced; a user-initiated operation always reports its own outcome.
type Store struct {
	mu      sync.Mutex
	user    *identity.User
	loading bool
	seq     uint64

	subs    map[uint64]func(Snapshot)
	nextSub uint64

	backend  Backend
	notifier notify.Notifier
	logger   *errors.Logger
}

// NewStore creates a session store in its initial state: no user, loading.
// Callers are expected to follow up with FetchCurrentSession.
func NewStore(backend Backend, notifier notify.Notifier, logger *errors.Logger) *Store {
	return &Store{
		user:     nil,
		loading:  true,
		subs:     make(map[uint64]func(Snapshot)),
		backend:  backend,
		notifier: notifier,
		logger:   logger,
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{User: s.user.Clone(), Loading: s.loading}
}

// Subscribe registers fn to be called with a snapshot after every state
// mutation. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Settled returns the session state once no operation is in flight, or the
// latest state when ctx expires first. Guard callers use it to defer a
// decision until the session status is known.
func (s *Store) Settled(ctx context.Context) Snapshot {
	done := make(chan Snapshot, 1)
	cancel := s.Subscribe(func(snap Snapshot) {
		if !snap.Loading {
			select {
			case done <- snap:
			default:
			}
		}
	})
	defer cancel()

	// Check after subscribing so a transition between the two is not missed.
	if snap := s.Snapshot(); !snap.Loading {
		return snap
	}

	select {
	case snap := <-done:
		return snap
	case <-ctx.Done():
		return s.Snapshot()
	}
}

// FetchCurrentSession discovers whether the backend already holds a session
// for this client. Any failure, transport or response, silently resolves to
// "no session": passive discovery never notifies and never surfaces errors.
func (s *Store) FetchCurrentSession(ctx context.Context) {
	seq := s.begin()

	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("No active session", "reason", err.Error())
		}
		s.finish(seq, nil, true)
		return
	}

	s.finish(seq, user, true)
}

// Login establishes a session with the given credentials. On failure the
// user record is left untouched and the error is returned so calling UI can
// react; either way exactly one notification is emitted.
func (s *Store) Login(ctx context.Context, email, password string) error {
	seq := s.begin()

	user, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.finish(seq, nil, false)
		s.notifier.Failure(failureMessage("Login failed", err))
		return err
	}

	s.finish(seq, user, true)
	s.notifier.Success("Logged in as " + user.Email)
	return nil
}

// Register creates an account and immediately logs in with the same
// credentials to establish a session. The registration notification is
// emitted after the auto-login attempt, which reports its own outcome; the
// returned error reflects the login outcome.
func (s *Store) Register(ctx context.Context, draft identity.RegistrationDraft) error {
	seq := s.begin()

	if _, err := s.backend.Register(ctx, draft); err != nil {
		s.finish(seq, nil, false)
		s.notifier.Failure(failureMessage("Registration failed", err))
		return err
	}
	s.finish(seq, nil, false)

	loginErr := s.Login(ctx, draft.Email, draft.Password)
	s.notifier.Success("Registration successful")
	return loginErr
}

// Logout ends the session. State is cleared only on confirmed server
// acknowledgment: a failed logout keeps the user signed in locally rather
// than presenting a logged-out UI while the server still holds the session.
// The outcome is reported through the notifier, never raised.
func (s *Store) Logout(ctx context.Context) {
	seq := s.begin()

	if err := s.backend.Logout(ctx); err != nil {
		s.finish(seq, nil, false)
		s.notifier.Failure(failureMessage("Logout failed", err))
		return
	}

	s.finish(seq, nil, true)
	s.notifier.Success("Logged out")
}

// begin marks a session-affecting operation as in flight and returns its
// fencing sequence number.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.loading = true
	snap, subs := s.publishLocked()
	s.mu.Unlock()

	deliver(snap, subs)
	return seq
}

// finish completes the operation with the given sequence number. When apply
// is true the user record is set to user; otherwise it is left untouched.
// A completion older than the newest started operation is stale and is
// discarded entirely, including its loading transition, because the newer
// operation now owns the loading flag.
func (s *Store) finish(seq uint64, user *identity.User, apply bool) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("Discarded stale session operation result", "seq", seq)
		}
		return
	}

	if apply {
		s.user = user
	}
	s.loading = false
	snap, subs := s.publishLocked()
	s.mu.Unlock()

	deliver(snap, subs)
}

// publishLocked collects the snapshot and subscriber list while the lock is
// held; delivery happens outside the lock.
func (s *Store) publishLocked() (Snapshot, []func(Snapshot)) {
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return snap, subs
}

func deliver(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}

// failureMessage builds the user-visible failure text, preferring the
// backend-provided message when one is present.
func failureMessage(prefix string, err error) string {
	if appErr, ok := err.(*errors.AppError); ok && appErr.Message != "" {
		return prefix + ": " + appErr.Message
	}
	return prefix
}
