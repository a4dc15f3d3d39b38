package session

import (
	"context"
	"testing"
	"time"

	"resumekit/internal/errors"
	"resumekit/internal/identity"
	"resumekit/internal/notify"
)

// fakeBackend scripts backend responses per operation. A non-nil gate channel
// makes the operation block until the channel is closed, for interleaving
// tests.
type fakeBackend struct {
	currentUser    *identity.User
	currentUserErr error
	currentGate    chan struct{} // block CurrentUser until closed
	currentStarted chan struct{} // closed when CurrentUser is entered

	loginUser *identity.User
	loginErr  error

	registerErr error

	logoutErr error
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (*identity.User, error) {
	if f.currentStarted != nil {
		close(f.currentStarted)
	}
	if f.currentGate != nil {
		<-f.currentGate
	}
	return f.currentUser, f.currentUserErr
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*identity.User, error) {
	return f.loginUser, f.loginErr
}

func (f *fakeBackend) Register(ctx context.Context, draft identity.RegistrationDraft) (*identity.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &identity.User{ID: 99, Email: draft.Email, Username: draft.Username}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	return f.logoutErr
}

func activeUser() *identity.User {
	return &identity.User{ID: 7, Username: "mchen", Email: "m.chen@example.com"}
}

func newTestStore(backend Backend) (*Store, *notify.Recorder) {
	rec := &notify.Recorder{}
	return NewStore(backend, rec, nil), rec
}

func TestInitialState(t *testing.T) {
	store, _ := newTestStore(&fakeBackend{})

	snap := store.Snapshot()
	if snap.User != nil {
		t.Error("Expected no user before session discovery")
	}
	if !snap.Loading {
		t.Error("Expected loading state before session discovery")
	}
	if snap.Authenticated() {
		t.Error("Expected unauthenticated before session discovery")
	}
}

func TestFetchCurrentSession(t *testing.T) {
	t.Run("ActiveSession", func(t *testing.T) {
		store, rec := newTestStore(&fakeBackend{currentUser: activeUser()})

		store.FetchCurrentSession(context.Background())

		snap := store.Snapshot()
		if !snap.Authenticated() {
			t.Error("Expected authenticated after discovering an active session")
		}
		if snap.Loading {
			t.Error("Expected loading to clear after discovery")
		}
		if snap.User.Email != "m.chen@example.com" {
			t.Errorf("Unexpected user: %+v", snap.User)
		}
		if len(rec.Events()) != 0 {
			t.Errorf("Discovery must not notify, got %v", rec.Events())
		}
	})

	t.Run("NoSession", func(t *testing.T) {
		backendDown := errors.NewTransportError(errors.ErrCodeBackendUnreachable, "connection refused", nil)
		store, rec := newTestStore(&fakeBackend{currentUserErr: backendDown})

		store.FetchCurrentSession(context.Background())

		snap := store.Snapshot()
		if snap.Authenticated() {
			t.Error("Expected unauthenticated when discovery fails")
		}
		if snap.Loading {
			t.Error("Expected loading to clear even on failed discovery")
		}
		if len(rec.Events()) != 0 {
			t.Errorf("Failed discovery must stay silent, got %v", rec.Events())
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store, rec := newTestStore(&fakeBackend{loginUser: activeUser()})

		if err := store.Login(context.Background(), "m.chen@example.com", "hunter2"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		snap := store.Snapshot()
		if !snap.Authenticated() {
			t.Error("Expected authenticated after login")
		}

		events := rec.Events()
		if len(events) != 1 {
			t.Fatalf("Expected exactly one notification, got %v", events)
		}
		if events[0].Kind != "success" {
			t.Errorf("Expected success notification, got %+v", events[0])
		}
	})

	t.Run("Failure", func(t *testing.T) {
		rejected := errors.NewValidationError(errors.ErrCodeInvalidCredentials, "Invalid email or password", nil)
		store, rec := newTestStore(&fakeBackend{loginErr: rejected})

		err := store.Login(context.Background(), "m.chen@example.com", "wrong")
		if err == nil {
			t.Fatal("Expected login error to be returned to the caller")
		}

		snap := store.Snapshot()
		if snap.Authenticated() {
			t.Error("Expected unauthenticated after failed login")
		}
		if snap.Loading {
			t.Error("Expected loading to clear after failed login")
		}

		events := rec.Events()
		if len(events) != 1 || events[0].Kind != "failure" {
			t.Fatalf("Expected exactly one failure notification, got %v", events)
		}
		// The backend message is surfaced to the user.
		if events[0].Message != "Login failed: Invalid email or password" {
			t.Errorf("Unexpected notification message: %q", events[0].Message)
		}
	})
}

func TestRegister(t *testing.T) {
	t.Run("SuccessLogsIn", func(t *testing.T) {
		store, rec := newTestStore(&fakeBackend{loginUser: activeUser()})

		draft := identity.RegistrationDraft{
			Email:    "m.chen@example.com",
			Password: "hunter2",
			Username: "mchen",
		}
		if err := store.Register(context.Background(), draft); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		if !store.Snapshot().Authenticated() {
			t.Error("Expected authenticated after registration auto-login")
		}

		events := rec.Events()
		if len(events) != 2 {
			t.Fatalf("Expected login and registration notifications, got %v", events)
		}
		if events[0].Kind != "success" || events[1].Message != "Registration successful" {
			t.Errorf("Unexpected notifications: %v", events)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		taken := errors.NewValidationError(errors.ErrCodeRegistrationFailed, "Email already registered", nil)
		store, rec := newTestStore(&fakeBackend{registerErr: taken})

		err := store.Register(context.Background(), identity.RegistrationDraft{Email: "m.chen@example.com", Password: "x", Username: "mchen"})
		if err == nil {
			t.Fatal("Expected registration error to be returned")
		}

		if store.Snapshot().Authenticated() {
			t.Error("Expected unauthenticated after failed registration")
		}

		events := rec.Events()
		if len(events) != 1 || events[0].Kind != "failure" {
			t.Fatalf("Expected exactly one failure notification, got %v", events)
		}
	})
}

func TestLogout(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		backend := &fakeBackend{loginUser: activeUser()}
		store, rec := newTestStore(backend)
		if err := store.Login(context.Background(), "m.chen@example.com", "hunter2"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		rec.Reset()

		store.Logout(context.Background())

		snap := store.Snapshot()
		if snap.Authenticated() {
			t.Error("Expected unauthenticated after acknowledged logout")
		}

		events := rec.Events()
		if len(events) != 1 || events[0].Kind != "success" {
			t.Fatalf("Expected one success notification, got %v", events)
		}
	})

	t.Run("FailureKeepsSession", func(t *testing.T) {
		backend := &fakeBackend{
			loginUser: activeUser(),
			logoutErr: errors.NewResponseError(errors.ErrCodeLogoutRejected, "backend returned Internal Server Error", nil),
		}
		store, rec := newTestStore(backend)
		if err := store.Login(context.Background(), "m.chen@example.com", "hunter2"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		rec.Reset()

		store.Logout(context.Background())

		// The server still holds the session, so local state keeps it too.
		snap := store.Snapshot()
		if !snap.Authenticated() {
			t.Error("Expected session to survive a rejected logout")
		}
		if snap.Loading {
			t.Error("Expected loading to clear after rejected logout")
		}

		events := rec.Events()
		if len(events) != 1 || events[0].Kind != "failure" {
			t.Fatalf("Expected one failure notification, got %v", events)
		}
	})
}

func TestStaleCompletionDiscarded(t *testing.T) {
	// A slow session discovery resolving after a login must not clobber the
	// login's result.
	gate := make(chan struct{})
	started := make(chan struct{})
	backend := &fakeBackend{
		currentUserErr: errors.NewTransportError(errors.ErrCodeBackendUnreachable, "timeout", nil),
		currentGate:    gate,
		currentStarted: started,
		loginUser:      activeUser(),
	}
	store, _ := newTestStore(backend)

	fetchDone := make(chan struct{})
	go func() {
		store.FetchCurrentSession(context.Background())
		close(fetchDone)
	}()

	// Wait for the fetch to be in flight before starting the login.
	<-started

	if err := store.Login(context.Background(), "m.chen@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !store.Snapshot().Authenticated() {
		t.Fatal("Expected authenticated after login")
	}

	// Now let the stale fetch complete; its failure result must be dropped.
	close(gate)
	<-fetchDone

	snap := store.Snapshot()
	if !snap.Authenticated() {
		t.Error("Stale fetch result overwrote the login's session")
	}
	if snap.Loading {
		t.Error("Stale fetch flipped the loading flag it no longer owns")
	}
}

func TestSubscribe(t *testing.T) {
	store, _ := newTestStore(&fakeBackend{loginUser: activeUser()})

	var got []Snapshot
	cancel := store.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
	})

	if err := store.Login(context.Background(), "m.chen@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// begin publishes loading=true, finish publishes the result.
	if len(got) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(got))
	}
	if !got[0].Loading {
		t.Error("Expected first snapshot to be loading")
	}
	if got[1].Loading || !got[1].Authenticated() {
		t.Errorf("Expected settled authenticated snapshot, got %+v", got[1])
	}

	cancel()
	store.Logout(context.Background())
	if len(got) != 2 {
		t.Error("Expected no snapshots after cancel")
	}
}

func TestSettled(t *testing.T) {
	t.Run("WaitsForInFlightFetch", func(t *testing.T) {
		gate := make(chan struct{})
		started := make(chan struct{})
		backend := &fakeBackend{currentUser: activeUser(), currentGate: gate, currentStarted: started}
		store, _ := newTestStore(backend)

		go store.FetchCurrentSession(context.Background())
		<-started

		time.AfterFunc(10*time.Millisecond, func() { close(gate) })

		snap := store.Settled(context.Background())
		if snap.Loading {
			t.Error("Settled returned a loading snapshot")
		}
		if !snap.Authenticated() {
			t.Error("Expected the settled snapshot to carry the discovered session")
		}
	})

	t.Run("ContextExpiry", func(t *testing.T) {
		gate := make(chan struct{})
		started := make(chan struct{})
		defer close(gate)
		backend := &fakeBackend{currentUser: activeUser(), currentGate: gate, currentStarted: started}
		store, _ := newTestStore(backend)

		go store.FetchCurrentSession(context.Background())
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		snap := store.Settled(ctx)
		if !snap.Loading {
			t.Error("Expected the latest (still loading) snapshot on context expiry")
		}
	})
}

func TestSnapshotIsolation(t *testing.T) {
	store, _ := newTestStore(&fakeBackend{loginUser: activeUser()})
	if err := store.Login(context.Background(), "m.chen@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	snap := store.Snapshot()
	snap.User.Email = "tampered@example.com"

	if store.Snapshot().User.Email != "m.chen@example.com" {
		t.Error("Mutating a snapshot leaked into store state")
	}
}
