package auth_test

import (
	"context"
	"sync"

	auth "github.com/coopdesk/go-auth"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements auth.CredentialStore for testing
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByLoginOrEmail(ctx context.Context, identifier string) (*auth.Principal, error) {
	args := m.Called(ctx, identifier)
	var principal *auth.Principal
	if v := args.Get(0); v != nil {
		principal = v.(*auth.Principal)
	}
	return principal, args.Error(1)
}

func (m *MockCredentialStore) Save(ctx context.Context, principal *auth.Principal) (*auth.Principal, error) {
	args := m.Called(ctx, principal)
	var saved *auth.Principal
	if v := args.Get(0); v != nil {
		saved = v.(*auth.Principal)
	}
	return saved, args.Error(1)
}

func (m *MockCredentialStore) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	args := m.Called(ctx, login)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockTrackingStore adds the LoginTracker extension
type MockTrackingStore struct {
	MockCredentialStore
}

func (m *MockTrackingStore) TrackAttemptedLogin(ctx context.Context, principal *auth.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

func (m *MockTrackingStore) TrackSuccessfulLogin(ctx context.Context, principal *auth.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

// recordingSink captures activity events for assertions
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.ActivityEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// testLogger discards everything; failures assert on errors, not logs.
type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}
