// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"net"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/internal/store"
)

// NewTestStore creates an in-memory store with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// TestServer is a reference API server listening on a loopback port.
type TestServer struct {
	*server.Server
	// BaseURL is the API root, e.g. http://127.0.0.1:54321/api.
	BaseURL string
}

// NewTestServer starts a server backed by a fresh in-memory store and stops
// it when the test completes. Passwords are hashed at the minimum cost.
func NewTestServer(t *testing.T, opts ...server.Option) *TestServer {
	t.Helper()

	opts = append([]server.Option{server.WithHashCost(bcrypt.MinCost)}, opts...)
	srv := server.New(NewTestStore(t), nil, opts...)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		if err := srv.Shutdown(); err != nil {
			t.Errorf("shutting down test server: %v", err)
		}
	})

	return &TestServer{Server: srv, BaseURL: "http://" + ln.Addr().String() + "/api"}
}

// Staff creates an administrator account and returns it.
func (ts *TestServer) Staff(t *testing.T, email, password string) model.User {
	t.Helper()

	user, err := ts.CreateStaff(t.Context(), email, password, "Site", "Admin")
	if err != nil {
		t.Fatalf("creating staff: %v", err)
	}
	return user
}
