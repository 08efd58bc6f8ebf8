// Package session owns the authenticated identity and the persisted
// credential. A Store is created once per process and injected into every
// consumer.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
)

// ErrResolveInFlight is returned by Login and Signup while the startup
// identity fetch has not finished.
var ErrResolveInFlight = errors.New("session: identity resolution in progress")

// Gateway is the subset of the API client the session needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*model.User, error)
}

// Store holds at most one identity. Whenever an identity is present a
// credential that the server has not yet rejected is persisted.
type Store struct {
	gw      Gateway
	secrets credential.Store
	logger  *zap.Logger

	resolveOnce sync.Once

	mu        sync.RWMutex
	identity  *model.Identity
	resolving bool
}

// New returns an empty store. Call Init before use.
func New(gw Gateway, secrets credential.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{gw: gw, secrets: secrets, logger: logger}
}

// Init resolves the persisted credential, if any. It is Resolve under its
// lifecycle name.
func (s *Store) Init(ctx context.Context) (model.Identity, bool) {
	return s.Resolve(ctx)
}

// Resolve turns a persisted credential into an identity. Any failure
// clears the credential and leaves the store empty. Only the first call
// talks to the server; later calls return its outcome, and concurrent
// callers wait for it.
func (s *Store) Resolve(ctx context.Context) (model.Identity, bool) {
	s.resolveOnce.Do(func() {
		s.setResolving(true)
		defer s.setResolving(false)
		s.resolve(ctx)
	})
	return s.Current()
}

func (s *Store) resolve(ctx context.Context) {
	token, err := s.secrets.Get(credential.TokenKey)
	if errors.Is(err, credential.ErrNotFound) || (err == nil && token == "") {
		return
	}
	if err != nil {
		s.logger.Warn("reading persisted credential", zap.Error(err))
		return
	}

	user, err := s.gw.CurrentUser(ctx)
	if err != nil {
		s.logger.Info("persisted credential rejected, signing out", zap.Error(err))
		s.clearCredential()
		return
	}

	id := model.IdentityOf(*user)
	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
	s.logger.Info("session resolved", zap.String("user_id", id.UserID.String()))
}

func (s *Store) setResolving(v bool) {
	s.mu.Lock()
	s.resolving = v
	s.mu.Unlock()
}

func (s *Store) checkIdle() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.resolving {
		return ErrResolveInFlight
	}
	return nil
}

// Login authenticates with email and password. On failure the store is
// left exactly as it was.
func (s *Store) Login(ctx context.Context, email, password string) (model.Identity, error) {
	if err := s.checkIdle(); err != nil {
		return model.Identity{}, err
	}
	resp, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return model.Identity{}, err
	}
	return s.establish(resp)
}

// Signup registers a new account and signs it in. fullName is split on
// the first space into first and last name; the email doubles as the
// username.
func (s *Store) Signup(ctx context.Context, fullName, email, password string) (model.Identity, error) {
	if err := s.checkIdle(); err != nil {
		return model.Identity{}, err
	}
	first, last := SplitName(fullName)
	resp, err := s.gw.Register(ctx, api.RegisterRequest{
		Username:        email,
		Email:           email,
		FirstName:       first,
		LastName:        last,
		Password:        password,
		PasswordConfirm: password,
	})
	if err != nil {
		return model.Identity{}, err
	}
	return s.establish(resp)
}

// establish persists the credential before publishing the identity.
func (s *Store) establish(resp *api.AuthResponse) (model.Identity, error) {
	if resp.Token == "" {
		return model.Identity{}, fmt.Errorf("session: server returned no token")
	}
	if err := s.secrets.Set(credential.TokenKey, resp.Token); err != nil {
		return model.Identity{}, fmt.Errorf("persisting credential: %w", err)
	}
	id := model.IdentityOf(resp.User)
	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
	s.logger.Info("signed in", zap.String("user_id", id.UserID.String()))
	return id, nil
}

// Logout tells the server to drop the credential, then clears local state
// regardless of the outcome.
func (s *Store) Logout(ctx context.Context) {
	if err := s.gw.Logout(ctx); err != nil {
		s.logger.Warn("logout request failed", zap.Error(err))
	}
	s.clearCredential()
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
}

// Teardown drops the in-memory identity. The persisted credential is kept
// so the next process can resolve it.
func (s *Store) Teardown() {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
}

// Current returns a copy of the identity and whether one is present.
func (s *Store) Current() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

// IsStaff reports whether the current identity carries the staff flag.
func (s *Store) IsStaff() bool {
	id, ok := s.Current()
	return ok && id.IsStaff
}

func (s *Store) clearCredential() {
	if err := s.secrets.Clear(credential.TokenKey); err != nil {
		s.logger.Warn("clearing credential", zap.Error(err))
	}
}

// SplitName splits a full name at the first single space. "Ada King Lovelace"
// yields ("Ada", "King Lovelace"); a single word has an empty last name.
func SplitName(fullName string) (first, last string) {
	first, last, _ = strings.Cut(fullName, " ")
	return first, last
}
