package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
)

type fakeGateway struct {
	mu sync.Mutex

	loginResp  *api.AuthResponse
	loginErr   error
	registered []api.RegisterRequest
	logoutErr  error
	logouts    int
	user       *model.User
	userErr    error
	userCalls  int
	userGate   chan struct{}
}

func (f *fakeGateway) Login(_ context.Context, _, _ string) (*api.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeGateway) Register(_ context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	f.mu.Lock()
	f.registered = append(f.registered, req)
	f.mu.Unlock()
	return f.loginResp, f.loginErr
}

func (f *fakeGateway) Logout(context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeGateway) CurrentUser(context.Context) (*model.User, error) {
	f.mu.Lock()
	f.userCalls++
	gate := f.userGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.user, f.userErr
}

var ann = model.User{ID: "1", Email: "ann@example.com", Username: "ann@example.com", Name: "Ann Lee"}

func TestResolveWithoutCredentialStaysAnonymous(t *testing.T) {
	gw := &fakeGateway{user: &ann}
	s := New(gw, credential.NewMemoryStore(), nil)

	_, ok := s.Init(context.Background())
	assert.False(t, ok)
	assert.Zero(t, gw.userCalls)
}

func TestResolveValidCredential(t *testing.T) {
	secrets := credential.NewMemoryStore()
	require.NoError(t, secrets.Set(credential.TokenKey, "tok"))
	gw := &fakeGateway{user: &ann}
	s := New(gw, secrets, nil)

	id, ok := s.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, model.ID("1"), id.UserID)
	assert.Equal(t, "Ann Lee", id.DisplayName)

	// Second call returns the cached outcome.
	_, ok = s.Resolve(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 1, gw.userCalls)
}

func TestResolveInvalidCredentialClearsIt(t *testing.T) {
	secrets := credential.NewMemoryStore()
	require.NoError(t, secrets.Set(credential.TokenKey, "stale"))
	gw := &fakeGateway{userErr: &api.RequestError{Status: 401, Message: "Invalid token."}}
	s := New(gw, secrets, nil)

	_, ok := s.Resolve(context.Background())
	assert.False(t, ok)

	_, err := secrets.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestLoginPersistsCredentialBeforeIdentity(t *testing.T) {
	secrets := credential.NewMemoryStore()
	gw := &fakeGateway{loginResp: &api.AuthResponse{User: ann, Token: "fresh"}}
	s := New(gw, secrets, nil)
	s.Init(context.Background())

	id, err := s.Login(context.Background(), ann.Email, "pw")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, id.UserID)

	token, err := secrets.Get(credential.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	secrets := credential.NewMemoryStore()
	gw := &fakeGateway{loginErr: &api.RequestError{Status: 400, Message: "Invalid credentials"}}
	s := New(gw, secrets, nil)
	s.Init(context.Background())

	_, err := s.Login(context.Background(), "x@y.z", "bad")
	assert.EqualError(t, err, "Invalid credentials")

	_, ok := s.Current()
	assert.False(t, ok)
	_, err = secrets.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestSignupSendsSplitNameAndConfirmation(t *testing.T) {
	gw := &fakeGateway{loginResp: &api.AuthResponse{User: ann, Token: "t"}}
	s := New(gw, credential.NewMemoryStore(), nil)
	s.Init(context.Background())

	_, err := s.Signup(context.Background(), "Ada King Lovelace", "ada@example.com", "secret1")
	require.NoError(t, err)

	require.Len(t, gw.registered, 1)
	req := gw.registered[0]
	assert.Equal(t, "Ada", req.FirstName)
	assert.Equal(t, "King Lovelace", req.LastName)
	assert.Equal(t, "ada@example.com", req.Username)
	assert.Equal(t, req.Password, req.PasswordConfirm)
}

func TestLogoutClearsEvenWhenNetworkFails(t *testing.T) {
	secrets := credential.NewMemoryStore()
	gw := &fakeGateway{
		loginResp: &api.AuthResponse{User: ann, Token: "tok"},
		logoutErr: &api.NetworkError{Method: "POST", Path: "/auth/logout/", Err: errors.New("connection refused")},
	}
	s := New(gw, secrets, nil)
	s.Init(context.Background())
	_, err := s.Login(context.Background(), ann.Email, "pw")
	require.NoError(t, err)

	s.Logout(context.Background())

	assert.Equal(t, 1, gw.logouts)
	_, ok := s.Current()
	assert.False(t, ok)
	_, err = secrets.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestLoginRejectedWhileResolving(t *testing.T) {
	secrets := credential.NewMemoryStore()
	require.NoError(t, secrets.Set(credential.TokenKey, "tok"))
	gate := make(chan struct{})
	gw := &fakeGateway{user: &ann, userGate: gate, loginResp: &api.AuthResponse{User: ann, Token: "x"}}
	s := New(gw, secrets, nil)

	done := make(chan struct{})
	go func() {
		s.Init(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return errors.Is(s.checkIdle(), ErrResolveInFlight)
	}, time.Second, time.Millisecond)

	_, err := s.Login(context.Background(), ann.Email, "pw")
	assert.ErrorIs(t, err, ErrResolveInFlight)

	close(gate)
	<-done
	assert.True(t, s.IsStaff() == ann.IsStaff)
	_, ok := s.Current()
	assert.True(t, ok)
}

func TestTeardownKeepsCredential(t *testing.T) {
	secrets := credential.NewMemoryStore()
	gw := &fakeGateway{loginResp: &api.AuthResponse{User: ann, Token: "keep"}}
	s := New(gw, secrets, nil)
	s.Init(context.Background())
	_, err := s.Login(context.Background(), ann.Email, "pw")
	require.NoError(t, err)

	s.Teardown()

	_, ok := s.Current()
	assert.False(t, ok)
	token, err := secrets.Get(credential.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "keep", token)
}

func TestSplitName(t *testing.T) {
	cases := map[string][2]string{
		"Ann":               {"Ann", ""},
		"Ann Lee":           {"Ann", "Lee"},
		"Ada King Lovelace": {"Ada", "King Lovelace"},
		"":                  {"", ""},
	}
	for in, want := range cases {
		first, last := SplitName(in)
		assert.Equal(t, want[0], first, in)
		assert.Equal(t, want[1], last, in)
	}
}
