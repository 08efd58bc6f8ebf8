package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
)

func TestSaveWritesConfigAndAnnounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := *model.DefaultAppConfig()
	m := New(cfg, path, nil, keys.DefaultKeyMap(), 80, 24)

	cfg.API.BaseURL = "http://example.test/api"
	cfg.API.TimeoutSec = 7
	cfg.Display.DefaultSort = "priority"

	msg := m.save(cfg)()
	m, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	saved, ok := cmd().(SavedMsg)
	require.True(t, ok)
	assert.Equal(t, "http://example.test/api", saved.Config.API.BaseURL)
	assert.Equal(t, 7, m.Config().API.TimeoutSec)
	assert.Contains(t, m.View(), "Settings saved")

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/api", loaded.API.BaseURL)
	assert.Equal(t, 7, loaded.API.TimeoutSec)
	assert.Equal(t, "priority", loaded.Display.DefaultSort)
}

func TestEscClosesView(t *testing.T) {
	m := New(*model.DefaultAppConfig(), "unused.yaml", nil, keys.DefaultKeyMap(), 80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, DoneMsg{}, cmd())
}

func TestConnectionTestResult(t *testing.T) {
	m := New(*model.DefaultAppConfig(), "unused.yaml", func(context.Context, string) error { return nil },
		keys.DefaultKeyMap(), 80, 24)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	require.NotNil(t, cmd)
	assert.Equal(t, ModeTesting, m.Mode())

	m, _ = m.Update(TestResultMsg{Err: nil})
	assert.Equal(t, ModeTestResult, m.Mode())
	assert.Contains(t, m.View(), "Connection successful")
}

func TestAPICheckerTreatsUnauthorizedAsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/user/", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Authentication credentials were not provided."}`))
	}))
	t.Cleanup(srv.Close)

	assert.NoError(t, APIChecker(0)(context.Background(), srv.URL+"/api"))
}

func TestAPICheckerReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	assert.Error(t, APIChecker(0)(context.Background(), srv.URL+"/api"))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("http://localhost:8000/api"))
	assert.Error(t, validateURL("localhost"))
	assert.Error(t, validateURL(" "))
	assert.NoError(t, validateSeconds("0"))
	assert.Error(t, validateSeconds("-1"))
	assert.Error(t, validateSeconds("ten"))
}
