package cache

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/model"
)

type fakeSource struct {
	tasks    []model.Task
	projects []model.Project
	users    []model.User
	stats    model.Stats
	admin    model.AdminStats

	statsErr error
	block    chan struct{}
	calls    atomic.Int32
}

func (f *fakeSource) wait(ctx context.Context) error {
	f.calls.Add(1)
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) ListTasks(ctx context.Context, _ api.TaskQuery) ([]model.Task, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.tasks, nil
}

func (f *fakeSource) ListProjects(ctx context.Context) ([]model.Project, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeSource) DashboardStats(ctx context.Context, _ model.ID) (*model.Stats, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	s := f.stats
	return &s, nil
}

func (f *fakeSource) AdminUsers(ctx context.Context) ([]model.User, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeSource) AdminProjects(ctx context.Context, _ model.ID) ([]model.Project, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeSource) AdminTasks(ctx context.Context, _ api.AdminTaskQuery) ([]model.Task, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.tasks, nil
}

func (f *fakeSource) AdminDashboardStats(ctx context.Context) (*model.AdminStats, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	s := f.admin
	return &s, nil
}

func threeTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "a", Status: model.StatusTodo},
		{ID: "2", Title: "b", Status: model.StatusInProgress},
		{ID: "3", Title: "c", Status: model.StatusCompleted},
	}
}

func TestDashboardLoadCommitsAllCollections(t *testing.T) {
	src := &fakeSource{
		tasks:    threeTasks(),
		projects: []model.Project{{ID: "p1", Name: "Personal"}},
		stats:    model.Stats{Total: 3, Todo: 1, InProgress: 1, Completed: 1},
	}
	d := NewDashboard(src)

	_, ok := d.Get()
	assert.False(t, ok)

	data, err := d.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, data.Tasks, 3)
	assert.Len(t, data.Projects, 1)
	assert.Equal(t, 3, data.Stats.Total)
	assert.EqualValues(t, 3, src.calls.Load())

	cached, ok := d.Get()
	require.True(t, ok)
	assert.Equal(t, data, cached)
}

func TestFailedMemberLeavesCacheUnchanged(t *testing.T) {
	src := &fakeSource{tasks: threeTasks(), stats: model.Stats{Total: 3}}
	d := NewDashboard(src)
	before, err := d.Load(context.Background(), "")
	require.NoError(t, err)

	src.tasks = nil
	src.statsErr = &api.RequestError{Status: http.StatusInternalServerError, Message: "An error occurred"}

	got, err := d.Load(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, api.StatusOf(err))
	assert.Equal(t, before, got)

	cached, _ := d.Get()
	assert.Len(t, cached.Tasks, 3)
	assert.Equal(t, before, cached)
}

func TestClosedScopeDiscardsResult(t *testing.T) {
	src := &fakeSource{tasks: threeTasks(), block: make(chan struct{})}
	d := NewDashboard(src)
	scope := NewScope(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := d.Load(scope.Context(), "")
		errc <- err
	}()

	require.Eventually(t, func() bool { return src.calls.Load() == 3 }, time.Second, time.Millisecond)
	scope.Close()
	assert.True(t, scope.Closed())

	assert.ErrorIs(t, <-errc, ErrDiscarded)
	_, ok := d.Get()
	assert.False(t, ok)
}

func TestOlderGenerationCannotOverwriteNewer(t *testing.T) {
	var snap Snapshot[int]
	older := snap.Begin()
	newer := snap.Begin()

	assert.True(t, snap.Commit(newer, 2))
	assert.False(t, snap.Commit(older, 1))

	v, ok := snap.Get()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.False(t, snap.LoadedAt().IsZero())
}

func TestLoadCancelsSiblingsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	cancelled := make(chan struct{})
	err := Load(context.Background(),
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		},
	)
	assert.ErrorIs(t, err, boom)
	<-cancelled
}

func TestAdminViews(t *testing.T) {
	src := &fakeSource{
		tasks:    threeTasks(),
		projects: []model.Project{{ID: "p1"}, {ID: "p2"}},
		users:    []model.User{{ID: "u1"}},
		admin:    model.AdminStats{TotalUsers: 1, Stats: model.Stats{Total: 3}},
	}
	ctx := context.Background()

	stats, err := NewAdminOverview(src).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUsers)

	tasks, err := NewAdminTasks(src).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks.Tasks, 3)
	assert.Len(t, tasks.Users, 1)
	assert.Len(t, tasks.Projects, 2)

	projects, err := NewAdminProjects(src).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, projects.Projects, 2)
	assert.Len(t, projects.Users, 1)

	users := NewAdminUsers(src)
	list, err := users.Load(ctx)
	require.NoError(t, err)
	cached, ok := users.Get()
	assert.True(t, ok)
	assert.Equal(t, list, cached)
}
