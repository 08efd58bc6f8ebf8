package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/model"
)

// DashboardSource is what the personal dashboard reads from.
type DashboardSource interface {
	ListTasks(ctx context.Context, q api.TaskQuery) ([]model.Task, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	DashboardStats(ctx context.Context, project model.ID) (*model.Stats, error)
}

// AdminSource is what the admin views read from.
type AdminSource interface {
	AdminUsers(ctx context.Context) ([]model.User, error)
	AdminProjects(ctx context.Context, owner model.ID) ([]model.Project, error)
	AdminTasks(ctx context.Context, q api.AdminTaskQuery) ([]model.Task, error)
	AdminDashboardStats(ctx context.Context) (*model.AdminStats, error)
}

// DashboardData is one consistent load of the personal dashboard.
type DashboardData struct {
	Project  model.ID
	Tasks    []model.Task
	Projects []model.Project
	Stats    model.Stats
}

// Dashboard caches the personal dashboard.
type Dashboard struct {
	src  DashboardSource
	snap Snapshot[DashboardData]
}

// NewDashboard returns an empty dashboard cache.
func NewDashboard(src DashboardSource) *Dashboard {
	return &Dashboard{src: src}
}

// Load fetches tasks, projects and stats for project (zero for all
// projects) and replaces the cache if all three succeed.
func (d *Dashboard) Load(ctx context.Context, project model.ID) (DashboardData, error) {
	return refresh(ctx, &d.snap, func(next *DashboardData) []Fetcher {
		next.Project = project
		return []Fetcher{
			func(ctx context.Context) error {
				tasks, err := d.src.ListTasks(ctx, api.TaskQuery{Project: project})
				if err != nil {
					return fmt.Errorf("loading tasks: %w", err)
				}
				next.Tasks = tasks
				return nil
			},
			func(ctx context.Context) error {
				projects, err := d.src.ListProjects(ctx)
				if err != nil {
					return fmt.Errorf("loading projects: %w", err)
				}
				next.Projects = projects
				return nil
			},
			func(ctx context.Context) error {
				stats, err := d.src.DashboardStats(ctx, project)
				if err != nil {
					return fmt.Errorf("loading stats: %w", err)
				}
				next.Stats = *stats
				return nil
			},
		}
	})
}

// Get returns the cached dashboard.
func (d *Dashboard) Get() (DashboardData, bool) { return d.snap.Get() }

// LoadedAt returns when the dashboard was last replaced.
func (d *Dashboard) LoadedAt() time.Time { return d.snap.LoadedAt() }

// AdminOverview caches the admin stats page.
type AdminOverview struct {
	src  AdminSource
	snap Snapshot[model.AdminStats]
}

// NewAdminOverview returns an empty overview cache.
func NewAdminOverview(src AdminSource) *AdminOverview {
	return &AdminOverview{src: src}
}

// Load fetches the system-wide stats.
func (o *AdminOverview) Load(ctx context.Context) (model.AdminStats, error) {
	return refresh(ctx, &o.snap, func(next *model.AdminStats) []Fetcher {
		return []Fetcher{func(ctx context.Context) error {
			stats, err := o.src.AdminDashboardStats(ctx)
			if err != nil {
				return fmt.Errorf("loading admin stats: %w", err)
			}
			*next = *stats
			return nil
		}}
	})
}

// Get returns the cached stats.
func (o *AdminOverview) Get() (model.AdminStats, bool) { return o.snap.Get() }

// AdminTasksData backs the admin tasks tab. Users and projects feed the
// filters and form pickers.
type AdminTasksData struct {
	Tasks    []model.Task
	Users    []model.User
	Projects []model.Project
}

// AdminTasks caches the admin tasks tab.
type AdminTasks struct {
	src  AdminSource
	snap Snapshot[AdminTasksData]
}

// NewAdminTasks returns an empty cache.
func NewAdminTasks(src AdminSource) *AdminTasks {
	return &AdminTasks{src: src}
}

// Load fetches tasks, users and projects.
func (a *AdminTasks) Load(ctx context.Context) (AdminTasksData, error) {
	return refresh(ctx, &a.snap, func(next *AdminTasksData) []Fetcher {
		return []Fetcher{
			func(ctx context.Context) error {
				tasks, err := a.src.AdminTasks(ctx, api.AdminTaskQuery{})
				if err != nil {
					return fmt.Errorf("loading tasks: %w", err)
				}
				next.Tasks = tasks
				return nil
			},
			usersFetcher(a.src, &next.Users),
			projectsFetcher(a.src, &next.Projects),
		}
	})
}

// Get returns the cached tab data.
func (a *AdminTasks) Get() (AdminTasksData, bool) { return a.snap.Get() }

// AdminProjectsData backs the admin projects tab.
type AdminProjectsData struct {
	Projects []model.Project
	Users    []model.User
}

// AdminProjects caches the admin projects tab.
type AdminProjects struct {
	src  AdminSource
	snap Snapshot[AdminProjectsData]
}

// NewAdminProjects returns an empty cache.
func NewAdminProjects(src AdminSource) *AdminProjects {
	return &AdminProjects{src: src}
}

// Load fetches projects and users.
func (a *AdminProjects) Load(ctx context.Context) (AdminProjectsData, error) {
	return refresh(ctx, &a.snap, func(next *AdminProjectsData) []Fetcher {
		return []Fetcher{
			projectsFetcher(a.src, &next.Projects),
			usersFetcher(a.src, &next.Users),
		}
	})
}

// Get returns the cached tab data.
func (a *AdminProjects) Get() (AdminProjectsData, bool) { return a.snap.Get() }

// AdminUsers caches the admin users tab.
type AdminUsers struct {
	src  AdminSource
	snap Snapshot[[]model.User]
}

// NewAdminUsers returns an empty cache.
func NewAdminUsers(src AdminSource) *AdminUsers {
	return &AdminUsers{src: src}
}

// Load fetches every user.
func (a *AdminUsers) Load(ctx context.Context) ([]model.User, error) {
	return refresh(ctx, &a.snap, func(next *[]model.User) []Fetcher {
		return []Fetcher{usersFetcher(a.src, next)}
	})
}

// Get returns the cached users.
func (a *AdminUsers) Get() ([]model.User, bool) { return a.snap.Get() }

func usersFetcher(src AdminSource, dst *[]model.User) Fetcher {
	return func(ctx context.Context) error {
		users, err := src.AdminUsers(ctx)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		*dst = users
		return nil
	}
}

func projectsFetcher(src AdminSource, dst *[]model.Project) Fetcher {
	return func(ctx context.Context) error {
		projects, err := src.AdminProjects(ctx, "")
		if err != nil {
			return fmt.Errorf("loading projects: %w", err)
		}
		*dst = projects
		return nil
	}
}
