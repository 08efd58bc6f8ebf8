package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/tests/testutil"
)

var fixedNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

type harness struct {
	t   *testing.T
	srv *server.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := testutil.NewTestStore(t)
	srv := server.New(st, nil, server.WithClock(func() time.Time { return fixedNow }))
	return &harness{t: t, srv: srv}
}

// call sends a JSON request and decodes the response body into out when
// out is non-nil.
func (h *harness) call(method, path, token string, body any, out any) int {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := h.srv.App().Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		require.NoError(h.t, err)
		require.NoError(h.t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

type authBody struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	Message string     `json:"message"`
}

func (h *harness) register(email, first, last string) authBody {
	h.t.Helper()
	var out authBody
	status := h.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":            email,
		"first_name":       first,
		"last_name":        last,
		"password":         "secret1",
		"password_confirm": "secret1",
	}, &out)
	require.Equal(h.t, http.StatusCreated, status)
	return out
}

func (h *harness) staffToken(email string) string {
	h.t.Helper()
	_, err := h.srv.CreateStaff(h.t.Context(), email, "secret1", "Site", "Admin")
	require.NoError(h.t, err)
	var out authBody
	status := h.call(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "secret1",
	}, &out)
	require.Equal(h.t, http.StatusOK, status)
	return out.Token
}

func (h *harness) personalProject(token string) model.Project {
	h.t.Helper()
	var projects []model.Project
	require.Equal(h.t, http.StatusOK, h.call(http.MethodGet, "/api/projects/", token, nil, &projects))
	require.Len(h.t, projects, 1)
	return projects[0]
}

func (h *harness) createTask(token string, body map[string]any) model.Task {
	h.t.Helper()
	var task model.Task
	status := h.call(http.MethodPost, "/api/tasks/", token, body, &task)
	require.Equal(h.t, http.StatusCreated, status)
	return task
}

func TestRegisterCreatesPersonalProject(t *testing.T) {
	h := newHarness(t)

	out := h.register("ada@example.com", "Ada", "Lovelace")

	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "Ada Lovelace", out.User.Name)
	assert.Equal(t, "ada@example.com", out.User.Username)
	assert.False(t, out.User.IsStaff)

	p := h.personalProject(out.Token)
	assert.Equal(t, "Personal", p.Name)
	assert.Equal(t, "Personal tasks", p.Description)
	assert.Equal(t, model.ColorBlue, p.Color)
	assert.Equal(t, 0, p.TaskCount)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	h.register("ada@example.com", "Ada", "Lovelace")

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{
			name: "duplicate email",
			body: map[string]string{
				"email": "ada@example.com", "first_name": "A", "last_name": "B",
				"password": "secret1", "password_confirm": "secret1",
			},
			want: "A user with this email already exists.",
		},
		{
			name: "password mismatch",
			body: map[string]string{
				"email": "bob@example.com", "first_name": "Bob", "last_name": "B",
				"password": "secret1", "password_confirm": "secret2",
			},
			want: "Passwords don't match",
		},
		{
			name: "short password",
			body: map[string]string{
				"email": "bob@example.com", "first_name": "Bob", "last_name": "B",
				"password": "abc", "password_confirm": "abc",
			},
			want: "Password must be at least 6 characters.",
		},
		{
			name: "missing first name",
			body: map[string]string{
				"email": "bob@example.com", "last_name": "B",
				"password": "secret1", "password_confirm": "secret1",
			},
			want: "First name is required.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out map[string]string
			status := h.call(http.MethodPost, "/api/auth/register", "", tc.body, &out)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.want, out["message"])
		})
	}
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t)
	h.register("ada@example.com", "Ada", "Lovelace")

	var bad map[string]string
	status := h.call(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	}, &bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid credentials", bad["message"])

	var out authBody
	status = h.call(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "secret1",
	}, &out)
	require.Equal(t, http.StatusOK, status)

	var me model.User
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/auth/user", out.Token, nil, &me))
	assert.Equal(t, "ada@example.com", me.Email)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/auth/logout", out.Token, nil, nil))

	var denied map[string]string
	status = h.call(http.MethodGet, "/api/auth/user", out.Token, nil, &denied)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token.", denied["detail"])
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	h := newHarness(t)

	var out map[string]string
	status := h.call(http.MethodGet, "/api/tasks/", "", nil, &out)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication credentials were not provided.", out["detail"])
}

func TestProjectNamesAreUniquePerUser(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	bob := h.register("bob@example.com", "Bob", "Builder")

	body := map[string]string{"name": "Work", "color": "green"}
	var created model.Project
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/projects/", ada.Token, body, &created))
	assert.Equal(t, model.ColorGreen, created.Color)
	assert.Equal(t, "ada@example.com", created.OwnerName)

	var dup map[string]string
	assert.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/api/projects/", ada.Token, body, &dup))
	assert.Equal(t, "You already have a project with this name.", dup["message"])

	assert.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/projects/", bob.Token, body, nil))
}

func TestProjectColorDefaultsAndValidation(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")

	var p model.Project
	require.Equal(t, http.StatusCreated,
		h.call(http.MethodPost, "/api/projects/", ada.Token, map[string]string{"name": "Home"}, &p))
	assert.Equal(t, model.ColorBlue, p.Color)

	var bad map[string]string
	assert.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/api/projects/", ada.Token,
		map[string]string{"name": "Art", "color": "teal"}, &bad))
	assert.Equal(t, `"teal" is not a valid color.`, bad["message"])
}

func TestOthersProjectsAreHidden(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	bob := h.register("bob@example.com", "Bob", "Builder")
	adaProject := h.personalProject(ada.Token)

	path := "/api/projects/" + adaProject.ID.String() + "/"
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, path, bob.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodDelete, path, bob.Token, nil, nil))
	assert.Equal(t, http.StatusOK, h.call(http.MethodGet, path, ada.Token, nil, nil))
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	project := h.personalProject(ada.Token)

	task := h.createTask(ada.Token, map[string]any{
		"title":    "Write report",
		"due_date": "2024-05-20",
		"project":  project.ID,
	})
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Equal(t, "Personal", task.ProjectName)
	assert.Equal(t, "ada@example.com", task.OwnerName)
	assert.Equal(t, model.MustDate("2024-05-20"), task.DueDate)

	var updated model.Task
	path := "/api/tasks/" + task.ID.String() + "/"
	require.Equal(t, http.StatusOK, h.call(http.MethodPatch, path, ada.Token,
		map[string]any{"status": "completed"}, &updated))
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, "Write report", updated.Title)

	// Personal tasks have no delete route.
	assert.GreaterOrEqual(t, h.call(http.MethodDelete, path, ada.Token, nil, nil), http.StatusBadRequest)

	var refreshed model.Project
	require.Equal(t, http.StatusOK, h.call(http.MethodGet,
		"/api/projects/"+project.ID.String()+"/", ada.Token, nil, &refreshed))
	assert.Equal(t, 1, refreshed.TaskCount)
}

func TestTaskValidation(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	bob := h.register("bob@example.com", "Bob", "Builder")
	adaProject := h.personalProject(ada.Token)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing title", map[string]any{"due_date": "2024-05-20", "project": adaProject.ID}, "Title is required."},
		{"missing due date", map[string]any{"title": "x", "project": adaProject.ID}, "Due date is required."},
		{"bad priority", map[string]any{"title": "x", "due_date": "2024-05-20", "project": adaProject.ID, "priority": "urgent"}, `"urgent" is not a valid priority.`},
		{"foreign project", map[string]any{"title": "x", "due_date": "2024-05-20", "project": adaProject.ID}, "You can only assign tasks to your own projects"},
		{"unknown project", map[string]any{"title": "x", "due_date": "2024-05-20", "project": "999"}, "Invalid project."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token := ada.Token
			if tc.name == "foreign project" {
				token = bob.Token
			}
			var out map[string]string
			assert.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/api/tasks/", token, tc.body, &out))
			assert.Equal(t, tc.want, out["message"])
		})
	}
}

func TestTaskFiltersAndStats(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	personal := h.personalProject(ada.Token)

	var work model.Project
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/projects/", ada.Token,
		map[string]string{"name": "Work"}, &work))

	h.createTask(ada.Token, map[string]any{"title": "Overdue todo", "due_date": "2024-05-01", "project": personal.ID})
	h.createTask(ada.Token, map[string]any{"title": "Overdue doing", "due_date": "2024-05-09", "status": "in-progress", "project": work.ID})
	h.createTask(ada.Token, map[string]any{"title": "Late but done", "due_date": "2024-05-01", "status": "completed", "project": work.ID})
	h.createTask(ada.Token, map[string]any{"title": "Due today", "due_date": "2024-05-10", "priority": "high", "project": work.ID})

	var stats model.Stats
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/dashboard/stats", ada.Token, nil, &stats))
	assert.Equal(t, model.Stats{Total: 4, Todo: 2, InProgress: 1, Completed: 1, Overdue: 2}, stats)

	require.Equal(t, http.StatusOK, h.call(http.MethodGet,
		"/api/dashboard/stats?project="+work.ID.String(), ada.Token, nil, &stats))
	assert.Equal(t, model.Stats{Total: 3, Todo: 1, InProgress: 1, Completed: 1, Overdue: 1}, stats)

	require.Equal(t, http.StatusOK, h.call(http.MethodGet,
		"/api/dashboard/stats?project=all", ada.Token, nil, &stats))
	assert.Equal(t, 4, stats.Total)

	var tasks []model.Task
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/tasks/?search=OVERDUE", ada.Token, nil, &tasks))
	assert.Len(t, tasks, 2)

	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/tasks/?status=completed", ada.Token, nil, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Late but done", tasks[0].Title)

	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/tasks/?priority=high", ada.Token, nil, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Due today", tasks[0].Title)
}

func TestServerStatsMatchClientAggregate(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	personal := h.personalProject(ada.Token)

	h.createTask(ada.Token, map[string]any{"title": "Old", "due_date": "2024-04-30", "project": personal.ID})
	h.createTask(ada.Token, map[string]any{"title": "Yesterday", "due_date": "2024-05-09", "status": "in-progress", "project": personal.ID})
	h.createTask(ada.Token, map[string]any{"title": "Done late", "due_date": "2024-05-01", "status": "completed", "project": personal.ID})
	h.createTask(ada.Token, map[string]any{"title": "Today", "due_date": "2024-05-10", "project": personal.ID})
	h.createTask(ada.Token, map[string]any{"title": "Next week", "due_date": "2024-05-17", "project": personal.ID})

	var tasks []model.Task
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/tasks/", ada.Token, nil, &tasks))
	var stats model.Stats
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/dashboard/stats/", ada.Token, nil, &stats))

	assert.Equal(t, derive.Aggregate(tasks, fixedNow), stats)
	assert.Equal(t, 2, stats.Overdue)
}

func TestAdminRequiresStaff(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com", "Ada", "Lovelace")

	var out map[string]string
	status := h.call(http.MethodGet, "/api/admin/dashboard/stats", ada.Token, nil, &out)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to perform this action.", out["detail"])
}

func TestAdminManagesAnyUsersData(t *testing.T) {
	h := newHarness(t)
	admin := h.staffToken("root@example.com")
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	h.register("bob@example.com", "Bob", "Builder")

	var project model.Project
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/admin/projects", admin,
		map[string]any{"name": "Garden", "color": "green", "user": ada.User.ID}, &project))
	assert.Equal(t, ada.User.ID, project.Owner)

	var missingUser map[string]string
	assert.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/api/admin/projects", admin,
		map[string]any{"name": "Orphan"}, &missingUser))
	assert.Equal(t, "User is required.", missingUser["message"])

	var task model.Task
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/admin/tasks", admin, map[string]any{
		"title": "Plant", "due_date": "2024-05-30", "project": project.ID, "user": ada.User.ID,
	}, &task))
	assert.Equal(t, ada.User.ID, task.Owner)

	var tasks []model.Task
	require.Equal(t, http.StatusOK, h.call(http.MethodGet,
		"/api/admin/tasks?user="+ada.User.ID.String(), admin, nil, &tasks))
	assert.Len(t, tasks, 1)

	var projects []model.Project
	require.Equal(t, http.StatusOK, h.call(http.MethodGet,
		"/api/admin/projects?user="+ada.User.ID.String(), admin, nil, &projects))
	assert.Len(t, projects, 2)

	assert.Equal(t, http.StatusNoContent, h.call(http.MethodDelete,
		"/api/admin/tasks/"+task.ID.String(), admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet,
		"/api/admin/tasks/"+task.ID.String(), admin, nil, nil))

	var users []model.User
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/admin/users", admin, nil, &users))
	assert.Len(t, users, 3)
}

func TestAdminStats(t *testing.T) {
	h := newHarness(t)
	admin := h.staffToken("root@example.com")
	ada := h.register("ada@example.com", "Ada", "Lovelace")
	bob := h.register("bob@example.com", "Bob", "Builder")

	h.createTask(ada.Token, map[string]any{"title": "a", "due_date": "2024-05-01", "project": h.personalProject(ada.Token).ID})
	h.createTask(bob.Token, map[string]any{"title": "b", "due_date": "2024-06-01", "project": h.personalProject(bob.Token).ID})

	var stats model.AdminStats
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/admin/dashboard/stats", admin, nil, &stats))

	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalProjects)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Overdue)
	assert.Len(t, stats.RecentUsers, 2)
	assert.Len(t, stats.RecentProjects, 2)
	assert.Len(t, stats.RecentTasks, 2)
	for _, u := range stats.RecentUsers {
		assert.False(t, u.IsStaff)
	}
}
