package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *credential.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	secrets := credential.NewMemoryStore()
	return NewClient(srv.URL+"/api/", secrets), secrets
}

func TestErrorMessagePriority(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message wins", `{"message":"m","detail":"d","error":"e"}`, "m"},
		{"detail before error", `{"detail":"d","error":"e"}`, "d"},
		{"error only", `{"error":"e"}`, "e"},
		{"empty message skipped", `{"message":"","detail":"d"}`, "d"},
		{"non-string skipped", `{"message":["a"],"error":"e"}`, "e"},
		{"field errors only", `{"email":["taken"]}`, DefaultErrorMessage},
		{"not json", `<html>oops</html>`, DefaultErrorMessage},
		{"empty body", ``, DefaultErrorMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ErrorMessage([]byte(tc.body)))
		})
	}
}

func TestTokenHeaderAttachedWhenPersisted(t *testing.T) {
	var gotAuth []string
	client, secrets := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := client.ListProjects(context.Background())
	require.NoError(t, err)

	require.NoError(t, secrets.Set(credential.TokenKey, "abc123"))
	_, err = client.ListProjects(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Token abc123"}, gotAuth)
}

func TestNon2xxBecomesRequestError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Invalid credentials"}`)
	})

	_, err := client.Login(context.Background(), "a@b.c", "nope")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Equal(t, "Invalid credentials", reqErr.Message)
	assert.Equal(t, "Invalid credentials", Message(err))
	assert.False(t, IsUnauthorized(err))
	assert.False(t, IsNetwork(err))
}

func TestUnauthorizedPredicate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Invalid token."}`)
	})

	_, err := client.CurrentUser(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, credential.NewMemoryStore())
	_, err := client.ListTasks(context.Background(), TaskQuery{})
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, 0, StatusOf(err))
}

func TestNoRetryOnFailure(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	})

	_, err := client.DashboardStats(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "boom", Message(err))
	assert.Equal(t, 1, calls)
}

func TestDeleteAcceptsEmptyBody(t *testing.T) {
	var method, path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteAdminTask(context.Background(), "42"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/admin/tasks/42/", path)
}

func TestTaskQueryEncoding(t *testing.T) {
	var query string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"id":7,"title":"Write","due_date":"2024-03-01","priority":"high","status":"todo","project":3,"user":1}]`)
	})

	tasks, err := client.ListTasks(context.Background(), TaskQuery{
		Project: "3",
		Status:  model.StatusTodo,
		Search:  "wr",
	})
	require.NoError(t, err)
	assert.Equal(t, "project=3&search=wr&status=todo", query)

	require.Len(t, tasks, 1)
	assert.Equal(t, model.ID("7"), tasks[0].ID)
	assert.Equal(t, model.ID("3"), tasks[0].Project)
	assert.Equal(t, model.MustDate("2024-03-01"), tasks[0].DueDate)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
}

func TestUpdateTaskSendsOnlySetFields(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id":"t1","status":"completed"}`)
	})

	status := model.StatusCompleted
	owner := model.ID("u9")
	task, err := client.UpdateTask(context.Background(), "t1", TaskPatch{Status: &status, User: &owner})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Equal(t, map[string]any{"status": "completed"}, body)
}

func TestAdminStatsDecodesEmbeddedCounts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_users":4,"total_projects":2,"total_tasks":9,"todo_tasks":3,
			"in_progress_tasks":2,"completed_tasks":4,"overdue_tasks":1,"recent_users":[{"id":1,"username":"ann"}]}`)
	})

	stats, err := client.AdminDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, 9, stats.Total)
	assert.Equal(t, 1, stats.Overdue)
	require.Len(t, stats.RecentUsers, 1)
	assert.Equal(t, "ann", stats.RecentUsers[0].DisplayName())
}
