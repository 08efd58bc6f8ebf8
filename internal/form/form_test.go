package form

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/model"
)

var refs = Refs{
	Projects: []model.Project{{ID: "p1", Name: "Personal"}, {ID: "p2", Name: "Work"}},
	Users:    []model.User{{ID: "u7"}, {ID: "u8"}},
}

func TestOpenCreateAppliesDefaults(t *testing.T) {
	f := NewAdminTaskForm()
	assert.Equal(t, Blank, f.Phase())

	f.OpenCreate(refs)
	d := f.Draft()
	assert.Equal(t, Editing, f.Phase())
	assert.False(t, f.IsEdit())
	assert.Equal(t, model.PriorityMedium, d.Priority)
	assert.Equal(t, model.StatusTodo, d.Status)
	assert.Equal(t, model.ID("p1"), d.Project)
	assert.Equal(t, model.ID("u7"), d.Owner)
	assert.Empty(t, d.Title)

	p := NewProjectForm()
	p.OpenCreate(Refs{})
	assert.Equal(t, model.ColorBlue, p.Draft().Color)
}

func TestOpenCreateAfterEditResetsFields(t *testing.T) {
	f := NewTaskForm()
	f.OpenEdit("t1", TaskDraft{Title: "old", Priority: model.PriorityHigh, Status: model.StatusCompleted})
	f.OpenCreate(refs)

	assert.Equal(t, TaskDraft{Priority: model.PriorityMedium, Status: model.StatusTodo, Project: "p1"}, f.Draft())
	assert.True(t, f.EditingID().IsZero())
}

func TestOpenEditCopiesSeed(t *testing.T) {
	task := model.Task{
		ID: "t9", Title: "Ship", Description: "v1", DueDate: model.MustDate("2024-07-01"),
		Priority: model.PriorityHigh, Status: model.StatusInProgress, Project: "p2", Owner: "u8",
	}
	f := NewAdminTaskForm()
	f.OpenEdit(task.ID, AdminTaskDraftOf(task))

	d := f.Draft()
	assert.True(t, f.IsEdit())
	assert.Equal(t, "Ship", d.Title)
	assert.Equal(t, "v1", d.Description)
	assert.Equal(t, task.DueDate, d.DueDate)
	assert.Equal(t, model.PriorityHigh, d.Priority)
	assert.Equal(t, model.StatusInProgress, d.Status)
	assert.Equal(t, model.ID("p2"), d.Project)
	assert.Equal(t, model.ID("u8"), d.Owner)
}

func TestSubmitMissingFieldSkipsDispatch(t *testing.T) {
	f := NewTaskForm()
	f.OpenCreate(refs)

	called := false
	_, err := f.Submit(context.Background(), func(context.Context, model.ID, TaskDraft) error {
		called = true
		return nil
	})

	var gap *ValidationGap
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, "Title", gap.Field)
	assert.False(t, called)
	assert.Equal(t, Editing, f.Phase())
	assert.Equal(t, "Title is required", f.Message())
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	f := NewProjectForm()
	f.OpenCreate(refs)
	f.SetDraft(ProjectDraft{Name: "Personal", Color: model.ColorRed})

	_, err := f.Submit(context.Background(), func(context.Context, model.ID, ProjectDraft) error {
		return &api.RequestError{Status: http.StatusBadRequest, Message: "You already have a project with this name."}
	})
	require.Error(t, err)
	assert.Equal(t, Editing, f.Phase())
	assert.Equal(t, "You already have a project with this name.", f.Message())
	assert.Equal(t, ProjectDraft{Name: "Personal", Color: model.ColorRed}, f.Draft())
}

func TestSubmitSuccessClosesAndRequestsReload(t *testing.T) {
	f := NewTaskForm()
	f.OpenCreate(refs)
	draft := f.Draft()
	draft.Title = "Write tests"
	draft.DueDate = model.MustDate("2024-08-01")
	f.SetDraft(draft)

	var gotID model.ID = "unset"
	reload, err := f.Submit(context.Background(), func(_ context.Context, id model.ID, d TaskDraft) error {
		gotID = id
		assert.Equal(t, "Write tests", d.Title)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, reload.Created)
	assert.True(t, gotID.IsZero())
	assert.Equal(t, Closed, f.Phase())

	_, err = f.Submit(context.Background(), TaskDispatch(nil))
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestBeginBlocksSecondSubmit(t *testing.T) {
	f := NewProjectForm()
	f.OpenEdit("p1", ProjectDraft{Name: "Work"})

	_, id, err := f.Begin()
	require.NoError(t, err)
	assert.Equal(t, model.ID("p1"), id)
	assert.Equal(t, Submitting, f.Phase())

	_, _, err = f.Begin()
	assert.ErrorIs(t, err, ErrNotEditing)

	reload, err := f.Finish(nil)
	require.NoError(t, err)
	assert.False(t, reload.Created)
}

type recordingWriter struct {
	created []api.TaskInput
	patched map[model.ID]api.TaskPatch
	err     error
}

func (w *recordingWriter) CreateAdminTask(_ context.Context, in api.TaskInput) (*model.Task, error) {
	w.created = append(w.created, in)
	return &model.Task{}, w.err
}

func (w *recordingWriter) UpdateAdminTask(_ context.Context, id model.ID, p api.TaskPatch) (*model.Task, error) {
	if w.patched == nil {
		w.patched = map[model.ID]api.TaskPatch{}
	}
	w.patched[id] = p
	return &model.Task{}, w.err
}

func TestAdminTaskDispatchBuildsFlatPayload(t *testing.T) {
	w := &recordingWriter{}
	dispatch := AdminTaskDispatch(w)
	d := AdminTaskDraft{
		TaskDraft: TaskDraft{Title: "  Audit  ", DueDate: model.MustDate("2024-09-09"), Priority: model.PriorityLow, Status: model.StatusTodo, Project: "p2"},
		Owner:     "u8",
	}

	require.NoError(t, dispatch(context.Background(), "", d))
	require.Len(t, w.created, 1)
	assert.Equal(t, "Audit", w.created[0].Title)
	assert.Equal(t, model.ID("u8"), w.created[0].User)

	require.NoError(t, dispatch(context.Background(), "t1", d))
	p := w.patched["t1"]
	require.NotNil(t, p.User)
	assert.Equal(t, model.ID("u8"), *p.User)
	assert.Equal(t, model.PriorityLow, *p.Priority)

	w.err = errors.New("boom")
	assert.Error(t, dispatch(context.Background(), "", d))
}
