// Package form drives the create/edit forms independently of how they are
// rendered. A Controller moves through Blank, Editing and Submitting and
// closes only after the server accepted the draft.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/model"
)

// Phase is the lifecycle state of a form.
type Phase int

const (
	Blank Phase = iota
	Editing
	Submitting
	Closed
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Closed:
		return "closed"
	default:
		return "blank"
	}
}

// ErrNotEditing is returned when Submit is called on a form that is not
// open for editing, including one already submitting.
var ErrNotEditing = errors.New("form: not editing")

// ValidationGap reports a missing required field. It is produced locally
// and never involves a network call.
type ValidationGap struct {
	Field string
}

func (e *ValidationGap) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Refs are the reference lists a form picks defaults from.
type Refs struct {
	Projects []model.Project
	Users    []model.User
}

func (r Refs) firstProject() model.ID {
	if len(r.Projects) == 0 {
		return ""
	}
	return r.Projects[0].ID
}

func (r Refs) firstUser() model.ID {
	if len(r.Users) == 0 {
		return ""
	}
	return r.Users[0].ID
}

// Draft is the editable content of a form.
type Draft interface {
	// Missing returns the label of the first empty required field, or "".
	Missing() string
}

// Dispatch sends a draft to the server. A zero id means create.
type Dispatch[D Draft] func(ctx context.Context, id model.ID, draft D) error

// Reload tells the owning view to re-run its load after a successful
// submit.
type Reload struct {
	Created bool
}

// Controller holds one form's state. It is safe for concurrent use so a
// submit may run off the UI goroutine.
type Controller[D Draft] struct {
	defaults func(Refs) D

	mu      sync.Mutex
	phase   Phase
	id      model.ID
	draft   D
	message string
}

func newController[D Draft](defaults func(Refs) D) *Controller[D] {
	return &Controller[D]{defaults: defaults}
}

// OpenCreate resets every field to its default.
func (c *Controller[D]) OpenCreate(refs Refs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = Editing
	c.id = ""
	c.draft = c.defaults(refs)
	c.message = ""
}

// OpenEdit copies seed into the draft for the entity with the given id.
func (c *Controller[D]) OpenEdit(id model.ID, seed D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = Editing
	c.id = id
	c.draft = seed
	c.message = ""
}

// SetDraft replaces the draft while editing. It is ignored otherwise.
func (c *Controller[D]) SetDraft(d D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Editing {
		c.draft = d
	}
}

// Draft returns the current draft.
func (c *Controller[D]) Draft() D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Phase returns the current phase.
func (c *Controller[D]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// EditingID returns the id being edited, zero when creating.
func (c *Controller[D]) EditingID() model.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// IsEdit reports whether the form edits an existing entity.
func (c *Controller[D]) IsEdit() bool { return !c.EditingID().IsZero() }

// Message returns the error shown on the form, if any.
func (c *Controller[D]) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Cancel closes the form without submitting.
func (c *Controller[D]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = Closed
	c.message = ""
}

// Begin checks required fields and moves to Submitting. It returns the
// draft and target id to dispatch.
func (c *Controller[D]) Begin() (D, model.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero D
	if c.phase != Editing {
		return zero, "", ErrNotEditing
	}
	if field := c.draft.Missing(); field != "" {
		gap := &ValidationGap{Field: field}
		c.message = gap.Error()
		return zero, "", gap
	}
	c.phase = Submitting
	c.message = ""
	return c.draft, c.id, nil
}

// Finish records the dispatch outcome. Success closes the form; failure
// reopens it with the server's message and the draft intact.
func (c *Controller[D]) Finish(err error) (Reload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Submitting {
		return Reload{}, ErrNotEditing
	}
	if err != nil {
		c.phase = Editing
		c.message = api.Message(err)
		return Reload{}, err
	}
	created := c.id.IsZero()
	c.phase = Closed
	c.message = ""
	return Reload{Created: created}, nil
}

// Submit validates, dispatches and finishes in one call.
func (c *Controller[D]) Submit(ctx context.Context, dispatch Dispatch[D]) (Reload, error) {
	draft, id, err := c.Begin()
	if err != nil {
		return Reload{}, err
	}
	return c.Finish(dispatch(ctx, id, draft))
}
