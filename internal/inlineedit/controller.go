package inlineedit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/query"
)

// Controller drives one field of a Group.
type Controller struct {
	group *Group
	field Field

	// Guarded by group.mu.
	value any
	draft any
	err   error
}

// Field returns the field description.
func (c *Controller) Field() Field {
	return c.field
}

// Name returns the field name.
func (c *Controller) Name() string {
	return c.field.Name
}

// State derives the current presentation state.
func (c *Controller) State() State {
	g := c.group
	g.mu.Lock()
	defer g.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case !c.group.loaded:
		return StateLoading
	case c.group.active == c.field.Name:
		return StateForm
	case isEmpty(c.value):
		return StateEmpty
	default:
		return StateView
	}
}

// Value returns the last loaded or committed value.
func (c *Controller) Value() any {
	c.group.mu.Lock()
	defer c.group.mu.Unlock()
	return c.value
}

// Display returns the formatted value for the read-only view.
func (c *Controller) Display() string {
	return c.field.Format(c.Value())
}

// Draft returns the editor's current value. It is only meaningful in FORM.
func (c *Controller) Draft() any {
	c.group.mu.Lock()
	defer c.group.mu.Unlock()
	return c.draft
}

// DraftText returns the draft as editor text.
func (c *Controller) DraftText() string {
	d := c.Draft()
	if s, ok := d.(string); ok {
		return s
	}
	return c.field.Raw(d)
}

// Err returns the error of the last failed commit, cleared on the next
// activation or commit.
func (c *Controller) Err() error {
	c.group.mu.Lock()
	defer c.group.mu.Unlock()
	return c.err
}

// Pending reports whether a commit for this field is in flight.
func (c *Controller) Pending() bool {
	c.group.mu.Lock()
	defer c.group.mu.Unlock()
	return c.group.pending == c.field.Name
}

// Activate opens the field's editor, seeded with the current value or the
// field default. Any other open field in the group is closed and its draft
// discarded. Activating the field that is already open is a no-op.
func (c *Controller) Activate() error {
	g := c.group
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.loaded {
		return ErrLoading
	}
	if g.pending != "" {
		return ErrCommitPending
	}
	if g.active == c.field.Name {
		return nil
	}
	if prev, ok := g.byName[g.active]; ok {
		prev.draft = nil
		prev.err = nil
	}
	g.active = c.field.Name
	c.err = nil
	if isEmpty(c.value) && c.field.Default != nil {
		c.draft = c.field.Default
	} else {
		c.draft = c.value
	}
	return nil
}

// Input replaces the draft. The field must be in FORM.
func (c *Controller) Input(v any) error {
	g := c.group
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != c.field.Name {
		return ErrNotEditing
	}
	c.draft = v
	return nil
}

// Cancel closes the editor without writing. It is a no-op when the field
// is not open.
func (c *Controller) Cancel() error {
	g := c.group
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != c.field.Name {
		return nil
	}
	if g.pending == c.field.Name {
		return ErrCommitPending
	}
	g.active = ""
	c.draft = nil
	c.err = nil
	return nil
}

// CommitText parses raw with the field's parser and commits the result. A
// parse failure keeps the field open with raw as its draft.
func (c *Controller) CommitText(ctx context.Context, raw string) error {
	v, err := c.field.Parse(raw)
	if err != nil {
		g := c.group
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.active != c.field.Name {
			return ErrNotEditing
		}
		c.draft = raw
		c.err = err
		return err
	}
	return c.Commit(ctx, v)
}

// Commit writes {field: v} to the record. On success the field returns to
// VIEW, or EMPTY when v is empty. On failure the field stays in FORM with
// v as its draft and the returned error, a *query.WriteError, is kept in
// Err.
func (c *Controller) Commit(ctx context.Context, v any) error {
	g := c.group
	g.mu.Lock()
	if g.active != c.field.Name {
		g.mu.Unlock()
		return ErrNotEditing
	}
	if g.pending != "" {
		g.mu.Unlock()
		return ErrCommitPending
	}
	g.pending = c.field.Name
	c.draft = v
	c.err = nil
	id := g.recordID
	g.mu.Unlock()

	res := g.writer.Write(ctx, g.collection, id, query.Record{c.field.Name: v})

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = ""

	if !res.OK() {
		err := res.Err
		var we *query.WriteError
		if !errors.As(err, &we) {
			err = &query.WriteError{Collection: g.collection, ID: id, Err: err}
		}
		c.err = err
		g.log.Warn("commit failed",
			zap.String("collection", g.collection),
			zap.String("id", id),
			zap.String("field", c.field.Name),
			zap.Error(err))
		return err
	}

	if rec := res.First(); rec != nil {
		c.value = rec.Value(c.field.Name)
	} else {
		c.value = v
	}
	c.draft = nil
	if g.active == c.field.Name {
		g.active = ""
	}
	g.log.Info("field committed",
		zap.String("collection", g.collection),
		zap.String("id", id),
		zap.String("field", c.field.Name))
	return nil
}
