package components

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/inlineedit"
	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

const defaultNoteAuthor = "system"

var noteField = inlineedit.Field{
	Name:        "note",
	Label:       "Note",
	Kind:        inlineedit.KindText,
	Placeholder: "Write a note",
	Required:    true,
}

// NotesProps defines the props for the Notes component.
type NotesProps struct {
	CompanyID string    `msgpack:"id"`
	Editing   string    `msgpack:"n,omitempty"` // id of the note being edited
	Edit      EditState `msgpack:"e"`

	// Hydrated data (not serialized)
	Notes   []projector.Option `msgpack:"-"`
	Error   string             `msgpack:"-"`
	records []query.Record
}

// Notes lists a company's notes, newest first, with a form to add one.
// A single note at a time can be edited in place.
type Notes struct {
	*ui.Component[NotesProps]
	store query.Collaborator
	edit  *fieldEditor[NotesProps]
	cache *projectorCache
	log   *zap.Logger
}

// NewNotes creates the notes component.
func NewNotes(store query.Collaborator, log *zap.Logger) *Notes {
	log = orNop(log)
	c := &Notes{
		Component: ui.New[NotesProps]("notes"),
		store:     store,
		log:       log,
	}
	c.cache = newProjectorCache(func() *projector.Projector {
		return projector.New(store, "companynotes",
			projector.WithSelection("id", "note", "createdBy", "createdAt"),
			projector.WithProjection(projectNote),
			projector.WithLogger(log))
	})
	c.edit = newFieldEditor(c.Component,
		func(p *NotesProps) *EditState { return &p.Edit },
		EventNoteUpdated, log)
	c.edit.afterCommit = func(ctx context.Context, props *NotesProps) error {
		c.closeEditor(props)
		c.cache.refresh(ctx, cacheKey(props.CompanyID))
		return c.load(ctx, props)
	}
	c.edit.afterCancel = c.closeEditor
	c.Action("create", c.create)
	c.Action("edit", c.open).Method(http.MethodGet)
	c.Action("delete", c.remove)
	return c
}

// projectNote labels a note with its text and keeps author and time as
// metadata.
func projectNote(r query.Record) projector.Option {
	return projector.Option{
		Value: r.ID(),
		Label: r.String("note"),
		Metadata: map[string]any{
			"createdBy": r.String("createdBy"),
			"createdAt": r.String("createdAt"),
		},
	}
}

// Hydrate loads the company's notes and reopens the note being edited.
func (c *Notes) Hydrate(ctx context.Context, props *NotesProps) error {
	if err := c.load(ctx, props); err != nil {
		return err
	}
	if props.Editing != "" {
		c.openEditor(props)
		props.Edit.restore()
	}
	return nil
}

func (c *Notes) load(ctx context.Context, props *NotesProps) error {
	if props.CompanyID == "" {
		return ui.ErrNotFound
	}
	snap, err := settle(ctx, c.cache.get(cacheKey(props.CompanyID)), []query.Criterion{query.Eq("companyId", props.CompanyID)})
	if err != nil {
		return err
	}
	props.Notes = snap.Options
	props.Error = snap.Error
	props.records = snap.Records
	return nil
}

// openEditor builds the one-field group for props.Editing. A note that no
// longer exists closes the editor.
func (c *Notes) openEditor(props *NotesProps) bool {
	for _, rec := range props.records {
		if rec.ID() != props.Editing {
			continue
		}
		g := inlineedit.NewGroup(c.store, "companynotes", inlineedit.WithLogger(c.log))
		g.Add(noteField)
		g.Load(rec)
		props.Edit.Group = g
		return true
	}
	c.closeEditor(props)
	return false
}

func (c *Notes) closeEditor(props *NotesProps) {
	props.Editing = ""
	props.Edit = EditState{}
}

func (c *Notes) open(ctx context.Context, props NotesProps, r *http.Request) ui.Result[NotesProps] {
	props.Editing = r.FormValue("note")
	if !c.openEditor(&props) {
		return ui.OK(props).Flash(ui.FlashWarning, "That note no longer exists")
	}
	ctrl, err := props.Edit.Group.Field(noteField.Name)
	if err != nil {
		return ui.Err(props, err)
	}
	if err := ctrl.Activate(); err != nil {
		return ui.OK(props).Flash(ui.FlashWarning, activationMessage(err))
	}
	props.Edit.Active = noteField.Name
	return ui.OK(props)
}

func (c *Notes) create(ctx context.Context, props NotesProps, r *http.Request) ui.Result[NotesProps] {
	text := strings.TrimSpace(r.FormValue("note"))
	if text == "" {
		return ui.OK(props).Flash(ui.FlashError, "Note cannot be empty")
	}
	id := uuid.NewString()
	res := c.store.Insert(ctx, "companynotes", query.Record{
		"id":        id,
		"note":      text,
		"companyId": props.CompanyID,
		"createdBy": defaultNoteAuthor,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
	if !res.OK() {
		c.log.Warn("create note", zap.String("company", props.CompanyID), zap.Error(res.Err))
		return ui.OK(props).Flash(ui.FlashError, "Could not add note: "+query.Reason(res.Err))
	}
	c.log.Info("note created", zap.String("company", props.CompanyID), zap.String("id", id))

	c.cache.refresh(ctx, cacheKey(props.CompanyID))
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props).
		Flash(ui.FlashSuccess, "Note added").
		Trigger(EventNoteCreated, map[string]any{"id": id, "companyId": props.CompanyID})
}

func (c *Notes) remove(ctx context.Context, props NotesProps, r *http.Request) ui.Result[NotesProps] {
	id := r.FormValue("note")
	res := c.store.Delete(ctx, "companynotes", id)
	switch {
	case query.IsNotFound(res.Err):
		return ui.OK(props).Flash(ui.FlashWarning, "That note no longer exists")
	case !res.OK():
		c.log.Warn("delete note", zap.String("company", props.CompanyID), zap.String("id", id), zap.Error(res.Err))
		return ui.OK(props).Flash(ui.FlashError, "Could not delete note: "+query.Reason(res.Err))
	}
	c.log.Info("note deleted", zap.String("company", props.CompanyID), zap.String("id", id))

	if props.Editing == id {
		c.closeEditor(&props)
	}
	c.cache.refresh(ctx, cacheKey(props.CompanyID))
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props).
		Flash(ui.FlashSuccess, "Note deleted").
		Trigger(EventNoteDeleted, map[string]any{"id": id, "companyId": props.CompanyID})
}

// Render produces the notes card.
func (c *Notes) Render(ctx context.Context, props NotesProps) templ.Component {
	return view(func(m *markup) {
		id := "notes-" + props.CompanyID
		swap := templ.Attributes{"hx-target": "#" + id, "hx-swap": "outerHTML"}

		m.open("section", templ.Attributes{"id": id, "class": "card notes"})
		m.elem("h2", "Notes", class("card-title"))

		m.open("form", c.Call("create", props).Target("#"+id).Attrs(), class("note-new"))
		m.open("textarea", templ.Attributes{"name": "note", "rows": "3", "placeholder": "Write a note", "aria-label": "New note"})
		m.close("textarea")
		m.elem("button", "Add note", templ.Attributes{"type": "submit", "class": "btn-primary"})
		m.close("form")

		if props.Error != "" {
			m.elem("p", "Could not load notes: "+props.Error, class("field-error"), templ.Attributes{"role": "alert"})
		}
		if len(props.Notes) == 0 && props.Error == "" {
			m.elem("p", "No notes yet", class("empty"))
		}

		m.open("ul", class("note-list"))
		for i := len(props.Notes) - 1; i >= 0; i-- {
			n := props.Notes[i]
			m.open("li", templ.Attributes{"class": "note", "data-note": n.Value})
			if ctrl := c.editing(props, n.Value); ctrl != nil {
				c.edit.form(m, props, ctrl, swap)
			} else {
				m.elem("p", n.Label, class("note-text"))
				m.elem("small", noteByline(n), class("note-meta"))
				m.elem("button", "Edit",
					c.Wire("edit", props), swap,
					templ.Attributes{"type": "button", "class": "btn-link", "hx-vals": noteVals(n.Value)})
				m.open("form", c.Call("delete", props).Confirm("Delete this note?").Attrs(), swap, class("note-delete"))
				m.open("input", templ.Attributes{"type": "hidden", "name": "note", "value": n.Value})
				m.elem("button", "Delete", templ.Attributes{"type": "submit", "class": "btn-link"})
				m.close("form")
			}
			m.close("li")
		}
		m.close("ul")
		m.close("section")
	})
}

// editing returns the controller of note id when it is in FORM.
func (c *Notes) editing(props NotesProps, id string) *inlineedit.Controller {
	if props.Editing != id || props.Edit.Group == nil {
		return nil
	}
	ctrl, err := props.Edit.Group.Field(noteField.Name)
	if err != nil || ctrl.State() != inlineedit.StateForm {
		return nil
	}
	return ctrl
}

// Skeleton renders the notes card while it loads.
func (c *Notes) Skeleton() templ.Component {
	return view(func(m *markup) {
		m.open("section", templ.Attributes{"class": "card notes", "aria-busy": "true"})
		m.elem("h2", "Notes", class("card-title"))
		m.open("div", class("skeleton"))
		m.close("div")
		m.close("section")
	})
}

func noteByline(o projector.Option) string {
	by, _ := o.Metadata["createdBy"].(string)
	at, _ := o.Metadata["createdAt"].(string)
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		at = t.Format("Jan 2, 2006 15:04")
	}
	switch {
	case by != "" && at != "":
		return by + " · " + at
	case by != "":
		return by
	default:
		return at
	}
}

func noteVals(id string) string {
	data, _ := json.Marshal(map[string]string{"note": id})
	return string(data)
}
