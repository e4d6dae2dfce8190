package components

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/inlineedit"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// EditState is the request-spanning part of an inline-edit field group:
// which field, if any, is open. The group itself is rebuilt by Hydrate.
type EditState struct {
	Active string            `msgpack:"a,omitempty"`
	Group  *inlineedit.Group `msgpack:"-"`
}

// restore re-opens the field named in Active on a freshly loaded group.
// A stale or unknown name closes the editor.
func (s *EditState) restore() {
	if s.Active == "" || s.Group == nil {
		return
	}
	ctrl, err := s.Group.Field(s.Active)
	if err != nil || ctrl.Activate() != nil {
		s.Active = ""
	}
}

// fieldEditor provides the activate, commit and cancel actions for a
// component whose props carry an EditState.
type fieldEditor[P any] struct {
	comp  *ui.Component[P]
	state func(*P) *EditState
	event string
	log   *zap.Logger

	// valueView, when set, renders the VIEW content of a field and reports
	// whether it did.
	valueView func(m *markup, props P, ctrl *inlineedit.Controller) bool

	// afterCommit and afterCancel, when set, run once the field has left
	// FORM and may adjust the props about to be rendered.
	afterCommit func(ctx context.Context, props *P) error
	afterCancel func(props *P)
}

func newFieldEditor[P any](comp *ui.Component[P], state func(*P) *EditState, event string, log *zap.Logger) *fieldEditor[P] {
	e := &fieldEditor[P]{comp: comp, state: state, event: event, log: log}
	comp.Action("activate", e.activate).Method(http.MethodGet)
	comp.Action("commit", e.commit)
	comp.Action("cancel", e.cancel).Method(http.MethodGet)
	return e
}

func (e *fieldEditor[P]) field(props P, r *http.Request) (*inlineedit.Controller, error) {
	st := e.state(&props)
	if st.Group == nil {
		return nil, inlineedit.ErrLoading
	}
	ctrl, err := st.Group.Field(r.FormValue("field"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ui.ErrNotFound, err)
	}
	return ctrl, nil
}

func (e *fieldEditor[P]) activate(ctx context.Context, props P, r *http.Request) ui.Result[P] {
	ctrl, err := e.field(props, r)
	if err != nil {
		return ui.Err(props, err)
	}
	if err := ctrl.Activate(); err != nil {
		e.log.Debug("activation refused", zap.String("field", ctrl.Name()), zap.Error(err))
		return ui.OK(props).Flash(ui.FlashWarning, activationMessage(err))
	}
	e.state(&props).Active = ctrl.Name()
	return ui.OK(props)
}

func (e *fieldEditor[P]) commit(ctx context.Context, props P, r *http.Request) ui.Result[P] {
	ctrl, err := e.field(props, r)
	if err != nil {
		return ui.Err(props, err)
	}
	st := e.state(&props)

	if err := ctrl.CommitText(ctx, r.FormValue("value")); err != nil {
		switch {
		case errors.Is(err, inlineedit.ErrNotEditing):
			return ui.OK(props).Flash(ui.FlashWarning, ctrl.Field().Label+" is not being edited")
		case errors.Is(err, inlineedit.ErrInvalidValue):
			e.log.Debug("invalid value", zap.String("field", ctrl.Name()), zap.Error(err))
			return ui.OK(props).Flash(ui.FlashError, invalidMessage(err))
		case query.IsNotFound(err):
			return ui.Err(props, fmt.Errorf("%w: %w", ui.ErrNotFound, err))
		default:
			return ui.OK(props).Flash(ui.FlashError,
				fmt.Sprintf("Could not save %s: %s", ctrl.Field().Label, query.Reason(err)))
		}
	}

	st.Active = ""
	recordID := st.Group.RecordID()
	if e.afterCommit != nil {
		if err := e.afterCommit(ctx, &props); err != nil {
			return ui.Err(props, err)
		}
	}
	return ui.OK(props).
		Flash(ui.FlashSuccess, ctrl.Field().Label+" updated").
		Trigger(e.event, map[string]any{"id": recordID, "field": ctrl.Name()})
}

func (e *fieldEditor[P]) cancel(ctx context.Context, props P, r *http.Request) ui.Result[P] {
	ctrl, err := e.field(props, r)
	if err != nil {
		return ui.Err(props, err)
	}
	if err := ctrl.Cancel(); err != nil {
		return ui.OK(props).Flash(ui.FlashWarning, activationMessage(err))
	}
	e.state(&props).Active = ""
	if e.afterCancel != nil {
		e.afterCancel(&props)
	}
	return ui.OK(props)
}

func activationMessage(err error) string {
	switch {
	case errors.Is(err, inlineedit.ErrLoading):
		return "Still loading, try again in a moment"
	case errors.Is(err, inlineedit.ErrCommitPending):
		return "A change is still being saved"
	default:
		return err.Error()
	}
}

// invalidMessage strips the package prefix from a validation error.
func invalidMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), inlineedit.ErrInvalidValue.Error()+": ")
	if msg == "" {
		return "Invalid value"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// fieldVals encodes extra request values for hx-vals.
func fieldVals(name string) string {
	data, _ := json.Marshal(map[string]string{"field": name})
	return string(data)
}

// row renders one field according to its state. target is the id of the
// component root the responses replace.
func (e *fieldEditor[P]) row(m *markup, props P, ctrl *inlineedit.Controller, target string) {
	f := ctrl.Field()
	swap := templ.Attributes{"hx-target": "#" + target, "hx-swap": "outerHTML"}
	state := ctrl.State()

	m.open("div", templ.Attributes{
		"class":      "field field-" + state.String(),
		"data-field": f.Name,
	})
	m.elem("span", f.Label, class("field-label"))

	switch state {
	case inlineedit.StateLoading:
		m.open("span", class("skeleton"))
		m.close("span")

	case inlineedit.StateEmpty:
		placeholder := f.Placeholder
		if placeholder == "" {
			placeholder = "Add " + f.Label
		}
		m.elem("button", placeholder,
			e.comp.Wire("activate", props), swap,
			templ.Attributes{"type": "button", "class": "field-empty", "hx-vals": fieldVals(f.Name)})

	case inlineedit.StateView:
		m.open("span", class("field-value"))
		if e.valueView == nil || !e.valueView(m, props, ctrl) {
			m.text(ctrl.Display())
		}
		m.close("span")
		m.elem("button", "Edit",
			e.comp.Wire("activate", props), swap,
			templ.Attributes{"type": "button", "class": "field-edit", "hx-vals": fieldVals(f.Name), "aria-label": "Edit " + f.Label})

	case inlineedit.StateForm:
		e.form(m, props, ctrl, swap)
	}
	m.close("div")
}

func (e *fieldEditor[P]) form(m *markup, props P, ctrl *inlineedit.Controller, swap templ.Attributes) {
	f := ctrl.Field()
	// One commit per form at a time; the group itself lives only for a request.
	m.open("form", e.comp.Wire("commit", props), swap, templ.Attributes{
		"class":           "field-form",
		"hx-sync":         "this:drop",
		"hx-disabled-elt": "find button",
	})
	m.open("input", templ.Attributes{"type": "hidden", "name": "field", "value": f.Name})

	draft := ctrl.DraftText()
	switch f.Kind {
	case inlineedit.KindEnum:
		m.open("select", templ.Attributes{"name": "value", "autofocus": true})
		m.open("option", templ.Attributes{"value": ""})
		m.close("option")
		for _, c := range f.Choices {
			m.open("option", templ.Attributes{"value": c.Value, "selected": c.Value == draft})
			m.text(c.Label)
			m.close("option")
		}
		m.close("select")
	case inlineedit.KindNumber:
		if f.Prefix != "" {
			m.elem("span", f.Prefix, class("field-prefix"))
		}
		m.open("input", templ.Attributes{
			"type": "text", "inputmode": "decimal", "name": "value",
			"value": draft, "autofocus": true, "placeholder": f.Placeholder,
		})
	default:
		m.open("input", templ.Attributes{
			"type": "text", "name": "value",
			"value": draft, "autofocus": true, "placeholder": f.Placeholder,
		})
	}

	if err := ctrl.Err(); err != nil {
		msg := query.Reason(err)
		if errors.Is(err, inlineedit.ErrInvalidValue) {
			msg = invalidMessage(err)
		}
		m.elem("p", msg, class("field-error"), templ.Attributes{"role": "alert"})
	}

	m.elem("button", "Save", templ.Attributes{"type": "submit", "class": "btn-primary"})
	m.elem("button", "Cancel",
		e.comp.Wire("cancel", props), swap,
		templ.Attributes{"type": "button", "class": "btn-link", "hx-vals": fieldVals(f.Name)})
	m.close("form")
}
