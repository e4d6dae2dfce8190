package components

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// ContactsSelectProps defines the props for the ContactsSelect component.
type ContactsSelectProps struct {
	CompanyID string `msgpack:"id"`
	Search    string `msgpack:"q,omitempty"`
	Selected  string `msgpack:"s,omitempty"`

	// Hydrated data (not serialized)
	Options []projector.Option `msgpack:"-"`
	Error   string             `msgpack:"-"`
}

// ContactsSelect lists a company's contacts as select options, narrowed by
// a name search. It reloads whenever contact:changed fires. Its props carry
// the search term and the selected contact, so they are encrypted.
type ContactsSelect struct {
	*ui.Component[ContactsSelectProps]
	store query.Collaborator
	cache *projectorCache
	log   *zap.Logger
}

// NewContactsSelect creates the contacts select component.
func NewContactsSelect(store query.Collaborator, log *zap.Logger) *ContactsSelect {
	log = orNop(log)
	c := &ContactsSelect{
		Component: ui.New[ContactsSelectProps]("contactsselect").Sensitive(),
		store:     store,
		log:       log,
	}
	c.cache = newProjectorCache(func() *projector.Projector {
		return projector.New(store, "contacts",
			projector.WithSelection("id", "name", "avatarUrl", "email", "jobTitle"),
			projector.WithLogger(log))
	})
	c.Action("search", c.search).Method(http.MethodGet)
	c.Action("refresh", c.refresh).Method(http.MethodGet)
	c.Action("create", c.create)
	return c
}

// invalidate refetches every cached search of a company.
func (c *ContactsSelect) invalidate(ctx context.Context, companyID string) {
	c.cache.refresh(ctx, cacheKey(companyID))
}

// Hydrate loads the options matching the current search.
func (c *ContactsSelect) Hydrate(ctx context.Context, props *ContactsSelectProps) error {
	return c.load(ctx, props)
}

func (c *ContactsSelect) load(ctx context.Context, props *ContactsSelectProps) error {
	if props.CompanyID == "" {
		return ui.ErrNotFound
	}
	p := c.cache.get(cacheKey(props.CompanyID, strings.ToLower(props.Search)))
	snap, err := settle(ctx, p, []query.Criterion{
		query.Eq("companyId", props.CompanyID),
		query.Contains("name", props.Search),
	})
	if err != nil {
		return err
	}
	props.Options = snap.Options
	props.Error = snap.Error
	return nil
}

func (c *ContactsSelect) search(ctx context.Context, props ContactsSelectProps, r *http.Request) ui.Result[ContactsSelectProps] {
	props.Search = strings.TrimSpace(r.FormValue("q"))
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props)
}

// refresh re-renders on contact:changed; Hydrate has already refetched.
func (c *ContactsSelect) refresh(ctx context.Context, props ContactsSelectProps) ui.Result[ContactsSelectProps] {
	return ui.OK(props)
}

func (c *ContactsSelect) create(ctx context.Context, props ContactsSelectProps, r *http.Request) ui.Result[ContactsSelectProps] {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return ui.OK(props).Flash(ui.FlashError, "Contact name is required")
	}
	rec := query.Record{
		"name":      name,
		"companyId": props.CompanyID,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if email := strings.TrimSpace(r.FormValue("email")); email != "" {
		rec["email"] = email
	}
	res := c.store.Insert(ctx, "contacts", rec)
	if !res.OK() {
		c.log.Warn("create contact", zap.String("company", props.CompanyID), zap.Error(res.Err))
		return ui.OK(props).Flash(ui.FlashError, "Could not create contact: "+query.Reason(res.Err))
	}
	created := res.First()
	props.Selected = created.ID()

	c.invalidate(ctx, props.CompanyID)
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props).
		Flash(ui.FlashSuccess, name+" added").
		Trigger(EventContactChanged, map[string]any{"id": created.ID(), "companyId": props.CompanyID})
}

// Render produces the search box, the option list and the quick-add form.
func (c *ContactsSelect) Render(ctx context.Context, props ContactsSelectProps) templ.Component {
	return view(func(m *markup) {
		id := "contacts-select-" + props.CompanyID
		listID := id + "-options"

		m.open("div",
			c.Call("refresh", props).Target("this").OnEvent(EventContactChanged).Attrs(),
			templ.Attributes{"id": id, "class": "contacts-select"})

		m.open("input",
			c.Call("search", props).Target("#"+listID).Indicator("#"+id+"-busy").Attrs(),
			templ.Attributes{
				"type": "search", "name": "q", "value": props.Search,
				"placeholder": "Search contacts", "aria-label": "Search contacts",
				"hx-trigger": "input changed delay:300ms, search",
				"hx-select":  "#" + listID,
			})
		m.elem("span", "Searching…", templ.Attributes{"id": id + "-busy", "class": "htmx-indicator"})

		m.open("div", templ.Attributes{"id": listID})
		m.open("select", templ.Attributes{"name": "contactId", "aria-label": "Contact"})
		m.elem("option", "Select a contact", templ.Attributes{"value": ""})
		for _, o := range props.Options {
			m.elem("option", o.Label, templ.Attributes{"value": o.Value, "selected": o.Value == props.Selected})
		}
		m.close("select")
		switch {
		case props.Error != "":
			m.elem("p", "Could not load contacts: "+props.Error, class("field-error"), templ.Attributes{"role": "alert"})
		case len(props.Options) == 0 && props.Search != "":
			m.open("p", class("empty"))
			m.textf("No contacts match %q", props.Search)
			m.close("p")
		case len(props.Options) == 0:
			m.elem("p", "No contacts yet", class("empty"))
		}
		m.close("div")

		m.open("form", c.Call("create", props).Target("#"+id).Attrs(), class("quick-add"))
		m.open("input", templ.Attributes{"type": "text", "name": "name", "placeholder": "Name", "required": true})
		m.open("input", templ.Attributes{"type": "email", "name": "email", "placeholder": "Email"})
		m.elem("button", "Add contact", templ.Attributes{"type": "submit"})
		m.close("form")

		m.close("div")
	})
}

// Skeleton renders the select while its options load.
func (c *ContactsSelect) Skeleton() templ.Component {
	return view(func(m *markup) {
		m.open("div", class("contacts-select"), templ.Attributes{"aria-busy": "true"})
		m.open("select", templ.Attributes{"disabled": true, "aria-label": "Contact"})
		m.elem("option", "Loading contacts…")
		m.close("select")
		m.close("div")
	})
}
