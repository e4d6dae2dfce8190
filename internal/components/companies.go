package components

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

const companiesListID = "companies-list"

// CompaniesListProps defines the props for the CompaniesList component.
type CompaniesListProps struct {
	Search string `msgpack:"q,omitempty"`

	// Hydrated data (not serialized)
	Companies []projector.Option `msgpack:"-"`
	Owners    []projector.Option `msgpack:"-"`
	Error     string             `msgpack:"-"`
}

// CompaniesList is the dashboard's company table, filtered by a name
// search, with a form to add a company.
type CompaniesList struct {
	*ui.Component[CompaniesListProps]
	store query.Collaborator
	users *projector.Projector
	cache *projectorCache
	log   *zap.Logger
}

// NewCompaniesList creates the companies list component. Owner names come
// from the shared users projector.
func NewCompaniesList(store query.Collaborator, users *projector.Projector, log *zap.Logger) *CompaniesList {
	log = orNop(log)
	c := &CompaniesList{
		Component: ui.New[CompaniesListProps]("companies"),
		store:     store,
		users:     users,
		log:       log,
	}
	c.cache = newProjectorCache(func() *projector.Projector {
		return projector.New(store, "companies",
			projector.WithSelection("id", "name", "country", "salesOwnerId"),
			projector.WithProjection(projectCompany),
			projector.WithLogger(log))
	})
	c.Action("search", c.search).Method(http.MethodGet)
	c.Action("reset", c.reset).Method(http.MethodGet)
	c.Action("create", c.create)
	return c
}

func projectCompany(r query.Record) projector.Option {
	return projector.Option{
		Value: r.ID(),
		Label: r.String("name"),
		Metadata: map[string]any{
			"country":      r.String("country"),
			"salesOwnerId": r.String("salesOwnerId"),
		},
	}
}

// Hydrate loads the owners and the companies matching the search.
func (c *CompaniesList) Hydrate(ctx context.Context, props *CompaniesListProps) error {
	users, err := settle(ctx, c.users, nil)
	if err != nil {
		return err
	}
	props.Owners = users.Options
	return c.load(ctx, props)
}

func (c *CompaniesList) load(ctx context.Context, props *CompaniesListProps) error {
	p := c.cache.get(cacheKey(strings.ToLower(props.Search)))
	snap, err := settle(ctx, p, []query.Criterion{query.Contains("name", props.Search)})
	if err != nil {
		return err
	}
	props.Companies = snap.Options
	props.Error = snap.Error
	return nil
}

func (c *CompaniesList) search(ctx context.Context, props CompaniesListProps, r *http.Request) ui.Result[CompaniesListProps] {
	props.Search = strings.TrimSpace(r.FormValue("q"))
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props)
}

func (c *CompaniesList) reset(ctx context.Context, props CompaniesListProps) ui.Result[CompaniesListProps] {
	props.Search = ""
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props)
}

func (c *CompaniesList) create(ctx context.Context, props CompaniesListProps, r *http.Request) ui.Result[CompaniesListProps] {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return ui.OK(props).Flash(ui.FlashError, "Company name is required")
	}
	rec := query.Record{"id": uuid.NewString(), "name": name}
	if owner := r.FormValue("salesOwnerId"); owner != "" {
		if ownerName(props.Owners, owner) == "" {
			return ui.OK(props).Flash(ui.FlashError, "Unknown sales owner")
		}
		rec["salesOwnerId"] = owner
	}

	res := c.store.Insert(ctx, "companies", rec)
	if !res.OK() {
		c.log.Warn("create company", zap.Error(res.Err))
		return ui.OK(props).Flash(ui.FlashError, "Could not create company: "+query.Reason(res.Err))
	}
	id := res.First().ID()
	c.log.Info("company created", zap.String("id", id))

	c.cache.refresh(ctx, "")
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props).
		Flash(ui.FlashSuccess, name+" created").
		Trigger(EventCompanyCreated, map[string]any{"id": id})
}

func ownerName(owners []projector.Option, id string) string {
	for _, o := range owners {
		if o.Value == id {
			return o.Label
		}
	}
	return ""
}

// Render produces the search box, the company table and the create form.
func (c *CompaniesList) Render(ctx context.Context, props CompaniesListProps) templ.Component {
	return view(func(m *markup) {
		rowsID := companiesListID + "-rows"
		busyID := companiesListID + "-busy"

		m.open("section", templ.Attributes{"id": companiesListID, "class": "card companies"})
		m.elem("h2", "Companies", class("card-title"))

		m.open("div", class("toolbar"))
		m.open("input",
			c.Call("search", props).Target("#"+rowsID).Indicator("#"+busyID).Attrs(),
			templ.Attributes{
				"type": "search", "name": "q", "value": props.Search,
				"placeholder": "Search by name", "aria-label": "Search companies",
				"hx-trigger": "input changed delay:300ms, search",
				"hx-select":  "#" + rowsID,
			})
		m.elem("span", "Searching…", templ.Attributes{"id": busyID, "class": "htmx-indicator"})
		if props.Search != "" {
			m.elem("button", "Reset filters",
				c.Call("reset", props).Target("#"+companiesListID).Attrs(),
				templ.Attributes{"type": "button", "class": "btn-link"})
		}
		m.close("div")

		m.open("div", templ.Attributes{"id": rowsID})
		switch {
		case props.Error != "":
			m.elem("p", "Could not load companies: "+props.Error, class("field-error"), templ.Attributes{"role": "alert"})
		case len(props.Companies) == 0 && props.Search != "":
			m.open("p", class("empty"))
			m.textf("No companies match %q", props.Search)
			m.close("p")
		case len(props.Companies) == 0:
			m.elem("p", "No companies yet. Run crmdev seed to add demo data.", class("empty"))
		default:
			m.open("table", class("table"))
			m.raw("<thead><tr><th>Company</th><th>Sales owner</th><th>Country</th></tr></thead>")
			m.open("tbody")
			for _, co := range props.Companies {
				owner, _ := co.Metadata["salesOwnerId"].(string)
				country, _ := co.Metadata["country"].(string)
				m.open("tr")
				m.open("td")
				m.elem("a", co.Label, templ.Attributes{"href": "/companies/" + co.Value})
				m.close("td")
				m.elem("td", ownerName(props.Owners, owner))
				m.elem("td", country)
				m.close("tr")
			}
			m.close("tbody")
			m.close("table")
			m.elem("small", "Total "+formatCount(len(props.Companies))+" companies", class("table-total"))
		}
		m.close("div")

		m.open("form", c.Call("create", props).Target("#"+companiesListID).Attrs(), class("quick-add"))
		m.open("input", templ.Attributes{"type": "text", "name": "name", "placeholder": "Company name", "required": true, "aria-label": "Company name"})
		m.open("select", templ.Attributes{"name": "salesOwnerId", "aria-label": "Sales owner"})
		m.elem("option", "No sales owner", templ.Attributes{"value": ""})
		for _, o := range props.Owners {
			m.elem("option", o.Label, templ.Attributes{"value": o.Value})
		}
		m.close("select")
		m.elem("button", "Add company", templ.Attributes{"type": "submit", "class": "btn-primary"})
		m.close("form")

		m.close("section")
	})
}
