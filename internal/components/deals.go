package components

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// DealsTableProps defines the props for the DealsTable component.
type DealsTableProps struct {
	CompanyID string `msgpack:"id"`
	Search    string `msgpack:"q,omitempty"`

	// Hydrated data (not serialized)
	Deals []projector.Option `msgpack:"-"`
	Total string             `msgpack:"-"`
	Error string             `msgpack:"-"`
}

// DealsTable lists a company's deals, filtered by title. The total covers
// every deal of the company regardless of the filter.
type DealsTable struct {
	*ui.Component[DealsTableProps]
	cache *projectorCache
	log   *zap.Logger
}

// NewDealsTable creates the deals table component.
func NewDealsTable(q query.Querier, log *zap.Logger) *DealsTable {
	log = orNop(log)
	c := &DealsTable{
		Component: ui.New[DealsTableProps]("deals"),
		log:       log,
	}
	c.cache = newProjectorCache(func() *projector.Projector {
		return projector.New(q, "deals",
			projector.WithSelection("id", "title", "amount", "stage"),
			projector.WithProjection(projectDeal),
			projector.WithLogger(log))
	})
	c.Action("search", c.search).Method(http.MethodGet)
	c.Action("reset", c.reset).Method(http.MethodGet)
	return c
}

func projectDeal(r query.Record) projector.Option {
	amount, _ := r.Float("amount")
	return projector.Option{
		Value: r.ID(),
		Label: r.String("title"),
		Metadata: map[string]any{
			"amount": amount,
			"stage":  r.String("stage"),
		},
	}
}

func dealFilters(companyID, search string) []query.Criterion {
	return []query.Criterion{
		query.Eq("companyId", companyID),
		query.Contains("title", search),
	}
}

func (c *DealsTable) projectorFor(companyID, search string) *projector.Projector {
	return c.cache.get(cacheKey(companyID, strings.ToLower(search)))
}

// Hydrate loads the filtered deals and the company total.
func (c *DealsTable) Hydrate(ctx context.Context, props *DealsTableProps) error {
	return c.load(ctx, props)
}

func (c *DealsTable) load(ctx context.Context, props *DealsTableProps) error {
	if props.CompanyID == "" {
		return ui.ErrNotFound
	}
	// The unfiltered projector doubles as the source of the total.
	all := c.projectorFor(props.CompanyID, "")
	prime(ctx, all, dealFilters(props.CompanyID, ""))
	snap, err := settle(ctx, c.projectorFor(props.CompanyID, props.Search), dealFilters(props.CompanyID, props.Search))
	if err != nil {
		return err
	}
	totals, err := all.Await(ctx)
	if err != nil {
		return err
	}

	props.Deals = snap.Options
	props.Error = snap.Error
	props.Total = ""
	if totals.Err == nil {
		props.Total = formatAmount(sumField(totals.Records, "amount"))
	}
	return nil
}

func (c *DealsTable) search(ctx context.Context, props DealsTableProps, r *http.Request) ui.Result[DealsTableProps] {
	props.Search = strings.TrimSpace(r.FormValue("q"))
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props)
}

func (c *DealsTable) reset(ctx context.Context, props DealsTableProps) ui.Result[DealsTableProps] {
	c.log.Debug("reset deal filters", zap.String("company", props.CompanyID))
	props.Search = ""
	if err := c.load(ctx, &props); err != nil {
		return ui.Err(props, err)
	}
	return ui.OK(props)
}

// Render produces the deals card.
func (c *DealsTable) Render(ctx context.Context, props DealsTableProps) templ.Component {
	return view(func(m *markup) {
		id := "deals-" + props.CompanyID
		rowsID := id + "-rows"

		m.open("section", templ.Attributes{"id": id, "class": "card deals"})
		m.open("div", class("card-head"))
		m.elem("h2", "Deals", class("card-title"))
		if props.Search != "" {
			m.elem("button", "Reset filters",
				c.Call("reset", props).Target("#"+id).Attrs(),
				templ.Attributes{"type": "button", "class": "btn-link"})
		}
		m.open("span", class("deals-total"))
		m.text("Total deal amount: ")
		if props.Total == "" {
			m.elem("strong", "Unavailable")
		} else {
			m.elem("strong", props.Total)
		}
		m.close("span")
		m.close("div")

		m.open("input",
			c.Call("search", props).Target("#"+rowsID).Attrs(),
			templ.Attributes{
				"type": "search", "name": "q", "value": props.Search,
				"placeholder": "Search title", "aria-label": "Search deals",
				"hx-trigger": "input changed delay:300ms, search",
				"hx-select":  "#" + rowsID,
			})

		m.open("div", templ.Attributes{"id": rowsID})
		switch {
		case props.Error != "":
			m.elem("p", "Could not load deals: "+props.Error, class("field-error"), templ.Attributes{"role": "alert"})
		case len(props.Deals) == 0 && props.Search != "":
			m.open("p", class("empty"))
			m.textf("No deals match %q", props.Search)
			m.close("p")
		case len(props.Deals) == 0:
			m.elem("p", "No deals yet", class("empty"))
		default:
			m.open("table", class("table"))
			m.raw("<thead><tr><th>Deal title</th><th>Deal amount</th><th>Stage</th></tr></thead>")
			m.open("tbody")
			for _, d := range props.Deals {
				amount, _ := d.Metadata["amount"].(float64)
				stage, _ := d.Metadata["stage"].(string)
				m.open("tr")
				m.elem("td", d.Label)
				m.elem("td", formatAmount(amount))
				m.elem("td", enumLabel(stage))
				m.close("tr")
			}
			m.close("tbody")
			m.close("table")
		}
		m.close("div")
		m.close("section")
	})
}

// Skeleton renders the deals card while it loads.
func (c *DealsTable) Skeleton() templ.Component {
	return view(func(m *markup) {
		m.open("section", templ.Attributes{"class": "card deals", "aria-busy": "true"})
		m.elem("h2", "Deals", class("card-title"))
		m.open("div", class("skeleton"))
		m.close("div")
		m.close("section")
	})
}
