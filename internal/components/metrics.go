package components

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

var metricsPrinter = message.NewPrinter(language.English)

// Metric is one dashboard figure.
type Metric struct {
	Label string
	Value string
	Error string
}

// MetricsProps defines the props for the Metrics component. Everything is
// hydrated.
type MetricsProps struct {
	Metrics []Metric `msgpack:"-"`
}

// Metrics shows dashboard totals: companies, contacts and the summed amount
// of all deals. Its projectors live as long as the component and refetch on
// every request.
type Metrics struct {
	*ui.Component[MetricsProps]
	companies *projector.Projector
	contacts  *projector.Projector
	deals     *projector.Projector
	log       *zap.Logger
}

// NewMetrics creates the dashboard metrics component.
func NewMetrics(q query.Querier, log *zap.Logger) *Metrics {
	log = orNop(log)
	c := &Metrics{
		Component: ui.New[MetricsProps]("metrics"),
		companies: projector.New(q, "companies", projector.WithSelection("id", "name"), projector.WithLogger(log)),
		contacts:  projector.New(q, "contacts", projector.WithSelection("id", "name"), projector.WithLogger(log)),
		deals:     projector.New(q, "deals", projector.WithSelection("id", "title", "amount"), projector.WithLabelField("title"), projector.WithLogger(log)),
		log:       log,
	}
	c.Action("refresh", c.refresh).Method(http.MethodGet)
	return c
}

func (c *Metrics) all() []*projector.Projector {
	return []*projector.Projector{c.companies, c.contacts, c.deals}
}

// Hydrate refetches all three projectors and waits for them in parallel.
func (c *Metrics) Hydrate(ctx context.Context, props *MetricsProps) error {
	for _, p := range c.all() {
		prime(ctx, p, nil)
	}
	return c.load(ctx, props)
}

func (c *Metrics) load(ctx context.Context, props *MetricsProps) error {
	projectors := c.all()
	snaps := make([]projector.Snapshot, len(projectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range projectors {
		g.Go(func() error {
			snap, err := p.Await(gctx)
			snaps[i] = snap
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	companies, contacts, deals := snaps[0], snaps[1], snaps[2]
	props.Metrics = []Metric{
		{Label: "Companies", Value: formatCount(len(companies.Records)), Error: companies.Error},
		{Label: "Contacts", Value: formatCount(len(contacts.Records)), Error: contacts.Error},
		{Label: "Total deal amount", Value: formatAmount(sumField(deals.Records, "amount")), Error: deals.Error},
	}
	return nil
}

// refresh re-renders after a change elsewhere on the page; Hydrate has
// already refetched.
func (c *Metrics) refresh(ctx context.Context, props MetricsProps) ui.Result[MetricsProps] {
	c.log.Debug("refreshing dashboard metrics")
	return ui.OK(props)
}

// Render produces the metric tiles.
func (c *Metrics) Render(ctx context.Context, props MetricsProps) templ.Component {
	return view(func(m *markup) {
		m.open("section",
			c.Call("refresh", props).Target("this").
				OnEvent(EventCompanyCreated).OnEvent(EventCompanyUpdated).OnEvent(EventContactChanged).Attrs(),
			templ.Attributes{"id": "dashboard-metrics", "class": "metrics"})
		for _, metric := range props.Metrics {
			m.open("div", class("metric"))
			m.elem("span", metric.Label, class("metric-label"))
			if metric.Error != "" {
				m.elem("span", "Unavailable", class("metric-value metric-error"), templ.Attributes{"title": metric.Error})
			} else {
				m.elem("span", metric.Value, class("metric-value"))
			}
			m.close("div")
		}
		m.close("section")
	})
}

// Skeleton renders empty tiles.
func (c *Metrics) Skeleton() templ.Component {
	return view(func(m *markup) {
		m.open("section", templ.Attributes{"class": "metrics", "aria-busy": "true"})
		for _, label := range []string{"Companies", "Contacts", "Total deal amount"} {
			m.open("div", class("metric"))
			m.elem("span", label, class("metric-label"))
			m.open("span", class("metric-value skeleton"))
			m.close("span")
			m.close("div")
		}
		m.close("section")
	})
}

func sumField(records []query.Record, field string) float64 {
	var total float64
	for _, r := range records {
		if v, ok := r.Float(field); ok {
			total += v
		}
	}
	return total
}

func formatCount(n int) string {
	return metricsPrinter.Sprintf("%d", n)
}

func formatAmount(v float64) string {
	return "$" + metricsPrinter.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(0)))
}
