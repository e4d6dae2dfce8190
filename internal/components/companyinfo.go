package components

import (
	"context"
	"fmt"
	"strconv"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/inlineedit"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// CompanyInfoProps defines the props for the CompanyInfo component.
type CompanyInfoProps struct {
	CompanyID string    `msgpack:"id"`
	Edit      EditState `msgpack:"e"`
}

// CompanyInfo is the company details card. Every field is edited in place;
// opening one closes any other.
type CompanyInfo struct {
	*ui.Component[CompanyInfoProps]
	store  query.Collaborator
	fields []inlineedit.Field
	edit   *fieldEditor[CompanyInfoProps]
	log    *zap.Logger
}

// NewCompanyInfo creates the company info component.
func NewCompanyInfo(store query.Collaborator, log *zap.Logger) *CompanyInfo {
	log = orNop(log)
	c := &CompanyInfo{
		Component: ui.New[CompanyInfoProps]("companyinfo"),
		store:     store,
		fields:    companyInfoFields(),
		log:       log,
	}
	c.edit = newFieldEditor(c.Component,
		func(p *CompanyInfoProps) *EditState { return &p.Edit },
		EventCompanyUpdated, log)
	return c
}

// Hydrate loads the company and rebuilds its field group.
func (c *CompanyInfo) Hydrate(ctx context.Context, props *CompanyInfoProps) error {
	rec, err := loadRecord(ctx, c.store, "companies", props.CompanyID, fieldNames(c.fields))
	if err != nil {
		return err
	}
	g := inlineedit.NewGroup(c.store, "companies", inlineedit.WithLogger(c.log))
	for _, f := range c.fields {
		g.Add(f)
	}
	g.Load(rec)
	props.Edit.Group = g
	props.Edit.restore()
	return nil
}

// Render produces the card. Before the record loads every field shows its
// loading placeholder.
func (c *CompanyInfo) Render(ctx context.Context, props CompanyInfoProps) templ.Component {
	return view(func(m *markup) {
		id := "company-info-" + props.CompanyID
		g := props.Edit.Group
		m.open("section", templ.Attributes{"id": id, "class": "card company-info", "aria-busy": strconv.FormatBool(!g.Loaded())})
		m.elem("h2", "Company info", class("card-title"))
		for _, ctrl := range g.Fields() {
			c.edit.row(m, props, ctrl, id)
		}
		m.close("section")
	})
}

// Skeleton renders the card in its loading state.
func (c *CompanyInfo) Skeleton(companyID string) templ.Component {
	g := inlineedit.NewGroup(c.store, "companies")
	for _, f := range c.fields {
		g.Add(f)
	}
	return c.Render(context.Background(), CompanyInfoProps{CompanyID: companyID, Edit: EditState{Group: g}})
}

// loadRecord fetches a single record by id.
func loadRecord(ctx context.Context, q query.Querier, collection, id string, selection []string) (query.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: missing id: %w", collection, ui.ErrNotFound)
	}
	res := q.Query(ctx, collection, selection, []query.Criterion{query.Eq("id", id)})
	if !res.OK() {
		return nil, res.Err
	}
	rec := res.First()
	if rec == nil {
		return nil, fmt.Errorf("%s %q: %w", collection, id, ui.ErrNotFound)
	}
	return rec, nil
}
