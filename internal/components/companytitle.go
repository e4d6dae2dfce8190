package components

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/inlineedit"
	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// CompanyTitleProps defines the props for the CompanyTitle component.
type CompanyTitleProps struct {
	CompanyID string    `msgpack:"id"`
	Edit      EditState `msgpack:"e"`

	// Hydrated data (not serialized)
	Owners      []projector.Option `msgpack:"-"`
	OwnersError string             `msgpack:"-"`
}

// CompanyTitle shows the company name and its sales owner, both editable
// in place. Owner options come from a users projector shared by every
// request.
type CompanyTitle struct {
	*ui.Component[CompanyTitleProps]
	store query.Collaborator
	users *projector.Projector
	edit  *fieldEditor[CompanyTitleProps]
	log   *zap.Logger
}

// NewCompanyTitle creates the company title component.
func NewCompanyTitle(store query.Collaborator, users *projector.Projector, log *zap.Logger) *CompanyTitle {
	log = orNop(log)
	c := &CompanyTitle{
		Component: ui.New[CompanyTitleProps]("companytitle"),
		store:     store,
		users:     users,
		log:       log,
	}
	c.edit = newFieldEditor(c.Component,
		func(p *CompanyTitleProps) *EditState { return &p.Edit },
		EventCompanyUpdated, log)
	c.edit.valueView = c.ownerView
	return c
}

// NewUsersProjector builds the projector CompanyTitle draws owners from.
func NewUsersProjector(q query.Querier, log *zap.Logger) *projector.Projector {
	return projector.New(q, "users",
		projector.WithSelection("id", "name", "avatarUrl"),
		projector.WithLogger(orNop(log)))
}

func (c *CompanyTitle) fields(owners []projector.Option) []inlineedit.Field {
	choices := make([]inlineedit.Choice, len(owners))
	for i, o := range owners {
		choices[i] = inlineedit.Choice{Label: o.Label, Value: o.Value}
	}
	return []inlineedit.Field{
		{Name: "name", Label: "Name", Kind: inlineedit.KindText, Placeholder: "Company name", Required: true},
		{Name: "salesOwnerId", Label: "Sales owner", Kind: inlineedit.KindEnum, Choices: choices, Placeholder: "Assign an owner"},
	}
}

// Hydrate loads the owner options and the company.
func (c *CompanyTitle) Hydrate(ctx context.Context, props *CompanyTitleProps) error {
	snap, err := settle(ctx, c.users, nil)
	if err != nil {
		return err
	}
	props.Owners = snap.Options
	props.OwnersError = snap.Error

	fields := c.fields(snap.Options)
	rec, err := loadRecord(ctx, c.store, "companies", props.CompanyID, fieldNames(fields))
	if err != nil {
		return err
	}
	g := inlineedit.NewGroup(c.store, "companies", inlineedit.WithLogger(c.log))
	for _, f := range fields {
		g.Add(f)
	}
	g.Load(rec)
	props.Edit.Group = g
	props.Edit.restore()
	return nil
}

// Render produces the title block.
func (c *CompanyTitle) Render(ctx context.Context, props CompanyTitleProps) templ.Component {
	return view(func(m *markup) {
		id := "company-title-" + props.CompanyID
		g := props.Edit.Group
		m.open("header", templ.Attributes{"id": id, "class": "company-title", "aria-busy": strconv.FormatBool(!g.Loaded())})
		for _, ctrl := range g.Fields() {
			c.edit.row(m, props, ctrl, id)
		}
		if props.OwnersError != "" {
			m.elem("p", "Could not load users: "+props.OwnersError, class("field-error"), templ.Attributes{"role": "alert"})
		}
		m.close("header")
	})
}

// Skeleton renders the title in its loading state.
func (c *CompanyTitle) Skeleton(companyID string) templ.Component {
	g := inlineedit.NewGroup(c.store, "companies")
	for _, f := range c.fields(nil) {
		g.Add(f)
	}
	return c.Render(context.Background(), CompanyTitleProps{CompanyID: companyID, Edit: EditState{Group: g}})
}

// ownerView renders the sales owner with their avatar.
func (c *CompanyTitle) ownerView(m *markup, props CompanyTitleProps, ctrl *inlineedit.Controller) bool {
	if ctrl.Name() != "salesOwnerId" {
		return false
	}
	id, _ := ctrl.Value().(string)
	for _, o := range props.Owners {
		if o.Value != id {
			continue
		}
		if src := o.AvatarURL(); src != "" {
			m.open("img", templ.Attributes{"class": "avatar", "src": src, "alt": "", "width": "24", "height": "24"})
		}
		m.text(o.Label)
		return true
	}
	return false
}
