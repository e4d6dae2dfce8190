package inlineedit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/query/memory"
)

var sizeField = Field{
	Name:  "companySize",
	Label: "Company size",
	Kind:  KindEnum,
	Choices: []Choice{
		{Label: "Enterprise", Value: "ENTERPRISE"},
		{Label: "Large", Value: "LARGE"},
		{Label: "Medium", Value: "MEDIUM"},
		{Label: "Small", Value: "SMALL"},
	},
	Default: "SMALL",
}

var revenueField = Field{
	Name:        "totalRevenue",
	Label:       "Revenue",
	Kind:        KindNumber,
	Prefix:      "$",
	Default:     0,
	NonNegative: true,
}

var countryField = Field{Name: "country", Label: "Country", Kind: KindText}

func newCompanyGroup(t *testing.T, store query.Writer) (*Group, *Controller, *Controller, *Controller) {
	t.Helper()
	g := NewGroup(store, "companies", WithLogger(zaptest.NewLogger(t)))
	return g, g.Add(sizeField), g.Add(revenueField), g.Add(countryField)
}

func seedCompany(t *testing.T, s *memory.Store, rec query.Record) query.Record {
	t.Helper()
	res := s.Insert(context.Background(), "companies", rec)
	require.NoError(t, res.Err)
	return res.First()
}

func TestGroup_LoadingUntilRecordArrives(t *testing.T) {
	g, size, revenue, _ := newCompanyGroup(t, memory.New())

	assert.Equal(t, StateLoading, size.State())
	assert.ErrorIs(t, size.Activate(), ErrLoading)

	g.Load(nil)
	assert.Equal(t, StateLoading, revenue.State())

	g.Load(query.Record{"id": "c1", "companySize": "LARGE"})
	assert.True(t, g.Loaded())
	assert.Equal(t, "c1", g.RecordID())
	assert.Equal(t, StateView, size.State())
	assert.Equal(t, StateEmpty, revenue.State())
}

func TestGroup_FalsyValuesRenderEmpty(t *testing.T) {
	g, size, revenue, country := newCompanyGroup(t, memory.New())
	g.Load(query.Record{"id": "c1", "companySize": "", "totalRevenue": 0.0, "country": nil})

	for _, c := range []*Controller{size, revenue, country} {
		assert.Equal(t, StateEmpty, c.State(), c.Name())
		assert.Empty(t, c.Display(), c.Name())
	}
}

func TestGroup_SingleActiveField(t *testing.T) {
	g, size, revenue, country := newCompanyGroup(t, memory.New())
	g.Load(query.Record{"id": "c1", "companySize": "LARGE", "totalRevenue": 1500.0})

	require.NoError(t, size.Activate())
	require.NoError(t, size.Input("MEDIUM"))
	require.NoError(t, revenue.Activate())

	assert.Equal(t, "totalRevenue", g.Active())
	assert.Equal(t, StateView, size.State(), "previous field closes")
	assert.Nil(t, size.Draft(), "previous draft is discarded")
	assert.Equal(t, "LARGE", size.Value())
	assert.Equal(t, StateForm, revenue.State())
	assert.Equal(t, StateEmpty, country.State())

	forms := 0
	for _, c := range g.Fields() {
		if c.State() == StateForm {
			forms++
		}
	}
	assert.Equal(t, 1, forms)
}

func TestController_ActivateSeedsDraft(t *testing.T) {
	g, size, revenue, country := newCompanyGroup(t, memory.New())
	g.Load(query.Record{"id": "c1", "totalRevenue": 2500.0})

	require.NoError(t, size.Activate())
	assert.Equal(t, "SMALL", size.Draft(), "empty field seeds from default")

	require.NoError(t, revenue.Activate())
	assert.Equal(t, 2500.0, revenue.Draft())
	assert.Equal(t, "2500", revenue.DraftText())

	require.NoError(t, country.Activate())
	assert.Nil(t, country.Draft())
	assert.Equal(t, "", country.DraftText())
}

func TestController_ActivateTwiceIsNoop(t *testing.T) {
	g, size, _, _ := newCompanyGroup(t, memory.New())
	g.Load(query.Record{"id": "c1", "companySize": "LARGE"})

	require.NoError(t, size.Activate())
	require.NoError(t, size.Input("ENTERPRISE"))
	require.NoError(t, size.Activate())
	assert.Equal(t, "ENTERPRISE", size.Draft(), "draft survives re-activation")
}

func TestController_CancelRestoresView(t *testing.T) {
	store := memory.New()
	rec := seedCompany(t, store, query.Record{"companySize": "LARGE"})
	g, size, _, _ := newCompanyGroup(t, store)
	g.Load(rec)

	require.NoError(t, size.Activate())
	require.NoError(t, size.Input("SMALL"))
	require.NoError(t, size.Cancel())

	assert.Equal(t, StateView, size.State())
	assert.Equal(t, "Large", size.Display())
	assert.Equal(t, "", g.Active())
	assert.Equal(t, 0, store.Queries())

	assert.NoError(t, size.Cancel(), "cancel outside the form is a no-op")
	assert.ErrorIs(t, size.Input("x"), ErrNotEditing)
}

func TestController_Sequences(t *testing.T) {
	type step struct {
		op  string // activate, input, commit or cancel
		arg string
	}
	tests := []struct {
		name    string
		initial query.Record
		field   string
		before  State
		steps   []step
		after   State
		display string
		stored  any
	}{
		{
			name:    "cancel after a commit shows the committed value",
			initial: query.Record{"country": "Germany"},
			field:   "country",
			before:  StateView,
			steps:   []step{{"activate", ""}, {"commit", "France"}, {"activate", ""}, {"input", "Spain"}, {"cancel", ""}},
			after:   StateView,
			display: "France",
			stored:  "France",
		},
		{
			name:    "cancel after an enum commit",
			initial: query.Record{"companySize": "LARGE"},
			field:   "companySize",
			before:  StateView,
			steps:   []step{{"activate", ""}, {"commit", "MEDIUM"}, {"activate", ""}, {"cancel", ""}},
			after:   StateView,
			display: "Medium",
			stored:  "MEDIUM",
		},
		{
			name:    "undefined field is committed from empty",
			initial: query.Record{"name": "Acme"},
			field:   "country",
			before:  StateEmpty,
			steps:   []step{{"activate", ""}, {"commit", "France"}},
			after:   StateView,
			display: "France",
			stored:  "France",
		},
		{
			name:    "undefined number is committed from empty",
			initial: query.Record{"name": "Acme"},
			field:   "totalRevenue",
			before:  StateEmpty,
			steps:   []step{{"activate", ""}, {"commit", "$2,000"}},
			after:   StateView,
			display: "$2,000",
			stored:  2000.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()
			rec := seedCompany(t, store, tt.initial)
			g, _, _, _ := newCompanyGroup(t, store)
			g.Load(rec)
			c, err := g.Field(tt.field)
			require.NoError(t, err)
			require.Equal(t, tt.before, c.State())

			for _, st := range tt.steps {
				switch st.op {
				case "activate":
					require.NoError(t, c.Activate())
				case "input":
					require.NoError(t, c.Input(st.arg))
				case "commit":
					require.NoError(t, c.CommitText(ctx, st.arg))
				case "cancel":
					require.NoError(t, c.Cancel())
				default:
					t.Fatalf("unknown step %q", st.op)
				}
			}

			assert.Equal(t, tt.after, c.State())
			assert.Equal(t, tt.display, c.Display())
			assert.Equal(t, "", g.Active())

			res := store.Query(ctx, "companies", nil, []query.Criterion{query.Eq("id", rec.ID())})
			require.NoError(t, res.Err)
			assert.Equal(t, tt.stored, res.First()[tt.field])
		})
	}
}

func TestController_CommitSuccess(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := seedCompany(t, store, query.Record{"name": "Acme", "totalRevenue": 1000})
	g, _, revenue, _ := newCompanyGroup(t, store)
	g.Load(rec)

	require.NoError(t, revenue.Activate())
	require.NoError(t, revenue.CommitText(ctx, "$1,234,567"))

	assert.Equal(t, StateView, revenue.State())
	assert.Equal(t, "$1,234,567", revenue.Display())
	assert.Equal(t, "", g.Active())
	assert.NoError(t, revenue.Err())

	res := store.Query(ctx, "companies", nil, []query.Criterion{query.Eq("id", rec.ID())})
	require.NoError(t, res.Err)
	assert.Equal(t, 1234567.0, res.First()["totalRevenue"])
	assert.Equal(t, "Acme", res.First()["name"], "commit patches only its field")
}

func TestController_CommitEmptyClearsField(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := seedCompany(t, store, query.Record{"country": "France"})
	g, _, _, country := newCompanyGroup(t, store)
	g.Load(rec)

	require.NoError(t, country.Activate())
	require.NoError(t, country.CommitText(ctx, "   "))
	assert.Equal(t, StateEmpty, country.State())

	res := store.Query(ctx, "companies", nil, nil)
	require.NoError(t, res.Err)
	assert.NotContains(t, res.First(), "country")
}

func TestController_CommitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := seedCompany(t, store, query.Record{"companySize": "LARGE"})
	g, size, _, _ := newCompanyGroup(t, store)
	g.Load(rec)

	store.FailNext("write", "companies", errors.New("connection reset"))
	require.NoError(t, size.Activate())
	err := size.Commit(ctx, "ENTERPRISE")

	require.Error(t, err)
	assert.True(t, query.IsWriteError(err))
	assert.Equal(t, StateForm, size.State())
	assert.Equal(t, "ENTERPRISE", size.Draft())
	assert.Equal(t, "LARGE", size.Value())
	assert.Equal(t, "companySize", g.Active())
	assert.Equal(t, err, size.Err())

	// Retrying succeeds and clears the error.
	require.NoError(t, size.Commit(ctx, size.Draft()))
	assert.Equal(t, StateView, size.State())
	assert.Equal(t, "Enterprise", size.Display())
	assert.NoError(t, size.Err())
}

func TestController_CommitMissingRecord(t *testing.T) {
	g, size, _, _ := newCompanyGroup(t, memory.New())
	g.Load(query.Record{"id": "ghost"})

	require.NoError(t, size.Activate())
	err := size.Commit(context.Background(), "SMALL")
	assert.True(t, query.IsWriteError(err))
	assert.True(t, query.IsNotFound(err))
	assert.Equal(t, StateForm, size.State())
}

func TestController_CommitTextInvalid(t *testing.T) {
	store := memory.New()
	rec := seedCompany(t, store, query.Record{"totalRevenue": 10})
	g, size, revenue, _ := newCompanyGroup(t, store)
	g.Load(rec)

	require.NoError(t, revenue.Activate())
	err := revenue.CommitText(context.Background(), "lots")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, StateForm, revenue.State())
	assert.Equal(t, "lots", revenue.DraftText())

	assert.ErrorIs(t, revenue.CommitText(context.Background(), "-5"), ErrInvalidValue)
	assert.ErrorIs(t, size.CommitText(context.Background(), "SMALL"), ErrNotEditing)
}

func TestController_CommitRequiresForm(t *testing.T) {
	g, size, _, _ := newCompanyGroup(t, memory.New())
	g.Load(query.Record{"id": "c1"})
	assert.ErrorIs(t, size.Commit(context.Background(), "SMALL"), ErrNotEditing)
}

// blockingWriter holds a Write until released.
type blockingWriter struct {
	entered chan struct{}
	release chan query.Result
}

func (b *blockingWriter) Write(ctx context.Context, collection, id string, patch query.Record) query.Result {
	close(b.entered)
	return <-b.release
}

func (b *blockingWriter) Insert(ctx context.Context, collection string, record query.Record) query.Result {
	return query.Fail(errors.New("not supported"))
}

func (b *blockingWriter) Delete(ctx context.Context, collection, id string) query.Result {
	return query.Fail(errors.New("not supported"))
}

func TestController_GuardsWhileCommitPending(t *testing.T) {
	w := &blockingWriter{entered: make(chan struct{}), release: make(chan query.Result, 1)}
	g, size, revenue, _ := newCompanyGroup(t, w)
	g.Load(query.Record{"id": "c1", "companySize": "LARGE"})
	require.NoError(t, size.Activate())

	done := make(chan error, 1)
	go func() { done <- size.Commit(context.Background(), "SMALL") }()
	<-w.entered

	assert.True(t, size.Pending())
	assert.ErrorIs(t, size.Commit(context.Background(), "MEDIUM"), ErrCommitPending)
	assert.ErrorIs(t, revenue.Activate(), ErrCommitPending)
	assert.ErrorIs(t, size.Cancel(), ErrCommitPending)

	w.release <- query.Ok(query.Record{"id": "c1", "companySize": "SMALL"})
	require.NoError(t, <-done)
	assert.False(t, size.Pending())
	assert.Equal(t, "Small", size.Display())
}

func TestGroup_UnknownField(t *testing.T) {
	g, _, _, _ := newCompanyGroup(t, memory.New())
	_, err := g.Field("nope")
	assert.ErrorIs(t, err, ErrUnknownField)

	c, err := g.Field("country")
	require.NoError(t, err)
	assert.Same(t, c, g.Add(countryField))
}
