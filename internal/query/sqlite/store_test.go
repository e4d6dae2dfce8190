package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BigLep01/CRMdev/internal/query"
)

func openTest(t *testing.T, opts ...Option) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "crm.db")
	opts = append(opts, WithLogger(zaptest.NewLogger(t)))
	s, err := Open(context.Background(), dsn, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedDeals(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, r := range []query.Record{
		{"id": "d1", "title": "Renewal 50%_off", "amount": 25000, "stage": "won", "companyId": "c1", "closed": true},
		{"id": "d2", "title": "Pilot", "amount": 1200, "stage": "open", "companyId": "c1", "closed": false},
		{"id": "d3", "title": "Expansion", "amount": 90000, "stage": "lost", "companyId": "c2", "closed": true},
	} {
		require.NoError(t, s.Insert(ctx, "deals", r).Err)
	}
}

func TestStore_QueryOrderAndSelection(t *testing.T) {
	s := openTest(t)
	seedDeals(t, s)

	res := s.Query(context.Background(), "deals", []string{"title"}, nil)
	require.NoError(t, res.Err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "d1", res.Records[0].ID())
	assert.Equal(t, "d3", res.Records[2].ID())
	assert.NotContains(t, res.Records[0], "amount")
}

func TestStore_QueryOperators(t *testing.T) {
	s := openTest(t)
	seedDeals(t, s)

	tests := []struct {
		name    string
		filters []query.Criterion
		want    []string
	}{
		{"no constraints", []query.Criterion{query.Eq("stage", nil)}, []string{"d1", "d2", "d3"}},
		{"eq", []query.Criterion{query.Eq("companyId", "c1")}, []string{"d1", "d2"}},
		{"eq number", []query.Criterion{query.Eq("amount", 1200)}, []string{"d2"}},
		{"eq bool", []query.Criterion{query.Eq("closed", true)}, []string{"d1", "d3"}},
		{"ne", []query.Criterion{{Field: "stage", Operator: query.OpNe, Value: "won"}}, []string{"d2", "d3"}},
		{"contains case-insensitive", []query.Criterion{query.Contains("title", "PILOT")}, []string{"d2"}},
		{"contains escapes wildcards", []query.Criterion{query.Contains("title", "50%_")}, []string{"d1"}},
		{"contains literal percent misses", []query.Criterion{query.Contains("title", "%x")}, nil},
		{"in", []query.Criterion{query.In("stage", "won", "lost")}, []string{"d1", "d3"}},
		{"gt and eq", []query.Criterion{
			{Field: "amount", Operator: query.OpGt, Value: 2000},
			query.Eq("companyId", "c1"),
		}, []string{"d1"}},
		{"lte", []query.Criterion{{Field: "amount", Operator: query.OpLte, Value: 25000}}, []string{"d1", "d2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Query(context.Background(), "deals", nil, tt.filters)
			require.NoError(t, res.Err)
			var got []string
			for _, r := range res.Records {
				got = append(got, r.ID())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_ContainsFoldsUnicode(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "companies", query.Record{"id": "c1", "name": "École Martin"}).Err)
	require.NoError(t, s.Insert(ctx, "companies", query.Record{"id": "c2", "name": "ÖKO Energie"}).Err)

	res := s.Query(ctx, "companies", nil, []query.Criterion{query.Contains("name", "éCOLE")})
	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "c1", res.First().ID())

	res = s.Query(ctx, "companies", nil, []query.Criterion{query.Contains("name", "öko")})
	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "c2", res.First().ID())
}

func TestStore_Delete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	seedDeals(t, s)

	res := s.Delete(ctx, "deals", "d2")
	require.NoError(t, res.Err)
	assert.Equal(t, "Pilot", res.First()["title"])

	left := s.Query(ctx, "deals", nil, nil)
	require.NoError(t, left.Err)
	assert.Len(t, left.Records, 2)

	missing := s.Delete(ctx, "deals", "d2")
	assert.True(t, query.IsWriteError(missing.Err))
	assert.True(t, query.IsNotFound(missing.Err))
}

func TestStore_QueryRejectsInjection(t *testing.T) {
	s := openTest(t)
	res := s.Query(context.Background(), "deals", nil, []query.Criterion{
		query.Eq("x') OR 1=1 --", "y"),
	})
	assert.True(t, query.IsFetchError(res.Err))
	assert.ErrorIs(t, res.Err, query.ErrInvalidField)
}

func TestStore_MaxRows(t *testing.T) {
	s := openTest(t, WithMaxRows(2))
	seedDeals(t, s)
	res := s.Query(context.Background(), "deals", nil, nil)
	require.NoError(t, res.Err)
	assert.Len(t, res.Records, 2)
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	s := openTest(t)
	seedDeals(t, s)
	res := s.Query(context.Background(), "contacts", nil, nil)
	require.NoError(t, res.Err)
	assert.Empty(t, res.Records)
}

func TestStore_Write(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "companies", query.Record{
		"id": "c1", "name": "Acme", "country": "France", "website": "acme.test",
	}).Err)

	res := s.Write(ctx, "companies", "c1", query.Record{"country": "Spain", "website": nil, "id": "hijack"})
	require.NoError(t, res.Err)
	got := res.First()
	assert.Equal(t, "c1", got.ID(), "patch must not rewrite the id")
	assert.Equal(t, "Spain", got["country"])
	assert.NotContains(t, got, "website")
	assert.Equal(t, "Acme", got["name"])
}

func TestStore_WriteNotFound(t *testing.T) {
	s := openTest(t)
	res := s.Write(context.Background(), "companies", "missing", query.Record{"name": "x"})
	assert.True(t, query.IsWriteError(res.Err))
	assert.True(t, query.IsNotFound(res.Err))
}

func TestStore_InsertAssignsIDAndRejectsDuplicates(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	res := s.Insert(ctx, "companynotes", query.Record{"note": "hello"})
	require.NoError(t, res.Err)
	id := res.First().ID()
	assert.Len(t, id, 36)

	dup := s.Insert(ctx, "companynotes", query.Record{"id": id, "note": "again"})
	assert.True(t, query.IsWriteError(dup.Err))
}
