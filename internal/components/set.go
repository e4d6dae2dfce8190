package components

import (
	"context"

	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// Set is the mounted CRM component tree.
type Set struct {
	CompanyInfo  *CompanyInfo
	CompanyTitle *CompanyTitle
	Contacts     *ContactsSelect
	Notes        *Notes
	Metrics      *Metrics
	Companies    *CompaniesList
	Deals        *DealsTable

	users *projector.Projector
}

// Init creates every CRM component over store and registers it with reg.
func Init(reg *ui.Registry, store query.Collaborator, log *zap.Logger) *Set {
	log = orNop(log)
	users := NewUsersProjector(store, log)
	s := &Set{
		CompanyInfo:  NewCompanyInfo(store, log),
		CompanyTitle: NewCompanyTitle(store, users, log),
		Contacts:     NewContactsSelect(store, log),
		Notes:        NewNotes(store, log),
		Metrics:      NewMetrics(store, log),
		Companies:    NewCompaniesList(store, users, log),
		Deals:        NewDealsTable(store, log),
		users:        users,
	}
	reg.Add(s.CompanyInfo, s.CompanyTitle, s.Contacts, s.Notes, s.Metrics, s.Companies, s.Deals)
	return s
}

// Wait blocks until every fetch started by the set's projectors, stale
// ones included, has returned.
func (s *Set) Wait() {
	s.users.Wait()
	for _, p := range s.Metrics.all() {
		p.Wait()
	}
	s.Contacts.cache.wait()
	s.Notes.cache.wait()
	s.Companies.cache.wait()
	s.Deals.cache.wait()
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// prime points p at filters. Projectors outlive requests, so the first use
// in a request refetches even when the filters are unchanged; later uses in
// the same request share that fetch.
func prime(ctx context.Context, p *projector.Projector, filters []query.Criterion) {
	first := ui.Once(ctx, p)
	if !p.SetFilters(ctx, filters) && first {
		p.Refresh(ctx)
	}
}

// settle primes p and waits for the result.
func settle(ctx context.Context, p *projector.Projector, filters []query.Criterion) (projector.Snapshot, error) {
	prime(ctx, p, filters)
	return p.Await(ctx)
}
