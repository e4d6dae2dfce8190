// Package projector turns a remote collection into a ready-to-render option
// list.
//
// A Projector owns one query against one collection. Every change of its
// filter set starts a new fetch tagged with a generation number; a
// completion is applied only if its generation is still the latest, so a
// slow response to an old filter set can never overwrite the results of a
// newer one. In-flight fetches are never cancelled, their results are simply
// dropped.
//
//	users := projector.New(store, "users",
//	    projector.WithSelection("id", "name", "avatarUrl"))
//	users.SetFilters(ctx, nil)
//	snap, err := users.Await(ctx)
//	for _, opt := range snap.Options {
//	    fmt.Println(opt.Value, opt.Label)
//	}
package projector

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/query"
)

// Option is one selectable entry derived from a source record.
type Option struct {
	Value    string         `json:"value"`
	Label    string         `json:"label"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AvatarURL returns the avatarUrl metadata entry, if any.
func (o Option) AvatarURL() string {
	s, _ := o.Metadata["avatarUrl"].(string)
	return s
}

// ProjectFunc maps a source record to an option. It must be pure.
type ProjectFunc func(query.Record) Option

// LabelField returns a ProjectFunc labelling options with field. The value
// is always the record id; avatarUrl is carried as metadata when present.
func LabelField(field string) ProjectFunc {
	return func(r query.Record) Option {
		opt := Option{Value: r.ID(), Label: r.String(field)}
		if avatar := r.String("avatarUrl"); avatar != "" {
			opt.Metadata = map[string]any{"avatarUrl": avatar}
		}
		return opt
	}
}

// Snapshot is a consistent view of a projector's state.
type Snapshot struct {
	Records    []query.Record
	Options    []Option
	Loading    bool
	Err        error
	Error      string // user-facing text of Err, "" when there is none
	Generation uint64
}

// Projector fetches a collection and projects it into options.
type Projector struct {
	querier    query.Querier
	collection string
	selection  []string
	log        *zap.Logger

	mu         sync.Mutex
	project    ProjectFunc
	filters    []query.Criterion
	started    bool
	generation uint64
	records    []query.Record
	options    []Option
	loading    bool
	err        error
	done       chan struct{} // closed when the latest generation completes
	doneClosed bool

	inflight sync.WaitGroup
}

// Opt configures a Projector.
type Opt func(*Projector)

// WithSelection limits the fields requested from the collection.
func WithSelection(fields ...string) Opt {
	return func(p *Projector) {
		p.selection = fields
	}
}

// WithLabelField labels options with field instead of "name".
func WithLabelField(field string) Opt {
	return func(p *Projector) {
		p.project = LabelField(field)
	}
}

// WithProjection installs a custom projection.
func WithProjection(fn ProjectFunc) Opt {
	return func(p *Projector) {
		p.project = fn
	}
}

// WithLogger sets the projector's logger.
func WithLogger(l *zap.Logger) Opt {
	return func(p *Projector) {
		p.log = l
	}
}

// New creates an idle projector for collection. Nothing is fetched until
// SetFilters or Refresh is called.
func New(q query.Querier, collection string, opts ...Opt) *Projector {
	p := &Projector{
		querier:    q,
		collection: collection,
		project:    LabelField("name"),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.String("collection", collection))
	return p
}

// Collection returns the projected collection name.
func (p *Projector) Collection() string {
	return p.collection
}

// SetFilters replaces the filter set and starts a fetch. A filter set that
// is structurally equal to the current one does not trigger a fetch once the
// projector has started. It reports whether a fetch was issued.
func (p *Projector) SetFilters(ctx context.Context, filters []query.Criterion) bool {
	p.mu.Lock()
	if p.started && query.Equal(filters, p.filters) {
		p.mu.Unlock()
		return false
	}
	p.filters = query.Clone(filters)
	gen, active := p.beginLocked()
	p.mu.Unlock()

	p.fetch(ctx, gen, active)
	return true
}

// Refresh refetches with the current filter set. Use it to invalidate after
// a write.
func (p *Projector) Refresh(ctx context.Context) {
	p.mu.Lock()
	gen, active := p.beginLocked()
	p.mu.Unlock()

	p.fetch(ctx, gen, active)
}

// beginLocked opens a new generation. Caller holds p.mu.
func (p *Projector) beginLocked() (uint64, []query.Criterion) {
	p.started = true
	p.generation++
	p.loading = true
	p.err = nil
	if p.done == nil || p.doneClosed {
		p.done = make(chan struct{})
		p.doneClosed = false
	}
	return p.generation, query.Active(p.filters)
}

func (p *Projector) fetch(ctx context.Context, gen uint64, filters []query.Criterion) {
	// Fetches outlive the caller's request; stale ones are discarded rather
	// than cancelled.
	fetchCtx := context.WithoutCancel(ctx)

	p.log.Debug("fetch started",
		zap.Uint64("generation", gen),
		zap.Int("criteria", len(filters)))

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		res := p.querier.Query(fetchCtx, p.collection, p.selection, filters)
		p.complete(gen, res)
	}()
}

func (p *Projector) complete(gen uint64, res query.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		p.log.Debug("stale fetch discarded",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", p.generation))
		return
	}

	if res.OK() {
		p.records = res.Records
		p.options = projectAll(p.project, res.Records)
	} else {
		// Prior records stay visible; only the error channel changes.
		err := res.Err
		if !query.IsFetchError(err) {
			err = &query.FetchError{Collection: p.collection, Err: err}
		}
		p.err = err
		p.log.Warn("fetch failed", zap.Uint64("generation", gen), zap.Error(err))
	}
	p.loading = false
	if !p.doneClosed {
		close(p.done)
		p.doneClosed = true
	}
	p.log.Debug("fetch completed",
		zap.Uint64("generation", gen),
		zap.Int("records", len(p.records)))
}

// SetProjection swaps the projection function and recomputes options from
// the records already held. No fetch is issued.
func (p *Projector) SetProjection(fn ProjectFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.project = fn
	p.options = projectAll(fn, p.records)
}

// Reset clears the held records and options.
func (p *Projector) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = nil
	p.options = nil
}

// Snapshot returns the current state.
func (p *Projector) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Projector) snapshotLocked() Snapshot {
	s := Snapshot{
		Loading:    p.loading,
		Err:        p.err,
		Error:      query.Reason(p.err),
		Generation: p.generation,
	}
	if p.records != nil {
		s.Records = make([]query.Record, len(p.records))
		copy(s.Records, p.records)
	}
	if p.options != nil {
		s.Options = make([]Option, len(p.options))
		copy(s.Options, p.options)
	}
	return s
}

// ErrNotStarted is returned by Await on a projector that never fetched.
var ErrNotStarted = errors.New("projector: not started")

// Await blocks until the latest generation has completed and returns the
// resulting snapshot. If newer filter changes arrive while waiting, it keeps
// waiting for those. A failed fetch is reported in the snapshot, not as the
// returned error, which is reserved for ctx expiry and ErrNotStarted.
func (p *Projector) Await(ctx context.Context) (Snapshot, error) {
	for {
		p.mu.Lock()
		if !p.started {
			s := p.snapshotLocked()
			p.mu.Unlock()
			return s, ErrNotStarted
		}
		if !p.loading {
			s := p.snapshotLocked()
			p.mu.Unlock()
			return s, nil
		}
		done := p.done
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return p.Snapshot(), ctx.Err()
		case <-done:
		}
	}
}

// Wait blocks until every fetch this projector started, stale ones
// included, has returned.
func (p *Projector) Wait() {
	p.inflight.Wait()
}

func projectAll(fn ProjectFunc, records []query.Record) []Option {
	if records == nil {
		return nil
	}
	out := make([]Option, len(records))
	for i, r := range records {
		out[i] = fn(r)
	}
	return out
}
