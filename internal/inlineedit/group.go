// Package inlineedit implements click-to-edit fields over a remote record.
//
// Fields are gathered in a Group that shares one active-field selector, so
// at most one field of the group is in its form state at any time.
// Activating a field implicitly cancels whichever field was open before;
// its unsaved draft is discarded.
//
// Each field moves through four states:
//
//	LOADING -> EMPTY | VIEW      once the record is loaded
//	EMPTY | VIEW -> FORM         Activate
//	FORM -> EMPTY | VIEW         Cancel, or a successful Commit
//	FORM -> FORM                 a failed Commit keeps the draft
package inlineedit

import (
	"sync"

	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/query"
)

// State is the presentation state of one field.
type State int

const (
	StateLoading State = iota
	StateEmpty
	StateView
	StateForm
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateView:
		return "view"
	case StateForm:
		return "form"
	default:
		return "loading"
	}
}

// Group is a set of inline-edit fields over one record.
type Group struct {
	writer     query.Writer
	collection string
	log        *zap.Logger

	mu       sync.Mutex
	recordID string
	loaded   bool
	active   string // name of the field in FORM, "" when none
	pending  string // name of the field whose commit is in flight
	fields   []*Controller
	byName   map[string]*Controller
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithLogger sets the group's logger.
func WithLogger(l *zap.Logger) GroupOption {
	return func(g *Group) {
		g.log = l
	}
}

// NewGroup creates an empty group whose commits are written to collection.
func NewGroup(w query.Writer, collection string, opts ...GroupOption) *Group {
	g := &Group{
		writer:     w,
		collection: collection,
		log:        zap.NewNop(),
		byName:     make(map[string]*Controller),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add registers a field and returns its controller. Adding a name twice
// returns the existing controller.
func (g *Group) Add(f Field) *Controller {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.byName[f.Name]; ok {
		return c
	}
	c := &Controller{group: g, field: f}
	g.fields = append(g.fields, c)
	g.byName[f.Name] = c
	return c
}

// Load feeds the group its record. Every field leaves LOADING. A nil record
// leaves the group loading.
func (g *Group) Load(rec query.Record) {
	if rec == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recordID = rec.ID()
	g.loaded = true
	for _, c := range g.fields {
		c.value = rec.Value(c.field.Name)
	}
}

// Loaded reports whether the record has been loaded.
func (g *Group) Loaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded
}

// RecordID returns the id of the loaded record.
func (g *Group) RecordID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recordID
}

// Active returns the name of the field in FORM, or "".
func (g *Group) Active() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Field returns the controller for name.
func (g *Group) Field(name string) (*Controller, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.byName[name]
	if !ok {
		return nil, ErrUnknownField
	}
	return c, nil
}

// Fields returns the controllers in the order they were added.
func (g *Group) Fields() []*Controller {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Controller, len(g.fields))
	copy(out, g.fields)
	return out
}
