// Package memory implements an in-memory query collaborator.
//
// Records are kept per collection in insertion order and normalised through
// JSON on the way in, so numbers are float64 exactly as they are when read
// back from the SQLite store.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BigLep01/CRMdev/internal/query"
)

// Store is a concurrency-safe in-memory Collaborator.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]query.Record
	latency     time.Duration
	failures    map[string]error // keyed by "op:collection"
	queries     int
}

var _ query.Collaborator = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLatency delays every call, honouring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string][]query.Record),
		failures:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNext makes the next call of op ("query", "write", "insert" or
// "delete") on collection fail with err.
func (s *Store) FailNext(op, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+":"+collection] = err
}

// Queries returns how many Query calls the store has served.
func (s *Store) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

// Query returns the records of collection that satisfy every active filter.
func (s *Store) Query(ctx context.Context, collection string, selection []string, filters []query.Criterion) query.Result {
	if err := s.wait(ctx); err != nil {
		return query.Fail(&query.FetchError{Collection: collection, Err: err})
	}
	active := query.Active(filters)
	for _, c := range active {
		if err := c.Validate(); err != nil {
			return query.Fail(&query.FetchError{Collection: collection, Err: err})
		}
	}

	s.mu.Lock()
	s.queries++
	if err := s.takeFailure("query", collection); err != nil {
		s.mu.Unlock()
		return query.Fail(&query.FetchError{Collection: collection, Err: err})
	}
	rows := s.collections[collection]
	out := make([]query.Record, 0, len(rows))
	for _, r := range rows {
		if query.MatchAll(r, active) {
			out = append(out, r.Select(selection))
		}
	}
	s.mu.Unlock()

	return query.Ok(out...)
}

// Write merges patch into the record with the given id.
func (s *Store) Write(ctx context.Context, collection, id string, patch query.Record) query.Result {
	if err := s.wait(ctx); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: err})
	}
	normalised, err := normalise(patch)
	if err != nil {
		return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: err})
	}
	delete(normalised, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("write", collection); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: err})
	}
	rows := s.collections[collection]
	for i, r := range rows {
		if r.ID() == id {
			// Keep explicit nulls: a cleared field should read back as absent.
			updated := r.Clone()
			for k, v := range normalised {
				if v == nil {
					delete(updated, k)
					continue
				}
				updated[k] = v
			}
			rows[i] = updated
			return query.Ok(updated.Clone())
		}
	}
	return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: query.ErrNotFound})
}

// Insert appends record to collection, assigning a UUID when it has no id.
func (s *Store) Insert(ctx context.Context, collection string, record query.Record) query.Result {
	if err := s.wait(ctx); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, Err: err})
	}
	normalised, err := normalise(record)
	if err != nil {
		return query.Fail(&query.WriteError{Collection: collection, Err: err})
	}
	if normalised.ID() == "" {
		normalised["id"] = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("insert", collection); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, Err: err})
	}
	for _, r := range s.collections[collection] {
		if r.ID() == normalised.ID() {
			return query.Fail(&query.WriteError{
				Collection: collection,
				Err:        fmt.Errorf("duplicate id %q", normalised.ID()),
			})
		}
	}
	s.collections[collection] = append(s.collections[collection], normalised)
	return query.Ok(normalised.Clone())
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, collection, id string) query.Result {
	if err := s.wait(ctx); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: err})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("delete", collection); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: err})
	}
	rows := s.collections[collection]
	for i, r := range rows {
		if r.ID() == id {
			s.collections[collection] = append(rows[:i:i], rows[i+1:]...)
			return query.Ok(r)
		}
	}
	return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: query.ErrNotFound})
}

// takeFailure pops an injected failure. Caller holds s.mu.
func (s *Store) takeFailure(op, collection string) error {
	key := op + ":" + collection
	err, ok := s.failures[key]
	if !ok {
		return nil
	}
	delete(s.failures, key)
	return err
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// normalise round-trips r through JSON so stored values have the same
// dynamic types a JSON-backed store would return.
func normalise(r query.Record) (query.Record, error) {
	if r == nil {
		return nil, errors.New("nil record")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var out query.Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}
