package query

import "context"

// Querier reads records from a named collection. Active criteria are
// combined with logical AND; inert criteria are ignored. The result keeps
// the collection's natural ordering.
type Querier interface {
	Query(ctx context.Context, collection string, selection []string, filters []Criterion) Result
}

// Writer mutates records in a named collection.
type Writer interface {
	// Write applies patch to the record with the given id and returns the
	// updated record.
	Write(ctx context.Context, collection, id string, patch Record) Result

	// Insert stores a new record and returns it, including any id the
	// backend assigned.
	Insert(ctx context.Context, collection string, record Record) Result

	// Delete removes the record with the given id and returns it.
	Delete(ctx context.Context, collection, id string) Result
}

// Collaborator is the full remote-table surface.
type Collaborator interface {
	Querier
	Writer
}
