// Package sqlite implements the query collaborator on top of SQLite.
//
// All collections share one document table. Each row stores a record as
// JSON; criteria are translated to json_extract predicates so any field of
// any collection can be filtered without a per-collection schema.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	sqlitedrv "modernc.org/sqlite"

	"github.com/BigLep01/CRMdev/internal/query"
)

// foldFunc lowercases a value for contains criteria. SQLite's own lower()
// and LIKE only fold ASCII.
const foldFunc = "crm_fold"

func init() {
	_ = sqlitedrv.RegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(ctx *sqlitedrv.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return strings.ToLower(fmt.Sprint(v)), nil
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(collection, id)
);
CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection, seq);
`

// Store is a query.Collaborator backed by a SQLite database.
type Store struct {
	db      *sql.DB
	maxRows int
	log     *zap.Logger
}

var _ query.Collaborator = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithMaxRows caps the number of records a single query returns.
// Zero means no cap.
func WithMaxRows(n int) Option {
	return func(s *Store) {
		s.maxRows = n
	}
}

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// Open opens (and migrates) the database at dsn.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already-open database and ensures the schema exists.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query returns the records of collection matching every active filter,
// in insertion order.
func (s *Store) Query(ctx context.Context, collection string, selection []string, filters []query.Criterion) query.Result {
	where, args, err := buildWhere(collection, query.Active(filters))
	if err != nil {
		return query.Fail(&query.FetchError{Collection: collection, Err: err})
	}

	stmt := "SELECT data FROM records WHERE " + where + " ORDER BY seq"
	if s.maxRows > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", s.maxRows)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return query.Fail(&query.FetchError{Collection: collection, Err: err})
	}
	defer rows.Close()

	var out []query.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return query.Fail(&query.FetchError{Collection: collection, Err: err})
		}
		var rec query.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return query.Fail(&query.FetchError{Collection: collection, Err: fmt.Errorf("decode record: %w", err)})
		}
		out = append(out, rec.Select(selection))
	}
	if err := rows.Err(); err != nil {
		return query.Fail(&query.FetchError{Collection: collection, Err: err})
	}

	s.log.Debug("query",
		zap.String("collection", collection),
		zap.Int("filters", len(filters)),
		zap.Int("rows", len(out)))
	return query.Ok(out...)
}

// Write merges patch into the stored record using json_patch. Null values
// in patch remove fields.
func (s *Store) Write(ctx context.Context, collection, id string, patch query.Record) query.Result {
	fail := func(err error) query.Result {
		return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: err})
	}

	body := patch.Clone()
	delete(body, "id")
	data, err := json.Marshal(body)
	if err != nil {
		return fail(fmt.Errorf("encode patch: %w", err))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE records
		SET data = json_patch(data, ?), updated_at = CURRENT_TIMESTAMP
		WHERE collection = ? AND id = ?`,
		string(data), collection, id)
	if err != nil {
		return fail(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail(err)
	}
	if n == 0 {
		return fail(query.ErrNotFound)
	}

	var raw string
	if err := tx.QueryRowContext(ctx,
		`SELECT data FROM records WHERE collection = ? AND id = ?`,
		collection, id).Scan(&raw); err != nil {
		return fail(err)
	}
	if err := tx.Commit(); err != nil {
		return fail(err)
	}

	var rec query.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fail(fmt.Errorf("decode record: %w", err))
	}
	s.log.Debug("write", zap.String("collection", collection), zap.String("id", id))
	return query.Ok(rec)
}

// Insert stores record, assigning a UUID when it has no id.
func (s *Store) Insert(ctx context.Context, collection string, record query.Record) query.Result {
	rec := record.Clone()
	if rec == nil {
		rec = query.Record{}
	}
	if rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}
	id := rec.ID()
	rec["id"] = id

	data, err := json.Marshal(rec)
	if err != nil {
		return query.Fail(&query.WriteError{Collection: collection, Err: fmt.Errorf("encode record: %w", err)})
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (collection, id, data) VALUES (?, ?, ?)`,
		collection, id, string(data)); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, Err: err})
	}

	var out query.Record
	if err := json.Unmarshal(data, &out); err != nil {
		return query.Fail(&query.WriteError{Collection: collection, Err: err})
	}
	s.log.Debug("insert", zap.String("collection", collection), zap.String("id", id))
	return query.Ok(out)
}

// Delete removes the stored record and returns it.
func (s *Store) Delete(ctx context.Context, collection, id string) query.Result {
	fail := func(err error) query.Result {
		return query.Fail(&query.WriteError{Collection: collection, ID: id, Err: err})
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ? RETURNING data`,
		collection, id).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fail(query.ErrNotFound)
	case err != nil:
		return fail(err)
	}

	var rec query.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fail(fmt.Errorf("decode record: %w", err))
	}
	s.log.Debug("delete", zap.String("collection", collection), zap.String("id", id))
	return query.Ok(rec)
}

// buildWhere translates active criteria into a SQL predicate. Field names
// are validated before being spliced into the JSON path.
func buildWhere(collection string, filters []query.Criterion) (string, []any, error) {
	clauses := []string{"collection = ?"}
	args := []any{collection}

	for _, c := range filters {
		if err := c.Validate(); err != nil {
			return "", nil, err
		}
		col := fmt.Sprintf("json_extract(data, '$.%s')", c.Field)

		switch c.Operator {
		case query.OpEq:
			clauses = append(clauses, col+" = ?")
			args = append(args, sqlValue(c.Value))
		case query.OpNe:
			clauses = append(clauses, col+" IS NOT ?")
			args = append(args, sqlValue(c.Value))
		case query.OpContains:
			clauses = append(clauses, foldFunc+"("+col+`) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(strings.ToLower(fmt.Sprint(c.Value)))+"%")
		case query.OpIn:
			values := query.Flatten(c.Value)
			marks := make([]string, len(values))
			for i, v := range values {
				marks[i] = "?"
				args = append(args, sqlValue(v))
			}
			clauses = append(clauses, col+" IN ("+strings.Join(marks, ", ")+")")
		case query.OpGt:
			clauses = append(clauses, col+" > ?")
			args = append(args, sqlValue(c.Value))
		case query.OpGte:
			clauses = append(clauses, col+" >= ?")
			args = append(args, sqlValue(c.Value))
		case query.OpLt:
			clauses = append(clauses, col+" < ?")
			args = append(args, sqlValue(c.Value))
		case query.OpLte:
			clauses = append(clauses, col+" <= ?")
			args = append(args, sqlValue(c.Value))
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

// sqlValue maps Go values onto what json_extract yields: JSON booleans
// come back as integers.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
