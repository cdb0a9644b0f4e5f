// Package storetest provides recording fakes for repository tests. The
// fakes capture every statement with its bound arguments and replay canned
// results, so tests can assert what a repository sends to the database.
package storetest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call is one recorded statement with its bound arguments.
type Call struct {
	SQL  string
	Args []any
}

// ScanInto copies canned values into scan destinations. A nil value leaves
// the destination at its zero value, matching a SQL NULL.
func ScanInto(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations, %d values", len(dest), len(values))
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		d := reflect.ValueOf(dest[i])
		if d.Kind() != reflect.Pointer {
			return fmt.Errorf("scan: destination %d is not a pointer", i)
		}
		d.Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// Row is a canned pgx.Row.
type Row struct {
	Values []any
	Err    error
}

// Scan implements pgx.Row.
func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return ScanInto(dest, r.Values)
}

// Rows is a canned pgx.Rows. Only the methods repositories use are real;
// anything else panics through the embedded nil interface.
type Rows struct {
	pgx.Rows
	Data [][]any
	idx  int
}

// Next implements pgx.Rows.
func (r *Rows) Next() bool {
	if r.idx < len(r.Data) {
		r.idx++
		return true
	}
	return false
}

// Scan implements pgx.Rows.
func (r *Rows) Scan(dest ...any) error {
	return ScanInto(dest, r.Data[r.idx-1])
}

// Err implements pgx.Rows.
func (r *Rows) Err() error { return nil }

// Close implements pgx.Rows.
func (r *Rows) Close() {}

// Querier is a recording store.Querier. Row backs the next QueryRow, Rows
// the next Query, ExecTag/ExecErr the next Exec.
type Querier struct {
	Calls   []Call
	Row     Row
	Rows    [][]any
	ExecTag pgconn.CommandTag
	ExecErr error
}

func (q *Querier) record(sql string, args []any) {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
}

// Exec implements store.Querier.
func (q *Querier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.record(sql, args)
	if q.ExecErr != nil {
		return pgconn.CommandTag{}, q.ExecErr
	}
	if q.ExecTag.String() == "" {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return q.ExecTag, nil
}

// Query implements store.Querier.
func (q *Querier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.record(sql, args)
	return &Rows{Data: q.Rows}, nil
}

// QueryRow implements store.Querier.
func (q *Querier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.record(sql, args)
	return q.Row
}

// Last returns the most recent recorded call.
func (q *Querier) Last() Call {
	return q.Calls[len(q.Calls)-1]
}
