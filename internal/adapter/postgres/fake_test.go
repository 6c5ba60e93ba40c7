package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type call struct {
	sql  string
	args []any
}

// fakeDB stands in for the pgx pool. Each handler is optional; without
// one, Exec affects a single row, QueryRow finds nothing and Query returns
// no rows.
type fakeDB struct {
	onExec     func(sql string, args []any) (int64, error)
	onQueryRow func(sql string, args []any) Row
	onQuery    func(sql string, args []any) (Rows, error)
	beginErr   error

	execs   []call
	queries []call
	txs     []*fakeTx
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (CommandTag, error) {
	db.execs = append(db.execs, call{sql, args})
	if db.onExec == nil {
		return fakeTag(1), nil
	}
	n, err := db.onExec(sql, args)
	if err != nil {
		return nil, err
	}
	return fakeTag(n), nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) Row {
	db.queries = append(db.queries, call{sql, args})
	if db.onQueryRow == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return db.onQueryRow(sql, args)
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (Rows, error) {
	db.queries = append(db.queries, call{sql, args})
	if db.onQuery == nil {
		return &fakeRows{}, nil
	}
	return db.onQuery(sql, args)
}

func (db *fakeDB) Begin(context.Context) (Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	tx := &fakeTx{db: db}
	db.txs = append(db.txs, tx)
	return tx, nil
}

func (db *fakeDB) Close() {}

type fakeTx struct {
	db         *fakeDB
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

// Rollback after Commit is a no-op, as with pgx.
func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanValues(r.values, dest)
}

type fakeRows struct {
	rows   [][]any
	next   int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.next >= len(r.rows) {
		return false
	}
	r.next++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanValues(r.rows[r.next-1], dest)
}

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) Close() { r.closed = true }

// scanValues copies values into dest like pgx would for the column types
// the repositories use, and fails on a type mismatch so a wrong column
// order shows up as an error.
func scanValues(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		ok := false
		switch d := dest[i].(type) {
		case *string:
			var s string
			s, ok = v.(string)
			*d = s
		case *int:
			var n int
			n, ok = v.(int)
			*d = n
		case *int64:
			var n int64
			n, ok = v.(int64)
			*d = n
		case *bool:
			var b bool
			b, ok = v.(bool)
			*d = b
		case *time.Time:
			var t time.Time
			t, ok = v.(time.Time)
			*d = t
		case *[]byte:
			var b []byte
			b, ok = v.([]byte)
			*d = b
		}
		if !ok {
			return fmt.Errorf("scan: column %d: cannot assign %T to %T", i, v, dest[i])
		}
	}
	return nil
}
