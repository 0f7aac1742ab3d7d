package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// TxMode selects whether a unit of work may write.
type TxMode int

const (
	ReadOnly TxMode = iota
	ReadWrite
)

func (m TxMode) String() string {
	if m == ReadWrite {
		return "readwrite"
	}
	return "readonly"
}

// Tx is the handle passed to a unit of work. Statements must name the
// collection they touch; collections outside the declared scope and writes in
// a read-only unit are rejected.
type Tx struct {
	ctx   context.Context
	tx    *sql.Tx
	mode  TxMode
	scope map[string]bool
}

// Transact runs fn inside one database transaction over the named
// collections. All statements issued by fn commit together or not at all:
// an error returned by fn, or a panic, rolls the transaction back. Begin and
// commit failures are reported as ErrTransactionAbort.
//
// Units must not call Transact themselves.
func (b *Backend) Transact(ctx context.Context, mode TxMode, tables []string, fn func(tx *Tx) error) (err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	scope := make(map[string]bool, len(tables))
	for _, name := range tables {
		if !types.IsStandardTable(name) {
			return fmt.Errorf("%w: %s", types.ErrTableNotFound, name)
		}
		scope[name] = true
	}

	sqlTx, err := b.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: mode == ReadOnly})
	if err != nil {
		return fmt.Errorf("%w: begin: %w", types.ErrTransactionAbort, err)
	}
	if mode == ReadOnly {
		// query_only is per connection; the pool holds exactly one.
		if _, err := sqlTx.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
			_ = sqlTx.Rollback()
			return fmt.Errorf("%w: begin: %w", types.ErrTransactionAbort, err)
		}
		defer func() {
			if _, qErr := b.db.ExecContext(context.Background(), "PRAGMA query_only = OFF"); qErr != nil {
				log.WithError(qErr).Warn("resetting query_only failed")
			}
		}()
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{ctx: ctx, tx: sqlTx, mode: mode, scope: scope}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			log.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", types.ErrTransactionAbort, err)
	}
	return nil
}

// view runs a read-only unit over tables.
func (b *Backend) view(ctx context.Context, tables []string, fn func(tx *Tx) error) error {
	return b.Transact(ctx, ReadOnly, tables, fn)
}

// update runs a read-write unit over tables.
func (b *Backend) update(ctx context.Context, tables []string, fn func(tx *Tx) error) error {
	return b.Transact(ctx, ReadWrite, tables, fn)
}

func (t *Tx) check(table string, write bool) error {
	if !t.scope[table] {
		return fmt.Errorf("%w: %s", types.ErrTableNotInScope, table)
	}
	if write && t.mode != ReadWrite {
		return fmt.Errorf("%w: %s", types.ErrReadOnlyTx, table)
	}
	return nil
}

// Exec runs a write statement against table.
func (t *Tx) Exec(table, query string, args ...any) (sql.Result, error) {
	if err := t.check(table, true); err != nil {
		return nil, err
	}
	return t.tx.ExecContext(t.ctx, query, args...)
}

// Query runs a read statement against table.
func (t *Tx) Query(table, query string, args ...any) (*sql.Rows, error) {
	if err := t.check(table, false); err != nil {
		return nil, err
	}
	return t.tx.QueryContext(t.ctx, query, args...)
}

// QueryRow runs a single-row read statement against table.
func (t *Tx) QueryRow(table, query string, args ...any) (*sql.Row, error) {
	if err := t.check(table, false); err != nil {
		return nil, err
	}
	return t.tx.QueryRowContext(t.ctx, query, args...), nil
}

// clear removes every row from table.
func (t *Tx) clear(table string) error {
	if _, err := t.Exec(table, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	return nil
}

// deleteWhere removes every row of table matching the condition and returns
// the number of rows removed.
func (t *Tx) deleteWhere(table, cond string, args ...any) (int64, error) {
	res, err := t.Exec(table, "DELETE FROM "+table+" WHERE "+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted %s: %w", table, err)
	}
	return n, nil
}
