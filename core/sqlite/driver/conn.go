package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Conn implements driver.Conn on top of one sqlite.Conn.
type Conn struct {
	conn     *sqlite.Conn
	begin    string
	readOnly bool

	mu   sync.Mutex
	inTx bool
}

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.SessionResetter    = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
	_ driver.NamedValueChecker  = (*Conn)(nil)
)

// Raw returns the underlying connection. Use it through sql.Conn.Raw to
// reach statement-level features database/sql does not expose.
func (c *Conn) Raw() *sqlite.Conn { return c.conn }

// Prepare prepares a statement.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext prepares the first statement in query.
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := c.conn.Prepare(query)
	if err != nil {
		return nil, c.translate(err)
	}
	return &Stmt{conn: c, stmt: s}, nil
}

// ExecContext runs every statement in query. Arguments bind to the first
// statement; a script with more than one statement must not take any.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if len(args) == 0 {
		return c.execScript(ctx, query)
	}

	s, err := c.conn.PrepareCached(query)
	if err != nil {
		return nil, c.translate(err)
	}
	defer s.Release()

	if err := bindArgs(s, args); err != nil {
		return nil, err
	}
	if err := drain(ctx, s); err != nil {
		return nil, c.translate(err)
	}
	return c.result(), nil
}

func (c *Conn) execScript(ctx context.Context, script string) (driver.Result, error) {
	rest := script
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, tail, err := c.conn.PrepareTail(rest)
		if err != nil {
			return nil, c.translate(err)
		}
		if s == nil {
			return c.result(), nil
		}
		err = drain(ctx, s)
		s.Finalize()
		if err != nil {
			return nil, c.translate(err)
		}
		rest = tail
	}
}

// QueryContext runs query and returns its rows. The statement is borrowed
// from the cache and handed back when the rows are closed.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := c.conn.PrepareCached(query)
	if err != nil {
		return nil, c.translate(err)
	}
	if err := bindArgs(s, args); err != nil {
		s.Release()
		return nil, err
	}
	return newRows(ctx, s, s.Release), nil
}

func (c *Conn) result() driver.Result {
	return &Result{lastInsertID: c.conn.LastInsertRowID(), rowsAffected: c.conn.Changes()}
}

// Begin starts a transaction.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx starts a transaction. Only the default and serializable
// isolation levels are supported. A read-only transaction stops writes
// with the query_only pragma until it ends.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch opts.Isolation {
	case driver.IsolationLevel(sql.LevelDefault), driver.IsolationLevel(sql.LevelSerializable):
	default:
		return nil, fmt.Errorf("sqlexpress: unsupported isolation level %d", opts.Isolation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inTx {
		return nil, errors.New("sqlexpress: transaction already in progress")
	}

	if opts.ReadOnly && !c.readOnly {
		if err := c.conn.Exec("PRAGMA query_only = 1"); err != nil {
			return nil, c.translate(err)
		}
	}
	if err := c.conn.Exec(c.begin); err != nil {
		if opts.ReadOnly && !c.readOnly {
			c.conn.Exec("PRAGMA query_only = 0")
		}
		return nil, c.translate(err)
	}
	c.inTx = true
	return &Tx{conn: c, readOnly: opts.ReadOnly}, nil
}

// endTx runs COMMIT or ROLLBACK and clears the transaction state.
func (c *Conn) endTx(verb string, readOnly bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inTx {
		return errors.New("sqlexpress: no transaction in progress")
	}
	err := c.conn.Exec(verb)
	if err != nil && verb == "COMMIT" {
		// A failed COMMIT leaves the transaction open; roll it back so the
		// connection is reusable.
		c.conn.Exec("ROLLBACK")
	}
	c.inTx = false
	if readOnly && !c.readOnly {
		c.conn.Exec("PRAGMA query_only = 0")
	}
	return c.translate(err)
}

// Ping reports whether the connection is still open.
func (c *Conn) Ping(ctx context.Context) error {
	if !c.conn.IsOpen() {
		return driver.ErrBadConn
	}
	return ctx.Err()
}

// ResetSession is called before a pooled connection is reused.
func (c *Conn) ResetSession(ctx context.Context) error {
	if !c.conn.IsOpen() {
		return driver.ErrBadConn
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inTx {
		return driver.ErrBadConn
	}
	return nil
}

// IsValid reports whether the connection can go back to the pool.
func (c *Conn) IsValid() bool { return c.conn.IsOpen() }

// CheckNamedValue converts arguments with the same rules the sqlite
// package binds them by.
func (c *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	v, err := converter.ConvertValue(nv.Value)
	if err != nil {
		return err
	}
	nv.Value = v
	return nil
}

// Close closes the connection. database/sql closes every statement before
// it closes the connection, so a busy refusal here means a leak.
func (c *Conn) Close() error {
	return c.translate(c.conn.Close())
}

// translate maps errors that mean the connection is unusable to
// driver.ErrBadConn so database/sql discards it.
func (c *Conn) translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sqlite.CodeMisuse) && !c.conn.IsOpen() {
		return driver.ErrBadConn
	}
	return err
}
