package driver

import (
	"errors"
	"strings"
)

// Tx implements driver.Tx.
type Tx struct {
	conn     *Conn
	readOnly bool
	closed   bool
}

var errTxDone = errors.New("sqlexpress: transaction already committed or rolled back")

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	if tx.closed {
		return errTxDone
	}
	tx.closed = true
	return tx.conn.endTx("COMMIT", tx.readOnly)
}

// Rollback rolls the transaction back. Rolling back a finished transaction
// is a no-op.
func (tx *Tx) Rollback() error {
	if tx.closed {
		return nil
	}
	tx.closed = true
	return tx.conn.endTx("ROLLBACK", tx.readOnly)
}

// IsReadOnly reports whether the transaction was started read-only.
func (tx *Tx) IsReadOnly() bool { return tx.readOnly }

// IsClosed reports whether the transaction has been committed or rolled
// back.
func (tx *Tx) IsClosed() bool { return tx.closed }

// Savepoint opens a named savepoint inside the transaction.
func (tx *Tx) Savepoint(name string) error {
	if tx.closed {
		return errTxDone
	}
	return tx.conn.Savepoint(name)
}

// ReleaseSavepoint releases name and every savepoint opened after it.
func (tx *Tx) ReleaseSavepoint(name string) error {
	if tx.closed {
		return errTxDone
	}
	return tx.conn.ReleaseSavepoint(name)
}

// RollbackToSavepoint undoes everything since name was opened. The
// savepoint stays open.
func (tx *Tx) RollbackToSavepoint(name string) error {
	if tx.closed {
		return errTxDone
	}
	return tx.conn.RollbackToSavepoint(name)
}

// Savepoint opens a named savepoint in the connection's transaction. The
// Tx methods of the same name call it; from database/sql reach it through
// sql.Conn.Raw.
func (c *Conn) Savepoint(name string) error {
	return c.savepoint("SAVEPOINT ", name)
}

// ReleaseSavepoint releases name and every savepoint opened after it.
func (c *Conn) ReleaseSavepoint(name string) error {
	return c.savepoint("RELEASE SAVEPOINT ", name)
}

// RollbackToSavepoint undoes everything since name was opened.
func (c *Conn) RollbackToSavepoint(name string) error {
	return c.savepoint("ROLLBACK TO SAVEPOINT ", name)
}

func (c *Conn) savepoint(verb, name string) error {
	if name == "" {
		return errors.New("sqlexpress: empty savepoint name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inTx {
		return errors.New("sqlexpress: savepoint outside a transaction")
	}
	return c.translate(c.conn.Exec(verb + quoteIdent(name)))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
