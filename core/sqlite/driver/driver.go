// Package driver exposes the sqlite package through database/sql.
//
// Importing it registers the driver under Name:
//
//	db, err := sql.Open("sqlexpress", "app.db?_busy_timeout=5000")
//
// Each database/sql connection owns one *sqlite.Conn. Statements prepared
// through Exec and Query come from that connection's statement cache.
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Name is the name the driver registers with database/sql.
const Name = "sqlexpress"

// Driver implements driver.Driver and driver.DriverContext.
type Driver struct{}

func init() {
	sql.Register(Name, &Driver{})
}

// Open opens a new connection for name. See ParseDSN for the format.
func (d *Driver) Open(name string) (driver.Conn, error) {
	c, err := d.OpenConnector(name)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

// OpenConnector parses name once so database/sql can open connections
// without reparsing it.
func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	return NewConnector(name)
}

// Connector opens connections for a fixed DSN with extra sqlite options,
// such as a tracer. Use it with sql.OpenDB.
type Connector struct {
	cfg  *Config
	opts []sqlite.Option
}

// NewConnector parses dsn and returns a Connector that applies opts after
// the options derived from the DSN.
func NewConnector(dsn string, opts ...sqlite.Option) (*Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &Connector{cfg: cfg, opts: opts}, nil
}

// Config returns the parsed DSN.
func (c *Connector) Config() Config { return *c.cfg }

// Connect opens one connection.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := append(c.cfg.options(), c.opts...)
	conn, err := sqlite.Open(c.cfg.Location, c.cfg.Flags, opts...)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn, begin: txLocks[c.cfg.TxLock], readOnly: c.cfg.Flags&sqlite.OpenReadOnly != 0}, nil
}

// Driver returns the registered driver.
func (c *Connector) Driver() driver.Driver { return &Driver{} }
