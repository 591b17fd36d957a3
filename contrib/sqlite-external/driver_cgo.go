//go:build cgo_sqlite

package sqliteexternal

import (
	sqlite3 "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the name mattn/go-sqlite3 registers with database/sql.
	DriverName = "sqlite3"

	// DriverType identifies the cgo implementation.
	DriverType = "cgo"

	// DriverPackage is the import path of the underlying driver.
	DriverPackage = "github.com/mattn/go-sqlite3"
)

// Version returns the version of the SQLite library linked by cgo.
func Version() string {
	v, _, _ := sqlite3.Version()
	return v
}
