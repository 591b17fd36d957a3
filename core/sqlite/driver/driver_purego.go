//go:build !cgo_sqlite

package driver

import "github.com/FocuswithJustin/sqlexpress/core/sqlite"

const (
	driverName    = Name
	driverType    = "purego"
	driverPackage = "github.com/FocuswithJustin/sqlexpress/core/sqlite (modernc.org/sqlite)"
)

func engineVersion() string { return sqlite.EngineVersion() }
