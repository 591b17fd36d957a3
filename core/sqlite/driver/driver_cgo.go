//go:build cgo_sqlite

package driver

import (
	sqliteexternal "github.com/FocuswithJustin/sqlexpress/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
)

func engineVersion() string { return sqliteexternal.Version() }
