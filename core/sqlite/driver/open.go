package driver

import (
	"database/sql"
	"fmt"
	"net/url"
)

// DriverName returns the database/sql driver name Open uses. It is Name in
// the default build and the cgo driver's name when built with cgo_sqlite.
func DriverName() string {
	return driverName
}

// DriverType returns "purego" or "cgo".
func DriverType() string {
	return driverType
}

// IsCGO reports whether Open uses the cgo driver.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a database handle with the build's driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens the database file at path read-only.
func OpenReadOnly(path string) (*sql.DB, error) {
	u := url.URL{Scheme: "file", Opaque: path, RawQuery: "mode=ro"}
	return Open(u.String())
}

// MustOpen is Open for tests and program initialization. It panics on
// error.
func MustOpen(dataSourceName string) *sql.DB {
	db, err := Open(dataSourceName)
	if err != nil {
		panic(fmt.Sprintf("sqlexpress: failed to open %s: %v", dataSourceName, err))
	}
	return db
}

// Info describes the driver selected at build time.
type Info struct {
	DriverName    string `json:"driver_name" yaml:"driver_name"`
	DriverType    string `json:"driver_type" yaml:"driver_type"`
	IsCGO         bool   `json:"is_cgo" yaml:"is_cgo"`
	Package       string `json:"package" yaml:"package"`
	EngineVersion string `json:"engine_version" yaml:"engine_version"`
}

// GetInfo returns the build's driver configuration.
func GetInfo() Info {
	return Info{
		DriverName:    driverName,
		DriverType:    driverType,
		IsCGO:         IsCGO(),
		Package:       driverPackage,
		EngineVersion: engineVersion(),
	}
}
