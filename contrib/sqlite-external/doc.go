// Package sqliteexternal links the cgo SQLite driver, mattn/go-sqlite3, as
// an alternative backend for database/sql.
//
// The default build needs no cgo: core/sqlite runs modernc.org/sqlite, a
// pure Go translation of the same C library. Building with the cgo_sqlite
// tag swaps core/sqlite/driver.Open over to this package:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./...
//
// The comparison tests in core/sqlite/driver run both backends side by side
// under that tag and fail if their results differ.
package sqliteexternal
