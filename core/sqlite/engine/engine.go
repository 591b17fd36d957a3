// Package engine defines the delegation surface between the sqlite wrapper
// types and the compiled-query engine underneath them.
//
// The interfaces mirror the engine's C API one method per function. Every
// method that can fail returns the raw engine status as a plain int; mapping
// statuses to result codes and errors is the caller's job, so an
// implementation never builds Go errors of its own.
package engine

// Status values the wrapper layer needs to recognise without consulting the
// result-code table.
const (
	StatusOK     = 0
	StatusError  = 1
	StatusBusy   = 5
	StatusNoMem  = 7
	StatusMisuse = 21
	StatusRange  = 25
	StatusRow    = 100
	StatusDone   = 101
)

// Open flag bits understood by Engine.Open. The values match the engine's
// SQLITE_OPEN_* constants.
const (
	OpenReadOnly     = 0x00000001
	OpenReadWrite    = 0x00000002
	OpenCreate       = 0x00000004
	OpenURI          = 0x00000040
	OpenMemory       = 0x00000080
	OpenNoMutex      = 0x00008000
	OpenFullMutex    = 0x00010000
	OpenSharedCache  = 0x00020000
	OpenPrivateCache = 0x00040000
)

// Column storage classes reported by Stmt.ColumnType.
const (
	TypeInteger = 1
	TypeFloat   = 2
	TypeText    = 3
	TypeBlob    = 4
	TypeNull    = 5
)

// Engine opens database handles.
type Engine interface {
	// Open is sqlite3_open_v2. A failed open may still return a non-nil DB
	// so the caller can read its diagnostic; the caller must Close it.
	Open(location string, flags int) (DB, int)
	// StatusText is sqlite3_errstr.
	StatusText(status int) string
	// Version is sqlite3_libversion.
	Version() string
}

// DB is a database connection handle.
type DB interface {
	// Prepare compiles the first statement in sql and returns the unused
	// remainder. A nil Stmt with StatusOK means sql held no statement.
	Prepare(sql string) (stmt Stmt, tail string, status int)
	// Close is sqlite3_close_v2.
	Close() int
	// ExtendedResultCodes is sqlite3_extended_result_codes.
	ExtendedResultCodes(on bool) int
	// ErrMsg is sqlite3_errmsg.
	ErrMsg() string
	// ErrCode is sqlite3_extended_errcode.
	ErrCode() int
	LastInsertRowID() int64
	Changes() int64
	TotalChanges() int64
	// BusyTimeout is sqlite3_busy_timeout.
	BusyTimeout(ms int) int
	// Serialize is sqlite3_serialize for the named schema.
	Serialize(schema string) ([]byte, int)
	// Deserialize is sqlite3_deserialize. The engine takes ownership of a
	// copy of data.
	Deserialize(schema string, data []byte) int
}

// Stmt is a compiled statement handle.
type Stmt interface {
	SQL() string
	Step() int
	Reset() int
	ClearBindings() int
	Finalize() int

	BindParameterCount() int
	// BindParameterName returns "" for anonymous "?" parameters.
	BindParameterName(i int) string
	// BindParameterIndex returns 0 when no parameter has that exact name.
	BindParameterIndex(name string) int
	BindInt64(i int, v int64) int
	BindFloat(i int, v float64) int
	// BindText and BindBlob must copy v into engine-owned memory.
	BindText(i int, v string) int
	BindBlob(i int, v []byte) int
	BindNull(i int) int

	ColumnCount() int
	ColumnType(i int) int
	ColumnName(i int) string
	ColumnDeclType(i int) string
	ColumnTableName(i int) string
	ColumnOriginName(i int) string
	ColumnDatabaseName(i int) string
	ColumnInt64(i int) int64
	ColumnFloat(i int) float64
	ColumnText(i int) string
	ColumnBlob(i int) []byte
}
