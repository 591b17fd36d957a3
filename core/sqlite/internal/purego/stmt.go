package purego

import (
	"math"
	"unsafe"

	"modernc.org/libc"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
)

// stmt wraps a sqlite3_stmt*. It shares its db's TLS and lock.
type stmt struct {
	db *db
	h  uintptr // *sqlite3.Xsqlite3_stmt
}

var _ engine.Stmt = (*stmt)(nil)

func (s *stmt) SQL() string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_sql(s.db.tls, s.h))
}

func (s *stmt) Step() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_step(s.db.tls, s.h))
}

func (s *stmt) Reset() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_reset(s.db.tls, s.h))
}

func (s *stmt) ClearBindings() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_clear_bindings(s.db.tls, s.h))
}

func (s *stmt) Finalize() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.h == 0 {
		return engine.StatusOK
	}
	rc := sqlite3.Xsqlite3_finalize(s.db.tls, s.h)
	s.h = 0
	return int(rc)
}

func (s *stmt) BindParameterCount() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_bind_parameter_count(s.db.tls, s.h))
}

func (s *stmt) BindParameterName(i int) string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_bind_parameter_name(s.db.tls, s.h, int32(i)))
}

func (s *stmt) BindParameterIndex(name string) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	zName, err := libc.CString(name)
	if err != nil {
		return 0
	}
	defer s.db.free(zName)
	return int(sqlite3.Xsqlite3_bind_parameter_index(s.db.tls, s.h, zName))
}

func (s *stmt) BindInt64(i int, v int64) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_bind_int64(s.db.tls, s.h, int32(i), v))
}

func (s *stmt) BindFloat(i int, v float64) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_bind_double(s.db.tls, s.h, int32(i), v))
}

func (s *stmt) BindText(i int, v string) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if len(v) > math.MaxInt32 {
		return statusTooBig
	}
	p, err := libc.CString(v)
	if err != nil {
		return engine.StatusNoMem
	}
	// The engine copies under the transient destructor, so p is ours to free.
	defer s.db.free(p)
	return int(sqlite3.Xsqlite3_bind_text(s.db.tls, s.h, int32(i), p, int32(len(v)), transient))
}

func (s *stmt) BindBlob(i int, v []byte) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if len(v) > math.MaxInt32 {
		return statusTooBig
	}
	if len(v) == 0 {
		return int(sqlite3.Xsqlite3_bind_zeroblob(s.db.tls, s.h, int32(i), 0))
	}
	p, ok := s.db.malloc(len(v))
	if !ok {
		return engine.StatusNoMem
	}
	defer s.db.free(p)
	copy((*libc.RawMem)(unsafe.Pointer(p))[:len(v):len(v)], v)
	return int(sqlite3.Xsqlite3_bind_blob(s.db.tls, s.h, int32(i), p, int32(len(v)), transient))
}

func (s *stmt) BindNull(i int) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_bind_null(s.db.tls, s.h, int32(i)))
}

func (s *stmt) ColumnCount() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_column_count(s.db.tls, s.h))
}

func (s *stmt) ColumnType(i int) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int(sqlite3.Xsqlite3_column_type(s.db.tls, s.h, int32(i)))
}

func (s *stmt) ColumnName(i int) string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_column_name(s.db.tls, s.h, int32(i)))
}

func (s *stmt) ColumnDeclType(i int) string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_column_decltype(s.db.tls, s.h, int32(i)))
}

func (s *stmt) ColumnTableName(i int) string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_column_table_name(s.db.tls, s.h, int32(i)))
}

func (s *stmt) ColumnOriginName(i int) string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_column_origin_name(s.db.tls, s.h, int32(i)))
}

func (s *stmt) ColumnDatabaseName(i int) string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_column_database_name(s.db.tls, s.h, int32(i)))
}

func (s *stmt) ColumnInt64(i int) int64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return sqlite3.Xsqlite3_column_int64(s.db.tls, s.h, int32(i))
}

func (s *stmt) ColumnFloat(i int) float64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return sqlite3.Xsqlite3_column_double(s.db.tls, s.h, int32(i))
}

func (s *stmt) ColumnText(i int) string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p := sqlite3.Xsqlite3_column_text(s.db.tls, s.h, int32(i))
	n := int(sqlite3.Xsqlite3_column_bytes(s.db.tls, s.h, int32(i)))
	if p == 0 || n == 0 {
		return ""
	}
	b := make([]byte, n)
	copy(b, (*libc.RawMem)(unsafe.Pointer(p))[:n:n])
	return string(b)
}

func (s *stmt) ColumnBlob(i int) []byte {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p := sqlite3.Xsqlite3_column_blob(s.db.tls, s.h, int32(i))
	n := int(sqlite3.Xsqlite3_column_bytes(s.db.tls, s.h, int32(i)))
	if p == 0 || n == 0 {
		return nil
	}
	v := make([]byte, n)
	copy(v, (*libc.RawMem)(unsafe.Pointer(p))[:n:n])
	return v
}
