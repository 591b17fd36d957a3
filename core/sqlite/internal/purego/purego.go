// Package purego implements engine.Engine on modernc.org/sqlite/lib, the
// CGo-free transliteration of the SQLite amalgamation.
package purego

import (
	"math"
	"sync"
	"unsafe"

	"modernc.org/libc"
	"modernc.org/libc/sys/types"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
)

const ptrSize = unsafe.Sizeof(uintptr(0))

const statusTooBig = 18

// transient is SQLITE_TRANSIENT: the engine copies bound text and blobs
// before the bind call returns.
const transient = ^uintptr(0)

// Engine is the modernc-backed engine.
type Engine struct{}

// New returns the pure Go engine.
func New() *Engine { return &Engine{} }

var _ engine.Engine = (*Engine)(nil)

// Open opens location with the given SQLITE_OPEN_* flags.
func (e *Engine) Open(location string, flags int) (engine.DB, int) {
	tls := libc.NewTLS()
	d := &db{tls: tls}

	pp, ok := d.malloc(int(ptrSize))
	if !ok {
		tls.Close()
		return nil, engine.StatusNoMem
	}
	defer d.free(pp)
	*(*uintptr)(unsafe.Pointer(pp)) = 0

	zName, err := libc.CString(location)
	if err != nil {
		tls.Close()
		return nil, engine.StatusNoMem
	}
	defer d.free(zName)

	rc := sqlite3.Xsqlite3_open_v2(tls, zName, pp, int32(flags), 0)
	d.h = *(*uintptr)(unsafe.Pointer(pp))
	if d.h == 0 {
		tls.Close()
		return nil, int(rc)
	}
	return d, int(rc)
}

// StatusText returns the engine's English description of status.
func (e *Engine) StatusText(status int) string {
	tls := libc.NewTLS()
	defer tls.Close()
	return libc.GoString(sqlite3.Xsqlite3_errstr(tls, int32(status)))
}

// Version returns the engine library version, e.g. "3.50.4".
func (e *Engine) Version() string {
	tls := libc.NewTLS()
	defer tls.Close()
	return libc.GoString(sqlite3.Xsqlite3_libversion(tls))
}

// db wraps a sqlite3* handle. A libc.TLS is not safe for concurrent use, so
// every call on the handle or its statements holds mu.
type db struct {
	mu  sync.Mutex
	tls *libc.TLS
	h   uintptr // *sqlite3.Xsqlite3
}

func (d *db) malloc(n int) (uintptr, bool) {
	p := libc.Xmalloc(d.tls, types.Size_t(n))
	return p, p != 0 || n == 0
}

func (d *db) free(p uintptr) {
	if p != 0 {
		libc.Xfree(d.tls, p)
	}
}

func (d *db) Prepare(sql string) (engine.Stmt, string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	zSQL, err := libc.CString(sql)
	if err != nil {
		return nil, sql, engine.StatusNoMem
	}
	defer d.free(zSQL)

	ppstmt, ok := d.malloc(int(ptrSize))
	if !ok {
		return nil, sql, engine.StatusNoMem
	}
	defer d.free(ppstmt)
	pptail, ok := d.malloc(int(ptrSize))
	if !ok {
		return nil, sql, engine.StatusNoMem
	}
	defer d.free(pptail)

	rc := sqlite3.Xsqlite3_prepare_v2(d.tls, d.h, zSQL, -1, ppstmt, pptail)
	if rc != sqlite3.SQLITE_OK {
		return nil, sql, int(rc)
	}

	tail := ""
	if pTail := *(*uintptr)(unsafe.Pointer(pptail)); pTail != 0 {
		if off := int(pTail - zSQL); off >= 0 && off <= len(sql) {
			tail = sql[off:]
		}
	}

	h := *(*uintptr)(unsafe.Pointer(ppstmt))
	if h == 0 {
		return nil, tail, engine.StatusOK
	}
	return &stmt{db: d, h: h}, tail, engine.StatusOK
}

func (d *db) Close() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.h == 0 {
		return engine.StatusOK
	}
	rc := sqlite3.Xsqlite3_close_v2(d.tls, d.h)
	if rc != sqlite3.SQLITE_OK {
		return int(rc)
	}
	d.h = 0
	d.tls.Close()
	return engine.StatusOK
}

func (d *db) ExtendedResultCodes(on bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(sqlite3.Xsqlite3_extended_result_codes(d.tls, d.h, libc.Bool32(on)))
}

func (d *db) ErrMsg() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return libc.GoString(sqlite3.Xsqlite3_errmsg(d.tls, d.h))
}

func (d *db) ErrCode() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(sqlite3.Xsqlite3_extended_errcode(d.tls, d.h))
}

func (d *db) LastInsertRowID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sqlite3.Xsqlite3_last_insert_rowid(d.tls, d.h)
}

func (d *db) Changes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(sqlite3.Xsqlite3_changes(d.tls, d.h))
}

func (d *db) TotalChanges() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(sqlite3.Xsqlite3_total_changes(d.tls, d.h))
}

func (d *db) BusyTimeout(ms int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(sqlite3.Xsqlite3_busy_timeout(d.tls, d.h, int32(ms)))
}

func (d *db) Serialize(schema string) ([]byte, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	zSchema, err := libc.CString(schema)
	if err != nil {
		return nil, engine.StatusNoMem
	}
	defer d.free(zSchema)

	pLen := d.tls.Alloc(8)
	defer d.tls.Free(8)

	pBuf := sqlite3.Xsqlite3_serialize(d.tls, d.h, zSchema, pLen, 0)
	if pBuf == 0 {
		if rc := sqlite3.Xsqlite3_errcode(d.tls, d.h); rc != sqlite3.SQLITE_OK {
			return nil, int(rc)
		}
		return nil, engine.StatusError
	}
	defer sqlite3.Xsqlite3_free(d.tls, pBuf)

	n := *(*sqlite3.Sqlite3_int64)(unsafe.Pointer(pLen))
	v := make([]byte, n)
	if n > 0 {
		copy(v, (*libc.RawMem)(unsafe.Pointer(pBuf))[:n:n])
	}
	return v, engine.StatusOK
}

func (d *db) Deserialize(schema string, data []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	zSchema, err := libc.CString(schema)
	if err != nil {
		return engine.StatusNoMem
	}
	defer d.free(zSchema)

	n := len(data)
	if n > math.MaxInt32 {
		return statusTooBig
	}
	// Owned by the engine from here on because of FREEONCLOSE.
	pBuf := sqlite3.Xsqlite3_malloc(d.tls, int32(n))
	if pBuf == 0 && n > 0 {
		return engine.StatusNoMem
	}
	if n > 0 {
		copy((*libc.RawMem)(unsafe.Pointer(pBuf))[:n:n], data)
	}

	return int(sqlite3.Xsqlite3_deserialize(d.tls, d.h, zSchema, pBuf, int64(n), int64(n),
		sqlite3.SQLITE_DESERIALIZE_RESIZEABLE|sqlite3.SQLITE_DESERIALIZE_FREEONCLOSE))
}
