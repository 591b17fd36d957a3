package sqlite

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
	"weak"

	"github.com/FocuswithJustin/sqlexpress/core/cache"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite/internal/purego"
)

// DefaultStmtCacheSize is the number of statements PrepareCached keeps per
// connection unless WithStmtCacheSize says otherwise.
const DefaultStmtCacheSize = 16

var defaultEngine engine.Engine = purego.New()

// EngineVersion returns the version of the default engine library.
func EngineVersion() string {
	return defaultEngine.Version()
}

type options struct {
	engine      engine.Engine
	extended    bool
	busyTimeout time.Duration
	tracer      Tracer
	cacheSize   int
}

// Option configures Open.
type Option func(*options)

// WithEngine replaces the engine used to open the connection.
func WithEngine(e engine.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithExtendedCodes toggles extended result codes. They are on by default.
func WithExtendedCodes(on bool) Option {
	return func(o *options) { o.extended = on }
}

// WithBusyTimeout makes the engine wait up to d for locks instead of
// failing with CodeBusy immediately.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithTracer reports connection and statement events to t.
func WithTracer(t Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithStmtCacheSize bounds the PrepareCached cache. Zero disables caching.
func WithStmtCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// Conn is an open database connection. Its methods are safe for concurrent
// use; the engine serializes access underneath.
//
// A Conn must be closed with Close. If it becomes unreachable while open, a
// cleanup finalizes its statements and releases the handle.
type Conn struct {
	h        *dbHandle
	eng      engine.Engine
	location string
	flags    OpenFlags
	extended bool
	tracer   Tracer
	stmts    cache.Cache[string, *Stmt]
	cleanup  runtime.Cleanup
	self     weak.Pointer[Conn]

	mu      sync.Mutex
	closed  bool
	lastErr *Error
}

// Open opens the database at location, which is a file path, a "file:" URI
// when OpenURI is set, or Memory.
func Open(location string, flags OpenFlags, opts ...Option) (*Conn, error) {
	o := options{engine: defaultEngine, extended: true, cacheSize: DefaultStmtCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if err := flags.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	db, rc := o.engine.Open(location, flags.engineFlags())
	if rc != engine.StatusOK {
		detail := o.engine.StatusText(rc)
		if db != nil {
			if msg := db.ErrMsg(); msg != "" {
				detail = msg
			}
			db.Close()
		}
		err := &Error{Code: ResultCode(rc), Op: "open", Detail: fmt.Sprintf("%s: %s", location, detail)}
		trace(o.tracer, TraceEvent{Kind: EventOpen, Location: location, Duration: time.Since(start), Err: err})
		return nil, err
	}

	c := &Conn{
		h:        newDBHandle(db),
		eng:      o.engine,
		location: location,
		flags:    flags,
		extended: o.extended,
		tracer:   o.tracer,
	}
	c.self = weak.Make(c)
	c.cleanup = runtime.AddCleanup(c, (*dbHandle).release, c.h)

	if o.cacheSize > 0 {
		c.stmts = cache.NewLRUCache(cache.Config[string, *Stmt]{
			MaxSize: o.cacheSize,
			OnEvict: func(_ string, s *Stmt) { s.Finalize() },
		})
	}

	if rc := db.ExtendedResultCodes(o.extended); rc != engine.StatusOK {
		err := c.errorFor("open", rc)
		c.Close()
		return nil, err
	}
	if o.busyTimeout > 0 {
		if err := c.SetBusyTimeout(o.busyTimeout); err != nil {
			c.Close()
			return nil, err
		}
	}
	if flags&OpenExclusiveLock != 0 {
		if err := c.Exec("PRAGMA locking_mode=EXCLUSIVE"); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.trace(TraceEvent{Kind: EventOpen, Duration: time.Since(start)})
	return c, nil
}

func trace(t Tracer, ev TraceEvent) {
	if t != nil {
		t.Trace(ev)
	}
}

func (c *Conn) trace(ev TraceEvent) {
	if c.tracer != nil {
		ev.Location = c.location
		c.tracer.Trace(ev)
	}
}

// Location returns the location passed to Open.
func (c *Conn) Location() string { return c.location }

// Flags returns the flags passed to Open.
func (c *Conn) Flags() OpenFlags { return c.flags }

// ExtendedCodes reports whether failures carry extended result codes.
func (c *Conn) ExtendedCodes() bool { return c.extended }

// IsOpen reports whether Close has not yet succeeded.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// OpenStatements returns the number of statements not yet finalized,
// including those parked in the statement cache.
func (c *Conn) OpenStatements() int {
	return c.h.openStatements()
}

// StmtCacheStats reports the PrepareCached hit, miss and eviction counts.
// It returns the zero Stats when caching is disabled.
func (c *Conn) StmtCacheStats() cache.Stats {
	if c.stmts == nil {
		return cache.Stats{}
	}
	return c.stmts.Stats()
}

// LastError returns the most recent engine failure seen on this
// connection, or nil.
func (c *Conn) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil {
		return nil
	}
	return c.lastErr
}

// db returns the engine handle, or a misuse error once closed.
func (c *Conn) db(op string) (engine.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, misuse(op, "connection is closed")
	}
	return c.h.db, nil
}

// errorFor builds an Error for a failed engine call and remembers it as
// the connection's last error.
func (c *Conn) errorFor(op string, rc int) *Error {
	err := &Error{Code: ResultCode(rc), Op: op}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		err.Detail = c.h.db.ErrMsg()
	}
	c.lastErr = err
	return err
}

// Prepare compiles the first statement in sql. Text after it is ignored.
// SQL holding no statement at all fails with CodeMisuse.
func (c *Conn) Prepare(sql string) (*Stmt, error) {
	s, _, err := c.PrepareTail(sql)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, misuse("prepare", "no SQL statement in %q", abbreviate(sql))
	}
	return s, nil
}

// PrepareTail compiles the first statement in sql and returns the text
// that follows it. When sql holds only whitespace or comments the returned
// statement is nil and err is nil.
func (c *Conn) PrepareTail(sql string) (s *Stmt, tail string, err error) {
	db, err := c.db("prepare")
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	st, tail, rc := db.Prepare(sql)
	if rc != engine.StatusOK {
		err := c.errorFor("prepare", rc)
		c.trace(TraceEvent{Kind: EventPrepare, SQL: sql, Duration: time.Since(start), Err: err})
		return nil, "", err
	}
	if st == nil {
		return nil, tail, nil
	}

	s = newStmt(c, st)
	c.trace(TraceEvent{Kind: EventPrepare, SQL: s.sql, Duration: time.Since(start)})
	return s, tail, nil
}

// PrepareCached returns a statement for sql from the connection's cache,
// compiling it on a miss. The statement comes back reset with its bindings
// cleared. Call Release when done so the next caller can reuse it.
func (c *Conn) PrepareCached(sql string) (*Stmt, error) {
	if c.stmts == nil {
		return c.Prepare(sql)
	}
	if _, err := c.db("prepare"); err != nil {
		return nil, err
	}
	if s, ok := c.stmts.Take(sql); ok {
		if s.State() != StateFinalized {
			c.trace(TraceEvent{Kind: EventCacheHit, SQL: sql})
			return s, nil
		}
	}
	c.trace(TraceEvent{Kind: EventCacheMiss, SQL: sql})

	s, err := c.Prepare(sql)
	if err != nil {
		return nil, err
	}
	s.cacheKey = sql
	return s, nil
}

// release parks s in the statement cache. It reports false when s cannot
// be cached and should be finalized instead.
func (c *Conn) release(s *Stmt) bool {
	if c.stmts == nil || s.cacheKey == "" || !c.IsOpen() {
		return false
	}
	c.stmts.Put(s.cacheKey, s)
	return true
}

// Exec runs every step of the first statement in sql with args bound
// positionally, discarding any rows.
func (c *Conn) Exec(sql string, args ...any) error {
	s, err := c.PrepareCached(sql)
	if err != nil {
		return err
	}
	defer s.Release()

	if len(args) > 0 {
		if err := s.BindAll(args...); err != nil {
			return err
		}
	}
	return s.drain()
}

// ExecScript runs each statement in script in turn, stopping at the first
// failure.
func (c *Conn) ExecScript(script string) error {
	rest := script
	for {
		s, tail, err := c.PrepareTail(rest)
		if err != nil {
			return err
		}
		if s == nil {
			return nil
		}
		err = s.drain()
		if ferr := s.Finalize(); err == nil {
			err = ferr
		}
		if err != nil {
			return err
		}
		rest = tail
	}
}

// Tx runs fn inside BEGIN/COMMIT. It rolls back when fn returns an error or
// panics.
func (c *Conn) Tx(fn func() error) (err error) {
	if err := c.Exec("BEGIN"); err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rerr := c.Exec("ROLLBACK"); rerr != nil && err == nil {
			err = rerr
		}
	}()

	if err = fn(); err != nil {
		return err
	}
	if err = c.Exec("COMMIT"); err != nil {
		return err
	}
	committed = true
	return nil
}

// LastInsertRowID returns the rowid of the most recent successful INSERT.
func (c *Conn) LastInsertRowID() int64 {
	db, err := c.db("last_insert_rowid")
	if err != nil {
		return 0
	}
	return db.LastInsertRowID()
}

// Changes returns the rows modified by the most recent INSERT, UPDATE or
// DELETE.
func (c *Conn) Changes() int64 {
	db, err := c.db("changes")
	if err != nil {
		return 0
	}
	return db.Changes()
}

// TotalChanges returns the rows modified since the connection opened.
func (c *Conn) TotalChanges() int64 {
	db, err := c.db("total_changes")
	if err != nil {
		return 0
	}
	return db.TotalChanges()
}

// SetBusyTimeout sets how long the engine retries a locked database before
// returning CodeBusy. Zero turns retrying off.
func (c *Conn) SetBusyTimeout(d time.Duration) error {
	db, err := c.db("busy_timeout")
	if err != nil {
		return err
	}
	if rc := db.BusyTimeout(int(d / time.Millisecond)); rc != engine.StatusOK {
		return c.errorFor("busy_timeout", rc)
	}
	return nil
}

// Version returns the engine library version.
func (c *Conn) Version() string { return c.eng.Version() }

// Serialize returns the content of the named schema ("main" when empty) as
// a database file image.
func (c *Conn) Serialize(schema string) ([]byte, error) {
	db, err := c.db("serialize")
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = "main"
	}
	data, rc := db.Serialize(schema)
	if rc != engine.StatusOK {
		return nil, c.errorFor("serialize", rc)
	}
	return data, nil
}

// Deserialize replaces the named schema ("main" when empty) with the
// database image in data.
func (c *Conn) Deserialize(schema string, data []byte) error {
	db, err := c.db("deserialize")
	if err != nil {
		return err
	}
	if schema == "" {
		schema = "main"
	}
	if rc := db.Deserialize(schema, data); rc != engine.StatusOK {
		return c.errorFor("deserialize", rc)
	}
	return nil
}

// Close finalizes cached statements and closes the connection. It fails
// with CodeBusy, leaving the connection open, while other statements are
// still live. Closing a closed connection is a no-op.
func (c *Conn) Close() error {
	if !c.IsOpen() {
		return nil
	}
	if c.stmts != nil {
		c.stmts.Clear()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	rc, open := c.h.close()
	switch {
	case rc == engine.StatusBusy && open > 0:
		err := &Error{Code: CodeBusy, Op: "close", Detail: fmt.Sprintf("%d statement(s) still open", open)}
		c.lastErr = err
		return err
	case rc != engine.StatusOK:
		err := &Error{Code: ResultCode(rc), Op: "close", Detail: c.h.db.ErrMsg()}
		c.lastErr = err
		return err
	}

	c.closed = true
	c.cleanup.Stop()
	c.trace(TraceEvent{Kind: EventClose})
	return nil
}

func abbreviate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
