package sqlite

import (
	"sync"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
)

// dbHandle owns an engine connection. It outlives the Conn wrapper only
// long enough for a GC cleanup to release it; release happens exactly once.
type dbHandle struct {
	mu     sync.Mutex
	db     engine.DB
	stmts  map[*stmtHandle]struct{}
	closed bool
}

func newDBHandle(db engine.DB) *dbHandle {
	return &dbHandle{db: db, stmts: make(map[*stmtHandle]struct{})}
}

func (h *dbHandle) register(s *stmtHandle) {
	h.mu.Lock()
	h.stmts[s] = struct{}{}
	h.mu.Unlock()
}

func (h *dbHandle) forget(s *stmtHandle) {
	h.mu.Lock()
	delete(h.stmts, s)
	h.mu.Unlock()
}

func (h *dbHandle) openStatements() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stmts)
}

// close releases the engine handle unless statements remain, in which case
// it reports StatusBusy and the number still open.
func (h *dbHandle) close() (status, open int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return engine.StatusOK, 0
	}
	if n := len(h.stmts); n > 0 {
		return engine.StatusBusy, n
	}
	if rc := h.db.Close(); rc != engine.StatusOK {
		return rc, 0
	}
	h.closed = true
	return engine.StatusOK, 0
}

// release finalizes every statement and closes the handle. It runs from the
// Conn's GC cleanup, where refusing to close is not an option.
func (h *dbHandle) release() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	pending := make([]*stmtHandle, 0, len(h.stmts))
	for s := range h.stmts {
		pending = append(pending, s)
	}
	h.mu.Unlock()

	for _, s := range pending {
		s.finalize()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.db.Close()
		h.closed = true
	}
}

// stmtHandle owns an engine statement.
type stmtHandle struct {
	once  sync.Once
	st    engine.Stmt
	owner *dbHandle
	rc    int
}

func newStmtHandle(owner *dbHandle, st engine.Stmt) *stmtHandle {
	h := &stmtHandle{st: st, owner: owner}
	owner.register(h)
	return h
}

// finalize releases the engine statement the first time it is called and
// returns that call's status on every call.
func (h *stmtHandle) finalize() int {
	h.once.Do(func() {
		h.rc = h.st.Finalize()
		h.owner.forget(h)
	})
	return h.rc
}
