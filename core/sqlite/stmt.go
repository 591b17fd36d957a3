package sqlite

import (
	"iter"
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
)

// State is the cursor position of a Stmt.
type State int

const (
	// StateReady means freshly compiled or reset: parameters may be bound
	// and no row is available. A statement that runs to completion returns
	// here on its own.
	StateReady State = iota
	// StateHasRow means Step produced a row whose columns can be read.
	StateHasRow
	// StateFinalized is terminal.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateHasRow:
		return "has-row"
	case StateFinalized:
		return "finalized"
	}
	return "unknown"
}

// StepResult is the outcome of a successful Step.
type StepResult int

const (
	// StepRow means a row is available.
	StepRow StepResult = iota + 1
	// StepDone means the statement ran to completion. The cursor has
	// already been reset.
	StepDone
)

func (r StepResult) String() string {
	switch r {
	case StepRow:
		return "row"
	case StepDone:
		return "done"
	}
	return "none"
}

// Stmt is a compiled statement. Its methods are serialized by an internal
// mutex, so a Stmt may be shared, but interleaving Step calls from several
// goroutines rarely makes sense.
//
// A Stmt refers to its Conn weakly and never keeps it open. Once the
// connection is gone every method except Finalize fails with CodeMisuse.
type Stmt struct {
	mu         sync.Mutex
	h          *stmtHandle
	conn       weak.Pointer[Conn]
	sql        string
	state      State
	halted     bool // last Step failed; the engine needs a reset before binding
	colCount   int
	paramCount int
	cacheKey   string
	cleanup    runtime.Cleanup
}

func newStmt(c *Conn, st engine.Stmt) *Stmt {
	s := &Stmt{
		h:          newStmtHandle(c.h, st),
		conn:       c.self,
		sql:        st.SQL(),
		colCount:   st.ColumnCount(),
		paramCount: st.BindParameterCount(),
	}
	s.cleanup = runtime.AddCleanup(s, func(h *stmtHandle) { h.finalize() }, s.h)
	return s
}

// SQL returns the text of the compiled statement.
func (s *Stmt) SQL() string { return s.sql }

// State returns the cursor state.
func (s *Stmt) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ColumnCount returns the number of result columns. It is fixed at compile
// time and zero for statements that return no data.
func (s *Stmt) ColumnCount() int { return s.colCount }

// ParamCount returns the largest parameter index in the statement.
func (s *Stmt) ParamCount() int { return s.paramCount }

// Conn returns the owning connection, or nil once it is closed or gone.
func (s *Stmt) Conn() *Conn {
	c := s.conn.Value()
	if c == nil || !c.IsOpen() {
		return nil
	}
	return c
}

// live returns the owning connection for op. Caller holds s.mu.
func (s *Stmt) live(op string) (*Conn, error) {
	if s.state == StateFinalized {
		return nil, misuse(op, "statement is finalized")
	}
	c := s.conn.Value()
	if c == nil || !c.IsOpen() {
		return nil, misuse(op, "connection is closed")
	}
	return c, nil
}

// Step advances the cursor. A failed step leaves the state unchanged and
// reports the engine's result code; busy and locked failures may be retried
// by calling Step again.
func (s *Stmt) Step() (StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.live("step")
	if err != nil {
		return 0, err
	}

	start := time.Now()
	rc := s.h.st.Step()
	switch rc {
	case engine.StatusRow:
		s.state = StateHasRow
		s.halted = false
		c.trace(TraceEvent{Kind: EventStep, SQL: s.sql, Step: StepRow, Duration: time.Since(start)})
		return StepRow, nil
	case engine.StatusDone:
		s.h.st.Reset()
		s.state = StateReady
		s.halted = false
		c.trace(TraceEvent{Kind: EventStep, SQL: s.sql, Step: StepDone, Duration: time.Since(start)})
		return StepDone, nil
	}

	s.halted = true
	serr := c.errorFor("step", rc)
	c.trace(TraceEvent{Kind: EventStep, SQL: s.sql, Duration: time.Since(start), Err: serr})
	return 0, serr
}

// Reset rewinds the cursor to StateReady. Bound parameters are kept.
func (s *Stmt) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.live("reset")
	if err != nil {
		return err
	}
	rc := s.h.st.Reset()
	wasHalted := s.halted
	s.state = StateReady
	s.halted = false
	c.trace(TraceEvent{Kind: EventReset, SQL: s.sql})

	// After a failed step the engine repeats that failure from reset; it
	// has already been reported.
	if rc != engine.StatusOK && !wasHalted {
		return c.errorFor("reset", rc)
	}
	return nil
}

// ClearBindings sets every parameter back to NULL.
func (s *Stmt) ClearBindings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.live("clear_bindings")
	if err != nil {
		return err
	}
	if rc := s.h.st.ClearBindings(); rc != engine.StatusOK {
		return c.errorFor("clear_bindings", rc)
	}
	return nil
}

// Finalize releases the statement. It may be called any number of times;
// calls after the first do nothing.
func (s *Stmt) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinalized {
		return nil
	}
	wasHalted := s.halted
	s.state = StateFinalized
	s.cleanup.Stop()
	rc := s.h.finalize()

	c := s.conn.Value()
	if c != nil {
		c.trace(TraceEvent{Kind: EventFinalize, SQL: s.sql})
	}
	if rc != engine.StatusOK && !wasHalted {
		if c != nil && c.IsOpen() {
			return c.errorFor("finalize", rc)
		}
		return &Error{Code: ResultCode(rc), Op: "finalize"}
	}
	return nil
}

// Release hands a statement obtained from PrepareCached back to its
// connection's cache after resetting it and clearing its bindings. Other
// statements are finalized.
func (s *Stmt) Release() error {
	s.mu.Lock()
	finalized := s.state == StateFinalized
	s.mu.Unlock()
	if finalized {
		return nil
	}

	c := s.Conn()
	if c == nil || s.cacheKey == "" {
		return s.Finalize()
	}
	if err := s.Reset(); err != nil {
		s.Finalize()
		return err
	}
	if err := s.ClearBindings(); err != nil {
		s.Finalize()
		return err
	}
	if !c.release(s) {
		return s.Finalize()
	}
	return nil
}

// Rows iterates the result rows. Each iteration yields the statement
// itself positioned on a row; a failure is yielded once and ends the
// sequence. Breaking out early resets the statement.
func (s *Stmt) Rows() iter.Seq2[*Stmt, error] {
	return func(yield func(*Stmt, error) bool) {
		for {
			res, err := s.Step()
			if err != nil {
				yield(nil, err)
				return
			}
			if res == StepDone {
				return
			}
			if !yield(s, nil) {
				s.Reset()
				return
			}
		}
	}
}

// drain steps s until it completes.
func (s *Stmt) drain() error {
	for {
		res, err := s.Step()
		if err != nil {
			return err
		}
		if res == StepDone {
			return nil
		}
	}
}
