package sqlite

import (
	"time"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
)

// bindPrefixes are tried in order when a parameter name is given without
// its sigil.
var bindPrefixes = []string{"", ":", "@", "$"}

// ParamName returns the name of parameter i (1-based) including its sigil,
// or "" for anonymous "?" parameters and out-of-range indexes.
func (s *Stmt) ParamName(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinalized || i < 1 || i > s.paramCount {
		return ""
	}
	return s.h.st.BindParameterName(i)
}

// ParamIndex returns the 1-based index of the named parameter. The name may
// omit its ":", "@" or "$" sigil. Unknown names fail with CodeRange.
func (s *Stmt) ParamIndex(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.live("param_index"); err != nil {
		return 0, err
	}
	return s.paramIndex(name)
}

func (s *Stmt) paramIndex(name string) (int, error) {
	if name != "" {
		for _, p := range bindPrefixes {
			if i := s.h.st.BindParameterIndex(p + name); i > 0 {
				return i, nil
			}
		}
	}
	return 0, outOfRange("bind", "no parameter named %q", name)
}

// bindable checks that parameter i may be bound now and readies the engine
// statement for binding. Caller holds s.mu.
func (s *Stmt) bindable(i int) (*Conn, error) {
	c, err := s.live("bind")
	if err != nil {
		return nil, err
	}
	if s.state != StateReady {
		return nil, misuse("bind", "cannot bind while a row is pending; call Reset first")
	}
	if i < 1 || i > s.paramCount {
		return nil, outOfRange("bind", "parameter index %d out of range [1, %d]", i, s.paramCount)
	}
	if s.halted {
		s.h.st.Reset()
		s.halted = false
	}
	return c, nil
}

func (s *Stmt) bind(i int, v Value) error {
	c, err := s.bindable(i)
	if err != nil {
		return err
	}

	var rc int
	switch v.Type() {
	case Integer:
		rc = s.h.st.BindInt64(i, v.i)
	case Float:
		rc = s.h.st.BindFloat(i, v.f)
	case Text:
		rc = s.h.st.BindText(i, v.s)
	case Blob:
		rc = s.h.st.BindBlob(i, v.b)
	default:
		rc = s.h.st.BindNull(i)
	}
	if rc != engine.StatusOK {
		return c.errorFor("bind", rc)
	}
	return nil
}

func (s *Stmt) bindValue(i int, v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bind(i, v)
}

// BindInt64 binds an integer to parameter i (1-based).
func (s *Stmt) BindInt64(i int, v int64) error { return s.bindValue(i, IntValue(v)) }

// BindInt binds an integer to parameter i.
func (s *Stmt) BindInt(i int, v int) error { return s.bindValue(i, IntValue(int64(v))) }

// BindFloat binds a float to parameter i.
func (s *Stmt) BindFloat(i int, v float64) error { return s.bindValue(i, FloatValue(v)) }

// BindBool binds true as 1 and false as 0.
func (s *Stmt) BindBool(i int, v bool) error {
	if v {
		return s.bindValue(i, IntValue(1))
	}
	return s.bindValue(i, IntValue(0))
}

// BindText binds text to parameter i. The engine keeps its own copy.
func (s *Stmt) BindText(i int, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bind(i, Value{typ: Text, s: v})
}

// BindBlob binds bytes to parameter i. The engine keeps its own copy, so v
// may be reused as soon as BindBlob returns. A nil slice binds an empty
// blob; use BindNull for NULL.
func (s *Stmt) BindBlob(i int, v []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bind(i, Value{typ: Blob, b: v})
}

// BindTime binds t as text in TimeFormat.
func (s *Stmt) BindTime(i int, t time.Time) error { return s.bindValue(i, TimeValue(t)) }

// BindNull binds NULL to parameter i.
func (s *Stmt) BindNull(i int) error { return s.bindValue(i, NullValue()) }

// BindValue binds v to parameter i.
func (s *Stmt) BindValue(i int, v Value) error { return s.bindValue(i, v) }

// BindAny converts x with ValueOf and binds it to parameter i.
func (s *Stmt) BindAny(i int, x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	return s.bindValue(i, v)
}

// BindNamed converts x with ValueOf and binds it to the named parameter.
func (s *Stmt) BindNamed(name string, x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.live("bind"); err != nil {
		return err
	}
	i, err := s.paramIndex(name)
	if err != nil {
		return err
	}
	return s.bind(i, v)
}

// BindAll binds args to parameters 1..len(args). Passing more arguments
// than the statement has parameters fails with CodeRange before anything
// is bound.
func (s *Stmt) BindAll(args ...any) error {
	vals := make([]Value, len(args))
	for i, a := range args {
		v, err := ValueOf(a)
		if err != nil {
			return err
		}
		vals[i] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.live("bind"); err != nil {
		return err
	}
	if len(vals) > s.paramCount {
		return outOfRange("bind", "%d arguments for %d parameters", len(vals), s.paramCount)
	}
	for i, v := range vals {
		if err := s.bind(i+1, v); err != nil {
			return err
		}
	}
	return nil
}
