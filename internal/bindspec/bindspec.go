// Package bindspec parses the --bind arguments of the sqlexpress CLI.
//
// A bind argument names a parameter and a typed value:
//
//	1=int:1000
//	:name=text:Bob
//	@when=time:2024-01-02T03:04:05.000Z
//	$data=blob:deadbeef
//	3=null
//
// The parameter is a 1-based index or a name with its sigil. Types are int,
// float, text, blob (hex), time, bool and null.
package bindspec

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	apperrors "github.com/FocuswithJustin/sqlexpress/core/errors"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// bindGrammar is the participle grammar for one bind argument.
//
//nolint:govet // participle grammar tags are not standard struct tags
type bindGrammar struct {
	Index *int   `( @Index`
	Name  string `  | @Name ) "="`
	Type  string `@Ident`
	Colon bool   `( @":"`
	Value string `  @Literal? )?`
}

// bindLexer switches state at "=" and again at the type separator, so the
// value is taken verbatim whatever it contains.
var bindLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Index", Pattern: `[0-9]+`},
		{Name: "Name", Pattern: `[:@$][A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Assign", Pattern: `=`, Action: lexer.Push("Type")},
	},
	"Type": {
		{Name: "Ident", Pattern: `[A-Za-z]+`},
		{Name: "Sep", Pattern: `:`, Action: lexer.Push("Value")},
	},
	"Value": {
		{Name: "Literal", Pattern: `[\s\S]+`},
	},
})

var bindParser = participle.MustBuild[bindGrammar](
	participle.Lexer(bindLexer),
)

// Arg is one parsed bind argument.
type Arg struct {
	Index int    // 1-based; zero when Name is set
	Name  string // includes the sigil
	Value sqlite.Value
}

// String renders a in the syntax Parse accepts.
func (a Arg) String() string {
	target := a.Name
	if target == "" {
		target = strconv.Itoa(a.Index)
	}
	v := a.Value
	switch v.Type() {
	case sqlite.Null:
		return target + "=null"
	case sqlite.Integer:
		return target + "=int:" + strconv.FormatInt(v.Int64(), 10)
	case sqlite.Float:
		return target + "=float:" + strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case sqlite.Blob:
		return target + "=blob:" + hex.EncodeToString(v.Blob())
	}
	return target + "=text:" + v.Text()
}

// Parse parses one bind argument.
func Parse(spec string) (Arg, error) {
	g, err := bindParser.ParseString("", spec)
	if err != nil {
		return Arg{}, &apperrors.ParseError{Format: "bind", Path: spec, Message: err.Error(), Err: err}
	}

	var a Arg
	if g.Index != nil {
		if *g.Index < 1 {
			return Arg{}, apperrors.NewParse("bind", spec, "parameter index must be at least 1")
		}
		a.Index = *g.Index
	} else {
		a.Name = g.Name
	}

	a.Value, err = convert(g.Type, g.Colon, g.Value)
	if err != nil {
		return Arg{}, &apperrors.ParseError{Format: "bind", Path: spec, Message: err.Error(), Err: err}
	}
	return a, nil
}

// ParseAll parses every spec, stopping at the first error.
func ParseAll(specs []string) ([]Arg, error) {
	args := make([]Arg, 0, len(specs))
	for _, s := range specs {
		a, err := Parse(s)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func convert(typ string, hasValue bool, raw string) (sqlite.Value, error) {
	if typ == "null" {
		if hasValue {
			return sqlite.Value{}, fmt.Errorf("null takes no value")
		}
		return sqlite.NullValue(), nil
	}
	if !hasValue {
		return sqlite.Value{}, fmt.Errorf("missing value after %s", typ)
	}

	switch typ {
	case "int":
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return sqlite.Value{}, err
		}
		return sqlite.IntValue(n), nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sqlite.Value{}, err
		}
		return sqlite.FloatValue(f), nil
	case "text":
		return sqlite.TextValue(raw), nil
	case "blob":
		b, err := hex.DecodeString(raw)
		if err != nil {
			return sqlite.Value{}, err
		}
		return sqlite.BlobValue(b), nil
	case "time":
		t, err := sqlite.ParseTime(raw)
		if err != nil {
			return sqlite.Value{}, err
		}
		return sqlite.TimeValue(t), nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return sqlite.Value{}, err
		}
		if b {
			return sqlite.IntValue(1), nil
		}
		return sqlite.IntValue(0), nil
	}
	return sqlite.Value{}, fmt.Errorf("unknown type %q", typ)
}

// Bind binds a to s, resolving a name to its index first.
func (a Arg) Bind(s *sqlite.Stmt) error {
	i := a.Index
	if a.Name != "" {
		var err error
		if i, err = s.ParamIndex(a.Name); err != nil {
			return err
		}
	}
	return s.BindValue(i, a.Value)
}

// BindAll binds every argument to s.
func BindAll(s *sqlite.Stmt, args []Arg) error {
	for _, a := range args {
		if err := a.Bind(s); err != nil {
			return apperrors.Wrapf(err, "bind %s", a)
		}
	}
	return nil
}
