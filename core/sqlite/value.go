package sqlite

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is the dynamic storage class of a value. The numbering matches the
// engine's fundamental datatype codes.
type Type int

const (
	Integer Type = 1
	Float   Type = 2
	Text    Type = 3
	Blob    Type = 4
	Null    Type = 5
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	case Null:
		return "NULL"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Value holds one parameter or cell. The zero Value is NULL.
//
// Typed accessors coerce between storage classes the way the engine does:
// NULL reads as zero or empty, numbers and text convert into each other, and
// text and blobs share bytes. They never fail.
type Value struct {
	typ Type
	i   int64
	f   float64
	s   string
	b   []byte
}

// IntValue returns an Integer value.
func IntValue(v int64) Value { return Value{typ: Integer, i: v} }

// FloatValue returns a Float value.
func FloatValue(v float64) Value { return Value{typ: Float, f: v} }

// TextValue returns a Text value holding v.
func TextValue(v string) Value { return Value{typ: Text, s: v} }

// NullValue returns NULL. It is the same as the zero Value.
func NullValue() Value { return Value{typ: Null} }

// BlobValue copies v. A nil slice yields an empty blob, not NULL.
func BlobValue(v []byte) Value {
	b := make([]byte, len(v))
	copy(b, v)
	return Value{typ: Blob, b: b}
}

// TimeValue stores t as text in the package time format.
func TimeValue(t time.Time) Value { return TextValue(FormatTime(t)) }

// Type returns the dynamic storage class.
func (v Value) Type() Type {
	if v.typ == 0 {
		return Null
	}
	return v.typ
}

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.Type() == Null }

// Int64 returns v as an integer. Floats truncate toward zero and saturate at
// the int64 bounds; text and blobs use their longest numeric prefix.
func (v Value) Int64() int64 {
	switch v.Type() {
	case Integer:
		return v.i
	case Float:
		return floatToInt(v.f)
	case Text:
		return textToInt(v.s)
	case Blob:
		return textToInt(string(v.b))
	}
	return 0
}

// Float returns v as a float64.
func (v Value) Float() float64 {
	switch v.Type() {
	case Integer:
		return float64(v.i)
	case Float:
		return v.f
	case Text:
		return textToFloat(v.s)
	case Blob:
		return textToFloat(string(v.b))
	}
	return 0
}

// Text returns v rendered as text.
func (v Value) Text() string {
	switch v.Type() {
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return formatFloat(v.f)
	case Text:
		return v.s
	case Blob:
		return string(v.b)
	}
	return ""
}

// Blob returns the bytes of v. The caller owns the returned slice.
func (v Value) Blob() []byte {
	switch v.Type() {
	case Blob:
		b := make([]byte, len(v.b))
		copy(b, v.b)
		return b
	case Null:
		return nil
	}
	return []byte(v.Text())
}

// Time interprets v as a timestamp. Text is parsed with ParseTime and NULL
// is the zero time. Numbers are not read as epoch offsets: integers, floats
// and blobs are a mismatch.
func (v Value) Time() (time.Time, error) {
	switch v.Type() {
	case Null:
		return time.Time{}, nil
	case Text:
		return ParseTime(v.s)
	}
	return time.Time{}, &Error{Code: CodeMismatch, Op: "time", Detail: "cannot read " + v.Type().String() + " as time"}
}

// Bool returns true for any non-zero numeric value.
func (v Value) Bool() bool {
	if v.Type() == Float {
		return v.f != 0
	}
	return v.Int64() != 0
}

// Any returns v as nil, int64, float64, string or []byte.
func (v Value) Any() any {
	switch v.Type() {
	case Integer:
		return v.i
	case Float:
		return v.f
	case Text:
		return v.s
	case Blob:
		return v.Blob()
	}
	return nil
}

// String renders v as a SQL literal-like string for display.
func (v Value) String() string {
	switch v.Type() {
	case Null:
		return "NULL"
	case Blob:
		return "x'" + hex.EncodeToString(v.b) + "'"
	}
	return v.Text()
}

// ValueOf converts a Go value into a Value. It accepts nil, Value, the
// integer and float kinds, bool, string, []byte, time.Time and anything
// implementing driver.Valuer.
func ValueOf(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return x, nil
	case int64:
		return IntValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int8:
		return IntValue(int64(x)), nil
	case int16:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return IntValue(int64(x)), nil
	case uint16:
		return IntValue(int64(x)), nil
	case uint32:
		return IntValue(int64(x)), nil
	case uint64:
		return uintValue(x)
	case float64:
		return FloatValue(x), nil
	case float32:
		return FloatValue(float64(x)), nil
	case bool:
		if x {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case string:
		return TextValue(x), nil
	case []byte:
		if x == nil {
			return NullValue(), nil
		}
		return BlobValue(x), nil
	case time.Time:
		return TimeValue(x), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return Value{}, err
		}
		if _, again := dv.(driver.Valuer); again {
			return Value{}, &Error{Code: CodeMismatch, Op: "convert", Detail: fmt.Sprintf("%T.Value returned another Valuer", x)}
		}
		return ValueOf(dv)
	}
	return Value{}, &Error{Code: CodeMismatch, Op: "convert", Detail: fmt.Sprintf("unsupported type %T", x)}
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, &Error{Code: CodeMismatch, Op: "convert", Detail: fmt.Sprintf("uint64 value %d overflows int64", u)}
	}
	return IntValue(int64(u)), nil
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// numericPrefix returns the longest prefix of s, after leading spaces, that
// reads as a number, and whether that prefix is an integer.
func numericPrefix(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	isInt := true
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
			isInt = false
		}
	}
	if digits == 0 {
		return "", true
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
			isInt = false
		}
	}
	return s[:i], isInt
}

func textToInt(s string) int64 {
	p, isInt := numericPrefix(s)
	if p == "" {
		return 0
	}
	if isInt {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			return n
		}
	}
	f, _ := strconv.ParseFloat(p, 64)
	return floatToInt(f)
}

func textToFloat(s string) float64 {
	p, _ := numericPrefix(s)
	if p == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(p, 64)
	return f
}

// formatFloat renders f the way the engine prints REAL values: always with
// a decimal point or exponent so it reads back as a float.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return ""
	}
	s := strconv.FormatFloat(f, 'g', 15, 64)
	if strings.ContainsAny(s, ".e") {
		if mant, exp, ok := strings.Cut(s, "e"); ok && !strings.Contains(mant, ".") {
			return mant + ".0e" + exp
		}
		return s
	}
	return s + ".0"
}
