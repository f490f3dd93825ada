// pkg/model/value.go
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// TimeLayout is the canonical textual form for timestamps in cleaned output.
const TimeLayout = "2006-01-02 15:04:05"

// Kind identifies the scalar type held by a Value
type Kind int

const (
	// KindMissing is an explicit missing value (never an error condition)
	KindMissing Kind = iota
	KindString
	KindInt
	KindFloat
	KindTime
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a typed scalar cell: a string, integer, float, timestamp,
// or an explicit missing marker. The zero Value is missing.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	t    time.Time
}

// Missing returns the explicit missing value
func Missing() Value {
	return Value{kind: KindMissing}
}

// String wraps a string scalar
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Int wraps an integer scalar
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float wraps a float scalar
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Time wraps a timestamp scalar
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// Kind returns the scalar type of the value
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the value is the explicit missing marker
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Str returns the held string and whether the value is a string
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// IntVal returns the held integer and whether the value is an integer
func (v Value) IntVal() (int64, bool) {
	return v.i, v.kind == KindInt
}

// FloatVal returns the held float and whether the value is a float
func (v Value) FloatVal() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// TimeVal returns the held timestamp and whether the value is a timestamp
func (v Value) TimeVal() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// AsInt attempts to coerce the value to an integer. String values are
// parsed leniently; floats must be integral. Missing never coerces.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == float64(int64(v.f)) {
			return int64(v.f), true
		}
		return 0, false
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return 0, false
		}
		if i, err := cast.ToInt64E(s); err == nil {
			return i, true
		}
		// Numeric exports often render integers as "12.0"
		if f, err := cast.ToFloat64E(s); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsFloat attempts to coerce the value to a float
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text renders the value in its canonical textual form for persisted
// output. Missing renders as the empty string; timestamps use TimeLayout.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindTime:
		return v.t.Format(TimeLayout)
	default:
		return ""
	}
}

// Interface returns the value as a driver-friendly interface{}.
// Missing maps to nil so the relational sink stores NULL.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether two values hold the same kind and scalar
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}
