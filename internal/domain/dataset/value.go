package dataset

import (
	"math"
	"strconv"
	"time"
)

type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindInt
	KindFloat
	KindDate
)

func (k Kind) String() string {
	return [...]string{"absent", "string", "int", "float", "date"}[k]
}

// Value is one typed cell. The zero Value is absent.
// A float NaN is the explicit "undefined" marker and is never absent.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	t    time.Time
}

var Absent = Value{}

func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }
func Undefined() Value { return Value{kind: KindFloat, f: math.NaN()} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }
func (v Value) IsUndefined() bool { return v.kind == KindFloat && math.IsNaN(v.f) }

func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Float reports the numeric value of an int or float cell.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// Key is the canonical join-key form. Absent values have no key.
func (v Value) Key() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindInt:
		return strconv.FormatInt(v.i, 10), true
	case KindFloat:
		if math.IsNaN(v.f) {
			return "", false
		}
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1e15 {
			return strconv.FormatInt(int64(v.f), 10), true
		}
		return strconv.FormatFloat(v.f, 'g', -1, 64), true
	case KindDate:
		return v.t.Format(time.RFC3339Nano), true
	}
	return "", false
}

// Equal compares kind and payload; two NaN markers are equal.
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
		if math.IsNaN(v.f) || math.IsNaN(o.f) {
			return math.IsNaN(v.f) && math.IsNaN(o.f)
		}
		return v.f == o.f
	case KindDate:
		return v.t.Equal(o.t)
	}
	return true
}

// Format renders the cell for delimited output.
func (v Value) Format() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		switch {
		case math.IsNaN(v.f):
			return UndefinedToken
		case math.IsInf(v.f, 1):
			return "inf"
		case math.IsInf(v.f, -1):
			return "-inf"
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDate:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format(DateLayout)
		}
		return v.t.Format(DateTimeLayout)
	}
	return ""
}

const (
	UndefinedToken = "NaN"
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)
