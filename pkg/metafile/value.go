package metafile

import (
	"strconv"
	"time"
)

const (
	// TimeLayout is the textual form of timestamps, in UTC with microsecond precision
	TimeLayout = "2006-01-02 15:04:05.000000"

	// parsing accepts any number of fractional digits after the seconds
	timeParseLayout = "2006-01-02 15:04:05"

	trueValue  = "True"
	falseValue = "False"
)

// Kind of a field value
type Kind uint8

// Supported kinds
const (
	KindString Kind = iota
	KindBool
	KindTime
)

// Value of a record field
type Value struct {
	kind Kind
	s    string
	b    bool
	t    time.Time
}

// String value
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Bool value
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Time value, normalized to UTC and truncated to the microsecond
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t.UTC().Truncate(time.Microsecond)}
}

// Kind of the value
func (v Value) Kind() Kind {
	return v.kind
}

// AsBool returns the boolean held by v, if any
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsTime returns the timestamp held by v, if any
func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// String returns the textual form of the value, as written to disk
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return trueValue
		}
		return falseValue
	case KindTime:
		return v.t.Format(TimeLayout)
	default:
		return v.s
	}
}

// GoString is used by %#v, mostly in test failures
func (v Value) GoString() string {
	return "metafile.Value(" + strconv.Quote(v.String()) + ")"
}

// parseValue coerces raw text into a typed value
func parseValue(raw string) Value {
	switch raw {
	case trueValue:
		return Bool(true)
	case falseValue:
		return Bool(false)
	}
	if t, err := time.Parse(timeParseLayout, raw); err == nil {
		return Time(t)
	}
	return String(raw)
}
