// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package value implements the tagged Value union that flows through every
// stage of the rule engine: literals, variable bindings, built-in call
// arguments and results, and the final output projection all share this
// type. Numerics are backed by github.com/shopspring/decimal rather than
// float64 so that condition comparisons, equality, and ratio arithmetic
// never suffer IEEE-754 rounding drift.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags which alternative of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindDecimal
	KindText
	KindDateTime
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	case KindDateTime:
		return "datetime"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// PositiveInfinity is the distinct sentinel Value returned by financial
// ratio helpers when a denominator is zero, per the financial built-ins'
// documented behavior: they never raise DIVISION_BY_ZERO, they return this
// instead.
var PositiveInfinity = Value{kind: KindDecimal, infinity: true}

// Value is an immutable tagged union. The zero Value is Null.
type Value struct {
	kind     Kind
	b        bool
	d        decimal.Decimal
	s        string
	t        time.Time
	dateOnly bool
	list     []Value
	m        map[string]Value
	// insertion order for m, so iteration and re-serialization are stable.
	mOrder   []string
	infinity bool
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Text(s string) Value        { return Value{kind: KindText, s: s} }
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }

func Int(i int64) Value {
	return Value{kind: KindDecimal, d: decimal.NewFromInt(i)}
}

func Float(f float64) Value {
	return Value{kind: KindDecimal, d: decimal.NewFromFloat(f)}
}

// DecimalFromString parses a numeric literal exactly as the lexer's Number
// token lexeme appears (including scientific notation), returning an error
// rather than silently truncating.
func DecimalFromString(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Null(), fmt.Errorf("invalid decimal literal %q: %w", s, err)
	}
	return Value{kind: KindDecimal, d: d}, nil
}

func DateOnly(t time.Time) Value {
	return Value{kind: KindDateTime, t: t, dateOnly: true}
}

func DateTime(t time.Time) Value {
	return Value{kind: KindDateTime, t: t}
}

func List(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Map builds a Value from an ordered set of key/value pairs. Callers that
// need deterministic re-serialization should pass keys in the order they
// want preserved; MapFromGo below sorts lexically for inputs with no
// natural order.
func Map(keys []string, vals map[string]Value) Value {
	order := make([]string, len(keys))
	copy(order, keys)
	cp := make(map[string]Value, len(vals))
	for k, v := range vals {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp, mOrder: order}
}

// MapFromGo converts a generic map (as decoded from JSON or caller input)
// into a Value, with keys ordered lexically for determinism.
func MapFromGo(in map[string]any) Value {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make(map[string]Value, len(in))
	for _, k := range keys {
		vals[k] = FromGo(in[k])
	}
	return Map(keys, vals)
}

// FromGo lifts a generic Go value (typically decoded from JSON/YAML or
// supplied as an evaluate-request input) into the Value union.
func FromGo(in any) Value {
	switch v := in.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(v)
	case string:
		return Text(v)
	case int:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case decimal.Decimal:
		return Decimal(v)
	case time.Time:
		return DateTime(v)
	case []any:
		items := make([]Value, len(v))
		for i, e := range v {
			items[i] = FromGo(e)
		}
		return List(items)
	case []Value:
		return List(v)
	case map[string]any:
		return MapFromGo(v)
	case Value:
		return v
	default:
		return Text(fmt.Sprintf("%v", v))
	}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsInfinity() bool { return v.infinity }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsDecimal() (decimal.Decimal, bool) {
	if v.kind != KindDecimal {
		return decimal.Zero, false
	}
	return v.d, true
}

func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

func (v Value) AsTime() (time.Time, bool, bool) {
	if v.kind != KindDateTime {
		return time.Time{}, false, false
	}
	return v.t, v.dateOnly, true
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) AsMap() (map[string]Value, []string, bool) {
	if v.kind != KindMap {
		return nil, nil, false
	}
	return v.m, v.mOrder, true
}

// Truthy implements the truthiness rules from the data model: Bool as
// itself; Decimal as nonzero; Text as non-empty; Null as false; everything
// else (List, Map, DateTime) as true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindDecimal:
		return !v.d.IsZero()
	case KindText:
		return v.s != ""
	default:
		return true
	}
}

// CoerceDecimal attempts to view v as a Decimal: Decimal values pass
// through; numeric Text parses; everything else fails. This is the
// single coercion rule referenced throughout the comparison and
// arithmetic operator tables.
func CoerceDecimal(v Value) (decimal.Decimal, bool) {
	switch v.kind {
	case KindDecimal:
		return v.d, true
	case KindText:
		d, err := decimal.NewFromString(strings.TrimSpace(v.s))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Equal implements Open Question (b)'s resolution: numeric equality holds
// iff both sides coerce to Decimal and compare equal; otherwise equality
// falls back to stringified comparison, except Null which only equals
// Null and Bool which only equals Bool.
func Equal(a, b Value) bool {
	if da, ok := CoerceDecimal(a); ok {
		if db, ok := CoerceDecimal(b); ok {
			return da.Equal(db)
		}
	}
	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == b.kind
	}
	if a.kind == KindBool || b.kind == KindBool {
		ab, aok := a.AsBool()
		bb, bok := b.AsBool()
		return aok && bok && ab == bb
	}
	return Stringify(a) == Stringify(b)
}

// Stringify renders a Value as text for cross-type equality fallback,
// string-operator coercion, and output projection of non-primitive kinds.
func Stringify(v Value) string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDecimal:
		if v.infinity {
			return "Infinity"
		}
		return v.d.String()
	case KindText:
		return v.s
	case KindDateTime:
		if v.dateOnly {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format(time.RFC3339)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = Stringify(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, len(v.mOrder))
		for _, k := range v.mOrder {
			parts = append(parts, k+": "+Stringify(v.m[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// ToGo lowers a Value back to a plain Go value suitable for JSON
// marshaling in an evaluate response's output map.
func ToGo(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindDecimal:
		if v.infinity {
			return "Infinity"
		}
		f, _ := v.d.Float64()
		return f
	case KindText:
		return v.s
	case KindDateTime:
		if v.dateOnly {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format(time.RFC3339)
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = ToGo(e)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = ToGo(e)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON lowers the Value through ToGo before encoding, so a
// Response's Output map serializes as plain JSON scalars/arrays/objects
// rather than this type's unexported fields.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToGo(v))
}
