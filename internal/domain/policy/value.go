package policy

import "fmt"

// Kind tags the dynamic type carried by a Value. The condition evaluator
// (C1) dispatches on Kind and never coerces between kinds — spec §4.1
// is explicit that there is no implicit type coercion anywhere.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is a tagged variant over the attribute types that flow through
// subject/resource/action/context attribute maps and condition literals.
// Modeling it this way (rather than bare interface{}) keeps every
// operator's dispatch exhaustive and keeps "absent" (Undefined) distinct
// from "present but null" (Null), per spec §4.1 and the design note on
// dynamically typed attribute maps (spec §9).
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	l    []Value
	m    map[string]Value
}

// Undefined is the distinguished value yielded by traversal through a
// missing or non-existent path segment.
var Undefined = Value{kind: KindUndefined}

// Null is the JSON/attribute null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value   { return Value{kind: KindBool, b: b} }
func Int(i int64) Value   { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func List(items []Value) Value {
	return Value{kind: KindList, l: items}
}
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }

// AsBool returns the boolean payload and whether the value was KindBool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string payload and whether the value was KindString.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the list payload and whether the value was KindList.
func (v Value) AsList() ([]Value, bool) { return v.l, v.kind == KindList }

// AsMap returns the map payload and whether the value was KindMap.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// AsFloat returns the numeric payload as a float64 for KindInt or KindFloat,
// and whether the value was numeric at all. No coercion from strings/bools.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// Equal implements strict equality: kinds must match (except that
// KindNull == KindNull is always true per spec §4.1), and within a kind
// the payload must match exactly. Lists/maps compare structurally.
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull && other.kind == KindNull {
		return true
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.l) != len(other.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(other.l[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, mv := range v.m {
			ov, ok := other.m[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromNative converts a plain Go value (as decoded from JSON/YAML, or
// built by hand in tests) into a tagged Value. Unknown types become
// Undefined rather than panicking — callers building facts from
// attacker-controlled input should never crash the evaluator.
func FromNative(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = FromNative(it)
		}
		return List(items)
	case []string:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = String(it)
		}
		return List(items)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, mv := range t {
			m[k] = FromNative(mv)
		}
		return Map(m)
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, mv := range t {
			m[k] = String(mv)
		}
		return Map(m)
	default:
		return Undefined
	}
}

// AttributesFromNative converts a map[string]interface{} attribute bag
// (the shape RequestContext/SubjectFacts/ResourceFacts carry) into a
// map[string]Value in one pass.
func AttributesFromNative(attrs map[string]interface{}) map[string]Value {
	if attrs == nil {
		return nil
	}
	out := make(map[string]Value, len(attrs))
	for k, v := range attrs {
		out[k] = FromNative(v)
	}
	return out
}

func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "<undefined>"
	case KindNull:
		return "<null>"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindList:
		return fmt.Sprintf("%v", v.l)
	case KindMap:
		return fmt.Sprintf("%v", v.m)
	default:
		return "<?>"
	}
}
