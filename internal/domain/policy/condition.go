package policy

// Op is the fixed, finite set of condition operators (spec §4.1). Unknown
// operators cause the owning rule to silently not match (invariant I4) —
// callers never see a panic from a malformed leaf.
type Op string

const (
	OpEq         Op = "eq"
	OpNe         Op = "ne"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpIn         Op = "in"
	OpNotIn      Op = "not_in"
	OpContains   Op = "contains"
	OpStartsWith Op = "starts_with"
	OpEndsWith   Op = "ends_with"
	OpMatches    Op = "matches"
	OpExists     Op = "exists"
	OpNotExists  Op = "not_exists"
)

// GroupOp is the boolean combinator for a Condition group.
type GroupOp string

const (
	GroupAnd GroupOp = "and"
	GroupOr  GroupOp = "or"
)

// Condition is the sum type `Leaf{field,op,value} | Group{op,children}`
// from spec §3/§9. Rather than model it as a tagged interface requiring a
// type switch at every call site, Condition is a single struct whose
// IsGroup flag selects which fields are meaningful; Walk-style consumers
// (the evaluator) still exhaustively branch on IsGroup, but constructing
// and serializing fixtures (YAML/JSON) stays simple — a single struct
// with omitempty fields round-trips cleanly through encoding/json and
// gopkg.in/yaml.v3 without custom (Un)MarshalJSON methods.
type Condition struct {
	// Leaf fields.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	Op    Op     `json:"op,omitempty" yaml:"op,omitempty"`
	Value Value  `json:"-" yaml:"-"`
	// Raw carries the literal as decoded from YAML/JSON before it is
	// converted to a Value via FromNative; compilation (C5) populates
	// Value from Raw so fixtures never need to hand-construct Value.
	Raw interface{} `json:"value,omitempty" yaml:"value,omitempty"`

	// Group fields.
	IsGroup  bool        `json:"is_group,omitempty" yaml:"is_group,omitempty"`
	GroupOp  GroupOp     `json:"group_op,omitempty" yaml:"group_op,omitempty"`
	Children []Condition `json:"children,omitempty" yaml:"children,omitempty"`
}

// Leaf constructs a leaf condition, converting a native Go literal into
// a tagged Value immediately.
func Leaf(field string, op Op, value interface{}) Condition {
	return Condition{Field: field, Op: op, Value: FromNative(value), Raw: value}
}

// Group constructs a group condition.
func Group(op GroupOp, children ...Condition) Condition {
	return Condition{IsGroup: true, GroupOp: op, Children: children}
}

// HydrateValues walks a condition tree populating Value from Raw wherever
// Value is still the zero value but Raw was set (e.g. after a YAML/JSON
// decode that only populated Raw). Safe to call on an already-hydrated
// tree.
func (c *Condition) HydrateValues() {
	if c == nil {
		return
	}
	if !c.IsGroup {
		if c.Value.kind == KindUndefined && c.Raw != nil {
			c.Value = FromNative(c.Raw)
		}
		return
	}
	for i := range c.Children {
		c.Children[i].HydrateValues()
	}
}

// Depth returns the maximum nesting depth of the tree, where a leaf (or
// an empty group) has depth 1.
func (c *Condition) Depth() int {
	if c == nil || !c.IsGroup {
		return 1
	}
	max := 0
	for i := range c.Children {
		if d := c.Children[i].Depth(); d > max {
			max = d
		}
	}
	return max + 1
}
