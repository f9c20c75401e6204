package condition

import (
	"github.com/policymesh/engine/internal/domain/policy"
)

// Evaluate walks a condition tree against roots, bailing out with
// POLICY_EXPR_TOO_DEEP if the tree's nesting exceeds maxDepth
// (spec §4.1 invariant on bounded recursion). A nil/zero condition
// (no conditions attached to a rule) always evaluates to true.
func Evaluate(cond policy.Condition, roots Roots, maxDepth int) (bool, error) {
	if cond.Field == "" && !cond.IsGroup && len(cond.Children) == 0 {
		return true, nil
	}
	if d := cond.Depth(); d > maxDepth {
		return false, policy.NewError(policy.CodeExprTooDeep, "condition nesting exceeds max depth", policy.ErrExpressionTooDeep)
	}
	return evalNode(cond, roots), nil
}

func evalNode(cond policy.Condition, roots Roots) bool {
	if !cond.IsGroup {
		field := Resolve(cond.Field, roots)
		return applyOp(cond.Op, field, cond.Value)
	}
	switch cond.GroupOp {
	case policy.GroupOr:
		for _, child := range cond.Children {
			if evalNode(child, roots) {
				return true
			}
		}
		return false
	case policy.GroupAnd:
		fallthrough
	default:
		for _, child := range cond.Children {
			if !evalNode(child, roots) {
				return false
			}
		}
		return true
	}
}
