// Package order implements C3: the total order rules are sorted into
// before conflict resolution runs, so that resolution is deterministic
// regardless of storage/iteration order (spec §4.3).
package order

import (
	"strings"

	"github.com/policymesh/engine/internal/domain/policy"
)

// subjectKeyRank breaks the tie between two rules of the same
// SubjectType: a concrete key ("alice", "editor") ranks ahead of the
// wildcard "*" for that same type. This resolves the spec's open
// question on wildcard subject ranking by adopting its own suggested
// answer — a wildcard is always the least specific member of its tier.
func subjectKeyRank(key string) int {
	if key == "*" {
		return 1
	}
	return 0
}

func scopeKeyRank(key string) int {
	if key == "*" || key == "" {
		return 1
	}
	return 0
}

// effectRank orders deny ahead of allow when priority and specificity
// tie, so that deny_overrides and first_match agree on which rule is
// "first" absent any other signal (spec §4.3, §4.4).
func effectRank(e policy.Effect) int {
	if e == policy.EffectDeny {
		return 0
	}
	return 1
}

// Less implements the full determinism order: scope specificity, then
// subject specificity, then rule priority (ascending — lower binds
// tighter), then effect (deny before allow), then RuleID lexicographic
// as the final tiebreaker so the order is total and stable even over
// two otherwise-identical rules.
func Less(a, b policy.Rule) bool {
	if sr := policy.ScopeRank(a.ScopeType) - policy.ScopeRank(b.ScopeType); sr != 0 {
		return sr < 0
	}
	if sr := scopeKeyRank(a.ScopeKey) - scopeKeyRank(b.ScopeKey); sr != 0 {
		return sr < 0
	}
	if sr := policy.SubjectRank(a.SubjectType) - policy.SubjectRank(b.SubjectType); sr != 0 {
		return sr < 0
	}
	if sr := subjectKeyRank(a.SubjectKey) - subjectKeyRank(b.SubjectKey); sr != 0 {
		return sr < 0
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if er := effectRank(a.Effect) - effectRank(b.Effect); er != 0 {
		return er < 0
	}
	return strings.Compare(a.RuleID, b.RuleID) < 0
}

// SortRules sorts rules in place by Less, using a simple insertion sort
// since compiled rule lists per slot are small; callers needing a
// larger-scale sort should use sort.Slice(rules, func(i, j int) bool
// { return Less(rules[i].Rule, rules[j].Rule) }) directly.
func SortRules(rules []policy.Rule) {
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0 && Less(rules[j], rules[j-1]); j-- {
			rules[j], rules[j-1] = rules[j-1], rules[j]
		}
	}
}
