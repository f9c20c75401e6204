// Package conflict implements C4: collapsing the set of rules whose
// conditions passed into a single decision, per the configured
// strategy (spec §4.4).
package conflict

import (
	"github.com/policymesh/engine/internal/domain/policy"
)

const defaultDenyReason = "No matching rules found (default deny)"

// Resolve applies strategy to matched (already ordered by the
// determinism comparator, C3) and returns the resulting decision. An
// empty matched set always resolves to deny, per the engine's
// default-deny posture (spec §4.4, §9).
func Resolve(strategy policy.ConflictStrategy, matched []policy.MatchedRule) policy.Decision {
	if len(matched) == 0 {
		return policy.Deny(defaultDenyReason)
	}
	switch strategy {
	case policy.AllowOverrides:
		return resolveOverrides(matched, policy.EffectAllow)
	case policy.PriorityOrder, policy.FirstMatch:
		return resolveFirstMatch(matched, strategy)
	case policy.DenyOverrides:
		fallthrough
	default:
		return resolveOverrides(matched, policy.EffectDeny)
	}
}

// resolveOverrides implements both deny_overrides and allow_overrides:
// if any matched rule carries the overriding effect, that rule (the
// first one in determinism order) wins; otherwise the first rule of
// the opposite effect wins.
func resolveOverrides(matched []policy.MatchedRule, overriding policy.Effect) policy.Decision {
	for i := range matched {
		if matched[i].Rule.Effect == overriding {
			return decisionFrom(matched[i], string(overriding)+"_overrides: matched "+string(overriding)+" rule")
		}
	}
	return decisionFrom(matched[0], "no "+string(overriding)+" rule matched; falling back to first matched rule")
}

// resolveFirstMatch picks the first rule in determinism order (scope
// specificity, then subject specificity, then priority), ignoring
// effect entirely. Both first_match and priority_order take the
// highest-ranked rule outright from the already-C3-ordered list (spec
// §4.4); priority_order is not an independent sort by Rule.Priority,
// since that would ignore scope/subject specificity and could let a
// broadly-scoped low-priority rule beat a narrowly-scoped one.
func resolveFirstMatch(matched []policy.MatchedRule, strategy policy.ConflictStrategy) policy.Decision {
	return decisionFrom(matched[0], string(strategy)+": first rule in determinism order wins")
}

func decisionFrom(m policy.MatchedRule, reason string) policy.Decision {
	mm := m
	return policy.Decision{
		Effect:       mm.Rule.Effect,
		Allowed:      mm.Rule.Effect == policy.EffectAllow,
		Reason:       reason,
		DecidingRule: &mm,
		Obligations:  mm.Rule.Obligations,
	}
}
