// Package policyresolve implements C6: finding the set of policies
// applicable to a tenant + resource, in specificity order, and picking
// the version of each to use per the caller's VersionSelection.
package policyresolve

import (
	"context"
	"sort"

	"github.com/policymesh/engine/internal/domain/policy"
)

// ApplicablePolicies returns every active policy in repo whose scope
// covers res, ordered most specific first (spec §4.6): entity_version
// (if the resource carries a version id) -> entity -> module (if the
// resource carries one) -> global. Within a tier, policies are ordered
// by name ascending for stability across runs with the same input.
func ApplicablePolicies(ctx context.Context, repo policy.PolicyRepository, tenantID string, res policy.ResourceFacts) ([]policy.Policy, error) {
	all, err := repo.ListPolicies(ctx, tenantID)
	if err != nil {
		return nil, policy.NewError(policy.CodeInternal, "failed to list policies", err)
	}

	tiers := scopeTiers(res)
	rank := make(map[policy.ScopeType]int, len(tiers))
	for i, st := range tiers {
		rank[st] = i
	}

	var applicable []policy.Policy
	for _, p := range all {
		if !p.IsActive {
			continue
		}
		if _, ok := rank[p.ScopeType]; !ok {
			continue
		}
		if !scopeKeyMatches(p, res) {
			continue
		}
		applicable = append(applicable, p)
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		ri, rj := rank[applicable[i].ScopeType], rank[applicable[j].ScopeType]
		if ri != rj {
			return ri < rj
		}
		return applicable[i].Name < applicable[j].Name
	})
	return applicable, nil
}

// scopeTiers returns the scope types relevant to this resource, in
// specificity order, skipping tiers the resource doesn't carry an
// identifier for.
func scopeTiers(res policy.ResourceFacts) []policy.ScopeType {
	var tiers []policy.ScopeType
	if res.VersionID != "" {
		tiers = append(tiers, policy.ScopeEntityVersion)
	}
	tiers = append(tiers, policy.ScopeEntity)
	if res.Module != "" {
		tiers = append(tiers, policy.ScopeModule)
	}
	tiers = append(tiers, policy.ScopeGlobal)
	return tiers
}

// scopeKeyMatches checks a policy's scope key against the resource's
// identifier for that scope tier (e.g. a policy scoped to
// entity:"document" only applies to resources of type "document").
func scopeKeyMatches(p policy.Policy, res policy.ResourceFacts) bool {
	switch p.ScopeType {
	case policy.ScopeEntityVersion:
		return p.ScopeKey == res.VersionID
	case policy.ScopeEntity:
		return p.ScopeKey == res.Type
	case policy.ScopeModule:
		return p.ScopeKey == res.Module
	case policy.ScopeGlobal:
		return true
	default:
		return false
	}
}

// ResolveVersion picks the PolicyVersion to use for p per sel,
// delegating the actual lookup to the repository so storage adapters
// can choose how to index versions by status/time/id.
func ResolveVersion(ctx context.Context, repo policy.PolicyRepository, tenantID string, p policy.Policy, sel policy.VersionSelection) (policy.PolicyVersion, error) {
	sel.Mode = sel.Mode.WithDefault()
	v, err := repo.ResolveVersion(ctx, tenantID, p.PolicyID, sel)
	if err != nil {
		return policy.PolicyVersion{}, policy.NewError(policy.CodeInternal, "failed to resolve policy version", err)
	}
	return v, nil
}
