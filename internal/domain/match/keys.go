// Package match implements C2: building the candidate lookup keys for
// one request and walking CompiledPolicy.Index to collect candidate
// rules, deferring condition evaluation and ordering to later stages.
package match

import (
	"github.com/policymesh/engine/internal/domain/policy"
)

// SubjectKeys returns the ordered list of subject slot keys a request's
// subject facts can match against, most specific first (spec §4.2):
// user:<id>, service:<id> (when applicable), role:<role> for each role,
// group:<group> for each group, and finally the wildcard "*".
func SubjectKeys(s policy.SubjectFacts) []string {
	keys := make([]string, 0, 2+len(s.Roles)+len(s.Groups)+1)
	keys = append(keys, "user:"+s.PrincipalID)
	if s.PrincipalType == policy.PrincipalService {
		keys = append(keys, "service:"+s.PrincipalID)
	}
	for _, r := range s.Roles {
		keys = append(keys, "role:"+r)
	}
	for _, g := range s.Groups {
		keys = append(keys, "group:"+g)
	}
	keys = append(keys, "*")
	return keys
}

// ScopeKeys returns the ordered list of scope slot keys to probe, most
// specific first (spec §4.2): record -> entity_version -> entity ->
// module -> global. Each tier is skipped when the resource doesn't
// carry the identifier that tier needs.
func ScopeKeys(res policy.ResourceFacts) []string {
	keys := make([]string, 0, 5)
	if res.ID != "" {
		keys = append(keys, "record:"+res.ID)
	}
	if res.VersionID != "" {
		keys = append(keys, "entity_version:"+res.VersionID)
	}
	if res.Type != "" {
		keys = append(keys, "entity:"+res.Type)
	}
	if res.Module != "" {
		keys = append(keys, "module:"+res.Module)
	}
	keys = append(keys, "global:")
	return keys
}

// OperationKeys returns the operation slot keys to probe: the exact
// NAMESPACE.CODE for the requested action, then the wildcard "*".
func OperationKeys(a policy.Action) []string {
	return []string{a.FullCode, "*"}
}

// Candidates walks idx across the cross-product of scope/subject/
// operation keys and returns every compiled rule found, without
// deduplication: the compiler registers a rule once per listed
// operation, so a rule listing both the requested code and "*" is
// returned once for each of those slots.
func Candidates(idx policy.RuleIndex, scopeKeys, subjectKeys, opKeys []string) []policy.CompiledRule {
	var out []policy.CompiledRule
	for _, sk := range scopeKeys {
		subjMap, ok := idx[sk]
		if !ok {
			continue
		}
		for _, subk := range subjectKeys {
			opMap, ok := subjMap[subk]
			if !ok {
				continue
			}
			for _, ok2 := range opKeys {
				rules, ok3 := opMap[ok2]
				if !ok3 {
					continue
				}
				out = append(out, rules...)
			}
		}
	}
	return out
}
