// Package compile implements C5: turning a policy version's flat rule
// list into a CompiledPolicy — a validated, checksum-addressed,
// pre-sorted lookup index the matcher (C2) reads from. Grounded on the
// teacher's PolicyService.compileRules/buildIndex (internal/service/
// policy_service.go), generalized from a single-level exact/wildcard
// tool-name index to the spec's three-level scope/subject/operation
// index.
package compile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/policymesh/engine/internal/domain/order"
	"github.com/policymesh/engine/internal/domain/policy"
)

// Compile validates and indexes rules, producing a CompiledPolicy.
// Invalid individual rules are recorded as diagnostics and excluded
// from the index rather than failing the whole compilation; compilation
// only fails with POLICY_COMPILATION_FAILED when every rule is invalid
// (spec §4.5).
func Compile(tenantID string, version policy.PolicyVersion, rules []policy.Rule, maxConditionDepth int) (policy.CompiledPolicy, error) {
	index := make(policy.RuleIndex)
	var diagnostics []policy.RuleDiagnostic
	valid := 0

	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		r.Conditions.HydrateValues()
		if reason := validateRule(r, maxConditionDepth); reason != "" {
			diagnostics = append(diagnostics, policy.RuleDiagnostic{RuleID: r.RuleID, Reason: reason})
			continue
		}
		addToIndex(index, r, version.PolicyID, version.VersionID)
		valid++
	}

	if len(diagnostics) > 0 && valid == 0 {
		return policy.CompiledPolicy{}, policy.NewError(
			policy.CodeCompilationFailed,
			fmt.Sprintf("all %d rules in version %s failed validation", len(diagnostics), version.VersionID),
			policy.ErrCompilationFailed,
		)
	}

	sortIndex(index)

	cp := policy.CompiledPolicy{
		TenantID:   tenantID,
		PolicyID:   version.PolicyID,
		VersionID:  version.VersionID,
		Index:      index,
		CompiledAt: time.Now().UTC(),
		Counts: policy.Counts{
			TotalRules:   valid,
			InvalidRules: len(diagnostics),
			ScopeSlots:   len(index),
		},
		Diagnostics: diagnostics,
	}
	checksum, err := Checksum(cp)
	if err != nil {
		return policy.CompiledPolicy{}, policy.NewError(policy.CodeInternal, "failed to compute checksum", err)
	}
	cp.Checksum = checksum
	return cp, nil
}

// ValidateRule runs the same structural checks Compile applies to each
// rule, standalone, so callers (e.g. the CLI's validate subcommand) can
// check a rule's shape without building a full CompiledPolicy (spec
// §4.5).
func ValidateRule(r policy.Rule, maxConditionDepth int) error {
	if reason := validateRule(r, maxConditionDepth); reason != "" {
		return policy.NewError(policy.CodeCompilationFailed, reason, policy.ErrCompilationFailed)
	}
	return nil
}

// validateRule returns a non-empty reason if r fails compile-time
// validation: non-empty rule_id, known scope/subject types, known
// effect, non-empty operations, non-negative priority, condition depth
// within bound. Condition field paths are not checked.
func validateRule(r policy.Rule, maxDepth int) string {
	if r.RuleID == "" {
		return "rule_id is empty"
	}
	switch r.ScopeType {
	case policy.ScopeRecord, policy.ScopeEntityVersion, policy.ScopeEntity, policy.ScopeModule, policy.ScopeGlobal:
	default:
		return fmt.Sprintf("unknown scope_type %q", r.ScopeType)
	}
	switch r.SubjectType {
	case policy.SubjectUser, policy.SubjectService, policy.SubjectRole, policy.SubjectGroup:
	default:
		return fmt.Sprintf("unknown subject_type %q", r.SubjectType)
	}
	switch r.Effect {
	case policy.EffectAllow, policy.EffectDeny:
	default:
		return fmt.Sprintf("unknown effect %q", r.Effect)
	}
	if len(r.Operations) == 0 {
		return "operations list is empty"
	}
	if r.Priority < 0 {
		return "priority must be >= 0"
	}
	if d := r.Conditions.Depth(); d > maxDepth {
		return fmt.Sprintf("condition depth %d exceeds max %d", d, maxDepth)
	}
	return ""
}

func scopeKey(scopeType policy.ScopeType, scopeKey string) string {
	if scopeType == policy.ScopeGlobal || scopeKey == "" {
		return string(scopeType) + ":"
	}
	return string(scopeType) + ":" + scopeKey
}

func subjectKey(subjectType policy.SubjectType, key string) string {
	return string(subjectType) + ":" + key
}

func addToIndex(index policy.RuleIndex, r policy.Rule, policyID, versionID string) {
	sk := scopeKey(r.ScopeType, r.ScopeKey)
	subk := subjectKey(r.SubjectType, r.SubjectKey)

	subjMap, ok := index[sk]
	if !ok {
		subjMap = make(map[string]map[string][]policy.CompiledRule)
		index[sk] = subjMap
	}
	opMap, ok := subjMap[subk]
	if !ok {
		opMap = make(map[string][]policy.CompiledRule)
		subjMap[subk] = opMap
	}
	cr := policy.CompiledRule{Rule: r, PolicyID: policyID, VersionID: versionID}
	for _, op := range r.Operations {
		opMap[op] = append(opMap[op], cr)
	}
}

// sortIndex sorts every leaf rule list by the C3 determinism order, so
// the matcher (C2) never needs to sort at request time.
func sortIndex(index policy.RuleIndex) {
	for _, subjMap := range index {
		for _, opMap := range subjMap {
			for op, rules := range opMap {
				sort.Slice(rules, func(i, j int) bool {
					return order.Less(rules[i].Rule, rules[j].Rule)
				})
				opMap[op] = rules
			}
		}
	}
}

// checksumPayload is the subset of CompiledPolicy fields that determine
// identity: two compilations of the same rules at the same version
// produce the same checksum, independent of CompiledAt (spec §4.5
// invariant P3, "compilation is deterministic and idempotent").
type checksumPayload struct {
	TenantID  string
	PolicyID  string
	VersionID string
	Index     policy.RuleIndex
}

// Checksum computes a stable SHA-256 digest over the compiled index via
// canonical JSON (Go's encoding/json already sorts map keys, giving
// canonical output without a third-party canonicalizer). crypto/sha256
// is standard library by necessity here — the spec names SHA-256
// explicitly (spec §4.5), so there is no third-party digest library to
// reach for instead.
func Checksum(cp policy.CompiledPolicy) (string, error) {
	payload := checksumPayload{
		TenantID:  cp.TenantID,
		PolicyID:  cp.PolicyID,
		VersionID: cp.VersionID,
		Index:     cp.Index,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Marshal serializes a CompiledPolicy to JSON for cache persistence or
// debugging.
func Marshal(cp policy.CompiledPolicy) ([]byte, error) {
	return json.Marshal(cp)
}

// Unmarshal deserializes a CompiledPolicy previously produced by
// Marshal, re-hydrating condition Values from their Raw literals since
// Value itself is not JSON-serializable (its fields are unexported).
func Unmarshal(b []byte) (policy.CompiledPolicy, error) {
	var cp policy.CompiledPolicy
	if err := json.Unmarshal(b, &cp); err != nil {
		return policy.CompiledPolicy{}, err
	}
	for _, subjMap := range cp.Index {
		for _, opMap := range subjMap {
			for _, rules := range opMap {
				for i := range rules {
					rules[i].Rule.Conditions.HydrateValues()
				}
			}
		}
	}
	return cp, nil
}
