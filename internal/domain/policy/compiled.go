package policy

import "time"

// CompiledRule is a Rule flattened for fast matching: its scope/subject
// keys are pre-split and its condition tree is pre-hydrated so the
// evaluator never touches Raw at decision time.
type CompiledRule struct {
	Rule      Rule
	PolicyID  string
	VersionID string
}

// RuleIndex is the three-level lookup C5 builds and C2 reads:
// scope slot -> subject slot -> operation slot -> ordered rule list.
// Each inner list is pre-sorted by the C3 determinism order so the
// matcher never sorts at request time.
type RuleIndex map[string]map[string]map[string][]CompiledRule

// Counts summarizes a compiled policy for diagnostics/metrics.
type Counts struct {
	TotalRules   int
	InvalidRules int
	ScopeSlots   int
}

// CompiledPolicy is the immutable, checksum-addressed artifact C5
// produces and every later stage (C6-C9) reads from (spec §4.5).
type CompiledPolicy struct {
	TenantID    string
	PolicyID    string
	VersionID   string
	Index       RuleIndex
	Checksum    string
	CompiledAt  time.Time
	Counts      Counts
	Diagnostics []RuleDiagnostic
}

// RuleDiagnostic records a single rule rejected at compile time without
// failing the whole compilation (spec §4.5) — compilation only fails
// (POLICY_COMPILATION_FAILED) when every rule in the version is invalid.
type RuleDiagnostic struct {
	RuleID string
	Reason string
}
