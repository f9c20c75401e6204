package policy

import "time"

// MatchedRule pairs a rule with the policy/version it came from and
// whether its condition tree evaluated to true, for explain output.
type MatchedRule struct {
	Rule             Rule
	PolicyID         string
	VersionID        string
	ConditionPassed  bool
	ScopeRank        int
	SubjectRank      int
}

// ExplainTrace captures the intermediate counts the orchestrator (C9)
// produces when EvaluationOptions.Explain is set (spec §6).
type ExplainTrace struct {
	PoliciesEvaluated int
	RulesScanned      int
	RulesMatched      int
	ConflictStrategy  ConflictStrategy
	Matched           []MatchedRule
}

// Decision is the output of one evaluate() call (spec §3, §6).
type Decision struct {
	Effect        Effect
	Allowed       bool
	Reason        string
	DecidingRule  *MatchedRule
	Obligations   []Obligation
	CorrelationID string
	EvaluatedAt   time.Time
	DurationMs    float64
	Explain       *ExplainTrace
	// HelpURL/HelpText point a denied caller at the rule responsible,
	// supplementing the raw Reason for human consumption (e.g. an API
	// error body or CLI output).
	HelpURL  string
	HelpText string
}

// Deny builds a default-deny decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Effect: EffectDeny, Allowed: false, Reason: reason}
}
