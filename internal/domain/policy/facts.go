package policy

import "time"

// PrincipalType distinguishes the two kinds of authenticated callers
// SubjectFacts can describe (spec §3).
type PrincipalType string

const (
	PrincipalUser    PrincipalType = "user"
	PrincipalService PrincipalType = "service"
)

// SubjectFacts is the attribute snapshot for the principal making a
// request. Used both to derive subject keys at match-time (C2) and for
// attribute lookups at condition-time (C1).
type SubjectFacts struct {
	PrincipalID   string
	PrincipalType PrincipalType
	Roles         []string
	Groups        []string
	OrgUnit       string
	Attributes    map[string]Value
	GeneratedAt   time.Time
}

// ResourceFacts is the attribute snapshot for the resource a request
// targets.
type ResourceFacts struct {
	Type       string
	ID         string
	VersionID  string
	Module     string
	OwnerID    string
	Attributes map[string]Value
}

// RequestContext carries request-scoped ambient attributes (spec §3).
type RequestContext struct {
	TenantID      string
	Timestamp     time.Time
	CorrelationID string
	IP            string
	UserAgent     string
	Channel       string
	Geo           string
	Attributes    map[string]Value
}

// PolicyInput is the full input to one evaluation (spec §6).
type PolicyInput struct {
	Subject  SubjectFacts
	Resource ResourceFacts
	Action   Action
	Context  RequestContext
}

// ConflictStrategy selects how the conflict resolver (C4) collapses
// multiple matched rules into one effect.
type ConflictStrategy string

const (
	DenyOverrides  ConflictStrategy = "deny_overrides"
	AllowOverrides ConflictStrategy = "allow_overrides"
	PriorityOrder  ConflictStrategy = "priority_order"
	FirstMatch     ConflictStrategy = "first_match"
)

// EvaluationOptions configures a single evaluate() call (spec §6).
type EvaluationOptions struct {
	ConflictResolution ConflictStrategy
	Explain            bool
	DeadlineMs         int
	MaxConditionDepth  int
}

// DefaultMaxConditionDepth is the default bound on condition nesting
// (spec §3, §4.1).
const DefaultMaxConditionDepth = 10

// WithDefaults returns a copy of the options with zero-valued fields
// replaced by engine defaults.
func (o EvaluationOptions) WithDefaults() EvaluationOptions {
	if o.ConflictResolution == "" {
		o.ConflictResolution = DenyOverrides
	}
	if o.MaxConditionDepth <= 0 {
		o.MaxConditionDepth = DefaultMaxConditionDepth
	}
	return o
}
