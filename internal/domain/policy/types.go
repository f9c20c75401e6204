// Package policy contains the domain types shared by every stage of
// decision evaluation: policies, versions, rules, conditions, facts, and
// the compiled index the matcher reads from.
package policy

import "time"

// ScopeType ranks how specifically a rule targets a resource. Earlier
// entries are more specific; the matcher and comparator both depend on
// this ordering (spec §3, §4.3).
type ScopeType string

const (
	ScopeRecord        ScopeType = "record"
	ScopeEntityVersion ScopeType = "entity_version"
	ScopeEntity        ScopeType = "entity"
	ScopeModule        ScopeType = "module"
	ScopeGlobal        ScopeType = "global"
)

// scopeRank returns the specificity rank of a scope type; lower is more
// specific. Unknown scope types rank last so they never win a comparison.
func scopeRank(s ScopeType) int {
	switch s {
	case ScopeRecord:
		return 0
	case ScopeEntityVersion:
		return 1
	case ScopeEntity:
		return 2
	case ScopeModule:
		return 3
	case ScopeGlobal:
		return 4
	default:
		return 5
	}
}

// ScopeRank exposes scopeRank for the determinism comparator (C3).
func ScopeRank(s ScopeType) int { return scopeRank(s) }

// SubjectType ranks how specifically a rule targets a subject. Earlier
// entries are more specific.
type SubjectType string

const (
	SubjectUser    SubjectType = "user"
	SubjectService SubjectType = "service"
	SubjectRole    SubjectType = "role"
	SubjectGroup   SubjectType = "group"
)

func subjectRank(s SubjectType) int {
	switch s {
	case SubjectUser:
		return 0
	case SubjectService:
		return 1
	case SubjectRole:
		return 2
	case SubjectGroup:
		return 3
	default:
		return 4
	}
}

// SubjectRank exposes subjectRank for the determinism comparator (C3).
func SubjectRank(s SubjectType) int { return subjectRank(s) }

// Effect is the outcome a matched rule carries.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// VersionStatus is the lifecycle state of a PolicyVersion (spec §3).
type VersionStatus string

const (
	VersionDraft     VersionStatus = "draft"
	VersionStaged    VersionStatus = "staged"
	VersionPublished VersionStatus = "published"
	VersionArchived  VersionStatus = "archived"
)

// Policy identifies a named collection of versions scoped to a tenant.
type Policy struct {
	TenantID    string
	PolicyID    string
	Name        string
	Description string
	ScopeType   ScopeType
	ScopeKey    string // empty means "no scope key" (e.g. global)
	IsActive    bool
}

// PolicyVersion is one immutable (once published) snapshot of rules.
type PolicyVersion struct {
	VersionID   string
	PolicyID    string
	VersionNo   int
	Status      VersionStatus
	CreatedAt   time.Time
	PublishedAt time.Time // zero if never published
	ArchivedAt  time.Time // zero if never archived
}

// Rule is a single permission rule attached to a version (spec §3).
type Rule struct {
	RuleID      string
	VersionID   string
	ScopeType   ScopeType
	ScopeKey    string // "*" wildcard or empty for global
	SubjectType SubjectType
	SubjectKey  string // may be "*"
	Effect      Effect
	Conditions  Condition // nil means "always true"
	Priority    int       // lower binds tighter
	IsActive    bool
	Operations  []string // NAMESPACE.CODE or "*"; non-empty
	Obligations []Obligation
}

// Operation catalog entry (spec §3). Namespace is drawn from a closed set.
type Operation struct {
	Namespace string
	Code      string
}

// ValidNamespaces is the closed set of operation namespaces (spec §3).
var ValidNamespaces = map[string]bool{
	"ENTITY":     true,
	"WORKFLOW":   true,
	"UTIL":       true,
	"DELEGATION": true,
	"COLLAB":     true,
}

// FullCode returns the wire-format NAMESPACE.CODE string.
func (o Operation) FullCode() string {
	return o.Namespace + "." + o.Code
}

// Obligation is an opaque key/value record carried through to the
// decision when the deciding rule names it (spec §4.4, GLOSSARY).
type Obligation struct {
	Key   string
	Value Value
}

// Action identifies the operation being requested.
type Action struct {
	Namespace string
	Code      string
	FullCode  string
}
