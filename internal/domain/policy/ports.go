package policy

import (
	"context"
	"time"
)

// PolicyRepository is the outbound port for reading policies, versions,
// and rules. Adapters (memory, file, eventually a DB) implement this;
// persistence choices are out of scope for the domain package itself.
type PolicyRepository interface {
	ListPolicies(ctx context.Context, tenantID string) ([]Policy, error)
	GetPolicy(ctx context.Context, tenantID, policyID string) (Policy, error)
	ListVersions(ctx context.Context, tenantID, policyID string) ([]PolicyVersion, error)
	ResolveVersion(ctx context.Context, tenantID, policyID string, sel VersionSelection) (PolicyVersion, error)
	ListRules(ctx context.Context, tenantID, versionID string) ([]Rule, error)
}

// FactsSource is the outbound port for resolving subject and resource
// attributes (spec §4.7). Implementations may call out to other
// services; the facts provider (C7) wraps a FactsSource with caching.
type FactsSource interface {
	ResolveSubject(ctx context.Context, tenantID, principalID string) (SubjectFacts, error)
	ResolveResource(ctx context.Context, tenantID string, resource ResourceRef) (ResourceFacts, error)
}

// ResourceRef identifies the resource a caller wants facts for, before
// those facts have been resolved.
type ResourceRef struct {
	TenantID  string
	Type      string
	ID        string
	VersionID string
}

// DecisionSink is the outbound port the decision logger (C10) writes
// to. Sinks never block evaluation on failure — the logger isolates
// sink errors from the caller of Evaluate.
type DecisionSink interface {
	Record(ctx context.Context, entry DecisionLogEntry) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// DecisionLogEntry is one persisted decision-log record (spec §4.10).
type DecisionLogEntry struct {
	CorrelationID  string
	TenantID       string
	PrincipalID    string
	Action         Action
	ResourceType   string
	ResourceID     string
	Effect         Effect
	Reason         string
	DecidingRuleID string
	PolicyID       string
	VersionID      string
	DurationMs      float64
	Timestamp       time.Time
	SubjectSnapshot map[string]Value
}

// EventType enumerates the hot-reload invalidation events C8 publishes
// (spec §4.8).
type EventType string

const (
	EventPolicyPublished EventType = "policy_published"
	EventPolicyUpdated   EventType = "policy_updated"
	EventPolicyDeleted   EventType = "policy_deleted"
	EventRulesChanged    EventType = "rules_changed"
)

// InvalidationEvent notifies subscribers that cached compiled policy
// for (TenantID, PolicyID) is stale and must be recompiled on next use.
type InvalidationEvent struct {
	Type     EventType
	TenantID string
	PolicyID string
}

// Subscriber receives invalidation events. A subscriber's error is
// isolated from every other subscriber and from the publisher (spec
// §4.8) — one bad subscriber never blocks hot reload for the rest.
type Subscriber interface {
	OnInvalidate(ctx context.Context, evt InvalidationEvent) error
}
