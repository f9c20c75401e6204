package decisionlog

import (
	"context"
	"time"

	"github.com/policymesh/engine/internal/domain/policy"
)

// Filter specifies query parameters for decision-log reads, adapted
// from the teacher's AuditFilter (internal/domain/audit/store.go) to
// the decision-log's shape (spec §4.10 read APIs).
type Filter struct {
	StartTime     time.Time
	EndTime       time.Time
	TenantID      string
	PrincipalID   string
	CorrelationID string
	Effect        policy.Effect
	Limit         int
	Cursor        string
}

// Aggregate summarizes decision counts by operation and effect over a
// time window.
type Aggregate struct {
	TotalDecisions int64
	ByOperation    map[string]int64
	ByEffect       map[string]int64
}

// QueryStore is the read-side port for the decision log, separate from
// the write-side policy.DecisionSink so read scaling concerns
// (pagination, aggregation) never block the write-path (spec §4.10).
type QueryStore interface {
	// Recent returns the most recent entries, newest first, optionally
	// filtered by PrincipalID.
	Recent(ctx context.Context, principalID string, limit int) ([]policy.DecisionLogEntry, error)
	// ByCorrelationID returns every entry sharing a correlation id.
	ByCorrelationID(ctx context.Context, correlationID string) ([]policy.DecisionLogEntry, error)
	// Query retrieves entries matching filter plus a pagination cursor.
	Query(ctx context.Context, filter Filter) ([]policy.DecisionLogEntry, string, error)
	// QueryAggregate returns per-operation/per-effect counts for a window.
	QueryAggregate(ctx context.Context, start, end time.Time) (Aggregate, error)
}
