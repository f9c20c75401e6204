// Package memory provides in-memory adapters for the policy and
// decision-log ports, used for tests, local development, and
// single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/policymesh/engine/internal/domain/decisionlog"
	"github.com/policymesh/engine/internal/domain/policy"
)

// ringBuffer is a fixed-capacity ring buffer of decision-log entries,
// adapted from the teacher's auditCache
// (internal/adapter/outbound/audit/file_store.go) to
// policy.DecisionLogEntry.
type ringBuffer struct {
	entries []policy.DecisionLogEntry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

func newRingBuffer(size int) *ringBuffer {
	if size <= 0 {
		size = 1000
	}
	return &ringBuffer{entries: make([]policy.DecisionLogEntry, size), size: size}
}

func (c *ringBuffer) add(e policy.DecisionLogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.head] = e
	c.head = (c.head + 1) % c.size
	if c.count < c.size {
		c.count++
	}
}

func (c *ringBuffer) all() []policy.DecisionLogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recentLocked(c.count)
}

func (c *ringBuffer) recentLocked(n int) []policy.DecisionLogEntry {
	if n <= 0 || c.count == 0 {
		return nil
	}
	if n > c.count {
		n = c.count
	}
	out := make([]policy.DecisionLogEntry, n)
	for i := 0; i < n; i++ {
		idx := (c.head - 1 - i + c.size) % c.size
		out[i] = c.entries[idx]
	}
	return out
}

// DecisionSink is an in-memory policy.DecisionSink and
// decisionlog.QueryStore, useful for tests and for single-process
// deployments that don't need durable decision logs.
type DecisionSink struct {
	ring *ringBuffer
}

// NewDecisionSink builds a DecisionSink holding up to capacity entries.
func NewDecisionSink(capacity int) *DecisionSink {
	return &DecisionSink{ring: newRingBuffer(capacity)}
}

// Record implements policy.DecisionSink.
func (s *DecisionSink) Record(ctx context.Context, entry policy.DecisionLogEntry) error {
	s.ring.add(entry)
	return nil
}

// Flush implements policy.DecisionSink; a no-op since writes are
// already synchronous in-memory.
func (s *DecisionSink) Flush(ctx context.Context) error { return nil }

// Close implements policy.DecisionSink; nothing to release.
func (s *DecisionSink) Close(ctx context.Context) error { return nil }

// Recent implements decisionlog.QueryStore.
func (s *DecisionSink) Recent(ctx context.Context, principalID string, limit int) ([]policy.DecisionLogEntry, error) {
	all := s.ring.all()
	if principalID == "" {
		return truncate(all, limit), nil
	}
	var filtered []policy.DecisionLogEntry
	for _, e := range all {
		if e.PrincipalID == principalID {
			filtered = append(filtered, e)
		}
	}
	return truncate(filtered, limit), nil
}

// ByCorrelationID implements decisionlog.QueryStore.
func (s *DecisionSink) ByCorrelationID(ctx context.Context, correlationID string) ([]policy.DecisionLogEntry, error) {
	var out []policy.DecisionLogEntry
	for _, e := range s.ring.all() {
		if e.CorrelationID == correlationID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Query implements decisionlog.QueryStore. The in-memory adapter
// ignores cursor/pagination beyond Limit — it's bounded by the ring
// buffer's capacity anyway.
func (s *DecisionSink) Query(ctx context.Context, filter decisionlog.Filter) ([]policy.DecisionLogEntry, string, error) {
	var out []policy.DecisionLogEntry
	for _, e := range s.ring.all() {
		if !withinRange(e.Timestamp, filter.StartTime, filter.EndTime) {
			continue
		}
		if filter.TenantID != "" && e.TenantID != filter.TenantID {
			continue
		}
		if filter.PrincipalID != "" && e.PrincipalID != filter.PrincipalID {
			continue
		}
		if filter.Effect != "" && e.Effect != filter.Effect {
			continue
		}
		out = append(out, e)
	}
	return truncate(out, filter.Limit), "", nil
}

// QueryAggregate implements decisionlog.QueryStore.
func (s *DecisionSink) QueryAggregate(ctx context.Context, start, end time.Time) (decisionlog.Aggregate, error) {
	agg := decisionlog.Aggregate{ByOperation: map[string]int64{}, ByEffect: map[string]int64{}}
	for _, e := range s.ring.all() {
		if !withinRange(e.Timestamp, start, end) {
			continue
		}
		agg.TotalDecisions++
		agg.ByOperation[e.Action.FullCode]++
		agg.ByEffect[string(e.Effect)]++
	}
	return agg, nil
}

func withinRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

func truncate(entries []policy.DecisionLogEntry, limit int) []policy.DecisionLogEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}

var (
	_ policy.DecisionSink      = (*DecisionSink)(nil)
	_ decisionlog.QueryStore   = (*DecisionSink)(nil)
)
