package memory

import (
	"context"
	"testing"
	"time"

	"github.com/policymesh/engine/internal/domain/decisionlog"
	"github.com/policymesh/engine/internal/domain/policy"
)

func TestDecisionSink_RecordAndRecent(t *testing.T) {
	s := NewDecisionSink(10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Record(ctx, policy.DecisionLogEntry{PrincipalID: "alice", Effect: policy.EffectAllow}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	got, err := s.Recent(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(got))
	}
}

func TestDecisionSink_RingBufferEvictsOldest(t *testing.T) {
	s := NewDecisionSink(2)
	ctx := context.Background()
	s.Record(ctx, policy.DecisionLogEntry{CorrelationID: "c1"})
	s.Record(ctx, policy.DecisionLogEntry{CorrelationID: "c2"})
	s.Record(ctx, policy.DecisionLogEntry{CorrelationID: "c3"})

	got, _ := s.Recent(ctx, "", 10)
	if len(got) != 2 {
		t.Fatalf("expected ring buffer capped at 2, got %d", len(got))
	}
	for _, e := range got {
		if e.CorrelationID == "c1" {
			t.Error("expected oldest entry c1 to be evicted")
		}
	}
}

func TestDecisionSink_ByCorrelationID(t *testing.T) {
	s := NewDecisionSink(10)
	ctx := context.Background()
	s.Record(ctx, policy.DecisionLogEntry{CorrelationID: "corr-1", PrincipalID: "alice"})
	s.Record(ctx, policy.DecisionLogEntry{CorrelationID: "corr-2", PrincipalID: "bob"})
	s.Record(ctx, policy.DecisionLogEntry{CorrelationID: "corr-1", PrincipalID: "alice"})

	got, err := s.ByCorrelationID(ctx, "corr-1")
	if err != nil {
		t.Fatalf("ByCorrelationID() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ByCorrelationID() returned %d, want 2", len(got))
	}
}

func TestDecisionSink_QueryAggregate(t *testing.T) {
	s := NewDecisionSink(10)
	ctx := context.Background()
	now := time.Now()
	s.Record(ctx, policy.DecisionLogEntry{Effect: policy.EffectAllow, Action: policy.Action{FullCode: "ENTITY.READ"}, Timestamp: now})
	s.Record(ctx, policy.DecisionLogEntry{Effect: policy.EffectDeny, Action: policy.Action{FullCode: "ENTITY.READ"}, Timestamp: now})

	agg, err := s.QueryAggregate(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("QueryAggregate() error = %v", err)
	}
	if agg.TotalDecisions != 2 {
		t.Errorf("TotalDecisions = %d, want 2", agg.TotalDecisions)
	}
	if agg.ByOperation["ENTITY.READ"] != 2 {
		t.Errorf("ByOperation[ENTITY.READ] = %d, want 2", agg.ByOperation["ENTITY.READ"])
	}
	if agg.ByEffect["allow"] != 1 || agg.ByEffect["deny"] != 1 {
		t.Errorf("ByEffect = %+v, want allow=1 deny=1", agg.ByEffect)
	}
}

func TestDecisionSink_Query_FiltersByTenant(t *testing.T) {
	s := NewDecisionSink(10)
	ctx := context.Background()
	s.Record(ctx, policy.DecisionLogEntry{TenantID: "t1"})
	s.Record(ctx, policy.DecisionLogEntry{TenantID: "t2"})

	got, cursor, err := s.Query(ctx, decisionlog.Filter{TenantID: "t1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if cursor != "" {
		t.Errorf("expected empty cursor from in-memory adapter, got %q", cursor)
	}
	if len(got) != 1 || got[0].TenantID != "t1" {
		t.Fatalf("Query() = %+v, want single t1 entry", got)
	}
}
