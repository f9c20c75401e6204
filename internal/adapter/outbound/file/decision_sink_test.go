package file

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/policymesh/engine/internal/domain/decisionlog"
	"github.com/policymesh/engine/internal/domain/policy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

func newTestSink(t *testing.T, cfg Config) *DecisionSink {
	t.Helper()
	cfg.Dir = t.TempDir()
	s, err := NewDecisionSink(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewDecisionSink() error = %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

func TestDecisionSink_RecordFlushesOnBatchSize(t *testing.T) {
	cfg := Config{}
	cfg.BatchSize = 2
	cfg.FlushInterval = time.Hour
	s := newTestSink(t, cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Record(ctx, policy.DecisionLogEntry{PrincipalID: "alice", Timestamp: time.Now()}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		got, err := s.Recent(ctx, "alice", 10)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(got) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for batch flush, got %d entries", len(got))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDecisionSink_CloseStopsBackgroundGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := Config{}
	cfg.Dir = t.TempDir()
	cfg.BatchSize = 10
	cfg.FlushInterval = time.Hour
	s, err := NewDecisionSink(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewDecisionSink() error = %v", err)
	}

	if err := s.Record(context.Background(), policy.DecisionLogEntry{PrincipalID: "alice", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Close must be idempotent: writeLoop/cleanupLoop have already
	// exited, so a second Close should neither block nor re-spawn them.
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestDecisionSink_DenyOnlyDropsAllowEntries(t *testing.T) {
	cfg := Config{}
	cfg.DenyOnly = true
	cfg.BatchSize = 1
	cfg.FlushInterval = time.Hour
	s := newTestSink(t, cfg)
	ctx := context.Background()

	if err := s.Record(ctx, policy.DecisionLogEntry{Effect: policy.EffectAllow, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := s.Record(ctx, policy.DecisionLogEntry{Effect: policy.EffectDeny, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	got, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 || got[0].Effect != policy.EffectDeny {
		t.Fatalf("Recent() = %+v, want single deny entry", got)
	}
}

func TestDecisionSink_CloseDrainsPending(t *testing.T) {
	cfg := Config{}
	cfg.BatchSize = 100
	cfg.FlushInterval = time.Hour
	s := newTestSink(t, cfg)
	ctx := context.Background()

	if err := s.Record(ctx, policy.DecisionLogEntry{CorrelationID: "corr-1", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := s.ByCorrelationID(ctx, "corr-1")
	if err != nil {
		t.Fatalf("ByCorrelationID() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ByCorrelationID() = %+v, want 1 entry after drain-on-close", got)
	}
}

func TestDecisionSink_QueryScansDiskAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: dir}
	cfg.BatchSize = 1
	cfg.FlushInterval = time.Hour

	s1, err := NewDecisionSink(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewDecisionSink() error = %v", err)
	}
	now := time.Now()
	if err := s1.Record(context.Background(), policy.DecisionLogEntry{TenantID: "t1", Timestamp: now}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := s1.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := NewDecisionSink(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewDecisionSink() reopen error = %v", err)
	}
	defer s2.Close(context.Background())

	got, _, err := s2.Query(context.Background(), decisionlog.Filter{
		TenantID:  "t1",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Query() = %+v, want 1 entry surviving restart", got)
	}
}
