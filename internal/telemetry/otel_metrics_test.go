package telemetry

import (
	"context"
	"io"
	"testing"
)

func TestNewMeterProvider_ShutdownIsClean(t *testing.T) {
	mp, err := NewMeterProvider(io.Discard)
	if err != nil {
		t.Fatalf("NewMeterProvider() error = %v", err)
	}
	if mp.Meter("test") == nil {
		t.Fatal("Meter() returned nil")
	}
	if err := mp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestEvaluationCounter_AddDoesNotPanicOnNil(t *testing.T) {
	var c *EvaluationCounter
	c.Add(context.Background(), "allow") // nil receiver must be a no-op
}

func TestNewEvaluationCounter_AddRecordsWithoutError(t *testing.T) {
	mp, err := NewMeterProvider(io.Discard)
	if err != nil {
		t.Fatalf("NewMeterProvider() error = %v", err)
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()

	counter, err := NewEvaluationCounter(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewEvaluationCounter() error = %v", err)
	}
	counter.Add(context.Background(), "deny")
}
