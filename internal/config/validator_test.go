package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns a minimal valid EngineConfig for testing.
func minimalValidConfig() *EngineConfig {
	cfg := &EngineConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_ZeroConfig(t *testing.T) {
	t.Parallel()

	// Simulate running policymeshctl with no config file at all: defaults
	// alone must be enough to pass validation.
	cfg := &EngineConfig{}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() zero-config unexpected error: %v", err)
	}
}

func TestValidate_InvalidConflictResolution(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Evaluation.ConflictResolution = "bogus_strategy"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Evaluation.ConflictResolution") {
		t.Errorf("error = %q, want to contain 'Evaluation.ConflictResolution'", err.Error())
	}
}

func TestValidate_InvalidMaxConditionDepth(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Evaluation.MaxConditionDepth = 0

	// 0 is the zero value and is skipped by "omitempty,min=1", so set a
	// value that actually violates min=1.
	cfg.Evaluation.MaxConditionDepth = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for negative MaxConditionDepth, got nil")
	}
	if !strings.Contains(err.Error(), "Evaluation.MaxConditionDepth") {
		t.Errorf("error = %q, want to contain 'Evaluation.MaxConditionDepth'", err.Error())
	}
}

func TestValidate_InvalidDecisionLogBackend(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.DecisionLog.Backend = "s3"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unknown backend, got nil")
	}
	if !strings.Contains(err.Error(), "DecisionLog.Backend") {
		t.Errorf("error = %q, want to contain 'DecisionLog.Backend'", err.Error())
	}
}

func TestValidate_InvalidStoreBackend(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Store.Backend = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unsupported store backend, got nil")
	}
	if !strings.Contains(err.Error(), "Store.Backend") {
		t.Errorf("error = %q, want to contain 'Store.Backend'", err.Error())
	}
}

func TestValidate_InvalidCLIOutputFormat(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.CLI.OutputFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unsupported output format, got nil")
	}
	if !strings.Contains(err.Error(), "CLI.OutputFormat") {
		t.Errorf("error = %q, want to contain 'CLI.OutputFormat'", err.Error())
	}
}

func TestValidate_InvalidBatchSize(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.DecisionLog.BatchSize = -5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for negative BatchSize, got nil")
	}
	if !strings.Contains(err.Error(), "DecisionLog.BatchSize") {
		t.Errorf("error = %q, want to contain 'DecisionLog.BatchSize'", err.Error())
	}
}

func TestValidate_ValidDurationFields(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Cache.SubjectFactsTTL = "90s"
	cfg.Cache.ResourceFactsTTL = "2m"
	cfg.Cache.CompiledPolicyTTL = "10m"
	cfg.DecisionLog.FlushInterval = "500ms"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with valid durations unexpected error: %v", err)
	}
}

func TestValidate_InvalidSubjectFactsTTL(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Cache.SubjectFactsTTL = "not-a-duration"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for malformed duration, got nil")
	}
	if !strings.Contains(err.Error(), "cache.subject_facts_ttl") {
		t.Errorf("error = %q, want to contain 'cache.subject_facts_ttl'", err.Error())
	}
}

func TestValidate_InvalidFlushInterval(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.DecisionLog.FlushInterval = "five seconds"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for malformed flush interval, got nil")
	}
	if !strings.Contains(err.Error(), "decision_log.flush_interval") {
		t.Errorf("error = %q, want to contain 'decision_log.flush_interval'", err.Error())
	}
}

func TestValidateDuration_EmptyStringIsValid(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Cache.CompiledPolicyTTL = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with empty duration field unexpected error: %v", err)
	}
}

func TestFormatValidationErrors_JoinsMultiple(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Evaluation.ConflictResolution = "bogus"
	cfg.Store.Backend = "bogus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "Evaluation.ConflictResolution") || !strings.Contains(errStr, "Store.Backend") {
		t.Errorf("error = %q, want both field errors joined", errStr)
	}
}
