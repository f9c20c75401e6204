// Package config provides engine-wide configuration for policymesh,
// adapted from the teacher's OSS configuration schema
// (internal/config/config.go) to the ABAC decision engine's tunables:
// conflict-resolution strategy, condition depth, cache TTLs,
// decision-logger batching, and CLI output format.
package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/policymesh/engine/internal/domain/decisionlog"
	"github.com/policymesh/engine/internal/domain/policy"
)

// EngineConfig is the top-level configuration for the policy engine.
type EngineConfig struct {
	// Evaluation configures default evaluation behavior (spec §4.9).
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`

	// Cache configures the facts provider and compiled-policy caches
	// (spec §4.7, §4.8).
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// DecisionLog configures the decision-log writer (spec §4.10).
	DecisionLog DecisionLogConfig `yaml:"decision_log" mapstructure:"decision_log"`

	// Store configures where policies/rules are persisted.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// CLI configures cmd/policymeshctl's output.
	CLI CLIConfig `yaml:"cli" mapstructure:"cli"`

	// DevMode enables the permissive defaults applied by SetDevDefaults.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// EvaluationConfig configures the C9 orchestrator's defaults.
type EvaluationConfig struct {
	// ConflictResolution is the default strategy when EvaluationOptions
	// doesn't specify one explicitly.
	// Valid values: "deny_overrides", "allow_overrides", "priority_order", "first_match".
	ConflictResolution string `yaml:"conflict_resolution" mapstructure:"conflict_resolution" validate:"omitempty,oneof=deny_overrides allow_overrides priority_order first_match"`

	// MaxConditionDepth bounds nested condition-group depth (spec §4.1 I2).
	MaxConditionDepth int `yaml:"max_condition_depth" mapstructure:"max_condition_depth" validate:"omitempty,min=1"`

	// DefaultDeadlineMs is the default per-evaluation timeout budget.
	DefaultDeadlineMs int `yaml:"default_deadline_ms" mapstructure:"default_deadline_ms" validate:"omitempty,min=1"`
}

// CacheConfig configures TTLs for C7's facts provider and C8's
// compiled-policy cache; cache sizes are not configurable.
type CacheConfig struct {
	SubjectFactsTTL   string `yaml:"subject_facts_ttl" mapstructure:"subject_facts_ttl" validate:"omitempty"`
	ResourceFactsTTL  string `yaml:"resource_facts_ttl" mapstructure:"resource_facts_ttl" validate:"omitempty"`
	CompiledPolicyTTL string `yaml:"compiled_policy_ttl" mapstructure:"compiled_policy_ttl" validate:"omitempty"`
}

// DecisionLogConfig configures C10's writer.
type DecisionLogConfig struct {
	Enabled                bool   `yaml:"enabled" mapstructure:"enabled"`
	Backend                string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory file"`
	Dir                    string `yaml:"dir" mapstructure:"dir"`
	DenyOnly               bool   `yaml:"deny_only" mapstructure:"deny_only"`
	IncludeSubjectSnapshot bool   `yaml:"include_subject_snapshot" mapstructure:"include_subject_snapshot"`
	BatchSize              int    `yaml:"batch_size" mapstructure:"batch_size" validate:"omitempty,min=1"`
	FlushInterval          string `yaml:"flush_interval" mapstructure:"flush_interval" validate:"omitempty"`
	MaxRetries             int    `yaml:"max_retries" mapstructure:"max_retries" validate:"omitempty,min=0"`
	RetentionDays          int    `yaml:"retention_days" mapstructure:"retention_days" validate:"omitempty,min=1"`
	MaxFileSizeMB          int    `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb" validate:"omitempty,min=1"`
	CacheSize              int    `yaml:"cache_size" mapstructure:"cache_size" validate:"omitempty,min=1"`
}

// StoreConfig configures the PolicyRepository backend.
type StoreConfig struct {
	// Backend selects the PolicyRepository implementation. Only
	// "memory" ships in this module; other backends are adapter
	// choices made by an embedding application.
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory"`
}

// CLIConfig configures cmd/policymeshctl output formatting.
type CLIConfig struct {
	// OutputFormat is "text" or "json".
	OutputFormat string `yaml:"output_format" mapstructure:"output_format" validate:"omitempty,oneof=text json"`
}

// SetDefaults applies sensible default values, mirroring the teacher's
// OSSConfig.SetDefaults.
func (c *EngineConfig) SetDefaults() {
	if c.Evaluation.ConflictResolution == "" {
		c.Evaluation.ConflictResolution = string(policy.DenyOverrides)
	}
	if c.Evaluation.MaxConditionDepth == 0 {
		c.Evaluation.MaxConditionDepth = policy.DefaultMaxConditionDepth
	}
	if c.Evaluation.DefaultDeadlineMs == 0 {
		c.Evaluation.DefaultDeadlineMs = 500
	}

	if c.Cache.SubjectFactsTTL == "" {
		c.Cache.SubjectFactsTTL = "60s"
	}
	if c.Cache.ResourceFactsTTL == "" {
		c.Cache.ResourceFactsTTL = "30s"
	}
	if c.Cache.CompiledPolicyTTL == "" {
		c.Cache.CompiledPolicyTTL = "5m"
	}

	// DecisionLog defaults — only apply the enabled default when the
	// user hasn't explicitly set it, mirroring the teacher's
	// viper.IsSet guard for HTTPGateway.Enabled/RateLimit.Enabled.
	if !viper.IsSet("decision_log.enabled") {
		c.DecisionLog.Enabled = true
	}
	if c.DecisionLog.Backend == "" {
		c.DecisionLog.Backend = "memory"
	}
	if c.DecisionLog.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DecisionLog.Dir = home + "/.policymesh/decisions"
		}
	}
	d := decisionlog.DefaultConfig()
	if c.DecisionLog.BatchSize == 0 {
		c.DecisionLog.BatchSize = d.BatchSize
	}
	if c.DecisionLog.FlushInterval == "" {
		c.DecisionLog.FlushInterval = d.FlushInterval.String()
	}
	if c.DecisionLog.MaxRetries == 0 {
		c.DecisionLog.MaxRetries = d.MaxRetries
	}
	if c.DecisionLog.RetentionDays == 0 {
		c.DecisionLog.RetentionDays = 7
	}
	if c.DecisionLog.MaxFileSizeMB == 0 {
		c.DecisionLog.MaxFileSizeMB = 100
	}
	if c.DecisionLog.CacheSize == 0 {
		c.DecisionLog.CacheSize = 1000
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}

	if c.CLI.OutputFormat == "" {
		c.CLI.OutputFormat = "text"
	}
}

// SetDevDefaults applies permissive defaults for development mode,
// mirroring the teacher's OSSConfig.SetDevDefaults: applied before
// validation so a near-empty config still passes.
func (c *EngineConfig) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.DecisionLog.Backend == "" {
		c.DecisionLog.Backend = "memory"
	}
	if c.CLI.OutputFormat == "" {
		c.CLI.OutputFormat = "text"
	}
}
