// Package service wires C1-C10 together into the policy engine's
// orchestration layer: the hot-reloadable compiled-policy cache (C8)
// and the Evaluate() entry point (C9). Grounded on the teacher's
// PolicyService (atomic snapshot + mutex-guarded reload,
// internal/service/policy_service.go) and PolicyEvaluationService
// (request-shaped wrapper with latency tracking,
// internal/service/policy_evaluation_service.go).
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/policymesh/engine/internal/domain/compile"
	"github.com/policymesh/engine/internal/domain/policy"
	"github.com/policymesh/engine/internal/telemetry"
)

// DefaultCompiledCacheTTL is the default lifetime of a cached compiled
// policy before it's considered stale even absent an invalidation event
// (spec §4.8).
const DefaultCompiledCacheTTL = 5 * time.Minute

type cachedCompiled struct {
	policy.CompiledPolicy
	expiresAt time.Time
}

func cacheKey(tenantID, versionID string) string { return tenantID + "/" + versionID }

// CompiledCache compiles and caches policies keyed by (tenantID,
// versionID), invalidating by (tenantID, policyID) prefix when a
// hot-reload event arrives. It implements policy.Subscriber so it can
// be registered directly with whatever event bus publishes
// InvalidationEvents.
type CompiledCache struct {
	repo              policy.PolicyRepository
	maxConditionDepth int
	ttl               time.Duration
	logger            *slog.Logger
	metrics           *telemetry.Metrics

	mu      sync.RWMutex
	entries map[string]cachedCompiled
}

// SetMetrics attaches a Metrics recorder; safe to call once at startup,
// before the cache sees concurrent traffic.
func (c *CompiledCache) SetMetrics(m *telemetry.Metrics) {
	c.metrics = m
}

// NewCompiledCache builds a CompiledCache backed by repo.
func NewCompiledCache(repo policy.PolicyRepository, maxConditionDepth int, logger *slog.Logger) *CompiledCache {
	return &CompiledCache{
		repo:              repo,
		maxConditionDepth: maxConditionDepth,
		ttl:               DefaultCompiledCacheTTL,
		logger:            logger,
		entries:           make(map[string]cachedCompiled),
	}
}

// GetOrCompile returns the cached CompiledPolicy for (tenantID,
// version), compiling and caching it on a miss or expiry.
func (c *CompiledCache) GetOrCompile(ctx context.Context, tenantID string, p policy.Policy, version policy.PolicyVersion) (policy.CompiledPolicy, error) {
	key := cacheKey(tenantID, version.VersionID)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		c.metrics.RecordCompiledCacheHit()
		return e.CompiledPolicy, nil
	}
	c.metrics.RecordCompiledCacheMiss()

	start := time.Now()
	rules, err := c.repo.ListRules(ctx, tenantID, version.VersionID)
	if err != nil {
		return policy.CompiledPolicy{}, policy.NewError(policy.CodeInternal, "failed to list rules for version", err)
	}
	cp, err := compile.Compile(tenantID, version, rules, c.maxConditionDepth)
	if err != nil {
		return policy.CompiledPolicy{}, err
	}
	c.metrics.ObserveCompile(time.Since(start).Seconds())

	c.mu.Lock()
	c.entries[key] = cachedCompiled{CompiledPolicy: cp, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return cp, nil
}

// evictTenantPolicyLocked removes every cached version for
// (tenantID, policyID). Caller must hold c.mu for writing.
func (c *CompiledCache) evictTenantPolicyLocked(tenantID, policyID string) {
	prefix := tenantID + "/"
	for key := range c.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if entry, ok := c.entries[key]; ok && entry.PolicyID == policyID {
			delete(c.entries, key)
		}
	}
}

// OnInvalidate implements policy.Subscriber: it evicts every cached
// compiled version for the event's (TenantID, PolicyID), so the next
// Evaluate recompiles from the repository's current rule set (spec
// §4.8). Subscriber errors are never expected from this implementation
// — it always returns nil, matching the isolated-failure contract
// subscribers must honor.
func (c *CompiledCache) OnInvalidate(ctx context.Context, evt policy.InvalidationEvent) error {
	c.mu.Lock()
	c.evictTenantPolicyLocked(evt.TenantID, evt.PolicyID)
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.Info("compiled policy cache invalidated",
			"tenant_id", evt.TenantID,
			"policy_id", evt.PolicyID,
			"event_type", evt.Type,
		)
	}
	return nil
}

// Clear empties the entire cache, used on full reload or shutdown.
func (c *CompiledCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedCompiled)
}

// Size reports the number of cached compiled policies, for metrics.
func (c *CompiledCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// compile-time interface check.
var _ policy.Subscriber = (*CompiledCache)(nil)
