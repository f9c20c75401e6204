package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/policymesh/engine/internal/domain/policy"
)

// PolicyRepository implements policy.PolicyRepository with in-memory
// maps, adapted from the teacher's MemoryPolicyStore
// (internal/adapter/outbound/memory/policy_store.go) to the
// tenant-scoped policy/version/rule shape the ABAC engine needs:
// rules live under a PolicyVersion rather than directly under a
// Policy, since versions (not policies) are the immutable, compiled
// unit (spec §3, §4.5).
type PolicyRepository struct {
	mu       sync.RWMutex
	policies map[string]policy.Policy         // policyID -> policy
	versions map[string][]policy.PolicyVersion // policyID -> versions
	rules    map[string][]policy.Rule          // versionID -> rules
}

// NewPolicyRepository creates an empty in-memory repository. Intended
// for tests, local development, and seeding default policies before a
// durable store is wired in.
func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{
		policies: make(map[string]policy.Policy),
		versions: make(map[string][]policy.PolicyVersion),
		rules:    make(map[string][]policy.Rule),
	}
}

// PutPolicy inserts or replaces a policy (for seeding/testing).
func (r *PolicyRepository) PutPolicy(p policy.Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.PolicyID] = p
}

// PutVersion inserts or replaces a policy version and its rules (for
// seeding/testing). If the version already exists it is replaced.
func (r *PolicyRepository) PutVersion(v policy.PolicyVersion, rules []policy.Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.versions[v.PolicyID]
	replaced := false
	for i, existing := range versions {
		if existing.VersionID == v.VersionID {
			versions[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		versions = append(versions, v)
	}
	r.versions[v.PolicyID] = versions
	r.rules[v.VersionID] = rules
}

// ListPolicies implements policy.PolicyRepository.
func (r *PolicyRepository) ListPolicies(ctx context.Context, tenantID string) ([]policy.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []policy.Policy
	for _, p := range r.policies {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetPolicy implements policy.PolicyRepository.
func (r *PolicyRepository) GetPolicy(ctx context.Context, tenantID, policyID string) (policy.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[policyID]
	if !ok || p.TenantID != tenantID {
		return policy.Policy{}, policy.ErrPolicyNotFound
	}
	return p, nil
}

// ListVersions implements policy.PolicyRepository.
func (r *PolicyRepository) ListVersions(ctx context.Context, tenantID, policyID string) ([]policy.PolicyVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]policy.PolicyVersion(nil), r.versions[policyID]...), nil
}

// ResolveVersion implements policy.PolicyRepository, honoring every
// policy.VersionSelectionMode.
func (r *PolicyRepository) ResolveVersion(ctx context.Context, tenantID, policyID string, sel policy.VersionSelection) (policy.PolicyVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.versions[policyID]
	if len(versions) == 0 {
		return policy.PolicyVersion{}, policy.ErrVersionNotFound
	}

	switch sel.Mode.WithDefault() {
	case policy.SelectSpecific:
		for _, v := range versions {
			if v.VersionID == sel.VersionID {
				return v, nil
			}
		}
		return policy.PolicyVersion{}, policy.ErrVersionNotFound
	case policy.SelectStaged:
		return latestWithStatus(versions, policy.VersionStaged)
	case policy.SelectDraft:
		return latestWithStatus(versions, policy.VersionDraft)
	case policy.SelectEffectiveAt:
		return effectiveAt(versions, sel.EffectiveAt)
	default: // SelectPublished
		return latestWithStatus(versions, policy.VersionPublished)
	}
}

// latestWithStatus returns the highest VersionNo among versions with
// the given status.
func latestWithStatus(versions []policy.PolicyVersion, status policy.VersionStatus) (policy.PolicyVersion, error) {
	var best policy.PolicyVersion
	found := false
	for _, v := range versions {
		if v.Status != status {
			continue
		}
		if !found || v.VersionNo > best.VersionNo {
			best = v
			found = true
		}
	}
	if !found {
		return policy.PolicyVersion{}, policy.ErrVersionNotFound
	}
	return best, nil
}

// effectiveAt returns the published or archived version with the
// latest PublishedAt at or before t, for deterministic historical
// replay of "what was in force at time X" queries.
func effectiveAt(versions []policy.PolicyVersion, t time.Time) (policy.PolicyVersion, error) {
	candidates := make([]policy.PolicyVersion, 0, len(versions))
	for _, v := range versions {
		if v.PublishedAt.IsZero() || v.PublishedAt.After(t) {
			continue
		}
		if v.Status == policy.VersionPublished || v.Status == policy.VersionArchived {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return policy.PolicyVersion{}, policy.ErrVersionNotFound
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].PublishedAt.Before(candidates[j].PublishedAt) })
	return candidates[len(candidates)-1], nil
}

// ListRules implements policy.PolicyRepository.
func (r *PolicyRepository) ListRules(ctx context.Context, tenantID, versionID string) ([]policy.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]policy.Rule(nil), r.rules[versionID]...), nil
}

// NewRuleID generates a fresh rule identifier for callers building
// rules programmatically (e.g. an admin API or CLI `compile` command),
// mirroring the teacher's auto-generated rule IDs on insert.
func NewRuleID() string {
	return uuid.NewString()
}

var _ policy.PolicyRepository = (*PolicyRepository)(nil)
