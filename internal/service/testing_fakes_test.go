package service

import (
	"context"
	"sync"

	"github.com/policymesh/engine/internal/domain/policy"
)

// fakeRepo is a minimal in-memory policy.PolicyRepository for service
// package tests, independent of the adapter/outbound/memory
// implementation so these tests exercise only the orchestration logic.
type fakeRepo struct {
	policies []policy.Policy
	versions map[string]policy.PolicyVersion // policyID -> published version
	rules    map[string][]policy.Rule        // versionID -> rules
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{versions: map[string]policy.PolicyVersion{}, rules: map[string][]policy.Rule{}}
}

func (r *fakeRepo) ListPolicies(ctx context.Context, tenantID string) ([]policy.Policy, error) {
	return r.policies, nil
}

func (r *fakeRepo) GetPolicy(ctx context.Context, tenantID, policyID string) (policy.Policy, error) {
	for _, p := range r.policies {
		if p.PolicyID == policyID {
			return p, nil
		}
	}
	return policy.Policy{}, policy.ErrPolicyNotFound
}

func (r *fakeRepo) ListVersions(ctx context.Context, tenantID, policyID string) ([]policy.PolicyVersion, error) {
	if v, ok := r.versions[policyID]; ok {
		return []policy.PolicyVersion{v}, nil
	}
	return nil, nil
}

func (r *fakeRepo) ResolveVersion(ctx context.Context, tenantID, policyID string, sel policy.VersionSelection) (policy.PolicyVersion, error) {
	v, ok := r.versions[policyID]
	if !ok {
		return policy.PolicyVersion{}, policy.ErrVersionNotFound
	}
	return v, nil
}

func (r *fakeRepo) ListRules(ctx context.Context, tenantID, versionID string) ([]policy.Rule, error) {
	return r.rules[versionID], nil
}

// fakeFactsSource returns facts handed to it at construction time,
// keyed by principal/resource id.
type fakeFactsSource struct {
	subjects  map[string]policy.SubjectFacts
	resources map[string]policy.ResourceFacts
}

func (f *fakeFactsSource) ResolveSubject(ctx context.Context, tenantID, principalID string) (policy.SubjectFacts, error) {
	return f.subjects[principalID], nil
}

func (f *fakeFactsSource) ResolveResource(ctx context.Context, tenantID string, ref policy.ResourceRef) (policy.ResourceFacts, error) {
	return f.resources[ref.ID], nil
}

// fakeSink records every decision logged to it.
type fakeSink struct {
	mu      sync.Mutex
	entries []policy.DecisionLogEntry
}

func (s *fakeSink) Record(ctx context.Context, entry policy.DecisionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}
func (s *fakeSink) Flush(ctx context.Context) error { return nil }
func (s *fakeSink) Close(ctx context.Context) error { return nil }

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
