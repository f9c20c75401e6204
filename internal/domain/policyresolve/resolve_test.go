package policyresolve

import (
	"context"
	"testing"

	"github.com/policymesh/engine/internal/domain/policy"
)

type fakeRepo struct {
	policies []policy.Policy
}

func (f *fakeRepo) ListPolicies(ctx context.Context, tenantID string) ([]policy.Policy, error) {
	return f.policies, nil
}
func (f *fakeRepo) GetPolicy(ctx context.Context, tenantID, policyID string) (policy.Policy, error) {
	return policy.Policy{}, nil
}
func (f *fakeRepo) ListVersions(ctx context.Context, tenantID, policyID string) ([]policy.PolicyVersion, error) {
	return nil, nil
}
func (f *fakeRepo) ResolveVersion(ctx context.Context, tenantID, policyID string, sel policy.VersionSelection) (policy.PolicyVersion, error) {
	return policy.PolicyVersion{PolicyID: policyID, VersionID: "v-" + policyID}, nil
}
func (f *fakeRepo) ListRules(ctx context.Context, tenantID, versionID string) ([]policy.Rule, error) {
	return nil, nil
}

func TestApplicablePolicies_OrderedBySpecificity(t *testing.T) {
	repo := &fakeRepo{policies: []policy.Policy{
		{PolicyID: "global-1", Name: "z-global", ScopeType: policy.ScopeGlobal, IsActive: true},
		{PolicyID: "entity-1", Name: "doc-entity", ScopeType: policy.ScopeEntity, ScopeKey: "document", IsActive: true},
		{PolicyID: "module-1", Name: "billing-module", ScopeType: policy.ScopeModule, ScopeKey: "billing", IsActive: true},
		{PolicyID: "inactive", Name: "a-inactive", ScopeType: policy.ScopeGlobal, IsActive: false},
		{PolicyID: "other-entity", Name: "other", ScopeType: policy.ScopeEntity, ScopeKey: "invoice", IsActive: true},
	}}
	res := policy.ResourceFacts{Type: "document", Module: "billing"}

	got, err := ApplicablePolicies(context.Background(), repo, "t1", res)
	if err != nil {
		t.Fatalf("ApplicablePolicies() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d policies, want 3 (entity, module, global — inactive and mismatched-entity excluded): %+v", len(got), got)
	}
	if got[0].PolicyID != "entity-1" || got[1].PolicyID != "module-1" || got[2].PolicyID != "global-1" {
		t.Errorf("unexpected order: %v", []string{got[0].PolicyID, got[1].PolicyID, got[2].PolicyID})
	}
}

func TestResolveVersion_DefaultsToPublished(t *testing.T) {
	repo := &fakeRepo{}
	v, err := ResolveVersion(context.Background(), repo, "t1", policy.Policy{PolicyID: "p1"}, policy.VersionSelection{})
	if err != nil {
		t.Fatalf("ResolveVersion() error = %v", err)
	}
	if v.VersionID != "v-p1" {
		t.Errorf("VersionID = %q, want %q", v.VersionID, "v-p1")
	}
}
