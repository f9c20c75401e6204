package memory

import (
	"context"
	"testing"
	"time"

	"github.com/policymesh/engine/internal/domain/policy"
)

func newTestPolicy(tenantID, policyID string) policy.Policy {
	return policy.Policy{
		TenantID:  tenantID,
		PolicyID:  policyID,
		Name:      "test policy",
		ScopeType: policy.ScopeGlobal,
		IsActive:  true,
	}
}

func TestPolicyRepository_ListAndGetPolicy(t *testing.T) {
	r := NewPolicyRepository()
	r.PutPolicy(newTestPolicy("t1", "p1"))
	r.PutPolicy(newTestPolicy("t2", "p2"))
	ctx := context.Background()

	got, err := r.ListPolicies(ctx, "t1")
	if err != nil {
		t.Fatalf("ListPolicies() error = %v", err)
	}
	if len(got) != 1 || got[0].PolicyID != "p1" {
		t.Fatalf("ListPolicies(t1) = %+v, want single p1", got)
	}

	p, err := r.GetPolicy(ctx, "t1", "p1")
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if p.Name != "test policy" {
		t.Errorf("GetPolicy() name = %q", p.Name)
	}

	if _, err := r.GetPolicy(ctx, "t2", "p1"); err != policy.ErrPolicyNotFound {
		t.Errorf("GetPolicy() cross-tenant = %v, want ErrPolicyNotFound", err)
	}
}

func TestPolicyRepository_ResolveVersion_Published(t *testing.T) {
	r := NewPolicyRepository()
	r.PutPolicy(newTestPolicy("t1", "p1"))
	r.PutVersion(policy.PolicyVersion{
		VersionID: "v1", PolicyID: "p1", VersionNo: 1,
		Status: policy.VersionPublished, PublishedAt: time.Now().Add(-time.Hour),
	}, nil)
	r.PutVersion(policy.PolicyVersion{
		VersionID: "v2", PolicyID: "p1", VersionNo: 2,
		Status: policy.VersionDraft,
	}, nil)

	v, err := r.ResolveVersion(context.Background(), "t1", "p1", policy.Published())
	if err != nil {
		t.Fatalf("ResolveVersion() error = %v", err)
	}
	if v.VersionID != "v1" {
		t.Errorf("ResolveVersion(published) = %q, want v1", v.VersionID)
	}
}

func TestPolicyRepository_ResolveVersion_Specific(t *testing.T) {
	r := NewPolicyRepository()
	r.PutVersion(policy.PolicyVersion{VersionID: "v1", PolicyID: "p1", VersionNo: 1, Status: policy.VersionDraft}, nil)
	r.PutVersion(policy.PolicyVersion{VersionID: "v2", PolicyID: "p1", VersionNo: 2, Status: policy.VersionDraft}, nil)

	v, err := r.ResolveVersion(context.Background(), "t1", "p1", policy.Specific("v2"))
	if err != nil {
		t.Fatalf("ResolveVersion() error = %v", err)
	}
	if v.VersionID != "v2" {
		t.Errorf("ResolveVersion(specific v2) = %q", v.VersionID)
	}

	if _, err := r.ResolveVersion(context.Background(), "t1", "p1", policy.Specific("missing")); err != policy.ErrVersionNotFound {
		t.Errorf("ResolveVersion(missing) = %v, want ErrVersionNotFound", err)
	}
}

func TestPolicyRepository_ResolveVersion_EffectiveAt(t *testing.T) {
	r := NewPolicyRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.PutVersion(policy.PolicyVersion{
		VersionID: "v1", PolicyID: "p1", VersionNo: 1,
		Status: policy.VersionPublished, PublishedAt: base,
	}, nil)
	r.PutVersion(policy.PolicyVersion{
		VersionID: "v2", PolicyID: "p1", VersionNo: 2,
		Status: policy.VersionPublished, PublishedAt: base.Add(30 * 24 * time.Hour),
	}, nil)

	v, err := r.ResolveVersion(context.Background(), "t1", "p1", policy.EffectiveAt(base.Add(10*24*time.Hour)))
	if err != nil {
		t.Fatalf("ResolveVersion() error = %v", err)
	}
	if v.VersionID != "v1" {
		t.Errorf("ResolveVersion(effectiveAt between) = %q, want v1", v.VersionID)
	}

	if _, err := r.ResolveVersion(context.Background(), "t1", "p1", policy.EffectiveAt(base.Add(-time.Hour))); err != policy.ErrVersionNotFound {
		t.Errorf("ResolveVersion(effectiveAt before any publish) = %v, want ErrVersionNotFound", err)
	}
}

func TestPolicyRepository_ListRules(t *testing.T) {
	r := NewPolicyRepository()
	rules := []policy.Rule{{RuleID: "r1", VersionID: "v1", IsActive: true}}
	r.PutVersion(policy.PolicyVersion{VersionID: "v1", PolicyID: "p1"}, rules)

	got, err := r.ListRules(context.Background(), "t1", "v1")
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(got) != 1 || got[0].RuleID != "r1" {
		t.Fatalf("ListRules() = %+v", got)
	}
}

func TestPolicyRepository_ResolveVersion_NoVersions(t *testing.T) {
	r := NewPolicyRepository()
	if _, err := r.ResolveVersion(context.Background(), "t1", "missing", policy.Published()); err != policy.ErrVersionNotFound {
		t.Errorf("ResolveVersion(no versions) = %v, want ErrVersionNotFound", err)
	}
}
