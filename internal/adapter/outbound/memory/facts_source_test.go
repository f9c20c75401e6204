package memory

import (
	"context"
	"testing"

	"github.com/policymesh/engine/internal/domain/policy"
)

func TestFactsSource_ResolveSubject_SeededAndMissing(t *testing.T) {
	t.Parallel()
	fs := NewFactsSource()
	fs.PutSubject("tenant-1", policy.SubjectFacts{PrincipalID: "alice", Roles: []string{"admin"}})

	got, err := fs.ResolveSubject(context.Background(), "tenant-1", "alice")
	if err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}
	if got.PrincipalID != "alice" || len(got.Roles) != 1 {
		t.Errorf("ResolveSubject() = %+v, want alice/admin", got)
	}

	if _, err := fs.ResolveSubject(context.Background(), "tenant-1", "bob"); err == nil {
		t.Error("ResolveSubject() for unseeded principal expected error, got nil")
	}
}

func TestFactsSource_ResolveResource_SeededAndMissing(t *testing.T) {
	t.Parallel()
	fs := NewFactsSource()
	ref := policy.ResourceRef{TenantID: "tenant-1", Type: "document", ID: "doc-1"}
	fs.PutResource("tenant-1", ref, policy.ResourceFacts{Type: "document", ID: "doc-1", OwnerID: "alice"})

	got, err := fs.ResolveResource(context.Background(), "tenant-1", ref)
	if err != nil {
		t.Fatalf("ResolveResource() error = %v", err)
	}
	if got.OwnerID != "alice" {
		t.Errorf("ResolveResource().OwnerID = %q, want alice", got.OwnerID)
	}

	missing := policy.ResourceRef{TenantID: "tenant-1", Type: "document", ID: "doc-2"}
	if _, err := fs.ResolveResource(context.Background(), "tenant-1", missing); err == nil {
		t.Error("ResolveResource() for unseeded resource expected error, got nil")
	}
}
