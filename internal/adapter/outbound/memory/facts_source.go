package memory

import (
	"context"
	"sync"

	"github.com/policymesh/engine/internal/domain/policy"
)

// FactsSource is a minimal in-memory policy.FactsSource backed by
// pre-seeded maps, for CLI fixtures and tests where subject/resource
// attributes are known up front rather than fetched from an upstream
// identity/resource service.
type FactsSource struct {
	mu        sync.RWMutex
	subjects  map[string]policy.SubjectFacts // tenantID/principalID -> facts
	resources map[string]policy.ResourceFacts
}

// NewFactsSource builds an empty FactsSource.
func NewFactsSource() *FactsSource {
	return &FactsSource{
		subjects:  make(map[string]policy.SubjectFacts),
		resources: make(map[string]policy.ResourceFacts),
	}
}

// PutSubject seeds subject facts for (tenantID, principalID).
func (f *FactsSource) PutSubject(tenantID string, facts policy.SubjectFacts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects[tenantID+"/"+facts.PrincipalID] = facts
}

// PutResource seeds resource facts for (tenantID, ref).
func (f *FactsSource) PutResource(tenantID string, ref policy.ResourceRef, facts policy.ResourceFacts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[tenantID+"/"+ref.Type+"/"+ref.ID+"/"+ref.VersionID] = facts
}

// ResolveSubject implements policy.FactsSource.
func (f *FactsSource) ResolveSubject(ctx context.Context, tenantID, principalID string) (policy.SubjectFacts, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	facts, ok := f.subjects[tenantID+"/"+principalID]
	if !ok {
		return policy.SubjectFacts{}, policy.NewError(policy.CodeFactResolution, "no subject facts seeded for "+principalID, policy.ErrFactResolution)
	}
	return facts, nil
}

// ResolveResource implements policy.FactsSource.
func (f *FactsSource) ResolveResource(ctx context.Context, tenantID string, ref policy.ResourceRef) (policy.ResourceFacts, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	facts, ok := f.resources[tenantID+"/"+ref.Type+"/"+ref.ID+"/"+ref.VersionID]
	if !ok {
		return policy.ResourceFacts{}, policy.NewError(policy.CodeFactResolution, "no resource facts seeded for "+ref.Type+"/"+ref.ID, policy.ErrFactResolution)
	}
	return facts, nil
}

var _ policy.FactsSource = (*FactsSource)(nil)
