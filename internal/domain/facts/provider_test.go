package facts

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/policymesh/engine/internal/domain/policy"
)

type countingSource struct {
	subjectCalls  atomic.Int64
	resourceCalls atomic.Int64
	resourceErr   error
}

func (s *countingSource) ResolveSubject(ctx context.Context, tenantID, principalID string) (policy.SubjectFacts, error) {
	s.subjectCalls.Add(1)
	return policy.SubjectFacts{PrincipalID: principalID}, nil
}

func (s *countingSource) ResolveResource(ctx context.Context, tenantID string, ref policy.ResourceRef) (policy.ResourceFacts, error) {
	s.resourceCalls.Add(1)
	if s.resourceErr != nil {
		return policy.ResourceFacts{}, s.resourceErr
	}
	return policy.ResourceFacts{ID: ref.ID}, nil
}

type recordingObserver struct {
	hits, misses map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{hits: map[string]int{}, misses: map[string]int{}}
}

func (o *recordingObserver) RecordFactsCacheHit(kind string)  { o.hits[kind]++ }
func (o *recordingObserver) RecordFactsCacheMiss(kind string) { o.misses[kind]++ }

func TestProvider_SetCacheObserver_RecordsHitsAndMisses(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src, WithSubjectTTL(time.Minute))
	obs := newRecordingObserver()
	p.SetCacheObserver(obs)

	if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}
	if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}

	if obs.misses["subject"] != 1 {
		t.Errorf("misses[subject] = %d, want 1", obs.misses["subject"])
	}
	if obs.hits["subject"] != 1 {
		t.Errorf("hits[subject] = %d, want 1", obs.hits["subject"])
	}
}

func TestProvider_SetCacheObserver_NilIsSafe(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src)
	p.SetCacheObserver(nil)

	if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}
}

func TestProvider_ResolveSubject_CachesWithinTTL(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src, WithSubjectTTL(time.Minute))

	for i := 0; i < 3; i++ {
		if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
			t.Fatalf("ResolveSubject() error = %v", err)
		}
	}
	if got := src.subjectCalls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1 (cached)", got)
	}
}

func TestProvider_ResolveSubject_ExpiresAfterTTL(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src, WithSubjectTTL(time.Millisecond))

	if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}
	if got := src.subjectCalls.Load(); got != 2 {
		t.Errorf("source called %d times, want 2 (TTL expired)", got)
	}
}

func TestProvider_ResolveFacts_FetchesConcurrently(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src)

	both, err := p.ResolveFacts(context.Background(), "t1", "alice", policy.ResourceRef{TenantID: "t1", Type: "document", ID: "doc-1"})
	if err != nil {
		t.Fatalf("ResolveFacts() error = %v", err)
	}
	if both.Subject.PrincipalID != "alice" || both.Resource.ID != "doc-1" {
		t.Errorf("unexpected result: %+v", both)
	}
}

func TestProvider_ResolveFacts_PropagatesResourceError(t *testing.T) {
	src := &countingSource{resourceErr: errors.New("boom")}
	p := NewProvider(src)

	_, err := p.ResolveFacts(context.Background(), "t1", "alice", policy.ResourceRef{TenantID: "t1", Type: "document", ID: "doc-1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if policy.CodeOf(err) != policy.CodeFactResolution {
		t.Errorf("CodeOf(err) = %v, want %v", policy.CodeOf(err), policy.CodeFactResolution)
	}
}

func TestProvider_InvalidateSubject(t *testing.T) {
	src := &countingSource{}
	p := NewProvider(src, WithSubjectTTL(time.Minute))

	if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}
	p.InvalidateSubject("t1", "alice")
	if _, err := p.ResolveSubject(context.Background(), "t1", "alice"); err != nil {
		t.Fatalf("ResolveSubject() error = %v", err)
	}
	if got := src.subjectCalls.Load(); got != 2 {
		t.Errorf("source called %d times, want 2 (invalidated)", got)
	}
}
