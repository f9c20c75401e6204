// Package facts implements C7: resolving subject/resource attribute
// snapshots through independently-TTL'd caches in front of a
// policy.FactsSource, fetching subject and resource facts concurrently
// via sourcegraph/conc (spec §4.7).
package facts

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/policymesh/engine/internal/domain/policy"
)

// Defaults match spec §4.7's independent TTLs per fact kind.
const (
	DefaultSubjectTTL  = 60 * time.Second
	DefaultResourceTTL = 30 * time.Second
	DefaultDerivedTTL  = 10 * time.Second
)

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// ttlCache is a minimal TTL-bounded map cache. It deliberately allows
// concurrent cache-miss stampedes on the same key rather than
// deduplicating in-flight fetches — spec §4.7/§5 treat a duplicate
// upstream fetch as acceptable, not a correctness bug.
type ttlCache[T any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]cacheEntry[T]
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{ttl: ttl, m: make(map[string]cacheEntry[T])}
}

func (c *ttlCache[T]) get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[T]) put(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cacheEntry[T]{value: v, expiresAt: time.Now().Add(c.ttl)}
}

func (c *ttlCache[T]) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

func (c *ttlCache[T]) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string]cacheEntry[T])
}

// CacheObserver receives cache hit/miss events keyed by fact kind
// ("subject" or "resource"), letting an outer layer (e.g. Prometheus
// metrics) observe cache behavior without this package depending on it.
type CacheObserver interface {
	RecordFactsCacheHit(kind string)
	RecordFactsCacheMiss(kind string)
}

// Provider wraps a policy.FactsSource with per-kind TTL caches and
// resolves a request's subject + resource facts concurrently.
type Provider struct {
	source   policy.FactsSource
	subject  *ttlCache[policy.SubjectFacts]
	resource *ttlCache[policy.ResourceFacts]
	observer CacheObserver
}

// SetCacheObserver attaches an observer for cache hit/miss events. Pass
// nil to detach.
func (p *Provider) SetCacheObserver(o CacheObserver) { p.observer = o }

func (p *Provider) recordHit(kind string) {
	if p.observer != nil {
		p.observer.RecordFactsCacheHit(kind)
	}
}

func (p *Provider) recordMiss(kind string) {
	if p.observer != nil {
		p.observer.RecordFactsCacheMiss(kind)
	}
}

// Option configures a Provider's cache TTLs.
type Option func(*Provider)

// WithSubjectTTL overrides the subject-fact cache TTL.
func WithSubjectTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.subject = newTTLCache[policy.SubjectFacts](ttl) }
}

// WithResourceTTL overrides the resource-fact cache TTL.
func WithResourceTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.resource = newTTLCache[policy.ResourceFacts](ttl) }
}

// NewProvider builds a Provider over source with default TTLs, applying
// any overrides.
func NewProvider(source policy.FactsSource, opts ...Option) *Provider {
	p := &Provider{
		source:   source,
		subject:  newTTLCache[policy.SubjectFacts](DefaultSubjectTTL),
		resource: newTTLCache[policy.ResourceFacts](DefaultResourceTTL),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func subjectKey(tenantID, principalID string) string { return tenantID + "/" + principalID }
func resourceKey(ref policy.ResourceRef) string {
	return ref.TenantID + "/" + ref.Type + "/" + ref.ID + "/" + ref.VersionID
}

// ResolveSubject returns cached subject facts or fetches and caches
// them on miss.
func (p *Provider) ResolveSubject(ctx context.Context, tenantID, principalID string) (policy.SubjectFacts, error) {
	key := subjectKey(tenantID, principalID)
	if v, ok := p.subject.get(key); ok {
		p.recordHit("subject")
		return v, nil
	}
	p.recordMiss("subject")
	v, err := p.source.ResolveSubject(ctx, tenantID, principalID)
	if err != nil {
		return policy.SubjectFacts{}, policy.NewError(policy.CodeFactResolution, "failed to resolve subject facts", err)
	}
	p.subject.put(key, v)
	return v, nil
}

// ResolveResource returns cached resource facts or fetches and caches
// them on miss.
func (p *Provider) ResolveResource(ctx context.Context, ref policy.ResourceRef) (policy.ResourceFacts, error) {
	key := resourceKey(ref)
	if v, ok := p.resource.get(key); ok {
		p.recordHit("resource")
		return v, nil
	}
	p.recordMiss("resource")
	v, err := p.source.ResolveResource(ctx, ref.TenantID, ref)
	if err != nil {
		return policy.ResourceFacts{}, policy.NewError(policy.CodeFactResolution, "failed to resolve resource facts", err)
	}
	p.resource.put(key, v)
	return v, nil
}

// Both is the fact pair ResolveFacts fetches concurrently.
type Both struct {
	Subject  policy.SubjectFacts
	Resource policy.ResourceFacts
}

// ResolveFacts fetches subject and resource facts concurrently using a
// sourcegraph/conc error pool bound to ctx: the first failing fetch
// cancels the other and its error is returned, instead of hand-rolled
// goroutine + channel plumbing.
func (p *Provider) ResolveFacts(ctx context.Context, tenantID, principalID string, ref policy.ResourceRef) (Both, error) {
	var result Both
	pl := pool.New().WithContext(ctx).WithCancelOnError()

	pl.Go(func(ctx context.Context) error {
		s, err := p.ResolveSubject(ctx, tenantID, principalID)
		if err != nil {
			return err
		}
		result.Subject = s
		return nil
	})
	pl.Go(func(ctx context.Context) error {
		r, err := p.ResolveResource(ctx, ref)
		if err != nil {
			return err
		}
		result.Resource = r
		return nil
	})

	if err := pl.Wait(); err != nil {
		return Both{}, err
	}
	return result, nil
}

// InvalidateSubject evicts one cached subject-fact entry, used when an
// upstream hot-reload signals a principal's attributes changed.
func (p *Provider) InvalidateSubject(tenantID, principalID string) {
	p.subject.invalidate(subjectKey(tenantID, principalID))
}

// InvalidateResource evicts one cached resource-fact entry.
func (p *Provider) InvalidateResource(ref policy.ResourceRef) {
	p.resource.invalidate(resourceKey(ref))
}

// InvalidateAll clears every cached fact, subject and resource alike.
func (p *Provider) InvalidateAll() {
	p.subject.invalidateAll()
	p.resource.invalidateAll()
}
