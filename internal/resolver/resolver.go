// internal/resolver/resolver.go
// Multi-strategy element resolution. A descriptor recorded by the capture
// layer (visible text, structural locator, accessible label, or XPath) is
// resolved back to a live element through an ordered fallback chain with a
// bounded cache in front.
package resolver

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/webloop/webloop/api/schemas"
	"github.com/webloop/webloop/internal/dom"
)

// Resolver looks up page elements from target descriptors. It never mutates
// the document. One resolver serves one engine instance; the cache is not
// shared further than that.
type Resolver struct {
	source     dom.Source
	logger     *zap.Logger
	strategies []strategy

	mu    sync.Mutex
	cache *refCache
}

// New builds a resolver over the given document source. cacheSize <= 0
// selects DefaultCacheSize.
func New(source dom.Source, cacheSize int, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		source:     source,
		logger:     logger.Named("resolver"),
		strategies: orderedStrategies(),
		cache:      newRefCache(cacheSize),
	}
}

// Resolve maps a descriptor to a live element reference. The strategy order
// is fixed and first-match-wins, so repeated calls against an unchanged
// document are deterministic. A miss returns a ResolutionError wrapping
// schemas.ErrNotFound; the caller decides whether that fails the job.
func (r *Resolver) Resolve(ctx context.Context, descriptor string) (*dom.ElementRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := r.source.Document(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Cache hit only counts while the reference is still attached to the
	// live document; a stale entry is dropped and resolution re-scans.
	if ref, ok := r.cache.get(descriptor); ok {
		if ref.Attached(doc) {
			return ref, nil
		}
		r.cache.remove(descriptor)
		r.logger.Debug("Evicted detached cache entry", zap.String("descriptor", descriptor))
	}

	for _, s := range r.strategies {
		n := r.runStrategy(s, doc, descriptor)
		if n == nil {
			continue
		}
		ref := &dom.ElementRef{Node: n, XPath: dom.UniqueXPath(n)}
		r.cache.put(descriptor, ref)
		r.logger.Debug("Resolved descriptor",
			zap.String("descriptor", descriptor),
			zap.String("strategy", s.name),
			zap.String("xpath", ref.XPath))
		return ref, nil
	}

	return nil, &schemas.ResolutionError{Descriptor: descriptor}
}

// runStrategy isolates a single strategy. A panic inside one (malformed
// structural or path expression deep in a library) is contained and counted
// as "no match", not a resolver crash.
func (r *Resolver) runStrategy(s strategy, doc *dom.Document, descriptor string) (n *html.Node) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug("Strategy panicked, treating as no match",
				zap.String("strategy", s.name),
				zap.Any("panic", rec))
			n = nil
		}
	}()
	return s.fn(doc, descriptor)
}

// CacheLen reports the current number of cached references.
func (r *Resolver) CacheLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.len()
}
