package oracle

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultQuoteTTL = 5 * time.Second

// CachingSource wraps a Source with a TTL cache and single-flight reads:
// concurrent callers asking for the same quote share one upstream call, and
// repeat callers within the TTL never hit the chain at all. Errors are not
// cached.
type CachingSource struct {
	next   Source
	cache  *QuoteCache
	group  singleflight.Group
	logger *zap.Logger
}

func NewCachingSource(next Source, cache *QuoteCache, logger *zap.Logger) *CachingSource {
	if cache == nil {
		cache = NewQuoteCache(defaultQuoteTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingSource{next: next, cache: cache, logger: logger}
}

func (s *CachingSource) QuoteAt(ctx context.Context, req QuoteRequest) (Quote, error) {
	key := req.CacheKey()
	if quote, ok := s.cache.Get(key); ok {
		return quote, nil
	}

	value, err, shared := s.group.Do(key, func() (interface{}, error) {
		// A flight that finished between our cache check and Do already
		// filled the cache.
		if quote, ok := s.cache.Get(key); ok {
			return quote, nil
		}
		quote, err := s.next.QuoteAt(ctx, req)
		if err != nil {
			return Quote{}, err
		}
		s.cache.Set(key, quote)
		return quote, nil
	})
	if err != nil {
		return Quote{}, err
	}
	if shared {
		s.logger.Debug("quote flight shared", zap.String("key", key))
	}
	return value.(Quote), nil
}

// CacheStats exposes the underlying cache counters for summary logging.
func (s *CachingSource) CacheStats() CacheStats {
	return s.cache.Stats()
}

// InvalidateCache drops every cached quote, forcing fresh reads.
func (s *CachingSource) InvalidateCache() {
	s.cache.Clear()
}
