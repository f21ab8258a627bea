package pricing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smart-life-tech/card-sorter/internal/logging"
)

// Service is the price resolver: cache first, then a ranked walk of
// the providers. It never returns an error; a cycle that cannot be
// priced yields an unpriced quote for the routing layer to flag.
type Service struct {
	cache  Cache
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	providers []Provider
}

// NewService builds a resolver over the given providers, consulted in
// order. A nil cache gets a MemoryCache with the default TTL.
func NewService(cache Cache, logger *slog.Logger, providers ...Provider) *Service {
	if cache == nil {
		cache = NewMemoryCache(0, nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cache:     cache,
		logger:    logger.With("component", "pricing"),
		now:       time.Now,
		providers: providers,
	}
}

// Reorder moves the named provider to the front of the ranked list.
// Unknown names leave the order untouched. This is how the operator's
// "price source" preference takes effect without rebuilding anything.
func (s *Service) Reorder(primary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.providers {
		if p.Name() == primary && i != 0 {
			reordered := make([]Provider, 0, len(s.providers))
			reordered = append(reordered, p)
			reordered = append(reordered, s.providers[:i]...)
			reordered = append(reordered, s.providers[i+1:]...)
			s.providers = reordered
			return
		}
	}
}

// ranked returns a snapshot of the provider order.
func (s *Service) ranked() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Provider, len(s.providers))
	copy(out, s.providers)
	return out
}

// Price resolves a quote for the lookup.
//
// Cache hits return immediately with no network interaction. On a miss
// every provider is tried in rank order until one produces a priced
// quote; whatever the walk ends with, priced or not, is stored so the
// next cycle for the same card is a hit either way.
func (s *Service) Price(ctx context.Context, look Lookup) Quote {
	key := CacheKey(look)
	if quote, ok := s.cache.Get(key); ok {
		return quote
	}

	quote := Quote{Source: "none", FetchedAt: s.now()}
	for _, provider := range s.ranked() {
		got, err := provider.Fetch(ctx, look)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, ErrNotFound) {
				level = slog.LevelDebug
			}
			s.logger.Log(ctx, level, "price source failed",
				"source", provider.Name(), "name", look.Name, "error", err)
			continue
		}
		quote = got
		if quote.Priced {
			break
		}
	}

	s.cache.Put(key, quote)
	return quote
}

// PurgeExpired drops stale cache entries, returning the count. Exposed
// for the CLI cache maintenance command.
func (s *Service) PurgeExpired() int { return s.cache.PurgeExpired() }

// CacheLen reports the current cache population.
func (s *Service) CacheLen() int { return s.cache.Len() }
