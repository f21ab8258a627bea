package pricing

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Sentinel conditions providers report. The service treats both as
// "try the next provider"; they exist so logs can tell them apart.
var (
	// ErrNotFound means the provider answered but does not know the card.
	ErrNotFound = errors.New("card not found")

	// ErrUnavailable means the provider could not be consulted at all
	// (missing credentials, exhausted retries, permanent auth failure).
	ErrUnavailable = errors.New("price source unavailable")
)

// Lookup identifies the printing to price.
type Lookup struct {
	Name            string
	SetCode         string
	CollectorNumber string
}

// Key is the cache key for a lookup: name and set code, case-folded.
// Collector number is deliberately excluded; printings within a set
// share a market price for sorting purposes.
type Key struct {
	Name    string
	SetCode string
}

// CacheKey derives the cache key for a lookup.
func CacheKey(l Lookup) Key {
	return Key{
		Name:    strings.ToLower(strings.TrimSpace(l.Name)),
		SetCode: strings.ToLower(strings.TrimSpace(l.SetCode)),
	}
}

// Quote is one price observation.
//
// A quote with Priced=false is still a valid, cacheable result: it
// records that the sources were consulted and had no price.
type Quote struct {
	// USD is the market price. Meaningful only when Priced is true.
	USD float64

	// Priced reports whether a source supplied an amount.
	Priced bool

	// Source names the provider that supplied the quote, or the last
	// provider consulted when nothing priced it.
	Source string

	// FetchedAt is when the quote was obtained, used for TTL expiry.
	FetchedAt time.Time
}

// Provider is one price source. Implementations must be safe for use
// from the single pipeline worker plus CLI diagnostic calls.
type Provider interface {
	// Name identifies the provider in quotes, logs, and configuration.
	Name() string

	// Fetch prices one card. A provider that answers but has no
	// price returns ErrNotFound; one that cannot be consulted
	// returns ErrUnavailable (possibly wrapped).
	Fetch(ctx context.Context, look Lookup) (Quote, error)
}
