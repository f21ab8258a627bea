package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedProvider returns canned results and counts calls.
type scriptedProvider struct {
	name  string
	quote Quote
	err   error
	calls atomic.Int64
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Fetch(ctx context.Context, look Lookup) (Quote, error) {
	p.calls.Add(1)
	if p.err != nil {
		return Quote{}, p.err
	}
	q := p.quote
	q.Source = p.name
	return q, nil
}

func TestServicePrimaryWins(t *testing.T) {
	primary := &scriptedProvider{name: "scryfall", quote: Quote{USD: 0.5, Priced: true}}
	fallback := &scriptedProvider{name: "tcgplayer", quote: Quote{USD: 9, Priced: true}}
	svc := NewService(NewMemoryCache(time.Hour, nil), nil, primary, fallback)

	quote := svc.Price(context.Background(), Lookup{Name: "Lightning Bolt"})
	if !quote.Priced || quote.USD != 0.5 || quote.Source != "scryfall" {
		t.Errorf("quote = %+v", quote)
	}
	if fallback.calls.Load() != 0 {
		t.Errorf("fallback consulted despite primary success")
	}
}

func TestServiceFallbackOnPrimaryFailure(t *testing.T) {
	tests := []struct {
		name       string
		primaryErr error
	}{
		{"not found", ErrNotFound},
		{"unavailable", ErrUnavailable},
		{"wrapped", fmt.Errorf("status 500: %w", ErrUnavailable)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &scriptedProvider{name: "scryfall", err: tt.primaryErr}
			fallback := &scriptedProvider{name: "tcgplayer", quote: Quote{USD: 3, Priced: true}}
			svc := NewService(NewMemoryCache(time.Hour, nil), nil, primary, fallback)

			quote := svc.Price(context.Background(), Lookup{Name: "Sol Ring"})
			if !quote.Priced || quote.Source != "tcgplayer" {
				t.Errorf("quote = %+v, want priced tcgplayer quote", quote)
			}
		})
	}
}

func TestServiceBothFailYieldsUnpriced(t *testing.T) {
	primary := &scriptedProvider{name: "scryfall", err: ErrUnavailable}
	fallback := &scriptedProvider{name: "tcgplayer", err: ErrNotFound}
	svc := NewService(NewMemoryCache(time.Hour, nil), nil, primary, fallback)

	quote := svc.Price(context.Background(), Lookup{Name: "Obscure Card"})
	if quote.Priced {
		t.Errorf("quote should be unpriced: %+v", quote)
	}
	// The non-answer is cached too, so the next cycle does not retry.
	svc.Price(context.Background(), Lookup{Name: "Obscure Card"})
	if primary.calls.Load() != 1 {
		t.Errorf("primary called %d times, want 1", primary.calls.Load())
	}
}

func TestServiceCacheHitSkipsNetwork(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(24*time.Hour, clock.Now)
	primary := &scriptedProvider{name: "scryfall", quote: Quote{USD: 1, Priced: true}}
	svc := NewService(cache, nil, primary)

	look := Lookup{Name: "Lightning Bolt", SetCode: "m10"}
	svc.Price(context.Background(), look)
	svc.Price(context.Background(), look)
	if got := primary.calls.Load(); got != 1 {
		t.Fatalf("provider called %d times within TTL, want 1", got)
	}

	// After expiry exactly one re-fetch happens.
	clock.Advance(25 * time.Hour)
	svc.Price(context.Background(), look)
	svc.Price(context.Background(), look)
	if got := primary.calls.Load(); got != 2 {
		t.Errorf("provider called %d times after expiry, want 2", got)
	}
}

func TestServiceReorder(t *testing.T) {
	scryfall := &scriptedProvider{name: "scryfall", quote: Quote{USD: 1, Priced: true}}
	tcg := &scriptedProvider{name: "tcgplayer", quote: Quote{USD: 2, Priced: true}}
	svc := NewService(NewMemoryCache(time.Hour, nil), nil, scryfall, tcg)

	svc.Reorder("tcgplayer")
	quote := svc.Price(context.Background(), Lookup{Name: "Sol Ring"})
	if quote.Source != "tcgplayer" {
		t.Errorf("source = %q, want tcgplayer after reorder", quote.Source)
	}

	svc.Reorder("nonexistent") // no-op
	quote = svc.Price(context.Background(), Lookup{Name: "Counterspell"})
	if quote.Source != "tcgplayer" {
		t.Errorf("unknown name reordered the list: %q", quote.Source)
	}
}

func TestScryfallFetch(t *testing.T) {
	var exactCalls, printingCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/named":
			exactCalls.Add(1)
			if r.URL.Query().Get("exact") != "Lightning Bolt" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, `{"prices":{"usd":"1.50"}}`)
		case "/cards/m10/146":
			printingCalls.Add(1)
			fmt.Fprint(w, `{"prices":{"usd":"0.75"}}`)
		case "/cards/m10/999":
			fmt.Fprint(w, `{"prices":{"usd":null}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	provider := NewScryfall(NewLimiter(0, nil, func(time.Duration) {}),
		WithScryfallBaseURL(server.URL))

	t.Run("exact name", func(t *testing.T) {
		quote, err := provider.Fetch(context.Background(), Lookup{Name: "Lightning Bolt"})
		if err != nil {
			t.Fatal(err)
		}
		if !quote.Priced || quote.USD != 1.50 || quote.Source != "scryfall" {
			t.Errorf("quote = %+v", quote)
		}
	})

	t.Run("printing endpoint preferred with hint", func(t *testing.T) {
		quote, err := provider.Fetch(context.Background(),
			Lookup{Name: "Lightning Bolt", SetCode: "m10", CollectorNumber: "146"})
		if err != nil {
			t.Fatal(err)
		}
		if quote.USD != 0.75 {
			t.Errorf("usd = %v, want 0.75", quote.USD)
		}
	})

	t.Run("null price is a valid unpriced quote", func(t *testing.T) {
		quote, err := provider.Fetch(context.Background(),
			Lookup{Name: "Promo", SetCode: "m10", CollectorNumber: "999"})
		if err != nil {
			t.Fatal(err)
		}
		if quote.Priced {
			t.Errorf("quote should be unpriced: %+v", quote)
		}
	})

	t.Run("unknown card maps to ErrNotFound", func(t *testing.T) {
		_, err := provider.Fetch(context.Background(), Lookup{Name: "No Such Card"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestTCGplayerTokenAndPricing(t *testing.T) {
	var tokenCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			tokenCalls.Add(1)
			if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"access_token":"tok-1","expires_in":900}`)
		case r.URL.Path == "/catalog/products":
			if r.Header.Get("Authorization") != "bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"results":[
				{"productId":11,"extendedData":[{"name":"Set Code","value":"LEA"}]},
				{"productId":22,"extendedData":[{"name":"Set Code","value":"M10"}]}
			]}`)
		case r.URL.Path == "/pricing/product/22":
			fmt.Fprint(w, `{"results":[{"marketPrice":null},{"marketPrice":2.35}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	provider := NewTCGplayer("pub", "sec",
		WithTCGplayerBaseURL(server.URL),
		WithTCGplayerSleep(func(time.Duration) {}))

	quote, err := provider.Fetch(context.Background(),
		Lookup{Name: "Lightning Bolt", SetCode: "m10"})
	if err != nil {
		t.Fatal(err)
	}
	if !quote.Priced || quote.USD != 2.35 || quote.Source != "tcgplayer" {
		t.Errorf("quote = %+v", quote)
	}

	// Second fetch reuses the cached token.
	if _, err := provider.Fetch(context.Background(),
		Lookup{Name: "Lightning Bolt", SetCode: "m10"}); err != nil {
		t.Fatal(err)
	}
	if tokenCalls.Load() != 1 {
		t.Errorf("token fetched %d times, want 1", tokenCalls.Load())
	}
}

func TestTCGplayerRetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok-2","expires_in":900}`)
	}))
	defer server.Close()

	var slept []time.Duration
	provider := NewTCGplayer("pub", "sec",
		WithTCGplayerBaseURL(server.URL),
		WithTCGplayerSleep(func(d time.Duration) { slept = append(slept, d) }))

	_, err := provider.Fetch(context.Background(), Lookup{Name: "Sol Ring"})
	// The catalog endpoint 404s in this server; we only care that the
	// token exchange survived the 429s.
	if errors.Is(err, ErrUnavailable) && attempts.Load() < 3 {
		t.Fatalf("gave up after %d attempts: %v", attempts.Load(), err)
	}
	if len(slept) != 2 || slept[0] != 500*time.Millisecond || slept[1] != time.Second {
		t.Errorf("backoff sleeps = %v, want [500ms 1s]", slept)
	}
}

func TestTCGplayerWithoutCredentials(t *testing.T) {
	provider := NewTCGplayer("", "")
	_, err := provider.Fetch(context.Background(), Lookup{Name: "Sol Ring"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
