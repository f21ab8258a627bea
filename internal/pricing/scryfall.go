package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const scryfallBaseURL = "https://api.scryfall.com"

// Scryfall prices cards from the public Scryfall API. It is the
// default primary provider: no credentials, generous data, but a
// published request-rate limit that the shared limiter respects.
type Scryfall struct {
	baseURL string
	client  *http.Client
	limiter *Limiter
	now     func() time.Time
}

// ScryfallOption customises provider construction.
type ScryfallOption func(*Scryfall)

// WithScryfallBaseURL overrides the API endpoint (used in tests).
func WithScryfallBaseURL(base string) ScryfallOption {
	return func(s *Scryfall) { s.baseURL = base }
}

// WithScryfallHTTPClient overrides the HTTP client.
func WithScryfallHTTPClient(c *http.Client) ScryfallOption {
	return func(s *Scryfall) { s.client = c }
}

// WithScryfallClock overrides the quote timestamp clock.
func WithScryfallClock(now func() time.Time) ScryfallOption {
	return func(s *Scryfall) { s.now = now }
}

// NewScryfall builds the provider. The limiter is shared process-wide;
// every Fetch waits on it before touching the network.
func NewScryfall(limiter *Limiter, opts ...ScryfallOption) *Scryfall {
	s := &Scryfall{
		baseURL: scryfallBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		limiter: limiter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewLimiter(0, nil, nil)
	}
	return s
}

// Name implements Provider.
func (s *Scryfall) Name() string { return "scryfall" }

// scryfallCard is the subset of the card payload we read.
type scryfallCard struct {
	Prices struct {
		USD string `json:"usd"`
	} `json:"prices"`
}

// Fetch implements Provider. With a set code and collector number it
// prices the exact printing; otherwise it falls back to an exact-name
// lookup and takes whatever printing Scryfall considers canonical.
func (s *Scryfall) Fetch(ctx context.Context, look Lookup) (Quote, error) {
	var endpoint string
	if look.SetCode != "" && look.CollectorNumber != "" {
		endpoint = fmt.Sprintf("%s/cards/%s/%s",
			s.baseURL, url.PathEscape(look.SetCode), url.PathEscape(look.CollectorNumber))
	} else {
		endpoint = fmt.Sprintf("%s/cards/named?exact=%s", s.baseURL, url.QueryEscape(look.Name))
	}

	s.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("scryfall request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("scryfall: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Quote{}, fmt.Errorf("scryfall %q: %w", look.Name, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return Quote{}, fmt.Errorf("scryfall status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var card scryfallCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return Quote{}, fmt.Errorf("scryfall decode: %w", err)
	}

	quote := Quote{Source: s.Name(), FetchedAt: s.now()}
	if card.Prices.USD != "" {
		usd, err := strconv.ParseFloat(card.Prices.USD, 64)
		if err != nil {
			return Quote{}, fmt.Errorf("scryfall price %q: %w", card.Prices.USD, err)
		}
		quote.USD = usd
		quote.Priced = true
	}
	return quote, nil
}
