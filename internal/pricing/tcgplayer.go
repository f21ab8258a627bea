package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tcgplayerBaseURL = "https://api.tcgplayer.com"

	// tcgCategoryMagic is TCGplayer's catalog category for Magic cards.
	tcgCategoryMagic = 1

	// tokenLeeway refreshes the bearer token slightly before its
	// advertised expiry to avoid racing the server.
	tokenLeeway = 30 * time.Second

	tcgMaxAttempts     = 3
	tcgInitialBackoff  = 500 * time.Millisecond
	tcgRequestTimeout  = 10 * time.Second
	defaultTokenExpiry = 900 * time.Second
)

// TCGplayer prices cards from the TCGplayer API. It is the fallback
// provider: it needs client credentials and two round trips per card
// (catalog search, then pricing), so Scryfall goes first.
type TCGplayer struct {
	baseURL   string
	client    *http.Client
	publicKey string
	secretKey string
	now       func() time.Time
	sleep     func(time.Duration)

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// TCGplayerOption customises provider construction.
type TCGplayerOption func(*TCGplayer)

// WithTCGplayerBaseURL overrides the API endpoint (used in tests).
func WithTCGplayerBaseURL(base string) TCGplayerOption {
	return func(t *TCGplayer) { t.baseURL = strings.TrimRight(base, "/") }
}

// WithTCGplayerHTTPClient overrides the HTTP client.
func WithTCGplayerHTTPClient(c *http.Client) TCGplayerOption {
	return func(t *TCGplayer) { t.client = c }
}

// WithTCGplayerClock overrides the clock used for token expiry and
// quote timestamps.
func WithTCGplayerClock(now func() time.Time) TCGplayerOption {
	return func(t *TCGplayer) { t.now = now }
}

// WithTCGplayerSleep overrides the backoff sleep (used in tests).
func WithTCGplayerSleep(sleep func(time.Duration)) TCGplayerOption {
	return func(t *TCGplayer) { t.sleep = sleep }
}

// NewTCGplayer builds the provider. Empty credentials are allowed; the
// provider then reports ErrUnavailable on every Fetch, which the
// service treats as "no fallback configured".
func NewTCGplayer(publicKey, secretKey string, opts ...TCGplayerOption) *TCGplayer {
	t := &TCGplayer{
		baseURL:   tcgplayerBaseURL,
		client:    &http.Client{Timeout: tcgRequestTimeout},
		publicKey: publicKey,
		secretKey: secretKey,
		now:       time.Now,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Provider.
func (t *TCGplayer) Name() string { return "tcgplayer" }

// Fetch implements Provider.
func (t *TCGplayer) Fetch(ctx context.Context, look Lookup) (Quote, error) {
	token, err := t.ensureToken(ctx)
	if err != nil {
		return Quote{}, err
	}

	productID, err := t.findProduct(ctx, token, look)
	if err != nil {
		return Quote{}, err
	}

	price, ok, err := t.marketPrice(ctx, token, productID)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{Source: t.Name(), FetchedAt: t.now()}
	if ok {
		quote.USD = price
		quote.Priced = true
	}
	return quote, nil
}

// ensureToken returns a live bearer token, performing the
// client-credential exchange when the cached one is missing or near
// expiry. Transient failures are retried with backoff; a definitive
// rejection degrades to ErrUnavailable.
func (t *TCGplayer) ensureToken(ctx context.Context) (string, error) {
	t.tokenMu.Lock()
	defer t.tokenMu.Unlock()

	if t.token != "" && t.now().Add(tokenLeeway).Before(t.tokenExpiry) {
		return t.token, nil
	}
	if t.publicKey == "" || t.secretKey == "" {
		return "", fmt.Errorf("tcgplayer credentials not configured: %w", ErrUnavailable)
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.publicKey},
		"client_secret": {t.secretKey},
	}

	resp, err := t.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			t.baseURL+"/token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bad credentials are permanent; do not keep knocking.
		return "", fmt.Errorf("tcgplayer token status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("tcgplayer token decode: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("tcgplayer token empty: %w", ErrUnavailable)
	}

	expiry := time.Duration(payload.ExpiresIn) * time.Second
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}
	t.token = payload.AccessToken
	t.tokenExpiry = t.now().Add(expiry)
	return t.token, nil
}

// doWithRetry executes a request, retrying 429 and 5xx responses with
// doubling backoff. The request is rebuilt per attempt because bodies
// are single-use.
func (t *TCGplayer) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	backoff := tcgInitialBackoff
	var lastStatus int
	for attempt := 0; attempt < tcgMaxAttempts; attempt++ {
		if attempt > 0 {
			t.sleep(backoff)
			backoff *= 2
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("tcgplayer request: %w", err)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("tcgplayer: %w: %v", ErrUnavailable, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastStatus = resp.StatusCode
			resp.Body.Close()
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("tcgplayer status %d after %d attempts: %w",
		lastStatus, tcgMaxAttempts, ErrUnavailable)
}

// findProduct searches the catalog for the card and picks the product
// whose extended Set Code matches the lookup, falling back to the
// first search result.
func (t *TCGplayer) findProduct(ctx context.Context, token string, look Lookup) (int64, error) {
	query := url.Values{
		"categoryId":        {fmt.Sprint(tcgCategoryMagic)},
		"productName":       {look.Name},
		"getExtendedFields": {"true"},
	}

	resp, err := t.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			t.baseURL+"/catalog/products?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "bearer "+token)
		return req, nil
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("tcgplayer %q: %w", look.Name, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tcgplayer catalog status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var payload struct {
		Results []struct {
			ProductID    int64 `json:"productId"`
			ExtendedData []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"extendedData"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("tcgplayer catalog decode: %w", err)
	}
	if len(payload.Results) == 0 {
		return 0, fmt.Errorf("tcgplayer %q: %w", look.Name, ErrNotFound)
	}

	if look.SetCode != "" {
		for _, product := range payload.Results {
			for _, ext := range product.ExtendedData {
				if ext.Name == "Set Code" && strings.EqualFold(ext.Value, look.SetCode) {
					return product.ProductID, nil
				}
			}
		}
	}
	return payload.Results[0].ProductID, nil
}

// marketPrice fetches the market price for a product. A product with
// no market price is a valid answer, reported as ok=false.
func (t *TCGplayer) marketPrice(ctx context.Context, token string, productID int64) (float64, bool, error) {
	resp, err := t.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/pricing/product/%d", t.baseURL, productID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "bearer "+token)
		return req, nil
	})
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("tcgplayer pricing status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var payload struct {
		Results []struct {
			MarketPrice *float64 `json:"marketPrice"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, false, fmt.Errorf("tcgplayer pricing decode: %w", err)
	}
	for _, result := range payload.Results {
		if result.MarketPrice != nil {
			return *result.MarketPrice, true, nil
		}
	}
	return 0, false, nil
}
