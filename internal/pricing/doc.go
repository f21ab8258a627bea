// Package pricing resolves market prices for identified cards.
//
// Resolution is cache-first: quotes are kept in an injected store keyed
// by (name, set code) and served without network interaction until
// their TTL lapses. On a miss the service walks a ranked list of
// providers, Scryfall by default with TCGplayer as fallback, and stores
// whatever came back, priced or not. Both providers failing is not an
// error: the cycle proceeds with an unpriced quote and the routing
// layer flags it.
//
// Outbound requests to Scryfall are throttled process-wide to a minimum
// inter-request interval in deference to its published rate limits. The
// TCGplayer provider performs its own client-credential token exchange,
// refreshing transparently and retrying transient failures with backoff;
// a permanent credential problem degrades to "source unavailable".
package pricing
