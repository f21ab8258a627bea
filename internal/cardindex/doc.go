// Package cardindex resolves extracted card names against a static,
// in-memory card index.
//
// The index is loaded once at startup from a JSON file and never
// mutated afterwards, so lookups need no locking. Matching is
// deliberately conservative: exact name first, then a case-insensitive
// and whitespace-normalized comparison. Anything looser is the job of a
// substitute Matcher; the resolver never guesses.
//
// Reprints (multiple entries sharing a name) resolve to the first entry
// in index order unless the caller supplies a set or collector-number
// hint. Any reprint is an acceptable representative: pricing and color
// identity are looked up per printing downstream.
package cardindex
