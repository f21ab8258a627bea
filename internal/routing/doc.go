// Package routing decides which physical output bin a processed card
// belongs in.
//
// The decision is a pure function of one cycle's evidence: sorting mode,
// price quote, color identity, recognition confidence, and the operator's
// bin-enable policy. No state is carried between cycles; calling Decide
// twice with the same Input always yields the same Decision.
//
// # Decision order
//
// The policy is evaluated strictly in order:
//
//  1. Unresolved identity routes to the combined bin (flag: unrecognized).
//  2. Low confidence on the first attempt requests one rescan instead of
//     emitting a decision.
//  3. Low confidence after the rescan routes to the combined bin
//     (flag: low_confidence).
//  4. The mode rule picks a candidate bin (price, color, or mixed).
//  5. An absent price adds the unpriced flag regardless of the chosen bin.
//  6. A disabled candidate bin reroutes to the combined bin
//     (flag: disabled_reroute).
//
// The price comparison is inclusive: a price exactly at the threshold
// routes to the price bin. Color bins only ever receive mono-colored
// cards; multicolor and colorless cards go to the combined bin so the
// per-color bins stay pure.
package routing
