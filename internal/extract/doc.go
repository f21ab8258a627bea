// Package extract reads the title text off a normalized card image.
//
// Printed card titles vary wildly in foil sheen, typeface era, and
// frame color, so no single preprocessing recipe recognizes them all.
// The extractor instead fans out over a grid of strategies: each
// strategy pairs one preprocessed rendering of the title band (Otsu
// binary, mean-adaptive binary, or contrast-enhanced grayscale) with
// one recognition preset (uniform block, single line, or the legacy
// engine). Every strategy runs, candidates are normalized and
// validated, and the highest mean confidence among valid candidates
// wins.
//
// The title band is addressed in frame fractions so the same region
// works at any capture resolution.
package extract
