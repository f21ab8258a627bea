// Package config loads and validates the card-sorter configuration.
//
// Configuration lives in a TOML file, by default at
// ~/.config/card-sorter/config.toml. Load applies repository defaults,
// overlays the file when present, expands home-relative paths, and
// validates the result. Malformed values are rejected here so the rest
// of the program never sees them.
//
// Mutable runtime settings (sorting mode, price threshold, disabled
// bins) live in internal/state, not here; this package holds only the
// static deployment shape.
package config
