// Package state persists the sorter's mutable runtime settings.
//
// The sorting mode, price threshold, source preference, and disabled
// bin set change from the CLI while the worker is running, so they
// live here rather than in the static configuration. The state file is
// JSON, written atomically (temp file then rename) on every mutation.
// Per-bin sort counts and the last actuated bin ride along for the
// status display.
//
// The worker reads a Snapshot once at the start of each cycle and acts
// on that copy for the whole cycle, so mid-cycle CLI changes never
// tear a decision.
package state
