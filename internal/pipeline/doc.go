// Package pipeline runs the sort cycle: acquire a frame, find and
// normalize the card, read its title, resolve its identity, price it,
// and route it to a bin.
//
// One observation is fully processed before the next begins; there is
// no parallel frame processing. Runtime settings are snapshotted once
// at the start of each cycle, so CLI changes land between cycles,
// never inside one. A cycle runs to completion or to one of its
// defined degraded outcomes; cancellation is honored between cycles
// and while waiting on the frame source, not mid-cycle.
//
// Every stage degrades instead of failing: a missed detection, an
// unreadable title, an unknown name, or an unpriced card each flow
// downstream as absent values that the routing engine still turns into
// a usable decision. Low-confidence extraction earns exactly one
// rescan per cycle.
package pipeline
