// Package main hosts the card-sorter CLI entrypoint and command graph.
//
// The Cobra-based command tree wires the capture, geometry, extraction,
// identity, pricing, routing, and actuation packages into the sorter
// worker (run, scan), and surfaces the persisted runtime settings and
// the cycle log for inspection and control (bins, set, status, prices,
// config). Configuration resolution and logger construction happen
// once here so subcommands stay declarative.
package main
