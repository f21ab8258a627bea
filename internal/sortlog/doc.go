// Package sortlog persists one record per completed sort cycle.
//
// The log is an SQLite database so diagnostic tooling can query it
// while the worker appends. Each record captures what was recognized,
// what it was worth, and where it went, including the diagnostic flags
// the routing engine attached.
package sortlog
