// Package capture is the frame acquisition boundary.
//
// The sorter core never talks to a camera. A Source yields successive
// frames on demand; the shipped implementations read image files from
// a spool directory (where an external camera process drops captures)
// or a single file for one-shot scans. Anything that produces images
// can stand in behind the interface.
package capture
