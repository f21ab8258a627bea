// Package actuate is the bin hardware boundary.
//
// An Actuator accepts a logical bin and performs the mechanical motion
// that drops the current card into it. The shipped implementation
// speaks a line protocol over a serial character device to the servo
// controller; a Nop stands in when the hardware is absent so the rest
// of the pipeline behaves identically either way.
package actuate
