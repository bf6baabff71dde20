// Package base holds the cgo-free value types shared by the data model,
// the mapper and the renderer.
package base

import "sync/atomic"

var globalTime atomic.Uint64

// TimeStamp records when an object was last modified. Stamps come from one
// process-wide counter, so stamps of different objects are comparable.
type TimeStamp struct {
	t uint64
}

// Modified sets the stamp to a fresh value, later than every stamp taken so far.
func (ts *TimeStamp) Modified() {
	ts.t = globalTime.Add(1)
}

// Time returns the raw counter value; zero means never modified.
func (ts TimeStamp) Time() uint64 {
	return ts.t
}

// Before reports whether ts was stamped before other.
func (ts TimeStamp) Before(other TimeStamp) bool {
	return ts.t < other.t
}

// Now returns a stamp later than every stamp taken so far.
func Now() TimeStamp {
	var ts TimeStamp
	ts.Modified()
	return ts
}
