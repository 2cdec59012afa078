// Package clock provides an overridable source of the current time so tests
// can assert on timestamps without sleeping or racing the wall clock.
package clock

import "time"

// Func returns the current UTC time. Tests may reassign it; production code
// never should.
var Func = func() time.Time {
	return time.Now().UTC()
}

// Now returns the current time from Func.
func Now() time.Time {
	return Func().UTC()
}
