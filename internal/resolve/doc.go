// Package resolve maps a normalized row's free-text references onto the
// reference catalogue: department and locality through a fixed-priority
// state machine, and agency and service type through exact lookups with
// user overrides.
//
// Resolution never fails a row by itself except for the locality invariant:
// a row must end with exactly one of a locality id or manual locality text.
package resolve
