// Package readiness implements the bounded polling gate between launching
// the display server and starting the daemons that need it usable.
//
// The gate is a fixed-interval retry with a hard attempt budget, never an
// unbounded backoff: a session that starts slightly too early beats one that
// never starts because a probe cannot be satisfied (headless runs, unusual
// display configurations). Exhausting the budget returns false, not an
// error; the caller decides whether that matters.
package readiness
