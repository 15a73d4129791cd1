// Package launcher starts session daemons as detached background processes.
//
// Launch returns as soon as the operating system confirms process creation:
// it never waits for a daemon to finish initializing. The gap between "the
// next launch call" and "the previous daemon's internal readiness" is closed
// by the readiness package for the steps that need it.
//
// Each launch redirects the daemon's combined output to a per-daemon log
// file and serializes the handle's PID into a PID file; the Handle value is
// the primary representation, the PID file merely its persisted record.
package launcher
