// Package bootstrap sequences the graphical session startup: device node
// provisioning, runtime directory selection, staged daemon launches, and the
// readiness gate before display-dependent daemons.
//
// The state machine is strictly linear. The only branch is the
// fatal-vs-optional policy: a required daemon that fails to spawn (or an
// unobtainable runtime directory) aborts the sequence and names the failing
// state; every other failure is logged and the sequence continues in a
// degraded session. The sequencer itself never waits for the session to end.
package bootstrap
