// Package teardown terminates the daemons a previous bootstrap recorded.
//
// The launcher is fire-and-forget, so shutdown works from the persisted
// record: each PID file in the runtime directory is read, its process sent
// SIGTERM, and stragglers killed after a bounded grace period. Teardown is
// best-effort per daemon; a PID that no longer exists just means the daemon
// already exited.
package teardown
