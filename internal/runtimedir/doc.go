// Package runtimedir selects and claims the session-scoped writable
// directory that holds PID files, sockets, and the session lock.
//
// Selection prefers the primary candidate, verified with a zero-byte probe
// write, and falls back to a secondary candidate on any failure. The
// fallback is returned unconditionally so the orchestrator always obtains a
// usable directory even under restrictive root-filesystem permissions;
// availability wins over strictness here.
package runtimedir
