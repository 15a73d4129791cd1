// Package config loads, normalizes, and validates stagehand configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DISPLAY. The Config type centralizes the device node table, the daemon
// launch table, runtime directory candidates, readiness gate settings, and
// the session environment, so the sequencer and CLI discover everything in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, resolved log and PID file locations, and clear validation
// errors.
package config
