// Package main hosts the stagehand CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full session lifecycle: `up` runs
// the bootstrap sequence, `down` tears the session back down, `status` shows
// preflight state and recorded history, `plan` previews the launch table, and
// `config` scaffolds and inspects configuration. Configuration resolution and
// logger construction are centralized here so subcommands focus on output.
//
// Keep this package lean: new behavior belongs in the internal packages
// first, surfaced here through dedicated commands or flags.
package main
