// Package journal persists a record of each bootstrap run: the session, its
// state transitions, and every launch outcome.
//
// The journal is diagnostic, not authoritative: the sequencer works entirely
// from in-memory handles and treats journal write failures as non-fatal. The
// CLI status and history views read it back.
package journal
