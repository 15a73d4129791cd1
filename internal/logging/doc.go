// Package logging builds slog loggers for the stagehand CLI and bootstrap
// sequencer.
//
// It offers a human-readable console handler for interactive use and a JSON
// handler for log files, plus small attribute helpers so call sites stay
// terse. Component loggers carry a standardized "component" attribute that the
// console handler renders as a message prefix.
package logging
