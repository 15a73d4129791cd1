// Package preflight provides readiness checks for the launch table and the
// filesystem locations the bootstrap depends on.
//
// These checks run in two contexts:
//   - "stagehand up" runs them before sequencing so a missing required
//     executable fails fast with a clear message instead of mid-bootstrap.
//   - "stagehand status" uses them to display environment health.
//
// A missing optional daemon is a warning, never a failure; the policy mirrors
// the sequencer's required/optional split.
package preflight
