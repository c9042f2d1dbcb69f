// Package preflight provides readiness checks for the paths, credentials,
// source lists and persisted state tubepulse depends on.
//
// The CLI "tubepulse doctor" command runs RunAll and prints one line per
// check. The serve command runs the same checks at startup and logs any
// failure without refusing to start, since the dashboard can still show
// the last snapshot.
package preflight
