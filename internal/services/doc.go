// Package services defines the error markers shared by the builders, the
// YouTube client, the refresh runner, and the web layer.
//
// Wrap tags a failure with one of the sentinel errors so callers can classify
// it with errors.Is: configuration problems propagate and abort a run,
// transient collaborator failures are logged and skipped, and HTTPStatus turns
// a tagged error into the code the dashboard returns.
package services
