// Package main hosts the tubepulse CLI entrypoint and command graph.
//
// The Cobra command tree covers the interactive menu, one-shot refreshes
// (capture, track, discover), ranking output, the dashboard server, the
// remote trigger client, source list import, configuration scaffolding and
// readiness checks. Snapshot, ranking and refresh logic lives in the
// internal packages; commands here only wire them to flags and terminals.
package main
