// Package web serves the top-movers dashboard, a JSON ranking API, and the
// token-protected remote refresh endpoint used by schedulers.
package web
