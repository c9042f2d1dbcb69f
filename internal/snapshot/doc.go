// Package snapshot defines the persisted statistics document: a timestamped
// mapping of entity keys to per-video counters, plus the delta fields the
// delta engine annotates onto each entity.
//
// Numeric deltas use Value, which distinguishes an available number from
// NotAvailable (no baseline) and from a field that was never annotated.
package snapshot
