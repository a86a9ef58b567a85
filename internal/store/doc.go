// Package store is the embedded transactional backing store for the
// pipeline: properties, signals, normalization issues, and run bookkeeping
// in a single SQLite file, opened with WAL journaling and foreign-key
// enforcement on.
//
// Every write method here is a single statement (upsert_property,
// upsert_signal) so it is atomic on its own; the orchestrator wraps a
// page's worth of upserts in an explicit transaction via WithTx to bound
// in-flight state and commit once per page.
package store
