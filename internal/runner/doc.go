// Package runner wires config, fetchers, the ingestion orchestrator, and
// the scorer into the three commands cmd/pipeline exposes: a full ingest
// run, a single-source ingest run, and a rescore-only pass. It also
// renders the human-readable end-of-run summary.
package runner
