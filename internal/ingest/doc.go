// Package ingest drives one pipeline run: for each selected source it pages
// through a fetch.Fetcher, normalizes and upserts every record into the
// store, and audits the results for likely-duplicate addresses before
// moving to the next source. It plays the role the teacher's
// internal/pipeline.Pipeline plays for a Kafka stream, but the stages run
// per page within a finite source rather than forever against a topic.
package ingest
