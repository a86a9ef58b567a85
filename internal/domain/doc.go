// Package domain models the properties, signals, and normalization rules
// shared by every fetcher and by the scorer.
//
// # Address normalization
//
// Cross-source matching depends on a canonical address string since the
// same parcel shows up with different spellings in different Seattle and
// King County datasets ("5812 SW Spokane St" vs "5812 South West Spokane
// Street" vs "5812 S.W. SPOKANE ST, SEATTLE, WA 98106"). [NormalizeAddress]
// runs an ordered sequence of passes — city/state/zip stripping, unit
// removal, directional collapsing, suffix rewriting, ordinal rewriting —
// and is deterministic and idempotent: normalizing an already-normalized
// address returns it unchanged. See [NormalizeAddress] for the pass order.
//
// # Signal types
//
// Signals are free-form strings rather than a closed enum because new
// source fetchers routinely introduce new distress indicators without a
// corresponding schema migration. The constants in signaltype.go name the
// ones the shipped fetchers emit; the scoring config is the actual source
// of truth for which signal types carry weight.
package domain
