// Package fetch implements one Fetcher per municipal open-data source:
// geo-bounded SODA JSON APIs (code violations, permits, unreinforced
// masonry), a geographic-circle SODA feed (fire calls), a four-way parcel
// enrichment join across an ArcGIS feature service and two bulk CSV-in-ZIP
// downloads, and a best-effort CSV export fetcher for recent sales.
//
// Every fetcher's Pages method is a range-over-func iterator that yields
// finite batches of Record and, if retrieval fails, a non-nil error as its
// last element, mirroring the upstream collector's paginate() generators.
package fetch
