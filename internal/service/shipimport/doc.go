// Package shipimport implements the shipment import service: preview,
// commit and the two retry operations over persisted import runs.
//
// A run loads one reference snapshot, walks the rows in fixed-size batches
// and produces exactly one outcome per row. Rows never abort the run: any
// failure, including a panic, is recorded as a FAILED outcome and the next
// row proceeds. Summaries are always recomputed from outcomes.
//
// The service depends only on the interfaces in repository.go. It never
// imports net/http or database/sql directly.
package shipimport
