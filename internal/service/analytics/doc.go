// Package analytics derives campaign engagement metrics from the recipient
// ledger and the append-only tracking event log.
//
// Nothing here is cached or incrementally maintained: every read recomputes
// from the source of truth, so the numbers can never drift from the events
// that produced them. Counters count recipients, not raw events - a
// recipient who opens an email three times contributes one to opened_count.
package analytics
