// Package ledger implements the per-campaign recipient ledger.
//
// The ledger is the authoritative record of each recipient's delivery and
// engagement state, fed by the dispatch path and by asynchronous provider
// callbacks. Two structures are kept deliberately separate: the mutable
// per-recipient status (a lattice that only moves forward) and the
// append-only tracking event log. Status answers "where is this recipient
// now"; the log answers "what happened and when".
//
// Callbacks arrive out of order. A clicked event may land before its
// delivered event; the ledger accepts everything and normalizes by joining
// the incoming state into the current one, never moving backward.
package ledger
