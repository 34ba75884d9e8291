// Package survey implements survey management and NPS response ingestion.
//
// The service validates submissions before they reach storage, so the
// scoring engine can assume every stored score is within 0-10. It depends
// on the repository interface defined in this package and never imports
// from the HTTP layer.
package survey
