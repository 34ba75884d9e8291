// Package nps implements Net Promoter Score classification and scoring.
//
// The engine is pure: it operates on response scores already validated at
// ingestion (0-10 inclusive) and holds no storage or transport concerns.
package nps
